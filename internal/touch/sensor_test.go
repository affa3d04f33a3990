package touch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// scriptPort returns one scripted value per Read, then rest forever.
type scriptPort struct {
	script []uint8
	rest   uint8
	reads  int
}

func (p *scriptPort) Read() uint8 {
	p.reads++
	if len(p.script) == 0 {
		return p.rest
	}
	v := p.script[0]
	p.script = p.script[1:]
	return v
}

func runTicks(s *Sensor, n int) {
	for i := 0; i < n; i++ {
		s.OnTick()
	}
}

func TestDecideThresholdIsExact(t *testing.T) {
	const threshold = 20
	tests := []struct {
		rx      uint8
		pressed bool
	}{
		{0, false},
		{1, false},
		{threshold - 1, false},
		{threshold, false},
		{threshold + 1, true},
		{255, true},
	}
	for _, tt := range tests {
		for ch := 0; ch < NumChannels; ch++ {
			var rx [NumChannels]uint8
			rx[ch] = tt.rx
			got := Decide(rx, threshold)
			want := uint8(0)
			if tt.pressed {
				want = 1 << ch
			}
			assert.Equal(t, want, got, "rx=%d channel=%d", tt.rx, ch)
		}
	}
}

func TestUnreturnedChannelReportsPressed(t *testing.T) {
	// Right and Down return on the first sample, Left and Middle on the
	// second, Up never does.
	port := &scriptPort{script: []uint8{0b00110, 0b11000}}
	s := NewSensor(Config{PressThreshold: 4, OnTicks: 2, CycleTicks: 10}, port, nil)

	runTicks(s, 10)
	assert.Equal(t, [NumChannels]uint8{10, 1, 1, 2, 2}, s.RxTimes())
	assert.Equal(t, uint8(0), s.State(), "no decision before the boundary")

	s.OnTick()
	assert.Equal(t, uint8(0b00001), s.State())
	assert.True(t, s.Pressed(Up))
	assert.False(t, s.Pressed(Left))
	assert.Equal(t, 9, port.reads, "boundary ticks do not sample")
}

func TestRxTimesResetAfterDecision(t *testing.T) {
	port := &scriptPort{}
	s := NewSensor(Config{PressThreshold: 4, OnTicks: 2, CycleTicks: 10}, port, nil)
	runTicks(s, 10)
	assert.Equal(t, [NumChannels]uint8{10, 10, 10, 10, 10}, s.RxTimes())

	s.OnTick()
	assert.Equal(t, [NumChannels]uint8{1, 1, 1, 1, 1}, s.RxTimes())
	assert.Equal(t, Mask, s.State(), "disconnected pads read as all pressed")
	assert.Equal(t, uint64(2), s.Cycles())
}

func TestMaskBitOrderActiveLow(t *testing.T) {
	// Pull-ups: a line reads high until its return pulls it low. Up and
	// Left stay high for the whole cycle.
	port := &scriptPort{rest: Up.Bit() | Left.Bit()}
	s := NewSensor(Config{PressThreshold: 4, OnTicks: 2, CycleTicks: 10, ActiveLow: true}, port, nil)
	runTicks(s, 11)
	assert.Equal(t, uint8(0b01001), s.State())
}

func TestSampleRawShiftAndPolarity(t *testing.T) {
	tests := []struct {
		name      string
		activeLow bool
		shift     uint8
		raw       uint8
		want      uint8
	}{
		{"plain", false, 0, 0b10101, 0b10101},
		{"high bits ignored", false, 0, 0b11100001, 0b00001},
		{"shifted like P2.2-P2.6", false, 2, 0b01111100, 0b11111},
		{"inverted", true, 0, 0b11111110, 0b00001},
		{"inverted shifted", true, 2, ^uint8(0b00100000), 0b01000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSensor(Config{PressThreshold: 4, OnTicks: 1, CycleTicks: 4, ActiveLow: tt.activeLow, Shift: tt.shift},
				&scriptPort{rest: tt.raw}, nil)
			assert.Equal(t, tt.want, s.SampleRaw())
		})
	}
}

func TestReturnedIsStickyWithinCycle(t *testing.T) {
	// Up returns on the first sample then its line drops again; it must not
	// start aging once it has been seen.
	port := &scriptPort{script: []uint8{0b00001}}
	s := NewSensor(Config{PressThreshold: 4, OnTicks: 2, CycleTicks: 10}, port, nil)
	runTicks(s, 11)
	assert.Equal(t, Mask&^Up.Bit(), s.State())
}

func TestOverwriteReleasesNextCycle(t *testing.T) {
	port := &scriptPort{}
	s := NewSensor(Config{PressThreshold: 4, OnTicks: 2, CycleTicks: 10}, port, nil)
	runTicks(s, 11)
	require.Equal(t, Mask, s.State())

	port.rest = Mask
	runTicks(s, 10)
	assert.Equal(t, uint8(0), s.State())
}

func TestAndNeedsTwoCycles(t *testing.T) {
	port := &scriptPort{rest: Mask &^ Middle.Bit()}
	s := NewSensor(Config{PressThreshold: 4, OnTicks: 2, CycleTicks: 10, Combine: And}, port, nil)

	runTicks(s, 11)
	assert.Equal(t, uint8(0), s.State(), "first pressed cycle is held back")
	runTicks(s, 10)
	assert.Equal(t, Middle.Bit(), s.State())

	port.rest = Mask
	runTicks(s, 10)
	assert.Equal(t, uint8(0), s.State(), "release is immediate")
}

func TestPulsePinFollowsCycle(t *testing.T) {
	pin := &gpiotest.Pin{N: "PULSE", Num: 12}
	s := NewSensor(Config{PressThreshold: 4, OnTicks: 2, CycleTicks: 10}, &scriptPort{rest: Mask}, pin)
	s.OnTick()
	assert.Equal(t, gpio.High, pin.Read())
	s.OnTick()
	assert.Equal(t, gpio.High, pin.Read())
	s.OnTick()
	assert.Equal(t, gpio.Low, pin.Read())
}

func TestPinPort(t *testing.T) {
	pins := []gpio.PinIn{
		&gpiotest.Pin{N: "UP", L: gpio.High},
		&gpiotest.Pin{N: "RIGHT", L: gpio.Low},
		&gpiotest.Pin{N: "DOWN", L: gpio.Low},
		&gpiotest.Pin{N: "LEFT", L: gpio.High},
		&gpiotest.Pin{N: "MIDDLE", L: gpio.Low},
	}
	assert.Equal(t, uint8(0b01001), NewPinPort(0, pins...).Read())
	assert.Equal(t, uint8(0b00100100), NewPinPort(2, pins...).Read())
}

func TestOpenPins(t *testing.T) {
	names := [NumChannels]string{"CAPT_UP", "CAPT_RIGHT", "CAPT_DOWN", "CAPT_LEFT", "CAPT_MIDDLE"}
	for i, n := range names {
		require.NoError(t, gpioreg.Register(&gpiotest.Pin{N: n, Num: 900 + i}))
	}
	defer func() {
		for _, n := range names {
			_ = gpioreg.Unregister(n)
		}
	}()

	pins, err := OpenPins(names, gpio.PullUp)
	require.NoError(t, err)
	assert.Len(t, pins, NumChannels)

	_, err = OpenPins([NumChannels]string{"CAPT_UP", "MISSING"}, gpio.PullUp)
	assert.Error(t, err)
}
