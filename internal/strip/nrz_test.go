package strip

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

const (
	hi = 0xF0
	lo = 0xC0
)

// symbolsFor spells out the expected wire bytes of one data byte.
func symbolsFor(v byte) []byte {
	out := make([]byte, 0, 8)
	for mask := byte(0x80); mask != 0; mask >>= 1 {
		if v&mask != 0 {
			out = append(out, hi)
		} else {
			out = append(out, lo)
		}
	}
	return out
}

func expectCell(c Color, brightness uint8) []byte {
	v := Expand(c, brightness)
	out := symbolsFor(v.G)
	out = append(out, symbolsFor(v.R)...)
	return append(out, symbolsFor(v.B)...)
}

func recordConn(t *testing.T, buf *bytes.Buffer) spi.Conn {
	t.Helper()
	c, err := spitest.NewRecordRaw(buf).Connect(6400*physic.KiloHertz, spi.Mode0, 8)
	require.NoError(t, err)
	return c
}

type countingMask struct{ n int }

func (m *countingMask) Critical(f func()) { m.n++; f() }

func TestEncoderLUT(t *testing.T) {
	e := NewEncoder(DefaultCodes, 1)
	for _, v := range []int{0x00, 0x01, 0x18, 0x80, 0xA5, 0xFF} {
		assert.Equal(t, symbolsFor(byte(v)), e.lut[v][:], "byte %#02x", v)
	}
}

func TestRefreshEightLEDs(t *testing.T) {
	cells := []Color{Red, Red, Off, Off, Green, Green, Blue, Blue}
	buf := bytes.Buffer{}
	mask := &countingMask{}
	d, err := NewNRZ(recordConn(t, &buf), NRZOpts{
		Count: len(cells), Codes: DefaultCodes, Brightness: 3, SpeedHz: 6400000, Reset: 50 * time.Microsecond,
	}, mask)
	require.NoError(t, err)

	require.NoError(t, d.Refresh(cells))
	assert.Equal(t, 1, mask.n, "one masked transaction per frame")

	wire := buf.Bytes()
	require.Len(t, wire, d.FrameLen())
	symbols, tail := wire[:192], wire[192:]

	var want []byte
	for _, c := range cells {
		want = append(want, expectCell(c, 3)...)
	}
	assert.Equal(t, want, symbols)

	// red row: green byte all short, red byte 0x18, blue all short
	red := append(append(bytes.Repeat([]byte{lo}, 8), lo, lo, lo, hi, hi, lo, lo, lo), bytes.Repeat([]byte{lo}, 8)...)
	assert.Equal(t, red, symbols[0:24])
	assert.Equal(t, red, symbols[24:48])
	assert.Equal(t, bytes.Repeat([]byte{lo}, 48), symbols[48:96], "off cells are all short pulses")

	for _, b := range symbols {
		assert.True(t, b == hi || b == lo, "symbol %#02x", b)
	}
	// 50us at 1.25us per byte
	assert.Len(t, tail, 40)
	assert.Equal(t, make([]byte, 40), tail)
}

func TestRefreshSymbolCountAndOrder(t *testing.T) {
	for _, n := range []int{1, 3, 128} {
		cells := make([]Color, n)
		for i := range cells {
			cells[i] = Color(i % int(numColors))
		}
		buf := bytes.Buffer{}
		d, err := NewNRZ(recordConn(t, &buf), NRZOpts{Count: n, Codes: DefaultCodes, Brightness: 3, SpeedHz: 6400000}, nil)
		require.NoError(t, err)
		require.NoError(t, d.Refresh(cells))

		wire := buf.Bytes()
		require.Len(t, wire, 3*8*n, "no latch tail without a reset time")
		for i, c := range cells {
			assert.Equal(t, expectCell(c, 3), wire[i*24:(i+1)*24], "cell %d", i)
		}
	}
}

func TestRefreshRejectsWrongLength(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := NewNRZ(recordConn(t, &buf), NRZOpts{Count: 4, Codes: DefaultCodes, Brightness: 1, SpeedHz: 6400000}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, d.Refresh(make([]Color, 3)), ErrFrameLength)
	assert.Zero(t, buf.Len())
}

type failConn struct{}

func (failConn) Tx(w, r []byte) error { return errors.New("spi gone") }

func TestRefreshWrapsTxError(t *testing.T) {
	d, err := NewNRZ(failConn{}, NRZOpts{Count: 1, Codes: DefaultCodes, SpeedHz: 6400000}, nil)
	require.NoError(t, err)
	err = d.Refresh([]Color{Red})
	assert.ErrorContains(t, err, "spi gone")
}

type limitedConn struct {
	failConn
	max int
}

func (l limitedConn) MaxTxSize() int { return l.max }

func TestNewNRZChecksTransferLimit(t *testing.T) {
	_, err := NewNRZ(limitedConn{max: 4096}, NRZOpts{Count: 128, Codes: DefaultCodes, SpeedHz: 6400000, Reset: 50 * time.Microsecond}, nil)
	assert.NoError(t, err)
	_, err = NewNRZ(limitedConn{max: 1024}, NRZOpts{Count: 128, Codes: DefaultCodes, SpeedHz: 6400000}, nil)
	assert.Error(t, err)
	_, err = NewNRZ(failConn{}, NRZOpts{Count: 0}, nil)
	assert.Error(t, err)
}

func TestCheckTiming(t *testing.T) {
	tm := CheckTiming(DefaultCodes, 6400000)
	assert.InDelta(t, 156.25, tm.BitNs, 0.01)
	assert.InDelta(t, 1250, tm.ByteNs, 0.01)
	assert.InDelta(t, 625, tm.HighNs, 0.01)
	assert.InDelta(t, 312.5, tm.LowNs, 0.01)
	assert.True(t, tm.HighOK())
	assert.True(t, tm.LowOK())

	slow := CheckTiming(DefaultCodes, 1000000)
	assert.False(t, slow.HighOK())
	assert.False(t, slow.LowOK())

	assert.Equal(t, Timing{}, CheckTiming(DefaultCodes, 0))
}

func TestLatchBytes(t *testing.T) {
	assert.Equal(t, 40, latchBytes(50*time.Microsecond, 6400000))
	assert.Equal(t, 41, latchBytes(50*time.Microsecond+time.Nanosecond, 6400000))
	assert.Equal(t, 0, latchBytes(0, 6400000))
}

func TestRefreshPlayback(t *testing.T) {
	want := expectCell(Blue, 1)
	want = append(want, make([]byte, 40)...)
	p := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{{W: want}},
		},
	}
	c, err := p.Connect(6400*physic.KiloHertz, spi.Mode0, 8)
	require.NoError(t, err)
	d, err := NewNRZ(c, NRZOpts{Count: 1, Codes: DefaultCodes, Brightness: 1, SpeedHz: 6400000, Reset: 50 * time.Microsecond}, nil)
	require.NoError(t, err)

	require.NoError(t, d.Refresh([]Color{Blue}))
	assert.NoError(t, p.Close(), "every recorded transaction was sent")
}
