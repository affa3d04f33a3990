// Package touch turns pulse return timing on five capacitive sense lines into
// a debounced button mask.
//
// Each cycle the pulse timer drives the excitation pin high. Every following
// tick the input port is sampled and any channel that has not yet seen its
// return pulse accumulates one tick of rx time. A finger on a pad adds
// capacitance, which delays or damps the return, so the channel runs up a
// large rx time. At the next cycle boundary every channel whose rx time
// exceeds the press threshold is reported pressed.
package touch

import (
	"sync/atomic"

	"github.com/coreman2200/funtimes-capgame/internal/pulse"
)

// Channel identifies one sense pad; the value is its bit in the mask.
type Channel uint8

const (
	Up Channel = iota
	Right
	Down
	Left
	Middle
)

const NumChannels = 5

// Mask covers the meaningful bits of a button mask.
const Mask uint8 = 1<<NumChannels - 1

// rxReset is the rx time every channel restarts from after a decision.
const rxReset uint8 = 1

func (c Channel) Bit() uint8 { return 1 << c }

func (c Channel) String() string {
	switch c {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	case Middle:
		return "middle"
	}
	return "invalid"
}

// Combine selects how a new decision merges with the previous one.
type Combine uint8

const (
	// Overwrite commits each cycle's decision as is.
	Overwrite Combine = iota
	// And commits a press only when two consecutive cycles agree on it.
	And
)

// Port reads the raw sense input lines, one bit per line.
type Port interface {
	Read() uint8
}

type Config struct {
	PressThreshold uint8
	OnTicks        uint16
	CycleTicks     uint16
	Combine        Combine
	// ActiveLow inverts the port so that a returned pulse reads as 1, for
	// lines held up by pull-up resistors.
	ActiveLow bool
	// Shift is the bit position of Up in the raw port value.
	Shift uint8
}

// Sensor owns the channel rx times and the pulse cycle. OnTick is the only
// writer; State may be read from any goroutine.
type Sensor struct {
	port      Port
	timer     *pulse.Timer
	threshold uint8
	combine   Combine
	activeLow bool
	shift     uint8

	rx       [NumChannels]uint8
	returned uint8
	lastRaw  uint8 // previous cycle's un-combined decision

	state  atomic.Uint32
	cycles atomic.Uint64
}

// NewSensor builds a sensor that drives out (may be nil) with the pulse
// and samples port.
func NewSensor(cfg Config, port Port, out pulse.Output) *Sensor {
	s := &Sensor{
		port:      port,
		timer:     pulse.New(cfg.OnTicks, cfg.CycleTicks, out),
		threshold: cfg.PressThreshold,
		combine:   cfg.Combine,
		activeLow: cfg.ActiveLow,
		shift:     cfg.Shift,
	}
	s.resetRx()
	return s
}

// SampleRaw reads the port, normalizes it so 1 means "return pulse seen",
// and folds the result into this cycle's returned set.
func (s *Sensor) SampleRaw() uint8 {
	raw := s.port.Read()
	if s.activeLow {
		raw = ^raw
	}
	bits := (raw >> s.shift) & Mask
	s.returned |= bits
	return bits
}

// OnTick runs once per timer tick. At the cycle boundary it commits the
// decision for the cycle just finished and arms the next pulse; on every
// other tick it samples the port and ages the unreturned channels.
func (s *Sensor) OnTick() {
	if s.timer.Phase() == pulse.Idle {
		s.commit(Decide(s.rx, s.threshold))
		s.resetRx()
		s.timer.Tick()
		return
	}
	s.SampleRaw()
	for i := range s.rx {
		if s.returned&(1<<i) == 0 && s.rx[i] < ^uint8(0) {
			s.rx[i]++
		}
	}
	s.timer.Tick()
}

// State is the last committed pressed mask, bit 0 = Up .. bit 4 = Middle.
func (s *Sensor) State() uint8 {
	return uint8(s.state.Load())
}

func (s *Sensor) Pressed(c Channel) bool {
	return s.State()&c.Bit() != 0
}

// Cycles counts committed decisions.
func (s *Sensor) Cycles() uint64 {
	return s.cycles.Load()
}

// RxTimes is a copy of the per-channel rx times of the running cycle.
func (s *Sensor) RxTimes() [NumChannels]uint8 {
	return s.rx
}

func (s *Sensor) Timer() *pulse.Timer { return s.timer }

// Decide thresholds rx times into a mask: a channel is pressed when its
// rx time is strictly greater than threshold.
func Decide(rx [NumChannels]uint8, threshold uint8) uint8 {
	var m uint8
	for i := NumChannels - 1; i >= 0; i-- {
		m <<= 1
		if rx[i] > threshold {
			m |= 1
		}
	}
	return m
}

func (s *Sensor) commit(decision uint8) {
	next := decision
	if s.combine == And {
		next = decision & s.lastRaw
	}
	s.lastRaw = decision
	s.state.Store(uint32(next))
	s.cycles.Add(1)
}

func (s *Sensor) resetRx() {
	for i := range s.rx {
		s.rx[i] = rxReset
	}
	s.returned = 0
}
