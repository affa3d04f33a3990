// Package pulse generates the capacitive sense excitation: a pulse held high
// for OnTicks timer ticks, then low until CycleTicks ticks have elapsed.
//
// The period must be long enough that the slowest (highest capacitance)
// channel's return settles before the next pulse goes out, otherwise a stale
// return from cycle N-1 is read as an early return in cycle N.
package pulse

import "periph.io/x/conn/v3/gpio"

type Phase uint8

const (
	Idle Phase = iota // pulse_time == 0, decision + new pulse
	High              // 0 < pulse_time < on
	Low               // on <= pulse_time < cycle
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case High:
		return "high"
	case Low:
		return "low"
	}
	return "unknown"
}

// Output is the part of gpio.PinOut the timer drives.
type Output interface {
	Out(l gpio.Level) error
}

type Timer struct {
	on    uint16
	cycle uint16
	now   uint16
	out   Output
	errs  uint32
}

// New returns a timer at the start of a cycle. out may be nil when the
// excitation comes from a hardware PWM channel.
func New(onTicks, cycleTicks uint16, out Output) *Timer {
	if cycleTicks < 2 {
		cycleTicks = 2
	}
	if onTicks == 0 || onTicks >= cycleTicks {
		onTicks = cycleTicks / 2
	}
	return &Timer{on: onTicks, cycle: cycleTicks, out: out}
}

// Tick spends one timer tick and returns the phase it was spent in.
func (t *Timer) Tick() Phase {
	ph := t.phase()
	switch t.now {
	case 0:
		t.drive(gpio.High)
	case t.on:
		t.drive(gpio.Low)
	}
	t.now++
	if t.now >= t.cycle {
		t.now = 0
	}
	return ph
}

// PulseTime is the tick count within the current cycle.
func (t *Timer) PulseTime() uint16 { return t.now }

// Phase of the next tick.
func (t *Timer) Phase() Phase { return t.phase() }

func (t *Timer) OnTicks() uint16    { return t.on }
func (t *Timer) CycleTicks() uint16 { return t.cycle }

// OutErrors counts failed pin writes. A failed write is not retried; the
// next edge rewrites the level anyway.
func (t *Timer) OutErrors() uint32 { return t.errs }

func (t *Timer) phase() Phase {
	switch {
	case t.now == 0:
		return Idle
	case t.now < t.on:
		return High
	default:
		return Low
	}
}

func (t *Timer) drive(l gpio.Level) {
	if t.out == nil {
		return
	}
	if err := t.out.Out(l); err != nil {
		t.errs++
	}
}
