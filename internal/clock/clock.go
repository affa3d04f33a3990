// Package clock is the single periodic tick source of the board.
//
// Tick handlers run one at a time from Run. Critical masks ticks for the
// duration of a call: a tick that falls inside a critical section is
// dropped and counted, never replayed afterwards, so the pulse cycle never
// sees a burst of back-to-back ticks after a long stall.
package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Period time.Duration
	// PacingTicks is the number of ticks per Wait unit.
	PacingTicks int
}

type Clock struct {
	period time.Duration
	pacing int

	handlers []func()
	irq      sync.Mutex // held by a running tick or a critical section

	unmaskedAt atomic.Int64 // unix nanos at which the last critical section ended
	ticks      atomic.Uint64
	skipped    atomic.Uint64
	pace       int

	wake chan struct{} // pacing flag, one slot, never queues more than one
	log  zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Clock {
	if cfg.Period <= 0 {
		cfg.Period = 100 * time.Microsecond
	}
	if cfg.PacingTicks <= 0 {
		cfg.PacingTicks = 1
	}
	return &Clock{
		period: cfg.Period,
		pacing: cfg.PacingTicks,
		wake:   make(chan struct{}, 1),
		log:    log.With().Str("component", "clock").Logger(),
	}
}

// OnTick registers h to run on every tick. Register before Run.
func (c *Clock) OnTick(h func()) {
	c.handlers = append(c.handlers, h)
}

// Run drives ticks until ctx is done.
func (c *Clock) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	c.log.Info().Dur("period", c.period).Int("pacing_ticks", c.pacing).Msg("tick source started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info().
				Uint64("ticks", c.Ticks()).
				Uint64("skipped", c.Skipped()).
				Msg("tick source stopped")
			return ctx.Err()
		case t := <-ticker.C:
			// The ticker holds one pending tick; if it was raised while
			// ticks were masked it is stale.
			if t.UnixNano() < c.unmaskedAt.Load() {
				c.skipped.Add(1)
				continue
			}
			c.Step()
		}
	}
}

// Step delivers one tick. It returns false when the tick was skipped
// because a critical section is running.
func (c *Clock) Step() bool {
	if !c.irq.TryLock() {
		c.skipped.Add(1)
		return false
	}
	for _, h := range c.handlers {
		h()
	}
	c.pace++
	if c.pace >= c.pacing {
		c.pace = 0
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
	c.irq.Unlock()
	c.ticks.Add(1)
	return true
}

// Critical runs f with ticks masked. It waits for an in-flight tick to
// finish first. Calls do not nest.
func (c *Clock) Critical(f func()) {
	c.irq.Lock()
	defer func() {
		c.unmaskedAt.Store(time.Now().UnixNano())
		c.irq.Unlock()
	}()
	f()
}

// Ticks counts delivered ticks.
func (c *Clock) Ticks() uint64 { return c.ticks.Load() }

// Skipped counts ticks dropped while masked.
func (c *Clock) Skipped() uint64 { return c.skipped.Load() }

func (c *Clock) Period() time.Duration { return c.period }

// Wait parks for up to units pacing intervals. With interruptible set it
// returns true as soon as mask reports any button, including before the
// first interval.
func (c *Clock) Wait(ctx context.Context, units int, mask func() uint8, interruptible bool) bool {
	for i := 0; i < units; i++ {
		if interruptible && mask != nil && mask() != 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-c.wake:
		}
	}
	return false
}

// BlockingWait parks for units pacing intervals regardless of input.
func (c *Clock) BlockingWait(ctx context.Context, units int) {
	c.Wait(ctx, units, nil, false)
}
