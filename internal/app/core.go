package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-capgame/internal/clock"
	"github.com/coreman2200/funtimes-capgame/internal/config"
	"github.com/coreman2200/funtimes-capgame/internal/diagnostics"
	"github.com/coreman2200/funtimes-capgame/internal/game"
	"github.com/coreman2200/funtimes-capgame/internal/layout"
	"github.com/coreman2200/funtimes-capgame/internal/pattern"
	"github.com/coreman2200/funtimes-capgame/internal/pulse"
	"github.com/coreman2200/funtimes-capgame/internal/strip"
	"github.com/coreman2200/funtimes-capgame/internal/touch"
)

// selfTestFrame is how long each self-test frame stays up, in wait units.
const selfTestFrame = 60

type Core struct {
	Cfg    *config.Config
	Clock  *clock.Clock
	Sensor *touch.Sensor
	Board  *strip.Board
	Menu   *game.Selector

	// Inputs reports whether the sense lines are real GPIO.
	Inputs bool
	log    zerolog.Logger
}

// HW overrides the hardware InitCore would otherwise open from the config.
type HW struct {
	Port   touch.Port
	Pulse  pulse.Output
	Driver strip.Driver
}

// idlePort stands in for missing sense lines; it never reports a press.
type idlePort struct{ v uint8 }

func (p idlePort) Read() uint8 { return p.v }

func InitCore(cfg *config.Config, hw HW, log zerolog.Logger) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	core := &Core{Cfg: cfg, log: log.With().Str("component", "core").Logger()}
	diagnostics.Log(core.log, diagnostics.Check(cfg))

	// 1) tick source
	core.Clock = clock.New(clock.Config{
		Period:      time.Duration(cfg.Clock.TickUs) * time.Microsecond,
		PacingTicks: cfg.Clock.PacingTicks,
	}, log)

	// 2) touch pads
	port, out := hw.Port, hw.Pulse
	if port == nil {
		port = core.openPort(cfg.Touch)
	} else {
		core.Inputs = true
	}
	if out == nil {
		if p, err := touch.OpenPulsePin(cfg.Touch.PulsePin); err != nil {
			core.log.Warn().Err(err).Msg("no pulse output; expecting hardware PWM")
		} else {
			out = p
		}
	}
	combine := touch.Overwrite
	if cfg.Touch.Combine == config.CombineAnd {
		combine = touch.And
	}
	core.Sensor = touch.NewSensor(touch.Config{
		PressThreshold: cfg.Touch.PressThreshold,
		OnTicks:        cfg.Touch.OnTicks,
		CycleTicks:     cfg.Touch.CycleTicks,
		Combine:        combine,
		ActiveLow:      cfg.Touch.ActiveLow,
	}, port, out)
	core.Clock.OnTick(core.Sensor.OnTick)

	// 3) strip, refreshed with ticks masked
	drv := hw.Driver
	if drv == nil {
		d, err := strip.Open(cfg.Strip, cfg.NumLEDs(), core.Clock, log)
		if err != nil {
			core.log.Warn().Err(err).Msg("strip unavailable, falling back to simulator")
		}
		drv = d
	}
	core.Board = strip.NewBoard(layout.Layout{
		Rows:       cfg.Board.Rows,
		Columns:    cfg.Board.Columns,
		Serpentine: cfg.Board.Serpentine,
	}, drv)

	// 4) games
	env := game.NewEnv(core.Board, core.Sensor, core.Clock, time.Now().UnixNano(), log)
	core.Menu = game.NewSelector(env, game.NewAnimations(env),
		game.StackerGame{
			Width:   cfg.Game.StackerWidth,
			Period:  cfg.Game.StackerPeriod,
			Speedup: cfg.Game.StackerSpeedup,
		},
		game.DodgeGame{
			Fall:   cfg.Game.DodgeFall,
			Rounds: cfg.Game.DodgeRounds,
			Spawn:  cfg.Game.DodgeSpawn,
		},
	)

	core.log.Info().
		Stringer("strip", stringer(drv)).
		Int("leds", cfg.NumLEDs()).
		Bool("gpio_inputs", core.Inputs).
		Msg("core ready")
	return core, nil
}

func (c *Core) openPort(cfg config.Touch) touch.Port {
	pins, err := touch.OpenPins(cfg.Pins.List(), gpio.PullUp)
	if err != nil {
		c.log.Warn().Err(err).Msg("sense lines unavailable, touch input disabled")
		// all lines read as returned, so nothing is ever pressed
		var v uint8
		if !cfg.ActiveLow {
			v = touch.Mask
		}
		return idlePort{v: v}
	}
	c.Inputs = true
	return touch.NewPinPort(0, pins...)
}

// Run ticks the clock and plays until ctx ends. The strip is cleared on the
// way out.
func (c *Core) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticked := make(chan error, 1)
	go func() { ticked <- c.Clock.Run(ctx) }()

	if c.Cfg.SelfTest {
		c.selfTest(ctx)
	}
	err := c.Menu.Run(ctx)

	cancel()
	<-ticked
	if cerr := c.Board.Clear(); cerr != nil {
		c.log.Warn().Err(cerr).Msg("clear on exit")
	}
	c.log.Info().
		Uint64("sense_cycles", c.Sensor.Cycles()).
		Uint64("ticks", c.Clock.Ticks()).
		Uint64("skipped", c.Clock.Skipped()).
		Msg("stopped")

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (c *Core) selfTest(ctx context.Context) {
	for _, k := range []pattern.Kind{pattern.IndexSweep, pattern.Channels, pattern.RowSweep} {
		c.log.Info().Str("pattern", string(k)).Msg("self test")
		r := pattern.NewRunner(k)
		for r.Step(c.Board) {
			if err := c.Board.Refresh(); err != nil {
				c.log.Error().Err(err).Msg("self test refresh")
				return
			}
			c.Clock.BlockingWait(ctx, selfTestFrame)
			if ctx.Err() != nil {
				return
			}
		}
	}
	if err := c.Board.Clear(); err != nil {
		c.log.Error().Err(err).Msg("self test clear")
	}
}

func (c *Core) Close() error {
	if err := c.Board.Driver().Close(); err != nil {
		return fmt.Errorf("close strip: %w", err)
	}
	return nil
}

type named string

func (n named) String() string { return string(n) }

func stringer(v any) fmt.Stringer {
	if s, ok := v.(fmt.Stringer); ok {
		return s
	}
	return named(fmt.Sprintf("%T", v))
}
