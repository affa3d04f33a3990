// Package game is the play layer on top of the touch pads and the LED
// board: a menu that picks between Stacker and Dodge, the games, and the
// start, win and lose animations.
package game

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-capgame/internal/strip"
)

// Buttons is the debounced pad mask, bit n set for touch channel n.
type Buttons interface {
	State() uint8
}

// Pacer parks the game between frames. Units are pacing intervals.
type Pacer interface {
	Wait(ctx context.Context, units int, mask func() uint8, interruptible bool) bool
	BlockingWait(ctx context.Context, units int)
}

// Screen is the part of strip.Board the games draw on.
type Screen interface {
	Rows() int
	Columns() int
	Paint(c strip.Color)
	SetXY(x, y int, c strip.Color)
	AtXY(x, y int) strip.Color
	SetRow(y int, c strip.Color)
	Refresh() error
}

type Outcome int

const (
	Playing Outcome = iota
	Won
	Lost
)

func (o Outcome) String() string {
	switch o {
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Lost:
		return "lost"
	}
	return "unknown"
}

type Env struct {
	Screen  Screen
	Buttons Buttons
	Pacer   Pacer
	Rand    *rand.Rand
	Log     zerolog.Logger

	refreshLog zerolog.Logger
}

// NewEnv fills in a seeded PRNG and samples refresh failure logs.
func NewEnv(s Screen, b Buttons, p Pacer, seed int64, log zerolog.Logger) *Env {
	log = log.With().Str("component", "game").Logger()
	return &Env{
		Screen:     s,
		Buttons:    b,
		Pacer:      p,
		Rand:       rand.New(rand.NewSource(seed)),
		Log:        log,
		refreshLog: log.Sample(&zerolog.BasicSampler{N: 100}),
	}
}

// show pushes the screen to the strip. A failed refresh leaves the frame
// for the next one; failures are logged one in a hundred.
func (e *Env) show() {
	if err := e.Screen.Refresh(); err != nil {
		e.refreshLog.Warn().Err(err).Msg("refresh failed")
	}
}

// fade dims every cell one palette step.
func (e *Env) fade() {
	s := e.Screen
	for y := 0; y < s.Rows(); y++ {
		for x := 0; x < s.Columns(); x++ {
			s.SetXY(x, y, strip.Fade(s.AtXY(x, y)))
		}
	}
}

// input turns the level mask into press edges.
type input struct {
	env  *Env
	prev uint8
}

func newInput(env *Env) *input {
	// pads still held from the previous screen do not count as presses
	return &input{env: env, prev: env.Buttons.State()}
}

// press waits up to units and returns the pads that went down. While any
// pad is held the wait runs its full length.
func (in *input) press(ctx context.Context, units int) uint8 {
	b := in.env.Buttons
	if b.State() != 0 {
		in.env.Pacer.BlockingWait(ctx, units)
	} else {
		in.env.Pacer.Wait(ctx, units, b.State, true)
	}
	cur := b.State()
	edge := cur &^ in.prev
	in.prev = cur
	return edge
}
