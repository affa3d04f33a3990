package game

import (
	"context"

	"github.com/coreman2200/funtimes-capgame/internal/strip"
)

// Animator plays the transitions around a game.
type Animator interface {
	Start(ctx context.Context)
	Win(ctx context.Context)
	Lose(ctx context.Context)
}

// Animations draws the stock transitions on the env screen.
type Animations struct {
	env   *Env
	Frame int // wait units per frame
}

func NewAnimations(env *Env) *Animations {
	return &Animations{env: env, Frame: 40}
}

// Start sweeps a green line up the board leaving a fading trail.
func (a *Animations) Start(ctx context.Context) {
	scr := a.env.Screen
	scr.Paint(strip.Off)
	for y := 0; y < scr.Rows(); y++ {
		a.env.fade()
		scr.SetRow(y, strip.Green)
		if !a.frame(ctx) {
			return
		}
	}
	a.fadeOut(ctx)
}

var sparkle = []strip.Color{strip.Yellow, strip.Green, strip.Blue, strip.Purple}

// Win sparkles random cells over a fading board.
func (a *Animations) Win(ctx context.Context) {
	scr := a.env.Screen
	rng := a.env.Rand
	cells := scr.Rows() * scr.Columns()
	for i := 0; i < 24; i++ {
		a.env.fade()
		for n := 0; n < max(cells/8, 1); n++ {
			scr.SetXY(rng.Intn(scr.Columns()), rng.Intn(scr.Rows()), sparkle[rng.Intn(len(sparkle))])
		}
		if !a.frame(ctx) {
			return
		}
	}
	a.fadeOut(ctx)
}

// Lose flashes the board red then lets it die down.
func (a *Animations) Lose(ctx context.Context) {
	scr := a.env.Screen
	for i := 0; i < 3; i++ {
		scr.Paint(strip.Red)
		if !a.frame(ctx) {
			return
		}
		scr.Paint(strip.Off)
		if !a.frame(ctx) {
			return
		}
	}
	scr.Paint(strip.Red)
	a.fadeOut(ctx)
}

// fadeOut steps the board down the fade chain to off.
func (a *Animations) fadeOut(ctx context.Context) {
	for i := 0; i < 4; i++ {
		a.env.fade()
		if !a.frame(ctx) {
			return
		}
	}
}

func (a *Animations) frame(ctx context.Context) bool {
	a.env.show()
	a.env.Pacer.BlockingWait(ctx, a.Frame)
	return ctx.Err() == nil
}
