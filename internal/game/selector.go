package game

import (
	"context"

	"github.com/coreman2200/funtimes-capgame/internal/strip"
	"github.com/coreman2200/funtimes-capgame/internal/touch"
)

type Game interface {
	Name() string
	Icon() strip.Color
	Play(ctx context.Context, env *Env) (Outcome, error)
}

// Selector is the top level loop: the menu shows one icon per game across
// the board, Left and Right pick, Middle plays.
type Selector struct {
	env    *Env
	games  []Game
	anim   Animator
	choice int
	// menu poll length in wait units
	Idle int
}

func NewSelector(env *Env, anim Animator, games ...Game) *Selector {
	return &Selector{env: env, games: games, anim: anim, Idle: 50}
}

func (s *Selector) Choice() int { return s.choice }

// Run loops menu, game, result until ctx ends.
func (s *Selector) Run(ctx context.Context) error {
	if len(s.games) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	in := newInput(s.env)
	for {
		s.drawMenu()
		s.env.show()

		p := in.press(ctx, s.Idle)
		if err := ctx.Err(); err != nil {
			return err
		}
		switch {
		case p&touch.Middle.Bit() != 0:
			if err := s.play(ctx, s.games[s.choice]); err != nil {
				return err
			}
			in = newInput(s.env)
		case p&touch.Left.Bit() != 0:
			s.choice = max(s.choice-1, 0)
		case p&touch.Right.Bit() != 0:
			s.choice = min(s.choice+1, len(s.games)-1)
		}
	}
}

func (s *Selector) play(ctx context.Context, g Game) error {
	log := s.env.Log.With().Str("game", g.Name()).Logger()
	log.Info().Msg("start")

	s.anim.Start(ctx)
	o, err := g.Play(ctx, s.env)
	if err != nil {
		return err
	}
	log.Info().Stringer("outcome", o).Msg("finished")

	switch o {
	case Won:
		s.anim.Win(ctx)
	case Lost:
		s.anim.Lose(ctx)
	}
	return ctx.Err()
}

// drawMenu splits the columns evenly between the games; the chosen icon
// is lit full, the others dimmed.
func (s *Selector) drawMenu() {
	scr := s.env.Screen
	scr.Paint(strip.Off)
	n := len(s.games)
	cols := scr.Columns()
	for x := 0; x < cols; x++ {
		i := min(x*n/cols, n-1)
		c := s.games[i].Icon()
		if i != s.choice {
			c = strip.Fade(strip.Fade(c))
		}
		for y := 1; y < scr.Rows()-1; y++ {
			scr.SetXY(x, y, c)
		}
	}
}
