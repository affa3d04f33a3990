package game

import (
	"context"

	"github.com/coreman2200/funtimes-capgame/internal/strip"
)

// Span is a run of columns [Start, Start+Width).
type Span struct {
	Start, Width int
}

func (s Span) End() int { return s.Start + s.Width }

// Overlap returns the columns a and b share; Width is 0 when disjoint.
func Overlap(a, b Span) Span {
	lo, hi := max(a.Start, b.Start), min(a.End(), b.End())
	if hi <= lo {
		return Span{Start: lo}
	}
	return Span{Start: lo, Width: hi - lo}
}

// Stacker is the board state of one stacking round. Row 0 is the bottom.
type Stacker struct {
	cols, rows int
	block      Span
	dir        int
	locked     []Span
	state      Outcome
}

func NewStacker(cols, rows, width int) *Stacker {
	width = min(max(width, 1), cols)
	return &Stacker{cols: cols, rows: rows, block: Span{Width: width}, dir: 1}
}

func (s *Stacker) Row() int         { return len(s.locked) }
func (s *Stacker) Block() Span      { return s.block }
func (s *Stacker) Locked() []Span   { return s.locked }
func (s *Stacker) Outcome() Outcome { return s.state }

// Step slides the block one column, bouncing off the edges.
func (s *Stacker) Step() {
	if s.state != Playing || s.block.Width >= s.cols {
		return
	}
	next := s.block.Start + s.dir
	if next < 0 || next+s.block.Width > s.cols {
		s.dir = -s.dir
		next = s.block.Start + s.dir
	}
	s.block.Start = next
}

// Lock drops the block onto the stack. Only the part resting on the row
// below survives and becomes the next block.
func (s *Stacker) Lock() Outcome {
	if s.state != Playing {
		return s.state
	}
	kept := s.block
	if n := len(s.locked); n > 0 {
		kept = Overlap(kept, s.locked[n-1])
	}
	if kept.Width == 0 {
		s.state = Lost
		return s.state
	}
	s.locked = append(s.locked, kept)
	if len(s.locked) >= s.rows {
		s.state = Won
		return s.state
	}
	s.block = Span{Width: kept.Width}
	s.dir = 1
	return Playing
}

type StackerGame struct {
	Width   int
	Period  int // wait units per slide step on the bottom row
	Speedup int // units shaved per locked row
}

func (g StackerGame) Name() string      { return "stacker" }
func (g StackerGame) Icon() strip.Color { return strip.Blue }

func (g StackerGame) period(row int) int {
	return max(g.Period-row*g.Speedup, 1)
}

func (g StackerGame) Play(ctx context.Context, env *Env) (Outcome, error) {
	scr := env.Screen
	st := NewStacker(scr.Columns(), scr.Rows(), g.Width)
	in := newInput(env)

	for {
		g.draw(scr, st)
		env.show()

		pressed := in.press(ctx, g.period(st.Row()))
		if err := ctx.Err(); err != nil {
			return Playing, err
		}
		if pressed == 0 {
			st.Step()
			continue
		}
		if o := st.Lock(); o != Playing {
			g.draw(scr, st)
			env.show()
			return o, nil
		}
	}
}

func (g StackerGame) draw(scr Screen, st *Stacker) {
	scr.Paint(strip.Off)
	for row, sp := range st.Locked() {
		for x := sp.Start; x < sp.End(); x++ {
			scr.SetXY(x, row, strip.Blue)
		}
	}
	if st.Outcome() == Playing {
		b := st.Block()
		for x := b.Start; x < b.End(); x++ {
			scr.SetXY(x, st.Row(), strip.Purple)
		}
	}
}
