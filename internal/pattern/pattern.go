// Package pattern paints strip self-test frames, one step per call.
package pattern

import "github.com/coreman2200/funtimes-capgame/internal/strip"

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep" // one lit LED walking the strip in wire order
	Channels   Kind = "channels"    // whole strip red, green, blue
	RowSweep   Kind = "row_sweep"   // one lit row climbing the board
)

// Canvas is the part of strip.Board a pattern paints on.
type Canvas interface {
	Len() int
	Rows() int
	Paint(c strip.Color)
	Set(i int, c strip.Color)
	SetRow(y int, c strip.Color)
}

type Runner struct {
	kind Kind
	step int
}

func NewRunner(kind Kind) *Runner { return &Runner{kind: kind} }

func (r *Runner) Kind() Kind { return r.kind }

// Steps is the number of frames the pattern takes on c.
func (r *Runner) Steps(c Canvas) int {
	switch r.kind {
	case IndexSweep:
		return c.Len()
	case Channels:
		return 3
	case RowSweep:
		return c.Rows()
	}
	return 0
}

// Step paints the next frame; returns false when complete.
func (r *Runner) Step(c Canvas) bool {
	if r.step >= r.Steps(c) {
		return false
	}
	c.Paint(strip.Off)

	switch r.kind {
	case IndexSweep:
		c.Set(r.step, strip.Purple)
	case Channels:
		c.Paint([]strip.Color{strip.Red, strip.Green, strip.Blue}[r.step])
	case RowSweep:
		c.SetRow(r.step, strip.Yellow)
	}
	r.step++
	return true
}
