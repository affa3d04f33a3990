package game

import (
	"context"
	"math/rand"

	"github.com/coreman2200/funtimes-capgame/internal/strip"
	"github.com/coreman2200/funtimes-capgame/internal/touch"
)

// Obstacle is a full row of wall with one open column. Y counts rows
// fallen from the top of the board.
type Obstacle struct {
	Y, Gap int
}

// Dodge is the board state of one dodging round. The cursor lives on the
// bottom row; obstacles spawn on the top row and fall toward it.
type Dodge struct {
	cols, rows int
	cursor     int
	obstacles  []Obstacle
	falls      int
	spawnEvery int
	passed     int
	rounds     int
	rng        *rand.Rand
	state      Outcome
}

func NewDodge(cols, rows, rounds, spawnEvery int, rng *rand.Rand) *Dodge {
	return &Dodge{
		cols:       cols,
		rows:       rows,
		cursor:     cols / 2,
		rounds:     rounds,
		spawnEvery: max(spawnEvery, 1),
		rng:        rng,
	}
}

func (d *Dodge) Cursor() int      { return d.cursor }
func (d *Dodge) Passed() int      { return d.passed }
func (d *Dodge) Outcome() Outcome { return d.state }

func (d *Dodge) Obstacles() []Obstacle {
	return append([]Obstacle(nil), d.obstacles...)
}

// Spawn adds an obstacle on the top row.
func (d *Dodge) Spawn(gap int) {
	d.obstacles = append(d.obstacles, Obstacle{Y: 0, Gap: min(max(gap, 0), d.cols-1)})
}

// Move shifts the cursor by dx, clamped to the board.
func (d *Dodge) Move(dx int) Outcome {
	if d.state != Playing {
		return d.state
	}
	d.cursor = min(max(d.cursor+dx, 0), d.cols-1)
	if d.hit() {
		d.state = Lost
	}
	return d.state
}

// Fall drops every obstacle one row. Obstacles leaving the board count as
// passed; a new one spawns every spawnEvery falls.
func (d *Dodge) Fall() Outcome {
	if d.state != Playing {
		return d.state
	}
	kept := d.obstacles[:0]
	for _, o := range d.obstacles {
		o.Y++
		if o.Y >= d.rows {
			d.passed++
			continue
		}
		kept = append(kept, o)
	}
	d.obstacles = kept

	switch {
	case d.hit():
		d.state = Lost
		return d.state
	case d.passed >= d.rounds:
		d.state = Won
		return d.state
	}

	d.falls++
	if d.falls%d.spawnEvery == 0 && d.rng != nil {
		d.Spawn(d.rng.Intn(d.cols))
	}
	return Playing
}

func (d *Dodge) hit() bool {
	for _, o := range d.obstacles {
		if o.Y == d.rows-1 && o.Gap != d.cursor {
			return true
		}
	}
	return false
}

type DodgeGame struct {
	Fall   int // wait units per obstacle step
	Rounds int
	Spawn  int
}

func (g DodgeGame) Name() string      { return "dodge" }
func (g DodgeGame) Icon() strip.Color { return strip.Red }

func (g DodgeGame) Play(ctx context.Context, env *Env) (Outcome, error) {
	scr := env.Screen
	d := NewDodge(scr.Columns(), scr.Rows(), g.Rounds, g.Spawn, env.Rand)
	d.Spawn(env.Rand.Intn(scr.Columns()))
	in := newInput(env)

	for {
		g.draw(scr, d)
		env.show()

		for elapsed := 0; elapsed < g.Fall; elapsed++ {
			p := in.press(ctx, 1)
			if err := ctx.Err(); err != nil {
				return Playing, err
			}
			dx := 0
			if p&touch.Left.Bit() != 0 {
				dx--
			}
			if p&touch.Right.Bit() != 0 {
				dx++
			}
			if dx == 0 {
				continue
			}
			o := d.Move(dx)
			g.draw(scr, d)
			env.show()
			if o != Playing {
				return o, nil
			}
		}

		if o := d.Fall(); o != Playing {
			g.draw(scr, d)
			env.show()
			return o, nil
		}
	}
}

func (g DodgeGame) draw(scr Screen, d *Dodge) {
	scr.Paint(strip.Off)
	top := scr.Rows() - 1
	for _, o := range d.obstacles {
		scr.SetRow(top-o.Y, strip.Red)
		scr.SetXY(o.Gap, top-o.Y, strip.Off)
	}
	c := strip.Green
	if d.state == Lost {
		c = strip.Yellow
	}
	scr.SetXY(d.cursor, 0, c)
}
