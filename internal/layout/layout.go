package layout

// Layout is the LED grid: Rows rows of Columns LEDs, row 0 at the bottom.
// With Serpentine set, odd rows are wired right to left.
type Layout struct {
	Rows       int
	Columns    int
	Serpentine bool
}

// Index maps column x, row y -> linear LED index (0..N-1), or -1 when off the board.
func (l Layout) Index(x, y int) int {
	if !l.Contains(x, y) {
		return -1
	}
	xx := x
	if l.Serpentine && y%2 == 1 {
		xx = l.Columns - 1 - x
	}
	return y*l.Columns + xx
}

func (l Layout) Contains(x, y int) bool {
	return x >= 0 && x < l.Columns && y >= 0 && y < l.Rows
}

func (l Layout) Count() int {
	return l.Rows * l.Columns
}
