package strip

import (
	"sync"

	"github.com/coreman2200/funtimes-capgame/internal/layout"
)

// Board is the fixed-length LED buffer shared by game code and the driver.
// Writes between refreshes are free; Refresh snapshots the buffer and sends
// the snapshot, so a write racing a refresh lands in the next frame.
type Board struct {
	mu     sync.Mutex
	cells  []Color
	layout layout.Layout
	drv    Driver

	rmu  sync.Mutex // serializes refreshes
	snap []Color
}

func NewBoard(l layout.Layout, drv Driver) *Board {
	n := l.Count()
	return &Board{
		cells:  make([]Color, n),
		snap:   make([]Color, n),
		layout: l,
		drv:    drv,
	}
}

func (b *Board) Len() int               { return len(b.cells) }
func (b *Board) Layout() layout.Layout  { return b.layout }
func (b *Board) Driver() Driver         { return b.drv }
func (b *Board) Rows() int              { return b.layout.Rows }
func (b *Board) Columns() int           { return b.layout.Columns }
func (b *Board) Contains(x, y int) bool { return b.layout.Contains(x, y) }

// Set writes one cell. Indices outside the strip are ignored.
func (b *Board) Set(i int, c Color) {
	if i < 0 || i >= len(b.cells) {
		return
	}
	b.mu.Lock()
	b.cells[i] = c
	b.mu.Unlock()
}

// SetXY writes the cell at column x, row y. Off-board positions are ignored.
func (b *Board) SetXY(x, y int, c Color) {
	b.Set(b.layout.Index(x, y), c)
}

func (b *Board) At(i int) Color {
	if i < 0 || i >= len(b.cells) {
		return Off
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cells[i]
}

func (b *Board) AtXY(x, y int) Color {
	return b.At(b.layout.Index(x, y))
}

// SetRow paints every column of row y.
func (b *Board) SetRow(y int, c Color) {
	for x := 0; x < b.layout.Columns; x++ {
		b.SetXY(x, y, c)
	}
}

// Paint sets every cell without refreshing.
func (b *Board) Paint(c Color) {
	b.mu.Lock()
	for i := range b.cells {
		b.cells[i] = c
	}
	b.mu.Unlock()
}

// Fill sets every cell to c and refreshes the strip.
func (b *Board) Fill(c Color) error {
	b.Paint(c)
	return b.Refresh()
}

// Clear turns the whole strip off.
func (b *Board) Clear() error {
	return b.Fill(Off)
}

// Cells returns a copy of the buffer.
func (b *Board) Cells() []Color {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Color, len(b.cells))
	copy(out, b.cells)
	return out
}

// Refresh sends the current contents to the strip.
func (b *Board) Refresh() error {
	b.rmu.Lock()
	defer b.rmu.Unlock()

	b.mu.Lock()
	copy(b.snap, b.cells)
	b.mu.Unlock()

	return b.drv.Refresh(b.snap)
}
