// Package strip owns the LED board buffer and the drivers that put it on
// the wire.
package strip

import "errors"

var (
	// ErrFrameLength is returned when a frame does not match the strip length.
	ErrFrameLength = errors.New("frame length does not match strip")
	// ErrBusy is returned when a frame is armed while another is in flight.
	ErrBusy = errors.New("frame transfer in progress")
)

// Driver puts one full frame of palette cells on the strip. Refresh blocks
// until the frame, including any latch or end marker, has been sent; a
// second caller waits for the first. len(cells) must equal the strip length.
type Driver interface {
	Refresh(cells []Color) error
	Close() error
}

// Masker runs f with the tick interrupt masked. *clock.Clock implements it.
type Masker interface {
	Critical(f func())
}

type noMask struct{}

func (noMask) Critical(f func()) { f() }

// Conn is the part of spi.Conn the drivers use.
type Conn interface {
	Tx(w, r []byte) error
}
