package strip

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"
)

// NRZLED hands expanded frames to the periph nrzled device, which does its
// own 3-bits-per-bit SPI encoding. It is the reference path to compare the
// symbol encoder against on new hardware.
type NRZLED struct {
	mu         sync.Mutex
	dev        *nrzled.Dev
	count      int
	brightness uint8
	rgb        []byte
}

// NewNRZLED opens count pixels on p. freq is the SPI clock, typically
// 3x the 800 kHz data rate plus headroom.
func NewNRZLED(p spi.Port, count int, freq physic.Frequency, brightness uint8) (*NRZLED, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &NRZLED{dev: d, count: count, brightness: brightness, rgb: make([]byte, count*3)}, nil
}

func (d *NRZLED) String() string { return d.dev.String() }

func (d *NRZLED) Refresh(cells []Color) error {
	if len(cells) != d.count {
		return fmt.Errorf("%w: got %d cells, strip has %d", ErrFrameLength, len(cells), d.count)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range cells {
		v := Expand(c, d.brightness)
		d.rgb[i*3+0], d.rgb[i*3+1], d.rgb[i*3+2] = v.R, v.G, v.B
	}
	if _, err := d.dev.Write(d.rgb); err != nil {
		return fmt.Errorf("nrzled write: %w", err)
	}
	return nil
}

func (d *NRZLED) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev.Halt()
}
