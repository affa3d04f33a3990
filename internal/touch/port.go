package touch

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// PinPort presents individual GPIO lines as one input port, line i at bit
// shift+i, the way a microcontroller input register would.
type PinPort struct {
	pins  []gpio.PinIn
	shift uint8
}

func NewPinPort(shift uint8, pins ...gpio.PinIn) *PinPort {
	return &PinPort{pins: pins, shift: shift}
}

func (p *PinPort) Read() uint8 {
	var v uint8
	for i, pin := range p.pins {
		if pin.Read() == gpio.High {
			v |= 1 << (uint(p.shift) + uint(i))
		}
	}
	return v
}

// OpenPins looks up the sense lines by name, in channel order, and
// configures them as inputs with the given pull.
func OpenPins(names [NumChannels]string, pull gpio.Pull) ([]gpio.PinIn, error) {
	pins := make([]gpio.PinIn, 0, NumChannels)
	for i, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("sense pin %s (%s): not found", name, Channel(i))
		}
		if err := p.In(pull, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("sense pin %s (%s): %w", name, Channel(i), err)
		}
		pins = append(pins, p)
	}
	return pins, nil
}

// OpenPulsePin looks up the excitation output and drives it low.
func OpenPulsePin(name string) (gpio.PinOut, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pulse pin %s: not found", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("pulse pin %s: %w", name, err)
	}
	return p, nil
}
