package strip

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/coreman2200/funtimes-capgame/internal/config"
)

// Open builds the driver named by cfg for count LEDs. Hardware drivers that
// fail to open fall back to the simulator; the returned error explains why.
func Open(cfg config.Strip, count int, mask Masker, log zerolog.Logger) (Driver, error) {
	if cfg.Driver == config.DriverSim {
		return NewSim(count, log), nil
	}
	drv, err := openHW(cfg, count, mask)
	if err != nil {
		return NewSim(count, log), fmt.Errorf("strip driver %s: %w", cfg.Driver, err)
	}
	return drv, nil
}

func openHW(cfg config.Strip, count int, mask Masker) (Driver, error) {
	port, err := spireg.Open(cfg.SPIDev)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", cfg.SPIDev, err)
	}
	drv, err := New(port, cfg, count, mask)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return &portDriver{Driver: drv, port: port}, nil
}

// New builds the driver named by cfg on an already open port.
func New(port spi.Port, cfg config.Strip, count int, mask Masker) (Driver, error) {
	freq := physic.Frequency(cfg.SpeedHz) * physic.Hertz
	switch cfg.Driver {
	case config.DriverNRZ:
		c, err := port.Connect(freq, spi.Mode0, 8)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		d, err := NewNRZ(c, NRZOpts{
			Count:      count,
			Codes:      Codes{High: cfg.HighCode, Low: cfg.LowCode},
			Brightness: cfg.Brightness,
			SpeedHz:    cfg.SpeedHz,
			Reset:      time.Duration(cfg.ResetUs) * time.Microsecond,
		}, mask)
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.DriverAPA102:
		c, err := port.Connect(freq, spi.Mode0, 8)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		d, err := NewAPA102(c, count, cfg.APA102Global, cfg.Brightness)
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.DriverNRZLED:
		d, err := NewNRZLED(port, count, freq, cfg.Brightness)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}

// portDriver closes the SPI port along with the driver.
type portDriver struct {
	Driver
	port spi.PortCloser
}

func (p *portDriver) Close() error {
	err := p.Driver.Close()
	if cerr := p.port.Close(); err == nil {
		err = cerr
	}
	return err
}

func (p *portDriver) String() string {
	if s, ok := p.Driver.(fmt.Stringer); ok {
		return s.String()
	}
	return "strip"
}
