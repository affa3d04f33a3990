package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid config")

// Combine policies for successive debounce decisions.
const (
	CombineOverwrite = "overwrite"
	CombineAnd       = "and"
)

// Strip drivers.
const (
	DriverNRZ    = "nrz"
	DriverAPA102 = "apa102"
	DriverNRZLED = "nrzled"
	DriverSim    = "sim"
)

type Pins struct {
	Up     string `yaml:"up"`
	Right  string `yaml:"right"`
	Down   string `yaml:"down"`
	Left   string `yaml:"left"`
	Middle string `yaml:"middle"`
}

// List returns the sense pin names in channel order.
func (p Pins) List() [5]string {
	return [5]string{p.Up, p.Right, p.Down, p.Left, p.Middle}
}

type Touch struct {
	PressThreshold uint8  `yaml:"press_threshold"`
	OnTicks        uint16 `yaml:"on_ticks"`
	CycleTicks     uint16 `yaml:"cycle_ticks"`
	Combine        string `yaml:"combine"`
	ActiveLow      bool   `yaml:"active_low"`
	Pins           Pins   `yaml:"pins"`
	PulsePin       string `yaml:"pulse_pin"`
}

type Clock struct {
	TickUs      int `yaml:"tick_us"`
	PacingTicks int `yaml:"pacing_ticks"` // ticks per wait() unit (1 ms)
}

type Strip struct {
	Driver       string `yaml:"driver"`
	SPIDev       string `yaml:"spi_dev"`  // "" picks the first registered port
	SpeedHz      int    `yaml:"speed_hz"` // e.g. 6400000
	HighCode     uint8  `yaml:"high_code"`
	LowCode      uint8  `yaml:"low_code"`
	ResetUs      int    `yaml:"reset_us"`
	Brightness   uint8  `yaml:"brightness"`
	APA102Global uint8  `yaml:"apa102_global"`
	BudgetMA     int    `yaml:"budget_ma"` // supply limit, 0 skips the check
}

type Board struct {
	Rows       int  `yaml:"rows"`
	Columns    int  `yaml:"columns"`
	Serpentine bool `yaml:"serpentine"`
}

// Game pacing, in wait units.
type Game struct {
	StackerWidth   int `yaml:"stacker_width"`
	StackerPeriod  int `yaml:"stacker_period"`
	StackerSpeedup int `yaml:"stacker_speedup"` // period shaved off per locked row
	DodgeFall      int `yaml:"dodge_fall"`
	DodgeRounds    int `yaml:"dodge_rounds"`
	DodgeSpawn     int `yaml:"dodge_spawn"` // falls between obstacle rows
}

type Config struct {
	Touch    Touch  `yaml:"touch"`
	Clock    Clock  `yaml:"clock"`
	Strip    Strip  `yaml:"strip"`
	Board    Board  `yaml:"board"`
	Game     Game   `yaml:"game"`
	SelfTest bool   `yaml:"selftest"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the tuning the board ships with: 0.1 ms ticks, a 10 ms
// sense period with a 2 ms pulse, and a 16x8 WS2812 grid.
func Default() *Config {
	return &Config{
		Touch: Touch{
			PressThreshold: 20,
			OnTicks:        20,
			CycleTicks:     100,
			Combine:        CombineOverwrite,
			ActiveLow:      true,
			Pins: Pins{
				Up:     "GPIO5",
				Right:  "GPIO6",
				Down:   "GPIO13",
				Left:   "GPIO19",
				Middle: "GPIO26",
			},
			PulsePin: "GPIO12",
		},
		Clock: Clock{
			TickUs:      100,
			PacingTicks: 10,
		},
		Strip: Strip{
			Driver:       DriverNRZ,
			SpeedHz:      6400000,
			HighCode:     0xF0,
			LowCode:      0xC0,
			ResetUs:      50,
			Brightness:   3,
			APA102Global: 1,
		},
		Board: Board{
			Rows:    16,
			Columns: 8,
		},
		Game: Game{
			StackerWidth:   3,
			StackerPeriod:  120,
			StackerSpeedup: 6,
			DodgeFall:      250,
			DodgeRounds:    20,
			DodgeSpawn:     3,
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults, so a partial file only overrides what it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// NumLEDs is the fixed strip length implied by the board geometry.
func (c *Config) NumLEDs() int {
	return c.Board.Rows * c.Board.Columns
}

func (c *Config) Validate() error {
	switch {
	case c.Touch.PressThreshold == 0:
		return fmt.Errorf("%w: touch.press_threshold must be > 0", ErrInvalid)
	case c.Touch.CycleTicks < 2:
		return fmt.Errorf("%w: touch.cycle_ticks must be >= 2", ErrInvalid)
	case c.Touch.OnTicks == 0 || c.Touch.OnTicks >= c.Touch.CycleTicks:
		return fmt.Errorf("%w: touch.on_ticks must be in [1, cycle_ticks)", ErrInvalid)
	case c.Clock.TickUs <= 0:
		return fmt.Errorf("%w: clock.tick_us must be > 0", ErrInvalid)
	case c.Clock.PacingTicks <= 0:
		return fmt.Errorf("%w: clock.pacing_ticks must be > 0", ErrInvalid)
	case c.Board.Rows <= 0 || c.Board.Columns <= 0:
		return fmt.Errorf("%w: board dimensions %dx%d", ErrInvalid, c.Board.Rows, c.Board.Columns)
	case c.Strip.ResetUs < 0:
		return fmt.Errorf("%w: strip.reset_us must be >= 0", ErrInvalid)
	case c.Game.StackerWidth <= 0 || c.Game.StackerWidth > c.Board.Columns:
		return fmt.Errorf("%w: game.stacker_width must be in [1, %d]", ErrInvalid, c.Board.Columns)
	case c.Game.StackerPeriod <= 0 || c.Game.DodgeFall <= 0:
		return fmt.Errorf("%w: game periods must be > 0", ErrInvalid)
	case c.Game.DodgeRounds <= 0 || c.Game.DodgeSpawn <= 0:
		return fmt.Errorf("%w: game.dodge_rounds and game.dodge_spawn must be > 0", ErrInvalid)
	}
	switch c.Touch.Combine {
	case CombineOverwrite, CombineAnd:
	default:
		return fmt.Errorf("%w: unknown touch.combine %q", ErrInvalid, c.Touch.Combine)
	}
	switch c.Strip.Driver {
	case DriverNRZ, DriverAPA102, DriverNRZLED, DriverSim:
	default:
		return fmt.Errorf("%w: unknown strip.driver %q", ErrInvalid, c.Strip.Driver)
	}
	if c.Strip.Driver != DriverSim && c.Strip.SpeedHz <= 0 {
		return fmt.Errorf("%w: strip.speed_hz must be > 0", ErrInvalid)
	}
	return nil
}
