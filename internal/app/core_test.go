package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/coreman2200/funtimes-capgame/internal/config"
	"github.com/coreman2200/funtimes-capgame/internal/strip"
	"github.com/coreman2200/funtimes-capgame/internal/touch"
)

func testConfig() *config.Config {
	c := config.Default()
	c.Board.Rows, c.Board.Columns = 2, 3
	c.Game.StackerWidth = 2
	c.Strip.Driver = config.DriverSim
	c.Touch.PressThreshold = 2
	c.Touch.OnTicks = 1
	c.Touch.CycleTicks = 4
	c.Clock.PacingTicks = 1
	return c
}

type constPort uint8

func (p constPort) Read() uint8 { return uint8(p) }

func TestInitCoreRejectsBadConfig(t *testing.T) {
	c := testConfig()
	c.Board.Rows = 0
	_, err := InitCore(c, HW{}, zerolog.Nop())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestInitCoreWithoutHardware(t *testing.T) {
	c := testConfig()
	c.Touch.Pins = config.Pins{Up: "NOPE1", Right: "NOPE2", Down: "NOPE3", Left: "NOPE4", Middle: "NOPE5"}
	c.Touch.PulsePin = "NOPE6"

	core, err := InitCore(c, HW{}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, core.Inputs)
	assert.Equal(t, 6, core.Board.Len())
	_, ok := core.Board.Driver().(*strip.Sim)
	assert.True(t, ok)

	// the stand-in port never presses anything
	for i := 0; i < 40; i++ {
		core.Clock.Step()
	}
	assert.Zero(t, core.Sensor.State())
	assert.NotZero(t, core.Sensor.Cycles())
	require.NoError(t, core.Close())
}

func TestClockDrivesSensorAndPulse(t *testing.T) {
	c := testConfig()
	pin := &gpiotest.Pin{N: "pulse", L: gpio.Low}
	// active low, all lines held low: every pulse returns at once except Up
	core, err := InitCore(c, HW{Port: constPort(touch.Up.Bit()), Pulse: pin}, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, core.Inputs)

	core.Clock.Step()
	assert.Equal(t, gpio.High, pin.Read())
	for i := 0; i < 8; i++ {
		core.Clock.Step()
	}
	assert.Equal(t, touch.Up.Bit(), core.Sensor.State())
}

func TestRunClearsStripOnExit(t *testing.T) {
	c := testConfig()
	c.SelfTest = true
	sim := strip.NewSim(6, zerolog.Nop())
	core, err := InitCore(c, HW{Port: constPort(0), Driver: sim}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, core.Run(ctx))

	assert.Equal(t, make([]strip.Color, 6), sim.Last())
	assert.Greater(t, sim.Frames(), 1)
	assert.NotZero(t, core.Clock.Ticks())
}
