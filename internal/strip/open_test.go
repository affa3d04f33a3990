package strip

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/funtimes-capgame/internal/config"
)

func TestOpenSim(t *testing.T) {
	cfg := config.Default().Strip
	cfg.Driver = config.DriverSim
	d, err := Open(cfg, 8, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Sim{}, d)
}

func TestOpenFallsBackToSim(t *testing.T) {
	cfg := config.Default().Strip
	cfg.SPIDev = "no-such-spi-port"
	d, err := Open(cfg, 8, nil, zerolog.Nop())
	assert.Error(t, err)
	require.NotNil(t, d)
	assert.IsType(t, &Sim{}, d)
}

func TestNewPicksDriver(t *testing.T) {
	tests := []struct {
		driver string
		want   any
	}{
		{config.DriverNRZ, &NRZ{}},
		{config.DriverAPA102, &APA102{}},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := config.Default().Strip
			cfg.Driver = tt.driver
			d, err := New(spitest.NewRecordRaw(&bytes.Buffer{}), cfg, 8, nil)
			require.NoError(t, err)
			assert.IsType(t, tt.want, d)
			require.NoError(t, d.Refresh(make([]Color, 8)))
		})
	}

	cfg := config.Default().Strip
	cfg.Driver = "dmx"
	_, err := New(spitest.NewRecordRaw(&bytes.Buffer{}), cfg, 8, nil)
	assert.Error(t, err)
}
