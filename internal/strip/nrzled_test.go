package strip

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestNRZLEDWrites(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := NewNRZLED(spitest.NewRecordRaw(&buf), 2, 2500*physic.KiloHertz, 3)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", d.String())

	require.NoError(t, d.Refresh([]Color{Red, Blue}))
	assert.NotZero(t, buf.Len())
	assert.Equal(t, []byte{0x18, 0, 0, 0, 0, 0x18}, d.rgb)

	assert.ErrorIs(t, d.Refresh([]Color{Red}), ErrFrameLength)
}

func TestNRZLEDRejectsEmptyStrip(t *testing.T) {
	_, err := NewNRZLED(spitest.NewRecordRaw(&bytes.Buffer{}), 0, 2500*physic.KiloHertz, 3)
	assert.Error(t, err)
}
