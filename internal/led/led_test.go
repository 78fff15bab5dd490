package led

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/pixelgenie/internal/pixel"
)

func TestSimAcceptsFrames(t *testing.T) {
	s := NewSim()
	assert.True(t, s.SendPixels(0, []pixel.RGB{{R: 1, G: 2, B: 3}}))
	assert.True(t, s.SendPixels(0, nil))
	assert.Equal(t, uint64(2), s.Frames())
	assert.NoError(t, s.Close())
}

func TestSPIWritesEncodedFrame(t *testing.T) {
	buf := bytes.Buffer{}
	s, err := NewSPI(spitest.NewRecordRaw(&buf), 4, 2500*physic.KiloHertz)
	require.NoError(t, err)

	require.True(t, s.SendPixels(0, []pixel.RGB{{R: 255, G: 0, B: 0}, {R: 0, G: 300, B: 0}}))
	first := buf.Len()
	assert.Greater(t, first, 4*3, "NRZ encoding expands every byte")

	// longer input is trimmed to the strip length
	require.True(t, s.SendPixels(0, make([]pixel.RGB, 10)))
	assert.Equal(t, 2*first, buf.Len())

	require.NoError(t, s.Close())
	assert.False(t, s.SendPixels(0, []pixel.RGB{{R: 1, G: 1, B: 1}}))
	assert.NoError(t, s.Close())
}

func TestSPIRejectsEmptyStrip(t *testing.T) {
	buf := bytes.Buffer{}
	_, err := NewSPI(spitest.NewRecordRaw(&buf), 0, 0)
	assert.Error(t, err)
}
