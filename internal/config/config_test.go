package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/pixelgenie/internal/opc"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 50*time.Millisecond, c.Interval)
	assert.Len(t, c.Strips, 13)
	last := c.Strips[len(c.Strips)-1]
	assert.Equal(t, 234, last.Start+last.Count)
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeFile(t, `
driver: sim
opc_addr: rpi3:7890
interval: 25ms
active_effect: single_color
strips:
  - {start: 0, count: 3, from: [0, 0], to: [2, 0, 1]}
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "sim", c.Driver)
	assert.Equal(t, "rpi3:7890", c.OPCAddr)
	assert.Equal(t, 25*time.Millisecond, c.Interval)
	assert.Equal(t, "single_color", c.ActiveEffect)
	require.Len(t, c.Strips, 1)
	assert.Equal(t, []float64{2, 0, 1}, c.Strips[0].To)
	// untouched keys keep defaults
	assert.Equal(t, 255.0, c.ColorScale)
	assert.True(t, c.LongConnection)
}

func TestEnvOverridesFile(t *testing.T) {
	p := writeFile(t, "opc_addr: fromfile:7890\n")
	t.Setenv("GENIE_OPC_ADDR", "fromenv:7890")
	t.Setenv("GENIE_LONG_CONNECTION", "false")
	t.Setenv("GENIE_INTERVAL", "40ms")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "fromenv:7890", c.OPCAddr)
	assert.False(t, c.LongConnection)
	assert.Equal(t, 40*time.Millisecond, c.Interval)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeFile(t, "driver: laser\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeFile(t, "channel: 300\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeFile(t, "offset: [1, 2, 3, 4]\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeFile(t, "interval: [nope\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.yaml")
	c := Default()
	c.ActiveEffect = "gradient"
	require.NoError(t, Save(p, c))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadOrDefault(t *testing.T) {
	c, fromFile, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, fromFile)
	assert.Equal(t, Default(), c)

	c, fromFile, err = LoadOrDefault(writeFile(t, "driver: sim\n"))
	require.NoError(t, err)
	assert.True(t, fromFile)
	assert.Equal(t, "sim", c.Driver)

	// a file that is present but wrong must not fall back to the defaults
	_, _, err = LoadOrDefault(writeFile(t, "driver: opcc\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, _, err = LoadOrDefault(writeFile(t, "strips: {not: a list}\n"))
	assert.Error(t, err)
}

func TestValidateOPCFrameLimit(t *testing.T) {
	c := Default()
	c.Strips = []Strip{{Start: opc.MaxPixels - 2, Count: 2, From: []float64{0, 0}, To: []float64{1, 0}}}
	require.NoError(t, c.Validate())

	c.Strips[0].Count = 3
	assert.ErrorIs(t, c.Validate(), ErrInvalid)

	// other sinks are not bound by the OPC frame size
	c.Driver = "sim"
	assert.NoError(t, c.Validate())
}
