package mapper

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/pixelgenie/internal/effect"
	"github.com/coreman2200/pixelgenie/internal/pixel"
)

// xEffect encodes the X coordinate and time into the color.
type xEffect struct{}

func (xEffect) Describe() effect.Schema { return effect.Schema{Name: "x"} }
func (xEffect) Evaluate(pos pixel.Vec3, p effect.Snapshot, t float64) pixel.RGB {
	return pixel.RGB{R: pos.X, G: t, B: p.Get("b")}
}

func TestSetPositionGrows(t *testing.T) {
	m := New()
	require.NoError(t, m.SetPosition(3, pixel.Vec3{X: 1, Y: 2, Z: 3}))
	assert.Equal(t, 4, m.Len())
	for i := 0; i < 3; i++ {
		p, ok := m.Position(i)
		require.True(t, ok)
		assert.True(t, p.IsOrigin())
	}
	p, _ := m.Position(3)
	assert.Equal(t, pixel.Vec3{X: 1, Y: 2, Z: 3}, p)

	require.NoError(t, m.SetPosition(1, pixel.Vec3{X: 5}))
	assert.Equal(t, 4, m.Len())
	assert.Len(t, m.RenderFrame(xEffect{}, effect.Snapshot{}, 0, 1), 4)

	assert.ErrorIs(t, m.SetPosition(-1, pixel.Vec3{}), ErrNegativeIndex)
	_, ok := m.Position(4)
	assert.False(t, ok)
}

func TestSegment2D(t *testing.T) {
	m := New()
	require.NoError(t, m.SetPositionsAlongSegment(0, 3, []float64{0, 0}, []float64{2, 0}))
	assert.Equal(t, []LayoutPoint{
		{Point: [3]float64{0, 0, 0}},
		{Point: [3]float64{1, 0, 0}},
		{Point: [3]float64{2, 0, 0}},
	}, m.ExportLayout())
}

func TestSegment3DAndOffset(t *testing.T) {
	m := New()
	require.NoError(t, m.SetPositionsAlongSegment(5, 12, []float64{11, 2, 1}, []float64{11, 24, 1}))
	assert.Equal(t, 17, m.Len())
	first, _ := m.Position(5)
	last, _ := m.Position(16)
	assert.Equal(t, pixel.Vec3{X: 11, Y: 2, Z: 1}, first)
	assert.Equal(t, pixel.Vec3{X: 11, Y: 24, Z: 1}, last)
	mid, _ := m.Position(6)
	assert.InDelta(t, 4, mid.Y, 1e-12)
}

func TestSegmentSinglePointAndErrors(t *testing.T) {
	m := New()
	require.NoError(t, m.SetPositionsAlongSegment(0, 1, []float64{3, 4}, []float64{9, 9}))
	p, _ := m.Position(0)
	assert.Equal(t, pixel.Vec3{X: 3, Y: 4}, p)

	require.NoError(t, m.SetPositionsAlongSegment(10, 0, []float64{1, 1}, []float64{2, 2}))
	assert.Equal(t, 1, m.Len())

	assert.ErrorIs(t, m.SetPositionsAlongSegment(0, 2, []float64{1}, []float64{2, 2}), ErrBadCoordinate)
	assert.ErrorIs(t, m.SetPositionsAlongSegment(0, 2, []float64{1, 1}, []float64{2, 2, 2, 2}), ErrBadCoordinate)
	assert.ErrorIs(t, m.SetPositionsAlongSegment(-2, 2, []float64{1, 1}, []float64{2, 2}), ErrNegativeIndex)
}

func TestRenderFrameScalesAndSentinel(t *testing.T) {
	m := New()
	require.NoError(t, m.SetPosition(0, pixel.Vec3{}))
	require.NoError(t, m.SetPosition(1, pixel.Vec3{X: 0.5, Y: 1}))
	snap := effect.NewSnapshot(map[string]float64{"b": 0.25})

	frame := m.RenderFrame(xEffect{}, snap, 0.1, 100)
	require.Len(t, frame, 2)
	assert.Equal(t, Sentinel.Scale(100), frame[0])
	assert.InDelta(t, 50, frame[1].R, 1e-9)
	assert.InDelta(t, 10, frame[1].G, 1e-9)
	assert.InDelta(t, 25, frame[1].B, 1e-9)

	// sentinel does not depend on time or effect
	assert.Equal(t, frame[0], m.RenderFrame(xEffect{}, effect.Snapshot{}, 99, 100)[0])
	assert.Equal(t, byte(51), pixel.ToByte(m.RenderFrame(xEffect{}, snap, 3, 255)[0].B))
}

func TestRenderFrameReturnsCopy(t *testing.T) {
	m := New()
	require.NoError(t, m.SetPosition(0, pixel.Vec3{X: 1}))
	frame := m.RenderFrame(xEffect{}, effect.Snapshot{}, 0, 1)
	frame[0] = pixel.RGB{R: 9}
	again := m.RenderFrame(xEffect{}, effect.Snapshot{}, 0, 1)
	assert.Equal(t, 1.0, again[0].R)
}

func TestTranslateKeepsSentinels(t *testing.T) {
	m := New()
	require.NoError(t, m.SetPosition(2, pixel.Vec3{X: 1, Y: 1}))
	m.Translate(pixel.Vec3{X: 10, Z: -1})
	p0, _ := m.Position(0)
	p2, _ := m.Position(2)
	assert.True(t, p0.IsOrigin())
	assert.Equal(t, pixel.Vec3{X: 11, Y: 1, Z: -1}, p2)
}

func TestWriteLayout(t *testing.T) {
	m := New()
	require.NoError(t, m.SetPositionsAlongSegment(0, 2, []float64{0, 1}, []float64{0, 3}))
	var buf bytes.Buffer
	require.NoError(t, m.WriteLayout(&buf))

	var got []map[string][]float64
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string][]float64{
		{"point": {0, 1, 0}},
		{"point": {0, 3, 0}},
	}, got)
	assert.Contains(t, buf.String(), "\n    {")
}
