package pixel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToByteClampsAndTruncates(t *testing.T) {
	cases := []struct {
		in   float64
		want byte
	}{
		{300, 255},
		{255, 255},
		{-10, 0},
		{127.9, 127},
		{0.99, 0},
		{42, 42},
		{math.NaN(), 0},
		{math.Inf(1), 255},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ToByte(c.in), "ToByte(%v)", c.in)
	}
}

func TestBytesOrder(t *testing.T) {
	got := Bytes(nil, []RGB{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}})
	assert.Equal(t, []byte{255, 0, 0, 0, 255, 0, 0, 0, 255}, got)
}

func TestHSVPrimaries(t *testing.T) {
	red := HSV(0, 1, 1)
	assert.InDelta(t, 1, red.R, 1e-9)
	assert.InDelta(t, 0, red.G, 1e-9)
	assert.InDelta(t, 0, red.B, 1e-9)

	green := HSV(1.0/3.0, 1, 1)
	assert.InDelta(t, 1, green.G, 1e-9)
	assert.InDelta(t, 0, green.R, 1e-9)

	// hue wraps around the unit interval
	assert.InDelta(t, HSV(0.25, 1, 0.5).G, HSV(2.25, 1, 0.5).G, 1e-9)
	assert.InDelta(t, HSV(0.75, 1, 1).B, HSV(-0.25, 1, 1).B, 1e-9)
}

func TestLerpAndOrigin(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{2, 4, 0}
	assert.True(t, a.IsOrigin())
	assert.False(t, b.IsOrigin())
	assert.Equal(t, Vec3{1, 2, 0}, a.Lerp(b, 0.5))
	assert.Equal(t, Vec3{3, 5, 1}, b.Add(Vec3{1, 1, 1}))
}
