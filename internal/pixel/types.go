package pixel

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Vec3 is an LED position in installation space.
type Vec3 struct{ X, Y, Z float64 }

// RGB holds one LED color. Channels are unbounded floats; effects produce
// 0..1 and the render loop scales them to the output range.
type RGB struct{ R, G, B float64 }

// IsOrigin reports whether v is exactly (0,0,0), the "no LED here" marker.
func (v Vec3) IsOrigin() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Lerp returns the point at fraction f on the segment v->o.
func (v Vec3) Lerp(o Vec3, f float64) Vec3 {
	return Vec3{
		X: v.X + (o.X-v.X)*f,
		Y: v.Y + (o.Y-v.Y)*f,
		Z: v.Z + (o.Z-v.Z)*f,
	}
}

func (c RGB) Scale(s float64) RGB { return RGB{c.R * s, c.G * s, c.B * s} }

// Sum is r+g+b, used by the white-cap limiter.
func (c RGB) Sum() float64 { return c.R + c.G + c.B }

// HSV converts hue/saturation/value to RGB. Hue is in turns and wraps, so
// 2.75 and -0.25 are both read as 0.75.
func HSV(h, s, v float64) RGB {
	h -= math.Floor(h)
	if h >= 1 {
		h = 0
	}
	c := colorful.Hsv(h*360, s, v)
	return RGB{R: c.R, G: c.G, B: c.B}
}

// ToByte clamps v to [0,255] and truncates toward zero. NaN maps to 0.
func ToByte(v float64) byte {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}

// Bytes appends the 3-byte encoding of every color to dst.
func Bytes(dst []byte, colors []RGB) []byte {
	for _, c := range colors {
		dst = append(dst, ToByte(c.R), ToByte(c.G), ToByte(c.B))
	}
	return dst
}
