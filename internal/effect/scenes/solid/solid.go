package solid

import (
	"math"

	"github.com/coreman2200/pixelgenie/internal/effect"
	"github.com/coreman2200/pixelgenie/internal/pixel"
)

// SingleColor fills every LED with one hue. An optional "pulse_hz" above
// zero modulates brightness over time.
type SingleColor struct{}

func New() SingleColor { return SingleColor{} }

func (SingleColor) Describe() effect.Schema {
	return effect.Schema{
		Name:        "Single Color",
		Description: "Just a plain color",
		Parameters: effect.Parameters{
			{Name: "hue", Min: 1, Max: 2, Value: 1},
			{Name: "brightness", Min: 0, Max: 1, Value: 0.8},
			{Name: "pulse_hz", Min: 0, Max: 5, Value: 0},
		},
	}
}

func (SingleColor) Evaluate(_ pixel.Vec3, p effect.Snapshot, t float64) pixel.RGB {
	v := p.Get("brightness")
	if hz := p.Get("pulse_hz"); hz > 0 {
		v *= 0.5 + 0.5*math.Sin(2*math.Pi*hz*t)
	}
	return pixel.HSV(p.Get("hue"), 1, v)
}
