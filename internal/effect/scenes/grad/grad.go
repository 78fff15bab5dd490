package grad

import (
	"math"

	"github.com/coreman2200/pixelgenie/internal/effect"
	"github.com/coreman2200/pixelgenie/internal/pixel"
)

// Gradient renders a spatial rainbow along one axis with optional time
// animation.
// Params:
//   - "axis"    0=X, 1=Y, 2=Z
//   - "period"  distance covered by one full color cycle
//   - "speed"   cycles per second
//   - "brightness"
type Gradient struct{}

func New() Gradient { return Gradient{} }

func (Gradient) Describe() effect.Schema {
	return effect.Schema{
		Name:        "Gradient",
		Description: "Rainbow bands sweeping along an axis",
		Parameters: effect.Parameters{
			{Name: "axis", Min: 0, Max: 2, Value: 1},
			{Name: "period", Min: 1, Max: 100, Value: 24},
			{Name: "speed", Min: 0, Max: 2, Value: 0.1},
			{Name: "brightness", Min: 0, Max: 1, Value: 0.8},
		},
	}
}

func (Gradient) Evaluate(pos pixel.Vec3, p effect.Snapshot, t float64) pixel.RGB {
	var v float64
	switch int(p.Get("axis")) {
	case 0:
		v = pos.X
	case 1:
		v = pos.Y
	default:
		v = pos.Z
	}
	period := p.Get("period")
	if period <= 0 {
		period = 1
	}
	phase := v/period*2*math.Pi + t*2*math.Pi*p.Get("speed")
	b := p.Get("brightness")
	return pixel.RGB{
		R: b * (0.5 + 0.5*math.Sin(phase)),
		G: b * (0.5 + 0.5*math.Sin(phase+2*math.Pi/3)),
		B: b * (0.5 + 0.5*math.Sin(phase+4*math.Pi/3)),
	}
}
