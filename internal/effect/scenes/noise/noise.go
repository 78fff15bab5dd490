package noise

import (
	"github.com/aquilax/go-perlin"

	"github.com/coreman2200/pixelgenie/internal/effect"
	"github.com/coreman2200/pixelgenie/internal/pixel"
)

const (
	octaves     = 3
	persistence = 2 // go-perlin alpha: amplitude divisor per octave
	lacunarity  = 2 // go-perlin beta: frequency multiplier per octave
	hueOffset   = 2.5
)

// ColorfulNoise drifts a saturated hue field through 3D Perlin noise.
// Params:
//   - "time_warp"  divides t before sampling; larger is slower
//   - "x_stretch", "y_stretch"  spatial frequency
//   - "brightness" HSV value
type ColorfulNoise struct {
	p *perlin.Perlin
}

func New(seed int64) *ColorfulNoise {
	return &ColorfulNoise{p: perlin.NewPerlin(persistence, lacunarity, octaves, seed)}
}

func (n *ColorfulNoise) Describe() effect.Schema {
	return effect.Schema{
		Name:        "Colorful Noise",
		Description: "A wonderful cloud of color",
		Parameters: effect.Parameters{
			{Name: "time_warp", Min: 1, Max: 10, Value: 5},
			{Name: "y_stretch", Min: 0, Max: 0.05, Value: 0.03},
			{Name: "x_stretch", Min: 0, Max: 0.05, Value: 0.03},
			{Name: "brightness", Min: 0, Max: 1, Value: 1},
		},
	}
}

func (n *ColorfulNoise) Evaluate(pos pixel.Vec3, p effect.Snapshot, t float64) pixel.RGB {
	warp := p.Get("time_warp")
	if warp == 0 {
		warp = 1
	}
	hue := n.p.Noise3D(pos.X*p.Get("x_stretch"), pos.Y*p.Get("y_stretch"), t/warp) + hueOffset
	return pixel.HSV(hue, 1, p.Get("brightness"))
}
