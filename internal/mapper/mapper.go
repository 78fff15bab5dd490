package mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/coreman2200/pixelgenie/internal/effect"
	"github.com/coreman2200/pixelgenie/internal/pixel"
)

// Sentinel is what every LED slot left at the origin renders as. It keeps
// unmapped buffer entries visibly inert on the strip.
var Sentinel = pixel.RGB{R: 0, G: 0, B: 0.2}

var (
	ErrNegativeIndex = errors.New("negative LED index")
	ErrBadCoordinate = errors.New("coordinate must have 2 or 3 components")
)

// Mapper holds the position of every LED index and the matching color
// buffer. The two slices always have the same length.
type Mapper struct {
	mu        sync.Mutex
	positions []pixel.Vec3
	buffer    []pixel.RGB
}

func New() *Mapper { return &Mapper{} }

// Len returns the number of addressed LEDs.
func (m *Mapper) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions)
}

func (m *Mapper) Position(index int) (pixel.Vec3, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.positions) {
		return pixel.Vec3{}, false
	}
	return m.positions[index], true
}

// SetPosition places LED index at pos, growing both buffers as needed.
func (m *Mapper) SetPosition(index int, pos pixel.Vec3) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeIndex, index)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grow(index + 1)
	m.positions[index] = pos
	return nil
}

// grow must be called with mu held.
func (m *Mapper) grow(n int) {
	if n <= len(m.positions) {
		return
	}
	m.positions = append(m.positions, make([]pixel.Vec3, n-len(m.positions))...)
	m.buffer = append(m.buffer, make([]pixel.RGB, n-len(m.buffer))...)
}

// SetPositionsAlongSegment spreads count LEDs evenly from a to b, both ends
// included, starting at index start. Points may be 2D; z then defaults to 0.
func (m *Mapper) SetPositionsAlongSegment(start, count int, a, b []float64) error {
	pa, err := Point(a)
	if err != nil {
		return err
	}
	pb, err := Point(b)
	if err != nil {
		return err
	}
	if start < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeIndex, start)
	}
	if count <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.grow(start + count)
	for i := 0; i < count; i++ {
		f := 0.0
		if count > 1 {
			f = float64(i) / float64(count-1)
		}
		m.positions[start+i] = pa.Lerp(pb, f)
	}
	// Endpoints are exact, not interpolated.
	m.positions[start] = pa
	if count > 1 {
		m.positions[start+count-1] = pb
	}
	return nil
}

// Point converts a 2 or 3 component coordinate.
func Point(c []float64) (pixel.Vec3, error) {
	switch len(c) {
	case 2:
		return pixel.Vec3{X: c[0], Y: c[1]}, nil
	case 3:
		return pixel.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
	default:
		return pixel.Vec3{}, fmt.Errorf("%w, got %d", ErrBadCoordinate, len(c))
	}
}

// Translate moves every mapped LED by offset. Slots at the origin stay
// there so they keep rendering as Sentinel.
func (m *Mapper) Translate(offset pixel.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.positions {
		if p.IsOrigin() {
			continue
		}
		m.positions[i] = p.Add(offset)
	}
}

// RenderFrame evaluates e for every LED at time t, multiplies by colorScale
// and returns a copy of the resulting buffer.
func (m *Mapper) RenderFrame(e effect.Effect, p effect.Snapshot, t, colorScale float64) []pixel.RGB {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, pos := range m.positions {
		c := Sentinel
		if !pos.IsOrigin() {
			c = e.Evaluate(pos, p, t)
		}
		m.buffer[i] = c.Scale(colorScale)
	}
	return append([]pixel.RGB(nil), m.buffer...)
}

// LayoutPoint is one entry of an exported layout.
type LayoutPoint struct {
	Point [3]float64 `json:"point"`
}

// ExportLayout lists every LED position in index order.
func (m *Mapper) ExportLayout() []LayoutPoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LayoutPoint, len(m.positions))
	for i, p := range m.positions {
		out[i] = LayoutPoint{Point: [3]float64{p.X, p.Y, p.Z}}
	}
	return out
}

// WriteLayout writes ExportLayout as indented JSON.
func (m *Mapper) WriteLayout(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(m.ExportLayout())
}
