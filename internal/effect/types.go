package effect

import (
	"bytes"
	"encoding/json"

	"github.com/coreman2200/pixelgenie/internal/pixel"
)

// Effect maps a position and a time to a color. Implementations must be
// safe for concurrent use and keep no state between calls; everything
// tunable lives in the Snapshot.
type Effect interface {
	// Describe returns the display metadata and the parameter bounds with
	// their default values.
	Describe() Schema
	Evaluate(pos pixel.Vec3, p Snapshot, t float64) pixel.RGB
}

// Parameter is one bounded knob of an effect.
type Parameter struct {
	Name  string  `json:"-"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Value float64 `json:"value"`
}

// Parameters keeps declaration order. It serializes as a JSON object.
type Parameters []Parameter

// Index returns the position of name, or -1.
func (ps Parameters) Index(name string) int {
	for i := range ps {
		if ps[i].Name == name {
			return i
		}
	}
	return -1
}

func (ps Parameters) Get(name string) (Parameter, bool) {
	if i := ps.Index(name); i >= 0 {
		return ps[i], true
	}
	return Parameter{}, false
}

func (ps Parameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range ps {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Schema is the full description of a registered effect.
type Schema struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

func (s Schema) clone() Schema {
	s.Parameters = append(Parameters(nil), s.Parameters...)
	return s
}

func (s Schema) snapshot() Snapshot {
	m := make(map[string]float64, len(s.Parameters))
	for _, p := range s.Parameters {
		m[p.Name] = p.Value
	}
	return Snapshot{values: m}
}

// Configuration is every registered schema keyed by effect key.
type Configuration map[string]Schema

// Partial is a nested configuration update. Absent fields are left alone.
type Partial map[string]EffectPatch

type EffectPatch struct {
	Name        *string                   `json:"name,omitempty"`
	Description *string                   `json:"description,omitempty"`
	Parameters  map[string]ParameterPatch `json:"parameters,omitempty"`
}

type ParameterPatch struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Value *float64 `json:"value,omitempty"`
}

// Partial converts a full configuration into an update that would restore
// it exactly.
func (c Configuration) Partial() Partial {
	out := make(Partial, len(c))
	for key, s := range c {
		name, desc := s.Name, s.Description
		patch := EffectPatch{Name: &name, Description: &desc, Parameters: map[string]ParameterPatch{}}
		for _, p := range s.Parameters {
			lo, hi, value := p.Min, p.Max, p.Value
			patch.Parameters[p.Name] = ParameterPatch{Min: &lo, Max: &hi, Value: &value}
		}
		out[key] = patch
	}
	return out
}

// Snapshot is a read-only view of an effect's parameter values for one
// render tick.
type Snapshot struct {
	values map[string]float64
}

// NewSnapshot copies values into a Snapshot.
func NewSnapshot(values map[string]float64) Snapshot {
	m := make(map[string]float64, len(values))
	for k, v := range values {
		m[k] = v
	}
	return Snapshot{values: m}
}

// Get returns the value of name, or 0 when the effect has no such parameter.
func (s Snapshot) Get(name string) float64 { return s.values[name] }

func (s Snapshot) Lookup(name string) (float64, bool) {
	v, ok := s.values[name]
	return v, ok
}

func (s Snapshot) Len() int { return len(s.values) }

// Values returns a copy of every value in the snapshot.
func (s Snapshot) Values() map[string]float64 {
	m := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}
