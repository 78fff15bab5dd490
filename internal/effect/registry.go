package effect

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	ErrUnknownEffect    = errors.New("unknown effect")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrOutOfBounds      = errors.New("parameter out of bounds")
)

type entry struct {
	effect Effect
	schema Schema
	snap   Snapshot
}

// Registry holds the named effects and their live parameter values. Updates
// are validated as a whole and published together, so a Snapshot never mixes
// values from before and after an ApplyConfiguration call.
type Registry struct {
	mu    sync.RWMutex
	order []string
	m     map[string]*entry
}

func NewRegistry() *Registry { return &Registry{m: map[string]*entry{}} }

// Register stores e under key with its default parameter values. An existing
// effect with the same key is replaced along with its schema. Defaults must
// pass the same checks as ApplyConfiguration.
func (r *Registry) Register(key string, e Effect) error {
	if e == nil {
		return fmt.Errorf("%w %q: nil effect", ErrUnknownEffect, key)
	}
	s := e.Describe().clone()
	seen := make(map[string]bool, len(s.Parameters))
	for _, p := range s.Parameters {
		if seen[p.Name] {
			return fmt.Errorf("effect %q: duplicate parameter %q", key, p.Name)
		}
		seen[p.Name] = true
		if err := validate(p); err != nil {
			return fmt.Errorf("effect %q: %w", key, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[key]; !ok {
		r.order = append(r.order, key)
	}
	r.m[key] = &entry{effect: e, schema: s, snap: s.snapshot()}
	return nil
}

// Remove drops key and its schema.
func (r *Registry) Remove(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[key]; !ok {
		return false
	}
	delete(r.m, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys lists effect keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Effect(key string) (Effect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	en, ok := r.m[key]
	if !ok {
		return nil, false
	}
	return en.effect, true
}

// Current returns the effect under key together with its parameter values,
// read under one lock so a concurrent Register never pairs them up wrong.
func (r *Registry) Current(key string) (Effect, Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	en, ok := r.m[key]
	if !ok {
		return nil, Snapshot{}, false
	}
	return en.effect, en.snap, true
}

// Snapshot returns the current parameter values of key.
func (r *Registry) Snapshot(key string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	en, ok := r.m[key]
	if !ok {
		return Snapshot{}, false
	}
	return en.snap, true
}

// Configuration returns a copy of every schema.
func (r *Registry) Configuration() Configuration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(Configuration, len(r.m))
	for k, en := range r.m {
		out[k] = en.schema.clone()
	}
	return out
}

// ApplyConfiguration merges p into the stored schemas. Any unknown key or
// invalid bound rejects the whole update and nothing changes.
func (r *Registry) ApplyConfiguration(p Partial) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[string]Schema, len(p))
	for key, patch := range p {
		en, ok := r.m[key]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownEffect, key)
		}
		s, err := merge(en.schema.clone(), patch)
		if err != nil {
			return fmt.Errorf("effect %q: %w", key, err)
		}
		staged[key] = s
	}

	for key, s := range staged {
		en := r.m[key]
		en.schema = s
		en.snap = s.snapshot()
	}
	return nil
}

func merge(s Schema, patch EffectPatch) (Schema, error) {
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	for name, pp := range patch.Parameters {
		i := s.Parameters.Index(name)
		if i < 0 {
			return s, fmt.Errorf("%w %q", ErrUnknownParameter, name)
		}
		param := &s.Parameters[i]
		if pp.Min != nil {
			param.Min = *pp.Min
		}
		if pp.Max != nil {
			param.Max = *pp.Max
		}
		if pp.Value != nil {
			param.Value = *pp.Value
		}
		if err := validate(*param); err != nil {
			return s, err
		}
	}
	return s, nil
}

func validate(p Parameter) error {
	for _, v := range []float64{p.Min, p.Max, p.Value} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %q is not finite", ErrOutOfBounds, p.Name)
		}
	}
	if p.Min > p.Max {
		return fmt.Errorf("%w: %q min %v > max %v", ErrOutOfBounds, p.Name, p.Min, p.Max)
	}
	if p.Value < p.Min || p.Value > p.Max {
		return fmt.Errorf("%w: %q value %v not in [%v, %v]", ErrOutOfBounds, p.Name, p.Value, p.Min, p.Max)
	}
	return nil
}
