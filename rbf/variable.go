// SPDX-License-Identifier: MIT

package rbf

import (
	"fmt"
	"math"
	"slices"

	"github.com/katalvlaran/posespace/host"
)

// MaxVariables is the most variables one input may own.
const MaxVariables = 16

func (t VariableType) targetCount() int {
	if t == LocDiffVar || t == RotDiffVar {
		return 2
	}

	return 1
}

func (t VariableType) bindingKind() host.BindingKind {
	switch t {
	case Transforms:
		return host.BindTransforms
	case LocDiffVar:
		return host.BindLocDiff
	case RotDiffVar:
		return host.BindRotDiff
	}

	return host.BindSingleProp
}

// Variable is one scalar channel of an input with one sample per pose.
type Variable struct {
	input      *Input
	name       string
	typ        VariableType
	enabled    bool
	normalized bool
	def        float64
	targets    []host.Target
	samples    []float64
}

func newVariable(in *Input, name string, typ VariableType, def float64, poses int) *Variable {
	samples := make([]float64, poses)
	for i := range samples {
		samples[i] = def
	}

	return &Variable{
		input:   in,
		name:    name,
		typ:     typ,
		enabled: true,
		def:     def,
		targets: make([]host.Target, typ.targetCount()),
		samples: samples,
	}
}

// Input returns the owning input.
func (v *Variable) Input() *Input { return v.input }

// Name returns the variable name.
func (v *Variable) Name() string { return v.name }

// Type returns the variable type.
func (v *Variable) Type() VariableType { return v.typ }

// Index returns the position of v in its input, or -1.
func (v *Variable) Index() int { return v.input.vars.Index(v) }

// IsEnabled reports whether v contributes to the input distance.
func (v *Variable) IsEnabled() bool { return v.enabled }

// IsNormalized reports whether samples are divided by the series L2 norm.
func (v *Variable) IsNormalized() bool { return v.normalized }

// Default returns the value captured when no live value is available.
func (v *Variable) Default() float64 { return v.def }

// Targets returns a copy of the targets.
func (v *Variable) Targets() []host.Target { return slices.Clone(v.targets) }

// Samples returns a copy of the raw sample series.
func (v *Variable) Samples() []float64 { return slices.Clone(v.samples) }

// Sample returns the raw sample of pose i.
func (v *Variable) Sample(i int) (float64, error) {
	if i < 0 || i >= len(v.samples) {
		return 0, fmt.Errorf("%w: sample %d of %d", ErrOutOfRange, i, len(v.samples))
	}

	return v.samples[i], nil
}

// Norm returns the L2 norm of the raw series.
func (v *Variable) Norm() float64 {
	var s float64
	for _, x := range v.samples {
		s += x * x
	}

	return math.Sqrt(s)
}

// NormalizedSamples returns the series used for distances: divided by Norm
// when normalized and the norm is not zero, raw otherwise.
func (v *Variable) NormalizedSamples() []float64 {
	out := slices.Clone(v.samples)
	if !v.normalized {
		return out
	}
	norm := v.Norm()
	if norm == 0 {
		return out
	}
	for i := range out {
		out[i] /= norm
	}

	return out
}

// Binding returns the host binding that reads v's live value under name.
func (v *Variable) Binding(name string) host.Binding {
	return host.Binding{Name: name, Kind: v.typ.bindingKind(), Targets: slices.Clone(v.targets)}
}

// SetEnabled toggles the variable.
func (v *Variable) SetEnabled(enabled bool) error {
	return v.input.change(func() { v.enabled = enabled })
}

// SetNormalized toggles L2 normalization of the series.
func (v *Variable) SetNormalized(normalized bool) error {
	return v.input.change(func() { v.normalized = normalized })
}

// SetTarget replaces target i (0, or 1 for difference types).
func (v *Variable) SetTarget(i int, t host.Target) error {
	if i < 0 || i >= len(v.targets) {
		return fmt.Errorf("%w: target %d of %d", ErrOutOfRange, i, len(v.targets))
	}

	return v.input.change(func() { v.targets[i] = t })
}

// SetSample sets the sample of pose i.
func (v *Variable) SetSample(i int, x float64) error {
	if i < 0 || i >= len(v.samples) {
		return fmt.Errorf("%w: sample %d of %d", ErrOutOfRange, i, len(v.samples))
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Errorf("%w: sample %g", ErrOutOfRange, x)
	}

	return v.input.change(func() { v.samples[i] = x })
}

// SetSamples replaces the whole series; xs must hold one value per pose.
func (v *Variable) SetSamples(xs []float64) error {
	if n := v.input.driver.poses.Len(); len(xs) != n {
		return fmt.Errorf("%w: got %d samples for %d poses", ErrSampleCount, len(xs), n)
	}
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: sample %g", ErrOutOfRange, x)
		}
	}

	return v.input.change(func() { v.samples = slices.Clone(xs) })
}

// Variables is the ordered variable collection of an input.
type Variables struct {
	input *Input
	items []*Variable
}

// Len returns the variable count.
func (c *Variables) Len() int { return len(c.items) }

// At returns the variable at i, or nil.
func (c *Variables) At(i int) *Variable {
	if i < 0 || i >= len(c.items) {
		return nil
	}

	return c.items[i]
}

// All returns the variables in order.
func (c *Variables) All() []*Variable { return slices.Clone(c.items) }

// Index returns the position of v, or -1.
func (c *Variables) Index(v *Variable) int { return slices.Index(c.items, v) }

// ByName returns the first variable called name, or nil.
func (c *Variables) ByName(name string) *Variable {
	for _, v := range c.items {
		if v.name == name {
			return v
		}
	}

	return nil
}

// Enabled returns the enabled variables in order.
func (c *Variables) Enabled() []*Variable {
	var out []*Variable
	for _, v := range c.items {
		if v.enabled {
			out = append(out, v)
		}
	}

	return out
}

// New appends a single-property variable sampled at 0 for every pose.
func (c *Variables) New(name string) (*Variable, error) {
	if len(c.items) >= MaxVariables {
		return nil, fmt.Errorf("%w: at most %d", ErrVariableLimit, MaxVariables)
	}
	v := newVariable(c.input, name, SingleProp, 0, c.input.driver.poses.Len())
	err := c.input.change(func() { c.items = append(c.items, v) })
	if err != nil && c.Index(v) < 0 {
		return nil, err
	}

	return v, err
}

// Remove deletes v; the last variable cannot be removed.
func (c *Variables) Remove(v *Variable) error {
	idx := c.Index(v)
	if idx < 0 {
		return ErrNotMember
	}
	if len(c.items) == 1 {
		return fmt.Errorf("%w: an input needs at least one variable", ErrVariableLimit)
	}

	return c.input.change(func() { c.items = slices.Delete(c.items, idx, idx+1) })
}
