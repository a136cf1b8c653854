// SPDX-License-Identifier: MIT

package rbf

import (
	"fmt"
	"slices"

	"github.com/katalvlaran/posespace/host"
	"github.com/katalvlaran/posespace/matrix"
	"github.com/katalvlaran/posespace/metric"
)

// Input is one typed data channel of a driver.
type Input struct {
	Identity

	driver       *Driver
	typ          InputType
	rotationMode RotationMode
	vars         *Variables
	distance     *InputDistance
	detached     bool
}

type varSpec struct {
	name       string
	typ        VariableType
	channel    string
	def        float64
	normalized bool
}

var inputLayouts = map[InputType][]varSpec{
	Location: {
		{name: "x", typ: Transforms, channel: "LOC_X"},
		{name: "y", typ: Transforms, channel: "LOC_Y"},
		{name: "z", typ: Transforms, channel: "LOC_Z"},
	},
	Rotation: {
		{name: "w", typ: Transforms, channel: "ROT_W", def: 1},
		{name: "x", typ: Transforms, channel: "ROT_X"},
		{name: "y", typ: Transforms, channel: "ROT_Y"},
		{name: "z", typ: Transforms, channel: "ROT_Z"},
	},
	Scale: {
		{name: "x", typ: Transforms, channel: "SCALE_X", def: 1},
		{name: "y", typ: Transforms, channel: "SCALE_Y", def: 1},
		{name: "z", typ: Transforms, channel: "SCALE_Z", def: 1},
	},
	RotationDiff: {{name: "angle", typ: RotDiffVar}},
	LocDiff:      {{name: "distance", typ: LocDiffVar}},
	ShapeKey:     {{name: "value", typ: SingleProp}},
	UserDefined:  {{name: "value", typ: SingleProp, normalized: true}},
}

func newInput(d *Driver, t InputType) *Input {
	in := &Input{Identity: newIdentity(), driver: d, typ: t}
	in.vars = &Variables{input: in}
	in.distance = &InputDistance{input: in, m: matrix.NewEmpty()}
	n := d.poses.Len()
	for _, spec := range inputLayouts[t] {
		v := newVariable(in, spec.name, spec.typ, spec.def, n)
		v.normalized = spec.normalized
		for i := range v.targets {
			v.targets[i].Channel = spec.channel
			switch spec.typ {
			case Transforms:
				v.targets[i].Space = "LOCAL_SPACE"
			case LocDiffVar, RotDiffVar:
				v.targets[i].Space = "WORLD_SPACE"
			}
		}
		in.vars.items = append(in.vars.items, v)
	}
	if t == Rotation {
		in.applyRotationMode(Quaternion)
	}

	return in
}

// Driver returns the owning driver.
func (in *Input) Driver() *Driver { return in.driver }

// Type returns the input type.
func (in *Input) Type() InputType { return in.typ }

// RotationMode returns the rotation mode; meaningful for Rotation inputs.
func (in *Input) RotationMode() RotationMode { return in.rotationMode }

// Variables returns the variable collection.
func (in *Input) Variables() *Variables { return in.vars }

// Distance returns the input distance matrix.
func (in *Input) Distance() *InputDistance { return in.distance }

// Index returns the position of in in its driver, or -1 after removal.
func (in *Input) Index() int { return in.driver.inputs.Index(in) }

// IsEnabled reports whether at least one variable is enabled.
func (in *Input) IsEnabled() bool {
	return slices.ContainsFunc(in.vars.items, func(v *Variable) bool { return v.enabled })
}

// IsValid reports whether the input is enabled, every enabled variable
// resolves to a live target and every sample series has one value per pose.
func (in *Input) IsValid() bool {
	if in.detached || !in.IsEnabled() {
		return false
	}
	n := in.driver.poses.Len()
	resolver := in.driver.system.resolver
	for _, v := range in.vars.items {
		if !v.enabled {
			continue
		}
		if len(v.samples) != n || !resolver.Resolves(v) {
			return false
		}
	}

	return true
}

// MetricKind returns the metric selected by the input type and rotation mode.
func (in *Input) MetricKind() metric.Kind {
	if in.typ != Rotation {
		return metric.KindEuclidean
	}
	switch in.rotationMode {
	case Quaternion:
		return metric.KindQuaternion
	case SwingX:
		return metric.SwingKind(metric.AxisX)
	case SwingY:
		return metric.SwingKind(metric.AxisY)
	case SwingZ:
		return metric.SwingKind(metric.AxisZ)
	case TwistX, TwistY, TwistZ:
		return metric.KindTwist
	}

	return metric.KindEuclidean
}

// EffectiveMetric is MetricKind, or Euclidean when the enabled variable
// count does not match the metric arity.
func (in *Input) EffectiveMetric() metric.Kind {
	k := in.MetricKind()
	if !k.Accepts(len(in.vars.Enabled())) {
		return metric.KindEuclidean
	}

	return k
}

// change applies an input edit and schedules the input's cascade.
func (in *Input) change(apply func()) error {
	if in.detached {
		return ErrNotMember
	}
	d := in.driver
	if d.disposed {
		return ErrDisposed
	}

	return d.system.prop.run(func() error {
		apply()
		return d.system.prop.markInput(in)
	})
}

// SetRotationMode reconfigures the channels of a Rotation input: all four
// quaternion channels for Quaternion and Swing, x/y/z Euler channels for
// Euler, and the single twist angle of the axis for Twist. Every pose's
// sample is rewritten into the new representation.
func (in *Input) SetRotationMode(m RotationMode) error {
	if in.typ != Rotation {
		return fmt.Errorf("%w: %s input has no rotation mode", ErrInvalidMode, in.typ)
	}
	if m < Quaternion || m > TwistZ {
		return fmt.Errorf("%w: %s", ErrInvalidMode, m)
	}

	return in.change(func() {
		in.convertSamples(in.rotationMode.representation(), m.representation())
		in.applyRotationMode(m)
	})
}

func (m RotationMode) representation() metric.Representation {
	switch m {
	case Euler:
		return metric.RepEuler
	case TwistX:
		return metric.SwingTwistRep(metric.AxisX)
	case TwistY:
		return metric.SwingTwistRep(metric.AxisY)
	case TwistZ:
		return metric.SwingTwistRep(metric.AxisZ)
	}

	return metric.RepQuaternion
}

// convertSamples rewrites the w, x, y, z series pose by pose.
func (in *Input) convertSamples(from, to metric.Representation) {
	if from == to || len(in.vars.items) < 4 {
		return
	}
	vars := in.vars.items[:4]
	n := len(vars[0].samples)
	for _, v := range vars[1:] {
		n = min(n, len(v.samples))
	}
	for i := 0; i < n; i++ {
		var q [4]float64
		for k, v := range vars {
			q[k] = v.samples[i]
		}
		q = metric.ConvertRotation(from, to, q)
		for k, v := range vars {
			v.samples[i] = q[k]
		}
	}
}

func (in *Input) applyRotationMode(m RotationMode) {
	in.rotationMode = m
	channels := []string{"ROT_W", "ROT_X", "ROT_Y", "ROT_Z"}
	for i, v := range in.vars.items {
		if i >= len(channels) {
			break
		}
		t := v.targets[0]
		t.Channel = channels[i]
		switch m {
		case Quaternion, SwingX, SwingY, SwingZ:
			t.RotationMode = "QUATERNION"
			v.enabled = true
		case Euler:
			t.RotationMode = "AUTO"
			v.enabled = i > 0
		case TwistX, TwistY, TwistZ:
			axis := int(m-TwistX) + 1
			t.RotationMode = "SWING_TWIST_" + string("XYZ"[axis-1])
			v.enabled = i == axis
		}
		v.targets[0] = t
	}
}

// SetTarget points every variable's first target at t's object: ID and
// Bone always, Space when set, and DataPath for single-property variables.
// Channels and rotation modes are kept.
func (in *Input) SetTarget(t host.Target) error {
	return in.change(func() {
		for _, v := range in.vars.items {
			cur := v.targets[0]
			cur.ID, cur.Bone = t.ID, t.Bone
			if t.Space != "" {
				cur.Space = t.Space
			}
			if v.typ == SingleProp {
				cur.DataPath = t.DataPath
			}
			v.targets[0] = cur
		}
	})
}

// Inputs is the ordered input collection of a driver.
type Inputs struct {
	driver *Driver
	items  []*Input
}

// Len returns the input count.
func (c *Inputs) Len() int { return len(c.items) }

// At returns the input at i, or nil.
func (c *Inputs) At(i int) *Input {
	if i < 0 || i >= len(c.items) {
		return nil
	}

	return c.items[i]
}

// All returns the inputs in order.
func (c *Inputs) All() []*Input { return slices.Clone(c.items) }

// Index returns the position of in, or -1.
func (c *Inputs) Index(in *Input) int { return slices.Index(c.items, in) }

// Valid returns the valid inputs in order.
func (c *Inputs) Valid() []*Input {
	var out []*Input
	for _, in := range c.items {
		if in.IsValid() {
			out = append(out, in)
		}
	}

	return out
}

// New appends an input of type t with the type's default variables, each
// holding its default value as the sample of every existing pose.
func (c *Inputs) New(t InputType) (*Input, error) {
	d := c.driver
	if d.disposed {
		return nil, ErrDisposed
	}
	if _, ok := inputLayouts[t]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, t)
	}
	in := newInput(d, t)

	err := d.system.prop.run(func() error {
		c.items = append(c.items, in)
		marked := d.system.prop.markInput(in)
		return joinErrors(marked, d.system.events.InputAdded.Publish(InputEvent{Driver: d, Input: in, Index: len(c.items) - 1}))
	})

	return in, err
}

// Remove deletes in. InputDisposable is delivered while in is still listed.
func (c *Inputs) Remove(in *Input) error {
	d := c.driver
	if d.disposed {
		return ErrDisposed
	}
	idx := c.Index(in)
	if idx < 0 {
		return ErrNotMember
	}
	ev := InputEvent{Driver: d, Input: in, Index: idx}
	disposable := d.system.events.InputDisposable.Publish(ev)

	err := d.system.prop.run(func() error {
		c.items = slices.Delete(c.items, idx, idx+1)
		in.detached = true
		d.system.prop.markDriver(d, stageMatrix)
		return d.system.events.InputRemoved.Publish(ev)
	})

	return joinErrors(disposable, err)
}
