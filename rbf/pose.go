// SPDX-License-Identifier: MIT

package rbf

import (
	"fmt"
	"math"
	"slices"
)

// RestPoseName is the name of the pose every driver starts with.
const RestPoseName = "Rest"

// MaxRadiusFactor bounds Falloff.RadiusFactor.
const MaxRadiusFactor = 10.0

// Pose is a named point in input space.
type Pose struct {
	Identity

	driver     *Driver
	name       string
	influence  float64
	radius     float64
	autoRadius bool
	falloff    *Falloff
	detached   bool
}

func newPose(d *Driver, name string) *Pose {
	p := &Pose{Identity: newIdentity(), driver: d, name: name, influence: 1, radius: 1, autoRadius: true}
	p.falloff = &Falloff{pose: p, radiusFactor: 1, curve: LinearCurve()}

	return p
}

// Driver returns the owning driver.
func (p *Pose) Driver() *Driver { return p.driver }

// Name returns the pose name.
func (p *Pose) Name() string { return p.name }

// Index returns the position of p in its driver, or -1 after removal.
func (p *Pose) Index() int { return p.driver.poses.Index(p) }

// IsRest reports whether p is the rest pose.
func (p *Pose) IsRest() bool { return p.Index() == 0 }

// Influence returns the pose influence in [0,1].
func (p *Pose) Influence() float64 { return p.influence }

// Radius returns the pose radius: the auto-adjusted value, or the user value
// when AutoRadius is off.
func (p *Pose) Radius() float64 { return p.radius }

// AutoRadius reports whether the radius follows the driver distance matrix.
func (p *Pose) AutoRadius() bool { return p.autoRadius }

// EffectiveRadius is radius × driver radius × falloff radius factor.
func (p *Pose) EffectiveRadius() float64 {
	return p.radius * p.driver.radius * p.falloff.radiusFactor
}

// Falloff returns the pose falloff settings.
func (p *Pose) Falloff() *Falloff { return p.falloff }

func (p *Pose) set(st stage, apply func()) error {
	if p.detached {
		return ErrNotMember
	}

	return p.driver.set(st, apply)
}

// SetName renames the pose.
func (p *Pose) SetName(name string) error {
	return p.set(stageCompile, func() { p.name = name })
}

// SetInfluence sets the influence; v must be in [0,1].
func (p *Pose) SetInfluence(v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: influence %g", ErrOutOfRange, v)
	}

	return p.set(stageCompile, func() { p.influence = v })
}

// SetRadius overrides the radius and turns AutoRadius off.
func (p *Pose) SetRadius(v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: radius %g", ErrOutOfRange, v)
	}

	return p.set(stageMatrix, func() {
		p.radius = v
		p.autoRadius = false
	})
}

// SetAutoRadius toggles radius auto-adjustment.
func (p *Pose) SetAutoRadius(auto bool) error {
	return p.set(stageMatrix, func() { p.autoRadius = auto })
}

// Falloff is the per-pose falloff: a radius factor and an optional curve.
type Falloff struct {
	pose         *Pose
	radiusFactor float64
	useCurve     bool
	curve        Curve
}

// Pose returns the owning pose.
func (f *Falloff) Pose() *Pose { return f.pose }

// RadiusFactor returns the radius factor in [0, MaxRadiusFactor].
func (f *Falloff) RadiusFactor() float64 { return f.radiusFactor }

// UseCurve reports whether the pose curve replaces the driver curve.
func (f *Falloff) UseCurve() bool { return f.useCurve }

// Curve returns the pose curve.
func (f *Falloff) Curve() Curve { return f.curve }

// EffectiveCurve returns the pose curve when UseCurve is set, else the
// driver curve.
func (f *Falloff) EffectiveCurve() Curve {
	if f.useCurve {
		return f.curve
	}

	return f.pose.driver.curve
}

// SetRadiusFactor sets the radius factor.
func (f *Falloff) SetRadiusFactor(v float64) error {
	if !(v >= 0 && v <= MaxRadiusFactor) {
		return fmt.Errorf("%w: radius factor %g", ErrOutOfRange, v)
	}

	return f.pose.set(stageMatrix, func() { f.radiusFactor = v })
}

// SetUseCurve toggles the pose curve.
func (f *Falloff) SetUseCurve(use bool) error {
	return f.pose.set(stageCompile, func() { f.useCurve = use })
}

// SetCurve sets the pose curve.
func (f *Falloff) SetCurve(c Curve) error {
	return f.pose.set(stageCompile, func() { f.curve = c })
}

// Poses is the ordered pose collection of a driver. Index 0 is the rest pose.
type Poses struct {
	driver *Driver
	items  []*Pose
}

// Len returns the pose count N.
func (c *Poses) Len() int { return len(c.items) }

// At returns the pose at i, or nil.
func (c *Poses) At(i int) *Pose {
	if i < 0 || i >= len(c.items) {
		return nil
	}

	return c.items[i]
}

// All returns the poses in order.
func (c *Poses) All() []*Pose { return slices.Clone(c.items) }

// Index returns the position of p, or -1.
func (c *Poses) Index(p *Pose) int { return slices.Index(c.items, p) }

// ByName returns the first pose called name, or nil.
func (c *Poses) ByName(name string) *Pose {
	for _, p := range c.items {
		if p.name == name {
			return p
		}
	}

	return nil
}

// New appends a pose whose samples are captured from the system value source.
func (c *Poses) New(name string) (*Pose, error) {
	d := c.driver
	if d.disposed {
		return nil, ErrDisposed
	}
	p := newPose(d, name)
	values := d.system.values

	captured := make(map[*Variable]float64)
	for _, in := range d.inputs.items {
		for _, v := range in.vars.items {
			x, err := values.Value(v)
			if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
				d.system.logger.Debug("using default sample", "pose", name, "variable", v.name, "error", err)
				x = v.def
			}
			captured[v] = x
		}
	}

	err := d.system.prop.run(func() error {
		c.items = append(c.items, p)
		for v, x := range captured {
			v.samples = append(v.samples, x)
		}
		marked := d.system.prop.markAll(d)
		return joinErrors(marked, d.system.events.PoseAdded.Publish(PoseEvent{Driver: d, Pose: p, Index: len(c.items) - 1}))
	})

	return p, err
}

// Remove deletes p. PoseDisposable is delivered while p is still listed;
// PoseRemoved after every per-pose series was spliced.
func (c *Poses) Remove(p *Pose) error {
	d := c.driver
	if d.disposed {
		return ErrDisposed
	}
	idx := c.Index(p)
	switch {
	case idx < 0:
		return ErrNotMember
	case idx == 0:
		return ErrRestPose
	}
	ev := PoseEvent{Driver: d, Pose: p, Index: idx}
	disposable := d.system.events.PoseDisposable.Publish(ev)

	err := d.system.prop.run(func() error {
		c.items = slices.Delete(c.items, idx, idx+1)
		p.detached = true
		for _, in := range d.inputs.items {
			for _, v := range in.vars.items {
				v.samples = slices.Delete(v.samples, idx, idx+1)
			}
		}
		marked := d.system.prop.markAll(d)
		return joinErrors(marked, d.system.events.PoseRemoved.Publish(ev))
	})

	return joinErrors(disposable, err)
}

// Move relocates the pose at from to position to, shifting the poses between.
func (c *Poses) Move(from, to int) error {
	d := c.driver
	if d.disposed {
		return ErrDisposed
	}
	n := len(c.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d -> %d of %d poses", ErrOutOfRange, from, to, n)
	}
	if from == 0 || to == 0 {
		return ErrRestPose
	}
	if from == to {
		return nil
	}
	p := c.items[from]

	return d.system.prop.run(func() error {
		c.items = moveItem(c.items, from, to)
		for _, in := range d.inputs.items {
			for _, v := range in.vars.items {
				v.samples = moveItem(v.samples, from, to)
			}
		}
		marked := d.system.prop.markAll(d)
		return joinErrors(marked, d.system.events.PoseMoved.Publish(PoseMovedEvent{Driver: d, Pose: p, From: from, To: to}))
	})
}

func moveItem[T any](s []T, from, to int) []T {
	x := s[from]
	s = slices.Delete(s, from, from+1)

	return slices.Insert(s, to, x)
}
