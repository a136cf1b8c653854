// SPDX-License-Identifier: MIT

package host

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/maps"

	"github.com/katalvlaran/posespace/depgraph"
	"github.com/katalvlaran/posespace/formula"
)

// ErrUnresolved is returned by a Scene that cannot produce a binding value.
var ErrUnresolved = errors.New("host: unresolved binding")

// Scene supplies the live values of non-cell bindings.
type Scene interface {
	Resolve(b Binding) (float64, error)
}

// MapScene is a Scene backed by a map keyed by Target.Key.
//
// Location differences read the LOC_X, LOC_Y and LOC_Z channels of both
// targets; rotation differences read ROT_W, ROT_X, ROT_Y and ROT_Z.
type MapScene map[string]float64

var _ Scene = MapScene(nil)

// Set stores v under t.
func (m MapScene) Set(t Target, v float64) { m[t.Key()] = v }

// SetChannels stores one value per channel of t, in order.
func (m MapScene) SetChannels(t Target, channels []string, values []float64) {
	for i, ch := range channels {
		t.Channel = ch
		m[t.Key()] = values[i]
	}
}

// Resolve implements Scene.
func (m MapScene) Resolve(b Binding) (float64, error) {
	switch b.Kind {
	case BindSingleProp, BindTransforms:
		if len(b.Targets) != 1 {
			return 0, fmt.Errorf("%w: %s needs one target", ErrUnresolved, b.Name)
		}
		v, ok := m[b.Targets[0].Key()]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnresolved, b.Targets[0].Key())
		}
		return v, nil
	case BindLocDiff:
		a, bb, err := m.pair(b, []string{"LOC_X", "LOC_Y", "LOC_Z"})
		if err != nil {
			return 0, err
		}
		var s float64
		for i := range a {
			d := a[i] - bb[i]
			s += d * d
		}
		return math.Sqrt(s), nil
	case BindRotDiff:
		a, bb, err := m.pair(b, []string{"ROT_W", "ROT_X", "ROT_Y", "ROT_Z"})
		if err != nil {
			return 0, err
		}
		var dot float64
		for i := range a {
			dot += a[i] * bb[i]
		}
		return 2 * math.Acos(math.Min(1, math.Abs(dot))), nil
	}

	return 0, fmt.Errorf("%w: %s has kind %s", ErrUnresolved, b.Name, b.Kind)
}

func (m MapScene) pair(b Binding, channels []string) ([]float64, []float64, error) {
	if len(b.Targets) != 2 {
		return nil, nil, fmt.Errorf("%w: %s needs two targets", ErrUnresolved, b.Name)
	}
	read := func(t Target) ([]float64, error) {
		out := make([]float64, len(channels))
		for i, ch := range channels {
			t.Channel = ch
			v, ok := m[t.Key()]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnresolved, t.Key())
			}
			out[i] = v
		}
		return out, nil
	}
	a, err := read(b.Targets[0])
	if err != nil {
		return nil, nil, err
	}
	c, err := read(b.Targets[1])
	if err != nil {
		return nil, nil, err
	}

	return a, c, nil
}

// Runtime evaluates every formula of a Store against a Scene.
type Runtime struct {
	store  Store
	scene  Scene
	logger hclog.Logger
}

// NewRuntime returns a runtime reading store and scene. A nil scene resolves
// nothing, so only cell bindings evaluate.
func NewRuntime(store Store, scene Scene, opts ...Option) *Runtime {
	o := buildOptions(opts)
	if scene == nil {
		scene = MapScene{}
	}

	return &Runtime{store: store, scene: scene, logger: o.logger.Named("runtime")}
}

// Frame holds the slot values of one evaluation pass. A Frame is not safe
// for concurrent use.
type Frame struct {
	rt     *Runtime
	slots  map[string][]float64
	cells  map[string]compiled
	graph  *depgraph.Graph
	order  []string
	failed map[string]error
}

// Value returns the evaluated value of ref.
func (f *Frame) Value(ref SlotRef) (float64, error) {
	vs, ok := f.slots[ref.Slot]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoSlot, ref.Slot)
	}
	if ref.Index < 0 || ref.Index >= len(vs) {
		return 0, fmt.Errorf("%w: %s", ErrIndex, ref)
	}

	return vs[ref.Index], nil
}

// Values returns a copy of the evaluated values of a slot.
func (f *Frame) Values(name string) ([]float64, bool) {
	vs, ok := f.slots[name]
	if !ok {
		return nil, false
	}

	return append([]float64(nil), vs...), true
}

// Err returns the joined per-cell failures of the frame, or nil. A failed
// cell keeps its stored value.
func (f *Frame) Err() error {
	var errs *multierror.Error
	ids := maps.Keys(f.failed)
	slices.Sort(ids)
	for _, id := range ids {
		errs = multierror.Append(errs, f.failed[id])
	}

	return errs.ErrorOrNil()
}

type compiled struct {
	ref  SlotRef
	node formula.Node
	f    Formula
}

// sceneVertex names the graph vertex of a live scene target.
func sceneVertex(t Target) string { return "scene:" + t.Key() }

// Frame evaluates every formula once, in dependency order. It fails only when
// ctx is cancelled or the cell graph has a cycle.
func (rt *Runtime) Frame(ctx context.Context) (*Frame, error) {
	frame := &Frame{
		rt:     rt,
		slots:  make(map[string][]float64),
		cells:  make(map[string]compiled),
		graph:  depgraph.New(),
		failed: make(map[string]error),
	}
	g := frame.graph

	err := rt.store.View(func(r Reader) error {
		for _, name := range r.Names() {
			vs, err := r.Values(name)
			if err != nil {
				return err
			}
			frame.slots[name] = vs
			for i := range vs {
				ref := SlotRef{Slot: name, Index: i}
				f, ok := r.Formula(ref)
				if !ok {
					continue
				}
				id := ref.String()
				node, err := formula.Parse(f.Expr)
				if err != nil {
					frame.failed[id] = fmt.Errorf("%s: %w", ref, err)
					continue
				}
				frame.cells[id] = compiled{ref: ref, node: node, f: f}
				if err := g.AddVertex(id); err != nil {
					return err
				}
				for _, dep := range f.CellRefs() {
					if err := g.AddEdge(dep.String(), id); err != nil {
						return err
					}
				}
				for _, b := range f.Bindings {
					if b.Kind == BindCell {
						continue
					}
					for _, t := range b.Targets {
						if err := g.AddEdge(sceneVertex(t), id); err != nil {
							return err
						}
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := g.TopologicalSort(depgraph.WithCancelContext(ctx))
	if err != nil {
		return nil, err
	}
	frame.order = order

	if _, err := frame.evaluate(ctx, nil); err != nil {
		return nil, err
	}

	return frame, nil
}

// Update re-evaluates only the cells that read one of the changed scene
// targets, directly or through other cells, and returns how many it
// evaluated. Targets must match the ones recorded in the bindings.
func (f *Frame) Update(ctx context.Context, changed ...Target) (int, error) {
	roots := make([]string, len(changed))
	for i, t := range changed {
		roots[i] = sceneVertex(t)
	}
	dirty := make(map[string]struct{})
	for _, id := range f.graph.Downstream(roots...) {
		dirty[id] = struct{}{}
	}

	return f.evaluate(ctx, dirty)
}

// evaluate runs the cells in dependency order; a nil filter runs them all.
func (f *Frame) evaluate(ctx context.Context, filter map[string]struct{}) (int, error) {
	n := 0
	for _, id := range f.order {
		c, ok := f.cells[id]
		if !ok {
			continue
		}
		if filter != nil {
			if _, ok := filter[id]; !ok {
				continue
			}
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		n++
		v, err := f.rt.eval(f, c)
		if err != nil {
			f.rt.logger.Debug("formula failed", "cell", c.ref, "error", err)
			f.failed[id] = fmt.Errorf("%s: %w", c.ref, err)
			continue
		}
		delete(f.failed, id)
		f.slots[c.ref.Slot][c.ref.Index] = v
	}

	return n, nil
}

func (rt *Runtime) eval(frame *Frame, c compiled) (float64, error) {
	env := make(formula.MapEnv, len(c.f.Bindings))
	for _, b := range c.f.Bindings {
		var (
			v   float64
			err error
		)
		if b.Kind == BindCell {
			v, err = frame.Value(b.Cell)
		} else {
			v, err = rt.scene.Resolve(b)
		}
		if err != nil {
			return 0, err
		}
		env[b.Name] = v
	}

	return formula.Eval(c.node, env)
}
