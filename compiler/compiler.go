// SPDX-License-Identifier: MIT

// Package compiler keeps a host formula graph in step with the drivers of an
// rbf.System. For every driver it owns a fixed family of slots (see the
// Kind constants) whose cells, evaluated by the host once per frame, turn
// live target values into one normalized weight per pose.
//
// Structural pose events are applied to the existing slots in place, so
// entries keep their identity (and any annotations) across insertion,
// removal and reordering. DriverUpdated then regenerates every formula and
// writes only the cells whose text or bindings changed.
package compiler

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/katalvlaran/posespace/formula"
	"github.com/katalvlaran/posespace/host"
	"github.com/katalvlaran/posespace/rbf"
)

// Stats summarizes the writes of the last compile of one driver.
type Stats struct {
	// Written counts cells whose formula changed.
	Written int
	// Unchanged counts cells whose regenerated formula matched the stored one.
	Unchanged int
	// Values counts plain value writes.
	Values int
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l hclog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

type driverState struct {
	poses  int
	blocks []uuid.UUID
}

// Compiler mirrors drivers into a host.Store.
type Compiler struct {
	store  host.Store
	logger hclog.Logger
	state  map[uuid.UUID]*driverState
	stats  map[uuid.UUID]Stats
	unsub  []func()
}

// New subscribes a compiler to sys. Drivers are compiled on their next
// DriverUpdated event; use Compile for drivers that already exist.
func New(sys *rbf.System, store host.Store, opts ...Option) *Compiler {
	c := &Compiler{
		store:  store,
		logger: hclog.NewNullLogger(),
		state:  make(map[uuid.UUID]*driverState),
		stats:  make(map[uuid.UUID]Stats),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("compiler")

	ev := sys.Events()
	c.unsub = append(c.unsub,
		ev.PoseAdded.Subscribe(c.poseAdded),
		ev.PoseRemoved.Subscribe(c.poseRemoved),
		ev.PoseMoved.Subscribe(c.poseMoved),
		ev.DriverUpdated.Subscribe(func(e rbf.DriverUpdatedEvent) error { return c.Compile(e.Driver) }),
		ev.DriverDisposable.Subscribe(func(e rbf.DriverEvent) error { return c.dispose(e.Driver) }),
	)

	return c
}

// Close unsubscribes the compiler. Slots already written stay in the store.
func (c *Compiler) Close() {
	for _, fn := range c.unsub {
		fn()
	}
	c.unsub = nil
}

// Stats returns the statistics of the last compile of driver.
func (c *Compiler) Stats(driver uuid.UUID) (Stats, bool) {
	s, ok := c.stats[driver]
	return s, ok
}

func (c *Compiler) poseAdded(e rbf.PoseEvent) error {
	st := c.state[e.Driver.ID()]
	if st == nil {
		return nil
	}
	id := e.Driver.ID()

	return c.store.Update(func(tx host.Tx) error {
		for _, k := range poseKinds {
			if err := insertAt(tx, SlotName(k, id), e.Index, 0); err != nil {
				return err
			}
		}
		for _, k := range blockKinds {
			for b := len(st.blocks) - 1; b >= 0; b-- {
				if err := insertAt(tx, SlotName(k, id), b*st.poses+e.Index, 0); err != nil {
					return err
				}
			}
		}
		st.poses++
		return nil
	})
}

func (c *Compiler) poseRemoved(e rbf.PoseEvent) error {
	st := c.state[e.Driver.ID()]
	if st == nil {
		return nil
	}
	id := e.Driver.ID()

	return c.store.Update(func(tx host.Tx) error {
		for _, k := range poseKinds {
			name := SlotName(k, id)
			if tx.Len(name) <= e.Index {
				continue
			}
			if err := tx.Splice(name, e.Index); err != nil {
				return err
			}
		}
		for _, k := range blockKinds {
			for b := len(st.blocks) - 1; b >= 0; b-- {
				if err := tx.Splice(SlotName(k, id), b*st.poses+e.Index); err != nil {
					return err
				}
			}
		}
		st.poses--
		return nil
	})
}

func (c *Compiler) poseMoved(e rbf.PoseMovedEvent) error {
	st := c.state[e.Driver.ID()]
	if st == nil {
		return nil
	}
	id := e.Driver.ID()

	return c.store.Update(func(tx host.Tx) error {
		for _, k := range poseKinds {
			name := SlotName(k, id)
			if tx.Len(name) < st.poses {
				continue
			}
			if err := tx.Move(name, e.From, e.To); err != nil {
				return err
			}
		}
		for _, k := range blockKinds {
			for b := range st.blocks {
				off := b * st.poses
				if err := tx.Move(SlotName(k, id), off+e.From, off+e.To); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (c *Compiler) dispose(d *rbf.Driver) error {
	id := d.ID()
	delete(c.state, id)
	delete(c.stats, id)

	return c.store.Update(func(tx host.Tx) error { return deleteSlots(tx, id) })
}

// contributing returns the inputs whose distances feed the driver matrix.
func contributing(d *rbf.Driver) []*rbf.Input {
	n := d.Poses().Len()
	var out []*rbf.Input
	for _, in := range d.Inputs().Valid() {
		if len(in.Distance().Radii()) == n {
			out = append(out, in)
		}
	}

	return out
}

// Compile regenerates the slots of d.
func (c *Compiler) Compile(d *rbf.Driver) error {
	if d.Disposed() {
		return nil
	}
	id := d.ID()
	poses := d.Poses().All()
	n := len(poses)
	inputs := contributing(d)
	blocks := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		blocks = append(blocks, in.ID())
	}
	if len(blocks) == 0 {
		// one block of constant distances keeps the layout uniform
		blocks = append(blocks, uuid.Nil)
	}

	w := &writer{}
	err := c.store.Update(func(tx host.Tx) error {
		w.tx = tx
		st := c.state[id]
		if st != nil && !st.consistent(tx, id, n) {
			c.logger.Warn("slot layout out of sync, rebuilding", "driver", d.Name())
			st = nil
		}
		if st == nil {
			if err := deleteSlots(tx, id); err != nil {
				return err
			}
			for _, k := range blockKinds {
				if err := tx.Ensure(SlotName(k, id), 0, 0); err != nil {
					return err
				}
			}
			st = &driverState{poses: n}
			c.state[id] = st
		}
		if err := st.reconcile(tx, id, blocks); err != nil {
			return err
		}

		return c.emit(w, d, poses, inputs)
	})
	if err != nil {
		return fmt.Errorf("compile driver %q: %w", d.Name(), err)
	}
	c.stats[id] = w.stats
	c.logger.Debug("compiled driver", "driver", d.Name(), "poses", n, "inputs", len(inputs),
		"written", w.stats.Written, "unchanged", w.stats.Unchanged)

	return nil
}

func (st *driverState) consistent(tx host.Tx, id uuid.UUID, poses int) bool {
	if st.poses != poses {
		return false
	}
	for _, k := range blockKinds {
		if tx.Len(SlotName(k, id)) != len(st.blocks)*st.poses {
			return false
		}
	}

	return true
}

// reconcile reorders the input blocks of the block slots to want, removing
// blocks of inputs that stopped contributing and inserting new ones.
func (st *driverState) reconcile(tx host.Tx, id uuid.UUID, want []uuid.UUID) error {
	n := st.poses
	cur := slices.Clone(st.blocks)

	for b := len(cur) - 1; b >= 0; b-- {
		if slices.Contains(want, cur[b]) {
			continue
		}
		for _, k := range blockKinds {
			for t := 0; t < n; t++ {
				if err := tx.Splice(SlotName(k, id), b*n); err != nil {
					return err
				}
			}
		}
		cur = slices.Delete(cur, b, b+1)
	}

	for j, bid := range want {
		if j < len(cur) && cur[j] == bid {
			continue
		}
		if k := slices.Index(cur, bid); k > j {
			for _, kind := range blockKinds {
				for t := 0; t < n; t++ {
					if err := tx.Move(SlotName(kind, id), k*n+t, j*n+t); err != nil {
						return err
					}
				}
			}
			cur = slices.Insert(slices.Delete(cur, k, k+1), j, bid)
			continue
		}
		for _, kind := range blockKinds {
			for t := 0; t < n; t++ {
				if err := insertAt(tx, SlotName(kind, id), j*n+t, 0); err != nil {
					return err
				}
			}
		}
		cur = slices.Insert(cur, j, bid)
	}
	st.blocks = cur

	return nil
}

type writer struct {
	tx    host.Tx
	stats Stats
}

func (w *writer) value(r host.SlotRef, v float64) error {
	w.stats.Values++
	return w.tx.SetValue(r, v)
}

func (w *writer) formula(r host.SlotRef, f host.Formula) error {
	changed, err := w.tx.SetFormula(r, f)
	if err != nil {
		return err
	}
	if changed {
		w.stats.Written++
	} else {
		w.stats.Unchanged++
	}

	return nil
}

func (c *Compiler) emit(w *writer, d *rbf.Driver, poses []*rbf.Pose, inputs []*rbf.Input) error {
	tx := w.tx
	id := d.ID()
	n := len(poses)
	blocks := max(len(inputs), 1)
	linear := d.Smoothing() == rbf.Linear

	sizes := map[string]int{
		KindInfluence: n,
		KindRadius:    blocks * n,
		KindVarMatrix: n * n,
		KindDistance:  blocks * n,
		KindWeight:    n,
		KindSum:       1,
		KindNorm:      n,
	}
	if len(inputs) > 1 {
		sizes[KindAverage] = n
	}
	if linear {
		sizes[KindSolved] = n
	}
	for _, k := range allKinds {
		name := SlotName(k, id)
		size, ok := sizes[k]
		if !ok {
			if err := tx.Delete(name); err != nil {
				return err
			}
			continue
		}
		if err := tx.Ensure(name, size, 0); err != nil {
			return err
		}
	}

	// values
	for j, p := range poses {
		if err := w.value(ref(KindInfluence, id, j), p.Influence()); err != nil {
			return err
		}
	}
	for b, in := range inputs {
		radii := in.Distance().Radii()
		for j, p := range poses {
			if err := w.value(ref(KindRadius, id, b*n+j), effectiveRadius(p, radii[j])); err != nil {
				return err
			}
		}
	}
	if len(inputs) == 0 {
		for j := range poses {
			if err := w.value(ref(KindRadius, id, j), 1); err != nil {
				return err
			}
		}
	}
	weights := d.Weights()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var v float64
			if weights.Rows() == n && weights.Cols() == n {
				v, _ = weights.At(i, j)
			}
			if err := w.value(ref(KindVarMatrix, id, i*n+j), v); err != nil {
				return err
			}
		}
	}

	// distances
	for b := 0; b < blocks; b++ {
		for j := 0; j < n; j++ {
			f := build(formula.N(0))
			if len(inputs) > 0 {
				f = distanceFormula(inputs[b], j, ref(KindRadius, id, b*n+j))
			}
			if err := w.formula(ref(KindDistance, id, b*n+j), f); err != nil {
				return err
			}
		}
	}

	aggregate := func(j int) host.SlotRef { return ref(KindDistance, id, j) }
	if len(inputs) > 1 {
		aggregate = func(j int) host.SlotRef { return ref(KindAverage, id, j) }
		for j := 0; j < n; j++ {
			terms := make([]formula.Node, blocks)
			bindings := make([]host.Binding, blocks)
			for b := 0; b < blocks; b++ {
				name := fmt.Sprintf("d%d", b)
				terms[b] = formula.V(name)
				bindings[b] = cell(name, ref(KindDistance, id, b*n+j))
			}
			if err := w.formula(ref(KindAverage, id, j), build(formula.Mean(terms...), bindings...)); err != nil {
				return err
			}
		}
	}

	// weights
	sum := make([]formula.Node, n)
	sumBindings := make([]host.Binding, n)
	for j, p := range poses {
		node := formula.Mul(formula.V("i"), curveNode(p.Falloff().EffectiveCurve(), formula.V("x")))
		f := build(node, cell("i", ref(KindInfluence, id, j)), cell("x", aggregate(j)))
		if err := w.formula(ref(KindWeight, id, j), f); err != nil {
			return err
		}
		name := fmt.Sprintf("w%d", j)
		sum[j] = formula.V(name)
		sumBindings[j] = cell(name, ref(KindWeight, id, j))
	}
	if err := w.formula(ref(KindSum, id, 0), build(formula.Sum(sum...), sumBindings...)); err != nil {
		return err
	}

	wv, sv := formula.V("w"), formula.V("s")
	normNode := formula.IfElse(formula.Div(wv, sv), formula.Ne(sv, formula.N(0)), wv)
	for j := range poses {
		f := build(normNode, cell("w", ref(KindWeight, id, j)), cell("s", ref(KindSum, id, 0)))
		if err := w.formula(ref(KindNorm, id, j), f); err != nil {
			return err
		}
	}

	if linear {
		for j := 0; j < n; j++ {
			terms := make([]formula.Node, n)
			bindings := make([]host.Binding, 0, 2*n)
			for i := 0; i < n; i++ {
				m, x := fmt.Sprintf("m%d", i), fmt.Sprintf("n%d", i)
				terms[i] = formula.Mul(formula.V(m), formula.V(x))
				bindings = append(bindings, cell(m, ref(KindVarMatrix, id, i*n+j)), cell(x, ref(KindNorm, id, i)))
			}
			if err := w.formula(ref(KindSolved, id, j), build(formula.Sum(terms...), bindings...)); err != nil {
				return err
			}
		}
	}

	return c.annotate(tx, d, poses, linear)
}

func (c *Compiler) annotate(tx host.Tx, d *rbf.Driver, poses []*rbf.Pose, linear bool) error {
	id := d.ID()
	for j, p := range poses {
		final, other := ref(KindNorm, id, j), host.SlotRef{}
		if linear {
			final, other = ref(KindSolved, id, j), ref(KindNorm, id, j)
		}
		if err := tx.Annotate(final, NotePose, p.ID().String()); err != nil {
			return err
		}
		if err := tx.Annotate(final, NoteDriver, id.String()); err != nil {
			return err
		}
		if other.IsZero() {
			continue
		}
		for _, key := range []string{NotePose, NoteDriver} {
			if err := tx.Annotate(other, key, ""); err != nil {
				return err
			}
		}
	}

	return nil
}
