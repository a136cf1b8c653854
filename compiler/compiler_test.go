// SPDX-License-Identifier: MIT

package compiler_test

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/posespace/compiler"
	"github.com/katalvlaran/posespace/host"
	"github.com/katalvlaran/posespace/metric"
	"github.com/katalvlaran/posespace/rbf"
)

const eps = 1e-9

type fixture struct {
	sys   *rbf.System
	store *host.MemoryStore
	comp  *compiler.Compiler
	d     *rbf.Driver
	scene host.MapScene
}

func newFixture(t *testing.T, poses int) *fixture {
	t.Helper()
	sys := rbf.NewSystem(rbf.WithTargetResolver(rbf.ResolverFunc(func(*rbf.Variable) bool { return true })))
	store := host.NewMemoryStore()
	comp := compiler.New(sys, store)
	t.Cleanup(comp.Close)

	d, err := sys.NewDriver("driver")
	require.NoError(t, err)
	for i := 1; i < poses; i++ {
		_, err := d.Poses().New(fmt.Sprintf("p%d", i))
		require.NoError(t, err)
	}

	return &fixture{sys: sys, store: store, comp: comp, d: d, scene: host.MapScene{}}
}

// shapeKey adds a scalar input reading key, with one sample per pose, and
// sets its live value.
func (f *fixture) shapeKey(t *testing.T, key string, live float64, samples ...float64) *rbf.Input {
	t.Helper()
	in, err := f.d.Inputs().New(rbf.ShapeKey)
	require.NoError(t, err)
	require.NoError(t, in.SetTarget(host.Target{ID: key, DataPath: "value"}))
	v := in.Variables().At(0)
	require.NoError(t, v.SetSamples(samples))
	f.scene.Set(v.Targets()[0], live)

	return in
}

func (f *fixture) frame(t *testing.T) *host.Frame {
	t.Helper()
	fr, err := host.NewRuntime(f.store, f.scene).Frame(context.Background())
	require.NoError(t, err)
	require.NoError(t, fr.Err())

	return fr
}

func (f *fixture) values(t *testing.T, fr *host.Frame, kind string) []float64 {
	t.Helper()
	vs, ok := fr.Values(compiler.SlotName(kind, f.d.ID()))
	require.True(t, ok, "slot %s", kind)

	return vs
}

func (f *fixture) slotLen(t *testing.T, kind string) int {
	t.Helper()
	n := -1
	require.NoError(t, f.store.View(func(r host.Reader) error {
		n = r.Len(compiler.SlotName(kind, f.d.ID()))
		return nil
	}))

	return n
}

func (f *fixture) note(t *testing.T, kind string, i int, key string) string {
	t.Helper()
	var v string
	require.NoError(t, f.store.View(func(r host.Reader) error {
		v, _ = r.Annotation(host.SlotRef{Slot: compiler.SlotName(kind, f.d.ID()), Index: i}, key)
		return nil
	}))

	return v
}

func (f *fixture) annotate(t *testing.T, kind string, i int, key, value string) {
	t.Helper()
	require.NoError(t, f.store.Update(func(tx host.Tx) error {
		return tx.Annotate(host.SlotRef{Slot: compiler.SlotName(kind, f.d.ID()), Index: i}, key, value)
	}))
}

func TestCompile_TwoPoses(t *testing.T) {
	f := newFixture(t, 2)
	f.shapeKey(t, "Key", 0.5, 0, 1)

	fr := f.frame(t)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, f.values(t, fr, compiler.KindDistance), eps)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, f.values(t, fr, compiler.KindNorm), eps)
	assert.InDeltaSlice(t, []float64{1}, f.values(t, fr, compiler.KindSum), eps)
	assert.Equal(t, -1, f.slotLen(t, compiler.KindAverage))
	assert.Equal(t, -1, f.slotLen(t, compiler.KindSolved))
}

func TestCompile_NormalizedWeightsSumToOne(t *testing.T) {
	f := newFixture(t, 3)
	f.shapeKey(t, "Key", 0.8, 0, 1, 2)

	norm := f.values(t, f.frame(t), compiler.KindNorm)
	assert.InDeltaSlice(t, []float64{0.2, 0.8, 0}, norm, eps)

	var sum float64
	for _, w := range norm {
		sum += w
	}
	assert.InDelta(t, 1, sum, eps)

	for _, p := range f.d.Poses().All() {
		r := compiler.WeightRef(p)
		assert.Equal(t, compiler.SlotName(compiler.KindNorm, f.d.ID()), r.Slot)
		assert.Equal(t, p.ID().String(), f.note(t, compiler.KindNorm, r.Index, compiler.NotePose))
		assert.Equal(t, f.d.ID().String(), f.note(t, compiler.KindNorm, r.Index, compiler.NoteDriver))
	}
}

func TestCompile_InfluenceAndCurve(t *testing.T) {
	f := newFixture(t, 3)
	f.shapeKey(t, "Key", 0.8, 0, 1, 2)
	require.NoError(t, f.d.Poses().At(1).SetInfluence(0.5))
	flat, err := rbf.NewCurve(rbf.Point{X: 0, Y: 1}, rbf.Point{X: 1, Y: 1})
	require.NoError(t, err)
	require.NoError(t, f.d.Poses().At(0).Falloff().SetCurve(flat))
	require.NoError(t, f.d.Poses().At(0).Falloff().SetUseCurve(true))

	fr := f.frame(t)
	// pose 0 is flat at 1; pose 1 halves 0.8
	assert.InDeltaSlice(t, []float64{1, 0.4, 0}, f.values(t, fr, compiler.KindWeight), eps)
	assert.InDeltaSlice(t, []float64{1 / 1.4, 0.4 / 1.4, 0}, f.values(t, fr, compiler.KindNorm), eps)
}

func TestCompile_PoseRemovalKeepsEntries(t *testing.T) {
	f := newFixture(t, 3)
	f.shapeKey(t, "Key", 0.8, 0, 1, 2)
	last := f.d.Poses().At(2)
	f.annotate(t, compiler.KindNorm, 2, "override", "7")

	require.NoError(t, f.d.Poses().Remove(f.d.Poses().At(1)))

	assert.Equal(t, 2, f.slotLen(t, compiler.KindNorm))
	assert.Equal(t, 2, f.slotLen(t, compiler.KindDistance))
	assert.Equal(t, 2, f.slotLen(t, compiler.KindRadius))
	assert.Equal(t, 4, f.slotLen(t, compiler.KindVarMatrix))
	assert.Equal(t, "7", f.note(t, compiler.KindNorm, 1, "override"))
	assert.Equal(t, last.ID().String(), f.note(t, compiler.KindNorm, 1, compiler.NotePose))

	fr := f.frame(t)
	assert.InDeltaSlice(t, []float64{0.6, 0.4}, f.values(t, fr, compiler.KindNorm), eps)
}

func TestCompile_PoseAddAndMove(t *testing.T) {
	f := newFixture(t, 2)
	f.shapeKey(t, "Key", 0.8, 0, 1)
	f.annotate(t, compiler.KindNorm, 1, "tag", "a")
	moved := f.d.Poses().At(1)

	p, err := f.d.Poses().New("p2")
	require.NoError(t, err)
	require.NoError(t, f.d.Inputs().At(0).Variables().At(0).SetSample(2, 2))
	assert.Equal(t, 3, f.slotLen(t, compiler.KindNorm))
	assert.Equal(t, "a", f.note(t, compiler.KindNorm, 1, "tag"))

	require.NoError(t, f.d.Poses().Move(1, 2))
	assert.Equal(t, 1, p.Index())
	assert.Equal(t, "a", f.note(t, compiler.KindNorm, 2, "tag"))
	assert.Equal(t, moved.ID().String(), f.note(t, compiler.KindNorm, 2, compiler.NotePose))
	assert.Empty(t, f.note(t, compiler.KindNorm, 1, "tag"))

	// samples are now [0, 2, 1]
	fr := f.frame(t)
	assert.InDeltaSlice(t, []float64{0.2, 0, 0.8}, f.values(t, fr, compiler.KindNorm), eps)
}

func TestCompile_LinearSolvesThroughVariableMatrix(t *testing.T) {
	f := newFixture(t, 3)
	f.shapeKey(t, "Key", 0.8, 0, 1, 2)
	require.NoError(t, f.d.SetSmoothing(rbf.Linear))

	n := f.d.Poses().Len()
	assert.Equal(t, n, f.slotLen(t, compiler.KindSolved))
	for _, p := range f.d.Poses().All() {
		r := compiler.WeightRef(p)
		assert.Equal(t, compiler.SlotName(compiler.KindSolved, f.d.ID()), r.Slot)
		assert.Equal(t, p.ID().String(), f.note(t, compiler.KindSolved, r.Index, compiler.NotePose))
		assert.Empty(t, f.note(t, compiler.KindNorm, r.Index, compiler.NotePose))
	}

	fr := f.frame(t)
	norm := f.values(t, fr, compiler.KindNorm)
	solved := f.values(t, fr, compiler.KindSolved)
	w := f.d.Weights()
	for j := 0; j < n; j++ {
		var want float64
		for i := 0; i < n; i++ {
			x, err := w.At(i, j)
			require.NoError(t, err)
			want += x * norm[i]
		}
		assert.InDelta(t, want, solved[j], eps, "pose %d", j)
	}

	require.NoError(t, f.d.SetSmoothing(rbf.Radial))
	assert.Equal(t, -1, f.slotLen(t, compiler.KindSolved))
	assert.Equal(t, f.d.Poses().At(1).ID().String(), f.note(t, compiler.KindNorm, 1, compiler.NotePose))
}

func TestCompile_NoInputs(t *testing.T) {
	f := newFixture(t, 2)

	require.NoError(t, f.store.View(func(r host.Reader) error {
		for j := 0; j < 2; j++ {
			fm, ok := r.Formula(host.SlotRef{Slot: compiler.SlotName(compiler.KindDistance, f.d.ID()), Index: j})
			require.True(t, ok)
			assert.Equal(t, "0.0", fm.Expr)
		}
		return nil
	}))
	fr := f.frame(t)
	assert.Equal(t, []float64{1, 1}, f.values(t, fr, compiler.KindRadius))
	assert.Equal(t, []float64{0, 0}, f.values(t, fr, compiler.KindNorm))
}

func TestCompile_InputBlocks(t *testing.T) {
	f := newFixture(t, 2)
	first := f.shapeKey(t, "Key", 0.5, 0, 1)
	f.shapeKey(t, "Other", 1, 0, 2)

	assert.Equal(t, 4, f.slotLen(t, compiler.KindDistance))
	assert.Equal(t, 2, f.slotLen(t, compiler.KindAverage))
	fr := f.frame(t)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.5, 0.5}, f.values(t, fr, compiler.KindDistance), eps)
	assert.InDeltaSlice(t, []float64{1, 1, 2, 2}, f.values(t, fr, compiler.KindRadius), eps)

	require.NoError(t, f.d.Inputs().Remove(first))
	assert.Equal(t, 2, f.slotLen(t, compiler.KindDistance))
	assert.Equal(t, -1, f.slotLen(t, compiler.KindAverage))
	require.NoError(t, f.store.View(func(r host.Reader) error {
		fm, ok := r.Formula(host.SlotRef{Slot: compiler.SlotName(compiler.KindDistance, f.d.ID()), Index: 1})
		require.True(t, ok)
		assert.Equal(t, "Other", fm.Bindings[0].Targets[0].ID)
		return nil
	}))
}

func TestCompile_RotationMetricsMatch(t *testing.T) {
	h := math.Sqrt2 / 2
	rest := []float64{1, 0, 0, 0}
	pose := []float64{h, 0, 0, h}
	live := []float64{math.Cos(math.Pi / 12), math.Sin(math.Pi / 12), 0, 0}

	modes := []rbf.RotationMode{rbf.Quaternion, rbf.Euler, rbf.SwingX, rbf.SwingY, rbf.SwingZ, rbf.TwistX, rbf.TwistY}
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			f := newFixture(t, 2)
			in, err := f.d.Inputs().New(rbf.Rotation)
			require.NoError(t, err)
			require.NoError(t, in.SetRotationMode(mode))
			require.NoError(t, in.SetTarget(host.Target{ID: "Arm", Bone: "elbow"}))
			for k, v := range in.Variables().All() {
				require.NoError(t, v.SetSamples([]float64{rest[k], pose[k]}))
				f.scene.Set(v.Targets()[0], live[k])
			}

			var a, b []float64
			for _, v := range in.Variables().Enabled() {
				k := v.Index()
				a, b = append(a, live[k]), append(b, rest[k])
			}
			fn := metric.Resolve(in.EffectiveMetric(), len(a), nil)

			fr := f.frame(t)
			radius := f.values(t, fr, compiler.KindRadius)
			dist := f.values(t, fr, compiler.KindDistance)
			assert.InDelta(t, 1-fn(a, b)/radius[0], dist[0], 1e-9)
		})
	}
}

func TestCompile_IdenticalRecompileWritesNothing(t *testing.T) {
	f := newFixture(t, 3)
	f.shapeKey(t, "Key", 0.8, 0, 1, 2)

	require.NoError(t, f.sys.Refresh())
	st, ok := f.comp.Stats(f.d.ID())
	require.True(t, ok)
	assert.Zero(t, st.Written)
	assert.Positive(t, st.Unchanged)
	assert.Positive(t, st.Values)
}

func TestCompile_DriverRemovalDeletesSlots(t *testing.T) {
	f := newFixture(t, 2)
	f.shapeKey(t, "Key", 0.5, 0, 1)
	id := f.d.ID().String()

	require.NoError(t, f.sys.RemoveDriver(f.d))
	require.NoError(t, f.store.View(func(r host.Reader) error {
		for _, name := range r.Names() {
			assert.False(t, strings.HasSuffix(name, id), name)
		}
		return nil
	}))
	_, ok := f.comp.Stats(f.d.ID())
	assert.False(t, ok)
}

func TestCompile_FormulaText(t *testing.T) {
	f := newFixture(t, 2)
	f.shapeKey(t, "Key", 0.5, 0, 1)

	require.NoError(t, f.store.View(func(r host.Reader) error {
		get := func(kind string, i int) string {
			fm, ok := r.Formula(host.SlotRef{Slot: compiler.SlotName(kind, f.d.ID()), Index: i})
			require.True(t, ok, kind)
			return fm.Expr
		}
		assert.Equal(t, "1.0-sqrt(pow(v0-1.0,2.0))/r", get(compiler.KindDistance, 1))
		assert.Equal(t, "i*(0.0 if x < 0.0 else x if x < 1.0 else 1.0)", get(compiler.KindWeight, 0))
		assert.Equal(t, "w0+w1", get(compiler.KindSum, 0))
		assert.Equal(t, "w/s if s != 0.0 else w", get(compiler.KindNorm, 0))
		return nil
	}))
}
