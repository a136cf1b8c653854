// SPDX-License-Identifier: MIT

package rbf_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/posespace/host"
	"github.com/katalvlaran/posespace/matrix"
	"github.com/katalvlaran/posespace/rbf"
	"github.com/katalvlaran/posespace/solver"
)

func TestNewDriver_HasRestPose(t *testing.T) {
	sys, d := newDriver(t)
	require.Equal(t, 1, d.Poses().Len())
	rest := d.Poses().At(0)
	assert.Equal(t, rbf.RestPoseName, rest.Name())
	assert.True(t, rest.IsRest())
	assert.Same(t, d, rest.Driver())
	assert.Same(t, sys, d.System())
	assert.Same(t, d, sys.Driver(d.ID()))
	assert.Same(t, d, sys.DriverByName("driver"))

	assert.ErrorIs(t, d.Poses().Remove(rest), rbf.ErrRestPose)
	assert.Equal(t, 1, d.Poses().Len())
}

func TestPoses_NewCapturesLiveValues(t *testing.T) {
	live := map[string]float64{"a": 0.7}
	src := rbf.ValueSourceFunc(func(v *rbf.Variable) (float64, error) {
		x, ok := live[v.Targets()[0].DataPath]
		if !ok {
			return 0, host.ErrUnresolved
		}
		return x, nil
	})
	_, d := newDriver(t, rbf.WithValueSource(src))
	in, err := d.Inputs().New(rbf.ShapeKey)
	require.NoError(t, err)
	require.NoError(t, in.SetTarget(host.Target{ID: "Key", DataPath: "a"}))
	extra, err := in.Variables().New("other")
	require.NoError(t, err)

	p, err := d.Poses().New("smile")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Index())
	assert.Equal(t, []float64{0, 0.7}, in.Variables().At(0).Samples())
	assert.Equal(t, []float64{0, 0}, extra.Samples(), "unresolved values fall back to the default")
}

func TestSceneValues(t *testing.T) {
	scene := host.MapScene{}
	target := host.Target{ID: "Armature", Bone: "arm", Channel: "LOC_X", Space: "LOCAL_SPACE"}
	scene.Set(target, 2.5)

	_, d := newDriver(t, rbf.WithValueSource(rbf.SceneValues{Scene: scene}))
	in, err := d.Inputs().New(rbf.Location)
	require.NoError(t, err)
	require.NoError(t, in.SetTarget(host.Target{ID: "Armature", Bone: "arm"}))
	_, err = d.Poses().New("raised")
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 2.5}, in.Variables().At(0).Samples())
	assert.Equal(t, []float64{0, 0}, in.Variables().At(1).Samples())
}

func TestPoses_Move(t *testing.T) {
	_, d := newDriver(t)
	in := scalarInput(t, d, 0, 1, 2, 3)
	p := d.Poses().At(1)

	require.NoError(t, d.Poses().Move(1, 3))
	assert.Equal(t, 3, p.Index())
	assert.Equal(t, []float64{0, 2, 3, 1}, in.Variables().At(0).Samples())
	requireSymmetricZeroDiagonal(t, in.Distance().Matrix())

	assert.ErrorIs(t, d.Poses().Move(0, 2), rbf.ErrRestPose)
	assert.ErrorIs(t, d.Poses().Move(2, 0), rbf.ErrRestPose)
	assert.ErrorIs(t, d.Poses().Move(1, 4), rbf.ErrOutOfRange)
	assert.NoError(t, d.Poses().Move(2, 2))
}

func TestSetterValidation(t *testing.T) {
	_, d := newDriver(t)
	in := scalarInput(t, d, 0, 1)
	p := d.Poses().At(1)
	v := in.Variables().At(0)

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"influence", p.SetInfluence(1.5), rbf.ErrOutOfRange},
		{"pose radius", p.SetRadius(-1), rbf.ErrOutOfRange},
		{"radius factor", p.Falloff().SetRadiusFactor(10.5), rbf.ErrOutOfRange},
		{"driver radius", d.SetRadius(0), rbf.ErrOutOfRange},
		{"regularization", d.SetRegularization(-0.1), rbf.ErrOutOfRange},
		{"nan sample", v.SetSample(0, math.NaN()), rbf.ErrOutOfRange},
		{"sample index", v.SetSample(2, 1), rbf.ErrOutOfRange},
		{"sample count", v.SetSamples([]float64{1, 2, 3}), rbf.ErrSampleCount},
		{"target index", v.SetTarget(1, host.Target{}), rbf.ErrOutOfRange},
		{"smoothing", d.SetSmoothing(rbf.Smoothing(7)), rbf.ErrInvalidMode},
	}
	for _, c := range cases {
		assert.ErrorIs(t, c.err, c.want, c.name)
	}
	assert.Equal(t, []float64{0, 1}, v.Samples())
	assert.Equal(t, 1.0, p.Influence())
	assert.Equal(t, 1.0, d.Radius())
}

func TestVariables_Limits(t *testing.T) {
	_, d := newDriver(t)
	in, err := d.Inputs().New(rbf.ShapeKey)
	require.NoError(t, err)
	for in.Variables().Len() < rbf.MaxVariables {
		_, err := in.Variables().New("k")
		require.NoError(t, err)
	}
	_, err = in.Variables().New("one too many")
	assert.ErrorIs(t, err, rbf.ErrVariableLimit)

	for in.Variables().Len() > 1 {
		require.NoError(t, in.Variables().Remove(in.Variables().At(0)))
	}
	assert.ErrorIs(t, in.Variables().Remove(in.Variables().At(0)), rbf.ErrVariableLimit)
}

func TestInputs_Remove(t *testing.T) {
	_, d := newDriver(t)
	a := scalarInput(t, d, 0, 2)
	b := scalarInput(t, d, 0, 4)

	require.NoError(t, d.Inputs().Remove(a))
	assert.Equal(t, -1, a.Index())
	assert.False(t, a.IsValid())
	assert.Equal(t, 0, b.Index())
	assert.InDelta(t, 4.0, at(t, d.Distance().Raw(), 0, 1), eps)
	assert.ErrorIs(t, d.Inputs().Remove(a), rbf.ErrNotMember)
	assert.ErrorIs(t, a.Variables().At(0).SetSample(0, 1), rbf.ErrNotMember)
}

func TestRemoveDriver(t *testing.T) {
	sys, d := newDriver(t)
	log := recordAll(sys)

	require.NoError(t, sys.RemoveDriver(d))
	assert.Equal(t, []string{"driver_disposable", "driver_disposed"}, *log)
	assert.True(t, d.Disposed())
	assert.Empty(t, sys.Drivers())
	assert.ErrorIs(t, d.SetRadius(2), rbf.ErrDisposed)
	_, err := d.Poses().New("late")
	assert.ErrorIs(t, err, rbf.ErrDisposed)
	assert.ErrorIs(t, sys.RemoveDriver(d), rbf.ErrNotMember)
}

func TestSolve_LinearRoundTrip(t *testing.T) {
	_, d := newDriver(t)
	scalarInput(t, d, 0, 1, 3)
	require.NoError(t, d.SetSmoothing(rbf.Linear))
	assert.Equal(t, solver.MethodExact, d.SolveMethod())

	prod, err := matrix.Mul(d.Distance().Matrix(), d.Weights())
	require.NoError(t, err)
	id, err := matrix.NewIdentity(3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, flat(t, id), flat(t, prod), 1e-6)

	require.NoError(t, d.SetRegularization(0.5))
	prod, err = matrix.Mul(d.Distance().Matrix(), d.Weights())
	require.NoError(t, err)
	half, err := matrix.Scale(id, 0.5)
	require.NoError(t, err)
	assert.InDeltaSlice(t, flat(t, half), flat(t, prod), 1e-6)
}

func TestSolve_CoincidentPosesDegrade(t *testing.T) {
	_, d := newDriver(t)
	scalarInput(t, d, 0, 1, 1)
	require.NoError(t, d.SetSmoothing(rbf.Linear))

	assert.Equal(t, solver.MethodLeastSquares, d.SolveMethod())
	w := d.Weights()
	assert.Equal(t, 3, w.Rows())
	assert.True(t, matrix.IsFinite(w))
}

func TestParseEnums(t *testing.T) {
	s, err := rbf.ParseSmoothing("linear")
	require.NoError(t, err)
	assert.Equal(t, rbf.Linear, s)
	k, err := rbf.ParseKernel("Quadratic")
	require.NoError(t, err)
	assert.Equal(t, rbf.Quadratic, k)
	it, err := rbf.ParseInputType("shape_key")
	require.NoError(t, err)
	assert.Equal(t, rbf.ShapeKey, it)
	m, err := rbf.ParseRotationMode("twist_x")
	require.NoError(t, err)
	assert.Equal(t, rbf.TwistX, m)
	_, err = rbf.ParseInputType("bogus")
	assert.ErrorIs(t, err, rbf.ErrInvalidMode)
	assert.Equal(t, "rotation_mode(42)", rbf.RotationMode(42).String())
}
