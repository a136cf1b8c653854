// SPDX-License-Identifier: MIT

package config_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/posespace/config"
	"github.com/katalvlaran/posespace/rbf"
)

func anyTarget() rbf.Option {
	return rbf.WithTargetResolver(rbf.ResolverFunc(func(*rbf.Variable) bool { return true }))
}

func TestLoad_BuildsDrivers(t *testing.T) {
	rig, err := config.Load(filepath.Join("testdata", "elbow.yaml"))
	require.NoError(t, err)
	require.Len(t, rig.Drivers, 2)
	assert.Equal(t, 3, rig.Drivers[0].PoseCount())
	assert.Equal(t, 2, rig.Drivers[1].PoseCount())

	sys := rbf.NewSystem()
	scene, err := rig.Build(sys)
	require.NoError(t, err)

	elbow := sys.DriverByName("elbow")
	require.NotNil(t, elbow)
	var names []string
	for _, p := range elbow.Poses().All() {
		names = append(names, p.Name())
	}
	if diff := cmp.Diff([]string{"Rest", "bent", "straight"}, names); diff != "" {
		t.Errorf("pose names (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.5, elbow.Poses().At(1).Influence())
	straight := elbow.Poses().At(2).Falloff()
	assert.Equal(t, 2.0, straight.RadiusFactor())
	assert.True(t, straight.UseCurve())
	assert.Len(t, straight.Curve().Points(), 3)

	in := elbow.Inputs().At(0)
	require.True(t, in.IsValid(), "structural resolver accepts the shape key target")
	v := in.Variables().At(0)
	assert.Equal(t, []float64{0, 1, 2}, v.Samples())
	assert.Equal(t, 0.8, scene[v.Targets()[0].Key()])

	shoulder := sys.DriverByName("shoulder")
	require.NotNil(t, shoulder)
	assert.Equal(t, rbf.Linear, shoulder.Smoothing())
	assert.Equal(t, 0.5, shoulder.Regularization())
	rot := shoulder.Inputs().At(0)
	assert.Equal(t, rbf.SwingY, rot.RotationMode())
	assert.Equal(t, "shoulder", rot.Variables().At(0).Targets()[0].Bone)
	assert.False(t, shoulder.Distance().IsEmpty())
}

func TestParse_ReportsEveryProblem(t *testing.T) {
	doc := []byte(`
drivers:
  - name: a
    smoothing: bumpy
    poses:
      - name: p
      - name: p
      - name: Rest
    inputs:
      - type: location
        rotation_mode: euler
        variables:
          - name: x
            samples: [1, 2]
  - name: a
`)
	_, err := config.Parse(doc)
	require.Error(t, err)
	for _, want := range []string{
		"smoothing", "duplicate pose", "rest pose", "rotation_mode needs", "samples for 4 poses", "duplicate driver",
	} {
		assert.Contains(t, err.Error(), want)
	}
	assert.ErrorIs(t, err, rbf.ErrSampleCount)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := config.Parse([]byte("drivers:\n  - name: a\n    radious: 2\n"))
	assert.Error(t, err)
}

func TestBuild_LiveNeedsSingleTarget(t *testing.T) {
	rig, err := config.Parse([]byte(`
drivers:
  - name: d
    inputs:
      - type: loc_diff
        variables:
          - {name: distance, live: 1}
`))
	require.NoError(t, err)
	_, err = rig.Build(rbf.NewSystem(anyTarget()))
	assert.ErrorContains(t, err, "single-target")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := config.NewLogger("debug", &buf)
	require.NoError(t, err)
	l.Debug("hello", "k", 1)
	assert.Contains(t, buf.String(), "posespace: hello")

	_, err = config.NewLogger("loud", &buf)
	assert.Error(t, err)
}
