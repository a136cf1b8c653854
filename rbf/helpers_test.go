// SPDX-License-Identifier: MIT

package rbf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/posespace/events"
	"github.com/katalvlaran/posespace/matrix"
	"github.com/katalvlaran/posespace/rbf"
)

const eps = 1e-9

// anyTarget accepts every variable, so tests need no host targets.
func anyTarget() rbf.Option {
	return rbf.WithTargetResolver(rbf.ResolverFunc(func(*rbf.Variable) bool { return true }))
}

func newDriver(t *testing.T, opts ...rbf.Option) (*rbf.System, *rbf.Driver) {
	t.Helper()
	sys := rbf.NewSystem(append([]rbf.Option{anyTarget()}, opts...)...)
	d, err := sys.NewDriver("driver")
	require.NoError(t, err)

	return sys, d
}

// addPoses appends poses until the driver holds n.
func addPoses(t *testing.T, d *rbf.Driver, n int) {
	t.Helper()
	for d.Poses().Len() < n {
		_, err := d.Poses().New("pose")
		require.NoError(t, err)
	}
}

// scalarInput adds a shape-key input whose single variable holds samples,
// growing the driver to len(samples) poses first.
func scalarInput(t *testing.T, d *rbf.Driver, samples ...float64) *rbf.Input {
	t.Helper()
	addPoses(t, d, len(samples))
	in, err := d.Inputs().New(rbf.ShapeKey)
	require.NoError(t, err)
	require.NoError(t, in.Variables().At(0).SetSamples(samples))

	return in
}

func at(t *testing.T, m *matrix.Dense, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}

// flat copies m into a row-major slice.
func flat(t *testing.T, m *matrix.Dense) []float64 {
	t.Helper()
	var out []float64
	for i := 0; i < m.Rows(); i++ {
		row, err := m.Row(i)
		require.NoError(t, err)
		out = append(out, row...)
	}

	return out
}

func requireSymmetricZeroDiagonal(t *testing.T, m *matrix.Dense) {
	t.Helper()
	require.NoError(t, matrix.ValidateSymmetric(m, eps))
	require.NoError(t, matrix.ValidateZeroDiagonal(m, eps))
}

// record appends the topic name of every delivered event to log.
func record[E any](log *[]string, o *events.Observable[E]) {
	o.Subscribe(func(E) error {
		*log = append(*log, o.Name())
		return nil
	})
}

func recordAll(sys *rbf.System) *[]string {
	var log []string
	ev := sys.Events()
	record(&log, ev.DriverCreated)
	record(&log, ev.DriverDisposable)
	record(&log, ev.DriverDisposed)
	record(&log, ev.InputAdded)
	record(&log, ev.InputDisposable)
	record(&log, ev.InputRemoved)
	record(&log, ev.PoseAdded)
	record(&log, ev.PoseDisposable)
	record(&log, ev.PoseRemoved)
	record(&log, ev.PoseMoved)
	record(&log, ev.InputDistanceUpdated)
	record(&log, ev.DriverDistanceUpdated)
	record(&log, ev.WeightsUpdated)
	record(&log, ev.DriverUpdated)

	return &log
}

func count(log []string, name string) int {
	n := 0
	for _, s := range log {
		if s == name {
			n++
		}
	}

	return n
}
