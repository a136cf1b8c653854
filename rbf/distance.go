// SPDX-License-Identifier: MIT

package rbf

import (
	"fmt"
	"math"
	"slices"

	"github.com/katalvlaran/posespace/matrix"
	"github.com/katalvlaran/posespace/metric"
)

// InputDistance is the N×N pose distance matrix of one input plus the
// per-pose radii derived from it. It is recomputed wholesale.
type InputDistance struct {
	input *Input
	m     *matrix.Dense
	radii []float64
}

// Input returns the owning input.
func (x *InputDistance) Input() *Input { return x.input }

// Matrix returns a copy of the matrix; 0×0 when the input contributes nothing.
func (x *InputDistance) Matrix() *matrix.Dense { return x.m.Clone() }

// Radii returns a copy of the per-pose radii (nil when the matrix is empty).
func (x *InputDistance) Radii() []float64 { return slices.Clone(x.radii) }

// IsEmpty reports whether the input currently contributes nothing.
func (x *InputDistance) IsEmpty() bool { return x.m.IsEmpty() }

// update stacks the enabled variables' series into an N×K sample table and
// fills the matrix pairwise. A series of the wrong length leaves the matrix
// empty and returns ErrSampleCount.
func (x *InputDistance) update() error {
	in := x.input
	d := in.driver
	n := d.poses.Len()
	x.m, x.radii = matrix.NewEmpty(), nil

	var err error
	vars := in.vars.Enabled()
	if len(vars) > 0 {
		cols := make([][]float64, len(vars))
		for k, v := range vars {
			if len(v.samples) != n {
				err = fmt.Errorf("input %d variable %q: %w: %d samples for %d poses",
					in.Index(), v.name, ErrSampleCount, len(v.samples), n)
				break
			}
			cols[k] = v.NormalizedSamples()
		}
		if err == nil {
			fn := metric.Resolve(in.MetricKind(), len(vars), d.system.logger.Named("metric"))
			x.m = pairwise(cols, n, fn)
			x.radii = rowRadii(x.m)
		}
	}
	if err != nil {
		d.system.logger.Warn("input excluded", "driver", d.name, "input", in.Index(), "error", err)
	}

	return joinErrors(err, d.system.events.InputDistanceUpdated.Publish(InputDistanceEvent{Input: in}))
}

// pairwise returns the symmetric matrix fn(row_i, row_j) with a zero
// diagonal, where row_i gathers the i-th entry of every column.
func pairwise(cols [][]float64, n int, fn metric.Func) *matrix.Dense {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, len(cols))
		for k, col := range cols {
			rows[i][k] = col[i]
		}
	}

	m, _ := matrix.NewDense(n, n)
	for i := 0; i < n; i++ {
		ri, _ := m.Row(i)
		for j := i + 1; j < n; j++ {
			dist := fn(rows[i], rows[j])
			ri[j] = dist
			rj, _ := m.Row(j)
			rj[i] = dist
		}
	}

	return m
}

// rowRadii returns, per row, the minimum entry excluding the diagonal by
// index, or 1.0 when the row has no other entry.
func rowRadii(m *matrix.Dense) []float64 {
	n := m.Rows()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if n < 2 {
			out[i] = 1
			continue
		}
		row, _ := m.Row(i)
		r := math.Inf(1)
		for j, v := range row {
			if j != i && v < r {
				r = v
			}
		}
		out[i] = r
	}

	return out
}

// DriverDistance is the aggregated N×N matrix of a driver: the mean of the
// valid input matrices (Raw), then kernel-shaped when smoothing is Radial
// (Matrix).
type DriverDistance struct {
	driver *Driver
	raw    *matrix.Dense
	shaped *matrix.Dense
	inputs int
}

// Driver returns the owning driver.
func (x *DriverDistance) Driver() *Driver { return x.driver }

// Raw returns a copy of the pre-kernel mean.
func (x *DriverDistance) Raw() *matrix.Dense { return x.raw.Clone() }

// Matrix returns a copy of the matrix handed to the solver.
func (x *DriverDistance) Matrix() *matrix.Dense { return x.shaped.Clone() }

// InputCount returns how many input matrices the mean was taken over.
func (x *DriverDistance) InputCount() int { return x.inputs }

// IsEmpty reports whether no valid input contributed.
func (x *DriverDistance) IsEmpty() bool { return x.raw.IsEmpty() }

// update averages the valid inputs, rewrites the auto radii from the
// pre-kernel mean and applies the kernel off the diagonal. Without a valid
// input the auto radii fall back to 1.
func (x *DriverDistance) update() error {
	d := x.driver
	n := d.poses.Len()

	var mats []*matrix.Dense
	for _, in := range d.inputs.items {
		if in.IsValid() && in.distance.m.Rows() == n && !in.distance.IsEmpty() {
			mats = append(mats, in.distance.m)
		}
	}
	x.inputs = len(mats)
	x.raw, x.shaped = matrix.NewEmpty(), matrix.NewEmpty()

	if len(mats) == 0 {
		for _, p := range d.poses.items {
			if p.autoRadius {
				p.radius = 1
			}
		}
	} else {
		raw, err := matrix.Mean(mats...)
		if err != nil {
			return fmt.Errorf("driver %q: %w", d.name, err)
		}
		x.raw = raw
		for i, r := range rowRadii(raw) {
			if p := d.poses.items[i]; p.autoRadius {
				p.radius = r
			}
		}
		x.shaped = raw
		if d.smoothing == Radial {
			x.shaped = raw.Clone()
			x.shaped.Apply(func(i, j int, v float64) float64 {
				if i == j {
					return v
				}
				return d.kernel.Apply(v, d.poses.items[i].EffectiveRadius())
			})
		}
	}

	return d.system.events.DriverDistanceUpdated.Publish(DriverDistanceEvent{Driver: d})
}
