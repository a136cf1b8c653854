// SPDX-License-Identifier: MIT

// Package matrix: functional configuration for the numeric kernels.
// Option values are applied over documented defaults; WithX constructors
// panic on nonsensical values (programmer error), never on data.

package matrix

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultEpsilon is the tolerance used by structural checks (symmetry, zero diagonal).
	DefaultEpsilon = 1e-9

	// DefaultPivotTolerance is the relative singularity threshold of LU:
	// a pivot p is rejected when |p| ≤ DefaultPivotTolerance * n * max|A|.
	DefaultPivotTolerance = 1e-12

	// DefaultRcond is the relative eigenvalue cutoff of PseudoInverse, applied
	// to the eigenvalues of AᵀA (squared singular values).
	DefaultRcond = 1e-10

	// DefaultEigenTolerance is the relative off-diagonal threshold of Jacobi sweeps.
	DefaultEigenTolerance = 1e-12

	// DefaultEigenSweeps bounds Jacobi rotations to DefaultEigenSweeps*n*n.
	DefaultEigenSweeps = 64
)

// Options holds numeric policy for factorizations and solvers.
type Options struct {
	pivotTol    float64
	rcond       float64
	eigenTol    float64
	eigenSweeps int
}

// Option mutates Options.
type Option func(*Options)

// WithPivotTolerance overrides the relative LU singularity threshold.
// Panics if tol is negative.
func WithPivotTolerance(tol float64) Option {
	if tol < 0 {
		panic("matrix: WithPivotTolerance(tol<0)")
	}

	return func(o *Options) { o.pivotTol = tol }
}

// WithRcond overrides the relative eigenvalue cutoff of PseudoInverse.
// Panics if rcond is negative.
func WithRcond(rcond float64) Option {
	if rcond < 0 {
		panic("matrix: WithRcond(rcond<0)")
	}

	return func(o *Options) { o.rcond = rcond }
}

// WithEigenTolerance overrides the Jacobi convergence threshold.
// Panics unless tol > 0.
func WithEigenTolerance(tol float64) Option {
	if !(tol > 0) {
		panic("matrix: WithEigenTolerance(tol<=0)")
	}

	return func(o *Options) { o.eigenTol = tol }
}

// WithEigenSweeps overrides the Jacobi rotation budget factor.
// Panics unless sweeps > 0.
func WithEigenSweeps(sweeps int) Option {
	if sweeps <= 0 {
		panic("matrix: WithEigenSweeps(sweeps<=0)")
	}

	return func(o *Options) { o.eigenSweeps = sweeps }
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{
		pivotTol:    DefaultPivotTolerance,
		rcond:       DefaultRcond,
		eigenTol:    DefaultEigenTolerance,
		eigenSweeps: DefaultEigenSweeps,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}

// PivotTolerance returns the configured relative LU threshold.
func (o Options) PivotTolerance() float64 { return o.pivotTol }

// Rcond returns the configured pseudo-inverse cutoff.
func (o Options) Rcond() float64 { return o.rcond }
