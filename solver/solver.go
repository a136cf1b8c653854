// SPDX-License-Identifier: MIT

// Package solver turns an aggregated pose-distance matrix M into the
// variable matrix W with M·W ≈ λI.
//
// The exact path is an LU solve with partial pivoting. When M is singular or
// ill-conditioned (two coincident poses, linearly dependent samples) the
// solver degrades to the minimum-norm least-squares solution, and if even
// that fails it returns zeros. Numeric trouble is logged, never returned.
package solver

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/katalvlaran/posespace/matrix"
)

// ErrInvalidMatrix is returned for nil or non-square input.
var ErrInvalidMatrix = errors.New("solver: distance matrix must be square")

// Method records which path produced a Result.
type Method int

const (
	// MethodEmpty means M had no entries; W is empty too.
	MethodEmpty Method = iota
	// MethodExact is the LU solve.
	MethodExact
	// MethodLeastSquares is the pseudo-inverse fallback.
	MethodLeastSquares
	// MethodZero means both paths failed and W is all zeros.
	MethodZero
)

// String implements fmt.Stringer.
func (m Method) String() string {
	switch m {
	case MethodEmpty:
		return "empty"
	case MethodExact:
		return "exact"
	case MethodLeastSquares:
		return "least_squares"
	case MethodZero:
		return "zero"
	}

	return fmt.Sprintf("method(%d)", int(m))
}

// Result is a solved variable matrix.
type Result struct {
	W      *matrix.Dense
	Method Method
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(l hclog.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRcond sets the relative eigenvalue cutoff of the least-squares path.
func WithRcond(rcond float64) Option {
	return func(s *Solver) { s.matrixOpts = append(s.matrixOpts, matrix.WithRcond(rcond)) }
}

// WithPivotTolerance sets the relative singularity threshold of the exact path.
func WithPivotTolerance(tol float64) Option {
	return func(s *Solver) { s.matrixOpts = append(s.matrixOpts, matrix.WithPivotTolerance(tol)) }
}

// Solver is stateless apart from its configuration and may be shared.
type Solver struct {
	logger     hclog.Logger
	matrixOpts []matrix.Option
}

// New returns a Solver.
func New(opts ...Option) *Solver {
	s := &Solver{logger: hclog.NewNullLogger()}
	for _, o := range opts {
		o(s)
	}

	return s
}

// Solve returns W with m·W ≈ lambda·I. The only error is ErrInvalidMatrix;
// singular or non-finite systems degrade as described in the package doc.
func (s *Solver) Solve(m *matrix.Dense, lambda float64) (Result, error) {
	if m == nil {
		return Result{}, ErrInvalidMatrix
	}
	if m.IsEmpty() {
		return Result{W: matrix.NewEmpty(), Method: MethodEmpty}, nil
	}
	if err := matrix.ValidateSquare(m); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidMatrix, err)
	}

	n := m.Rows()
	target, err := matrix.NewIdentity(n)
	if err != nil {
		return Result{}, err
	}
	target, err = matrix.Scale(target, lambda)
	if err != nil {
		return Result{}, err
	}

	if matrix.IsFinite(m) {
		w, err := matrix.Solve(m, target, s.matrixOpts...)
		if err == nil {
			return Result{W: w, Method: MethodExact}, nil
		}
		s.logger.Debug("exact solve failed, using least squares", "size", n, "error", err)

		w, err = matrix.LeastSquares(m, target, s.matrixOpts...)
		if err == nil && matrix.IsFinite(w) {
			return Result{W: w, Method: MethodLeastSquares}, nil
		}
		s.logger.Warn("least squares solve failed", "size", n, "error", err)
	} else {
		s.logger.Warn("distance matrix is not finite", "size", n)
	}

	zero, err := matrix.NewDense(n, n)
	if err != nil {
		return Result{}, err
	}

	return Result{W: zero, Method: MethodZero}, nil
}
