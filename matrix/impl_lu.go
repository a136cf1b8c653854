// SPDX-License-Identifier: MIT

// Package matrix: LU factorization with partial pivoting and linear solves.

package matrix

import "math"

// LUFactors holds P·A = L·U packed into one n×n buffer: the strict lower
// triangle stores L (unit diagonal implied), the upper triangle stores U.
// piv[i] is the original row placed at position i.
type LUFactors struct {
	lu  *Dense
	piv []int
}

// LU factorizes a square matrix with partial (row) pivoting.
//
// Implementation:
//   - Stage 1: ValidateSquare(m); copy m into the working buffer.
//   - Stage 2: for each column k pick the row with the largest |A[i,k]|, i ≥ k
//     (first maximum wins, so ties are deterministic), swap it into place,
//     then eliminate below the pivot.
//   - Stage 3: reject pivots with |p| ≤ tol * n * max|A| as singular.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrNaNInf (non-finite input), ErrSingular.
//
// Complexity:
//   - Time O(n^3), Space O(n^2).
//
// Notes:
//   - The 0×0 matrix factorizes trivially.
func LU(m *Dense, opts ...Option) (*LUFactors, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opLU, err)
	}
	if err := ValidateFinite(m); err != nil {
		return nil, matrixErrorf(opLU, err)
	}
	o := NewOptions(opts...)

	n := m.r
	a := m.Clone()
	piv := make([]int, n)
	for i := range piv {
		piv[i] = i
	}
	threshold := o.pivotTol * float64(n) * MaxAbs(m)

	var (
		i, j, k, p int
		best, v    float64
		factor     float64
	)
	for k = 0; k < n; k++ {
		// pivot search
		p, best = k, math.Abs(a.data[k*n+k])
		for i = k + 1; i < n; i++ {
			if v = math.Abs(a.data[i*n+k]); v > best {
				p, best = i, v
			}
		}
		if best <= threshold || best == 0 {
			return nil, matrixErrorf(opLU, ErrSingular)
		}
		if p != k {
			for j = 0; j < n; j++ {
				a.data[k*n+j], a.data[p*n+j] = a.data[p*n+j], a.data[k*n+j]
			}
			piv[k], piv[p] = piv[p], piv[k]
		}
		// eliminate
		for i = k + 1; i < n; i++ {
			factor = a.data[i*n+k] / a.data[k*n+k]
			a.data[i*n+k] = factor
			if factor == 0 {
				continue
			}
			for j = k + 1; j < n; j++ {
				a.data[i*n+j] -= factor * a.data[k*n+j]
			}
		}
	}

	return &LUFactors{lu: a, piv: piv}, nil
}

// Size returns n.
func (f *LUFactors) Size() int { return f.lu.r }

// Solve returns X with A·X = B for every column of B.
// Errors: ErrNilMatrix, ErrDimensionMismatch (B.Rows != n).
// Complexity: O(n^2 * B.Cols).
func (f *LUFactors) Solve(b *Dense) (*Dense, error) {
	if err := ValidateNotNil(b); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	n := f.lu.r
	if b.r != n {
		return nil, matrixErrorf(opSolve, ErrDimensionMismatch)
	}
	cols := b.c
	x := &Dense{r: n, c: cols, data: make([]float64, n*cols)}
	lu := f.lu.data

	var i, j, col int
	var sum float64
	y := make([]float64, n)
	for col = 0; col < cols; col++ {
		// forward: L·y = P·b
		for i = 0; i < n; i++ {
			sum = b.data[f.piv[i]*cols+col]
			for j = 0; j < i; j++ {
				sum -= lu[i*n+j] * y[j]
			}
			y[i] = sum
		}
		// backward: U·x = y
		for i = n - 1; i >= 0; i-- {
			sum = y[i]
			for j = i + 1; j < n; j++ {
				sum -= lu[i*n+j] * x.data[j*cols+col]
			}
			x.data[i*cols+col] = sum / lu[i*n+i]
		}
	}

	return x, nil
}

// Solve factorizes a and solves a·X = b.
// Errors: everything LU and LUFactors.Solve return; ErrSingular signals
// that the caller should fall back to LeastSquares.
func Solve(a, b *Dense, opts ...Option) (*Dense, error) {
	f, err := LU(a, opts...)
	if err != nil {
		return nil, err
	}
	x, err := f.Solve(b)
	if err != nil {
		return nil, err
	}
	if !IsFinite(x) {
		return nil, matrixErrorf(opSolve, ErrSingular)
	}

	return x, nil
}
