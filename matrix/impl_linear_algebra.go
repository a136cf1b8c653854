// SPDX-License-Identifier: MIT
// Package matrix: element-wise and product kernels over Dense.
//
// Purpose:
//   - Add, Scale, Transpose, Mul, Mean, Symmetrize.
//   - Every kernel allocates a fresh result; operands are never mutated.
//
// Notes:
//   - Loop orders are fixed (i→k→j for Mul) so identical inputs produce
//     bit-identical outputs.

package matrix

import "math"

// Add returns a + b.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r*c).
func Add(a, b *Dense) (*Dense, error) {
	if err := ValidateSameShape(a, b); err != nil {
		return nil, matrixErrorf(opAdd, err)
	}
	out := &Dense{r: a.r, c: a.c, data: make([]float64, len(a.data))}
	for k := range a.data {
		out.data[k] = a.data[k] + b.data[k]
	}

	return out, nil
}

// Scale returns alpha*m.
// Complexity: O(r*c).
func Scale(m *Dense, alpha float64) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	out := &Dense{r: m.r, c: m.c, data: make([]float64, len(m.data))}
	for k, v := range m.data {
		out.data[k] = alpha * v
	}

	return out, nil
}

// Transpose returns mᵀ.
// Complexity: O(r*c).
func Transpose(m *Dense) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	out := &Dense{r: m.c, c: m.r, data: make([]float64, len(m.data))}
	var i, j int
	for i = 0; i < m.r; i++ {
		for j = 0; j < m.c; j++ {
			out.data[j*m.r+i] = m.data[i*m.c+j]
		}
	}

	return out, nil
}

// Mul returns the matrix product a×b.
//
// Implementation:
//   - Stage 1: ValidateMulCompatible(a, b); allocate r_a × c_b result.
//   - Stage 2: i→k→j accumulation so the inner loop walks contiguous rows of b.
//
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: Time O(r_a*c_a*c_b), Space O(r_a*c_b).
func Mul(a, b *Dense) (*Dense, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	out := &Dense{r: a.r, c: b.c, data: make([]float64, a.r*b.c)}
	var (
		i, k, j      int
		aik          float64
		rowA, rowOut int
		rowB         int
	)
	for i = 0; i < a.r; i++ {
		rowA = i * a.c
		rowOut = i * b.c
		for k = 0; k < a.c; k++ {
			aik = a.data[rowA+k]
			if aik == 0 {
				continue
			}
			rowB = k * b.c
			for j = 0; j < b.c; j++ {
				out.data[rowOut+j] += aik * b.data[rowB+j]
			}
		}
	}

	return out, nil
}

// Mean returns the element-wise arithmetic mean of ms.
// With no operands the result is the 0×0 matrix.
// Errors: ErrNilMatrix, ErrDimensionMismatch (shapes differ).
// Complexity: O(len(ms)*r*c).
func Mean(ms ...*Dense) (*Dense, error) {
	if len(ms) == 0 {
		return NewEmpty(), nil
	}
	first := ms[0]
	if err := ValidateNotNil(first); err != nil {
		return nil, matrixErrorf(opMean, err)
	}
	out := &Dense{r: first.r, c: first.c, data: make([]float64, len(first.data))}
	for _, m := range ms {
		if err := ValidateSameShape(first, m); err != nil {
			return nil, matrixErrorf(opMean, err)
		}
		for k, v := range m.data {
			out.data[k] += v
		}
	}
	inv := 1.0 / float64(len(ms))
	for k := range out.data {
		out.data[k] *= inv
	}

	return out, nil
}

// Symmetrize returns (m + mᵀ)/2.
func Symmetrize(m *Dense) (*Dense, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, err
	}
	n := m.r
	out := m.Clone()
	var i, j int
	var avg float64
	for i = 0; i < n; i++ {
		for j = i + 1; j < n; j++ {
			avg = 0.5 * (m.data[i*n+j] + m.data[j*n+i])
			out.data[i*n+j], out.data[j*n+i] = avg, avg
		}
	}

	return out, nil
}

// MaxAbs returns max |m[i,j]|, or 0 for an empty matrix.
func MaxAbs(m *Dense) float64 {
	var best float64
	for _, v := range m.data {
		if a := math.Abs(v); a > best {
			best = a
		}
	}

	return best
}

// IsFinite reports whether every element is finite.
func IsFinite(m *Dense) bool {
	return ValidateFinite(m) == nil
}
