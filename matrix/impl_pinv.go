// SPDX-License-Identifier: MIT

package matrix

// PseudoInverse returns the Moore-Penrose pseudo-inverse A⁺ of an r×c matrix.
//
// Implementation:
//   - Stage 1: G = AᵀA (c×c), symmetrized against round-off.
//   - Stage 2: G = V·Λ·Vᵀ via Eigen.
//   - Stage 3: A⁺ = V·Λ⁺·Vᵀ·Aᵀ where Λ⁺ inverts eigenvalues λ > rcond*max(λ)
//     and zeroes the rest (the null-space directions).
//
// Behavior highlights:
//   - A zero matrix yields a zero pseudo-inverse.
//   - For full-rank square A the result equals A⁻¹ up to round-off.
//
// Errors:
//   - ErrNilMatrix, ErrNaNInf, ErrEigenFailed (propagated from Eigen).
//
// Complexity:
//   - Time O(c^2*r + Eigen(c)), Space O(c^2 + r*c).
func PseudoInverse(a *Dense, opts ...Option) (*Dense, error) {
	if err := ValidateFinite(a); err != nil {
		return nil, matrixErrorf(opPinv, err)
	}
	o := NewOptions(opts...)

	at, err := Transpose(a)
	if err != nil {
		return nil, matrixErrorf(opPinv, err)
	}
	g, err := Mul(at, a)
	if err != nil {
		return nil, matrixErrorf(opPinv, err)
	}
	if g, err = Symmetrize(g); err != nil {
		return nil, matrixErrorf(opPinv, err)
	}
	eigs, v, err := Eigen(g, opts...)
	if err != nil {
		return nil, matrixErrorf(opPinv, err)
	}

	var lmax float64
	for _, l := range eigs {
		if l > lmax {
			lmax = l
		}
	}
	cutoff := o.rcond * lmax

	// ginv = V·Λ⁺·Vᵀ, accumulated column by column of V.
	c := g.r
	ginv := &Dense{r: c, c: c, data: make([]float64, c*c)}
	var k, i, j int
	var inv, vik float64
	for k = 0; k < c; k++ {
		if eigs[k] <= cutoff || eigs[k] <= 0 {
			continue
		}
		inv = 1.0 / eigs[k]
		for i = 0; i < c; i++ {
			vik = v.data[i*c+k] * inv
			if vik == 0 {
				continue
			}
			for j = 0; j < c; j++ {
				ginv.data[i*c+j] += vik * v.data[j*c+k]
			}
		}
	}

	out, err := Mul(ginv, at)
	if err != nil {
		return nil, matrixErrorf(opPinv, err)
	}

	return out, nil
}

// LeastSquares returns the minimum-norm X minimizing ‖A·X − B‖ (Frobenius).
// Errors: ErrDimensionMismatch (B.Rows != A.Rows) plus PseudoInverse errors.
func LeastSquares(a, b *Dense, opts ...Option) (*Dense, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, matrixErrorf(opLstsq, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return nil, matrixErrorf(opLstsq, err)
	}
	if a.r != b.r {
		return nil, matrixErrorf(opLstsq, ErrDimensionMismatch)
	}
	pinv, err := PseudoInverse(a, opts...)
	if err != nil {
		return nil, matrixErrorf(opLstsq, err)
	}

	return Mul(pinv, b)
}
