// SPDX-License-Identifier: MIT

// Package matrix provides the dense linear-algebra primitives used by the
// pose-space interpolation core.
//
// The matrix package provides:
//
//   - Dense, a row-major matrix over a single contiguous buffer, with Row(i)
//     slice views and strided Col(j) views. 0×0 is a legal value meaning
//     "no data".
//   - Element-wise and product kernels (Add, Scale, Transpose, Mul,
//     Mean, Symmetrize).
//   - LU factorization with partial pivoting and a relative singularity
//     threshold (LU, Solve).
//   - Jacobi eigen decomposition for symmetric matrices (Eigen).
//   - Minimum-norm least squares through the pseudo-inverse (PseudoInverse,
//     LeastSquares), the degradation path for singular systems.
//
// All public entry points validate their operands and return sentinel errors
// (matched with errors.Is); nothing panics on user data. Loop orders are fixed
// so identical inputs produce bit-identical outputs.
package matrix
