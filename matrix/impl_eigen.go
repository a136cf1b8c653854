// SPDX-License-Identifier: MIT

package matrix

import "math"

// Eigen computes eigenvalues and eigenvectors of a symmetric matrix via
// classical Jacobi rotations.
//
// Implementation:
//   - Stage 1: ValidateSymmetric(m, DefaultEpsilon*max(1,max|A|)).
//   - Stage 2: repeatedly pick (p,q) with the largest |A[p,q]| in i→j order
//     and annihilate it with a rotation; accumulate rotations into Q.
//   - Stage 3: stop when max off-diagonal ≤ tol*max(1,max|A|) or the rotation
//     budget (sweeps*n*n) is spent.
//
// Returns:
//   - []float64: eigenvalues (diagonal of the rotated matrix), unsorted.
//   - *Dense:    Q whose columns are the matching eigenvectors.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrAsymmetry, ErrEigenFailed.
//
// Determinism:
//   - Fixed pivot scan and update order produce stable results.
//
// Complexity:
//   - Time O(sweeps * n^4) worst case (O(n) per rotation after an O(n^2) scan), Space O(n^2).
func Eigen(m *Dense, opts ...Option) ([]float64, *Dense, error) {
	o := NewOptions(opts...)
	scale := math.Max(1, MaxAbs(m))
	if err := ValidateSymmetric(m, DefaultEpsilon*scale); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}

	n := m.r
	a := m.Clone()
	q, _ := NewIdentity(n)
	tol := o.eigenTol * scale
	maxIter := o.eigenSweeps * n * n

	var (
		iter, i, j, p, q0  int
		maxOff, off        float64
		app, aqq, apq      float64
		aip, aiq, qip, qiq float64
		theta, t, c, s     float64
	)
	converged := n <= 1
	for iter = 0; iter < maxIter && !converged; iter++ {
		// pivot search over the strict upper triangle
		maxOff = 0
		for i = 0; i < n; i++ {
			for j = i + 1; j < n; j++ {
				if off = math.Abs(a.data[i*n+j]); off > maxOff {
					maxOff, p, q0 = off, i, j
				}
			}
		}
		if maxOff <= tol {
			converged = true
			break
		}

		app = a.data[p*n+p]
		aqq = a.data[q0*n+q0]
		apq = a.data[p*n+q0]

		theta = (aqq - app) / (2 * apq)
		t = math.Copysign(1.0/(math.Abs(theta)+math.Hypot(theta, 1)), theta)
		c = 1.0 / math.Sqrt(t*t+1)
		s = t * c

		for i = 0; i < n; i++ {
			if i == p || i == q0 {
				continue
			}
			aip = a.data[i*n+p]
			aiq = a.data[i*n+q0]
			a.data[i*n+p] = c*aip - s*aiq
			a.data[p*n+i] = a.data[i*n+p]
			a.data[i*n+q0] = s*aip + c*aiq
			a.data[q0*n+i] = a.data[i*n+q0]
		}
		a.data[p*n+p] = c*c*app - 2*c*s*apq + s*s*aqq
		a.data[q0*n+q0] = s*s*app + 2*c*s*apq + c*c*aqq
		a.data[p*n+q0], a.data[q0*n+p] = 0, 0

		for i = 0; i < n; i++ {
			qip = q.data[i*n+p]
			qiq = q.data[i*n+q0]
			q.data[i*n+p] = c*qip - s*qiq
			q.data[i*n+q0] = s*qip + c*qiq
		}
	}

	if !converged {
		maxOff = 0
		for i = 0; i < n; i++ {
			for j = i + 1; j < n; j++ {
				maxOff = math.Max(maxOff, math.Abs(a.data[i*n+j]))
			}
		}
		if maxOff > tol {
			return nil, nil, matrixErrorf(opEigen, ErrEigenFailed)
		}
	}

	eigs := make([]float64, n)
	for i = 0; i < n; i++ {
		eigs[i] = a.data[i*n+i]
	}

	return eigs, q, nil
}
