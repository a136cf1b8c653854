// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for the linear algebra kernels.
package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/posespace/matrix"
)

func TestMul_Basic(t *testing.T) {
	a := MustDense(t, 2, 3,
		1, 2, 3,
		4, 5, 6)
	b := MustDense(t, 3, 2,
		7, 8,
		9, 10,
		11, 12)
	got, err := matrix.Mul(a, b)
	require.NoError(t, err)
	RequireClose(t, MustDense(t, 2, 2, 58, 64, 139, 154), got, tol)

	_, err = matrix.Mul(a, a)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestTransposeScaleAdd(t *testing.T) {
	a := MustDense(t, 2, 3, 1, 2, 3, 4, 5, 6)
	at, err := matrix.Transpose(a)
	require.NoError(t, err)
	RequireClose(t, MustDense(t, 3, 2, 1, 4, 2, 5, 3, 6), at, 0)

	s, err := matrix.Scale(a, 2)
	require.NoError(t, err)
	sum, err := matrix.Add(a, a)
	require.NoError(t, err)
	RequireClose(t, s, sum, 0)
}

func TestLU_PivotsZeroLeadingEntry(t *testing.T) {
	// Zero diagonal everywhere: solvable only with row exchanges.
	m := MustDense(t, 2, 2, 0, 1, 1, 0)
	inv, err := matrix.Solve(m, MustIdentity(t, 2))
	require.NoError(t, err)
	RequireClose(t, m, inv, tol)
}

func TestLU_Singular(t *testing.T) {
	for name, m := range map[string]*matrix.Dense{
		"zero":       MustDense(t, 2, 2),
		"dependent":  MustDense(t, 2, 2, 1, 2, 2, 4),
		"near-equal": MustDense(t, 2, 2, 1, 1, 1, 1+1e-15),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := matrix.LU(m)
			assert.ErrorIs(t, err, matrix.ErrSingular)
		})
	}
}

func TestLU_EmptyMatrix(t *testing.T) {
	f, err := matrix.LU(matrix.NewEmpty())
	require.NoError(t, err)
	assert.Zero(t, f.Size())

	x, err := f.Solve(matrix.NewEmpty())
	require.NoError(t, err)
	assert.True(t, x.IsEmpty())
}

func TestEigen_Symmetric2x2(t *testing.T) {
	m := MustDense(t, 2, 2, 2, 1, 1, 2)
	vals, vecs, err := matrix.Eigen(m)
	require.NoError(t, err)
	require.Len(t, vals, 2)

	lo, hi := math.Min(vals[0], vals[1]), math.Max(vals[0], vals[1])
	assert.InDelta(t, 1.0, lo, 1e-9)
	assert.InDelta(t, 3.0, hi, 1e-9)

	// A·v = λ·v for every column.
	av, err := matrix.Mul(m, vecs)
	require.NoError(t, err)
	for k := 0; k < 2; k++ {
		col, err := vecs.Col(k)
		require.NoError(t, err)
		v := col.Values()
		for i := 0; i < 2; i++ {
			assert.InDelta(t, vals[k]*v[i], MustAt(t, av, i, k), 1e-9)
		}
	}
}

func TestEigen_RejectsAsymmetric(t *testing.T) {
	_, _, err := matrix.Eigen(MustDense(t, 2, 2, 0, 1, 5, 0))
	assert.ErrorIs(t, err, matrix.ErrAsymmetry)
}

func TestPseudoInverse_FullRankMatchesInverse(t *testing.T) {
	m := MustDense(t, 2, 2, 4, 7, 2, 6)
	inv, err := matrix.Solve(m, MustIdentity(t, 2))
	require.NoError(t, err)
	pinv, err := matrix.PseudoInverse(m)
	require.NoError(t, err)
	RequireClose(t, inv, pinv, 1e-8)
}

func TestLeastSquares_RankDeficient(t *testing.T) {
	// Two identical rows: the minimum-norm solution of [1 1; 1 1]·x = [1;1]
	// is x = [0.5; 0.5].
	a := MustDense(t, 2, 2, 1, 1, 1, 1)
	b := MustDense(t, 2, 1, 1, 1)
	x, err := matrix.LeastSquares(a, b)
	require.NoError(t, err)
	RequireClose(t, MustDense(t, 2, 1, 0.5, 0.5), x, 1e-9)
}

func TestLeastSquares_ZeroMatrixIsFinite(t *testing.T) {
	x, err := matrix.LeastSquares(MustDense(t, 2, 2), MustIdentity(t, 2))
	require.NoError(t, err)
	assert.True(t, matrix.IsFinite(x))
	RequireClose(t, MustDense(t, 2, 2), x, 0)
}
