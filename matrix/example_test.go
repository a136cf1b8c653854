// SPDX-License-Identifier: MIT

package matrix_test

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/posespace/matrix"
)

// ExampleSolve solves a small distance system exactly.
func ExampleSolve() {
	m, _ := matrix.NewDenseFrom(2, 2, []float64{0, 1, 1, 0})
	id, _ := matrix.NewIdentity(2)
	w, _ := matrix.Solve(m, id)
	fmt.Print(w)
	// Output:
	// [0, 1]
	// [1, 0]
}

// ExampleLeastSquares shows the fallback used when Solve reports ErrSingular.
func ExampleLeastSquares() {
	m, _ := matrix.NewDenseFrom(2, 2, []float64{1, 1, 1, 1})
	b, _ := matrix.NewDenseFrom(2, 1, []float64{2, 2})

	_, err := matrix.Solve(m, b)
	fmt.Println(errors.Is(err, matrix.ErrSingular))

	x, _ := matrix.LeastSquares(m, b)
	x0, _ := x.At(0, 0)
	x1, _ := x.At(1, 0)
	fmt.Printf("%.3f %.3f\n", x0, x1)
	// Output:
	// true
	// 1.000 1.000
}
