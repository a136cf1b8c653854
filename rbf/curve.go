// SPDX-License-Identifier: MIT

package rbf

import (
	"fmt"
	"slices"
)

// Point is a falloff curve control point in [0,1]².
type Point struct {
	X, Y float64
}

// Curve is a monotone-in-x piecewise-linear remap of [0,1], extended
// with its end values outside the control range.
// The zero Curve is the identity on [0,1].
type Curve struct {
	points []Point
}

// LinearCurve returns the identity curve (0,0)–(1,1).
func LinearCurve() Curve {
	return Curve{points: []Point{{0, 0}, {1, 1}}}
}

// NewCurve validates and copies points.
func NewCurve(points ...Point) (Curve, error) {
	if len(points) == 0 {
		return Curve{}, fmt.Errorf("%w: no control points", ErrInvalidCurve)
	}
	for i, p := range points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return Curve{}, fmt.Errorf("%w: point %d (%g, %g) outside [0,1]", ErrInvalidCurve, i, p.X, p.Y)
		}
		if i > 0 && p.X < points[i-1].X {
			return Curve{}, fmt.Errorf("%w: point %d not sorted by x", ErrInvalidCurve, i)
		}
	}

	return Curve{points: slices.Clone(points)}, nil
}

// Points returns a copy of the control points.
func (c Curve) Points() []Point {
	if len(c.points) == 0 {
		return LinearCurve().points
	}

	return slices.Clone(c.points)
}

// Equal reports whether both curves have the same control points.
func (c Curve) Equal(o Curve) bool { return slices.Equal(c.Points(), o.Points()) }

// Eval maps x through the curve.
func (c Curve) Eval(x float64) float64 {
	pts := c.Points()
	if x < pts[0].X {
		return pts[0].Y
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		if x < b.X {
			return a.Y + (x-a.X)*(b.Y-a.Y)/(b.X-a.X)
		}
	}

	return pts[len(pts)-1].Y
}
