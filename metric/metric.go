// SPDX-License-Identifier: MIT

// Package metric implements the distance functions that compare two pose
// samples of one input.
//
// Every Func maps two equal-length vectors to a non-negative scalar that is 0
// when the vectors are equal under the metric's equivalence:
//
//   - Euclidean: sqrt(Σ(aᵢ−bᵢ)²), for location, scale, scalar and difference inputs.
//   - Quaternion: acos(clamp(2·clamp(a·b,−1,1)²−1,−1,1))/π, in [0,1]; q and −q are equal.
//   - Swing: angle between the images of one basis axis under the two
//     rotations, divided by π.
//   - Twist: |a₀−b₀|/π over a decomposed twist angle.
//
// Resolve picks the function for a Kind and falls back to Euclidean (with a
// logged warning) when the vector length does not match the metric's arity.
//
// ConvertRotation moves a rotation sample between the quaternion, Euler and
// swing-twist layouts the metrics above expect.
package metric

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-hclog"
)

// Func computes the distance between two equal-length samples.
type Func func(a, b []float64) float64

// Kind names a metric.
type Kind int

const (
	KindEuclidean Kind = iota
	KindQuaternion
	KindSwingX
	KindSwingY
	KindSwingZ
	KindTwist
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindEuclidean:
		return "euclidean"
	case KindQuaternion:
		return "quaternion"
	case KindSwingX:
		return "swing_x"
	case KindSwingY:
		return "swing_y"
	case KindSwingZ:
		return "swing_z"
	case KindTwist:
		return "twist"
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Arity returns the vector length the metric requires, or 0 for any length.
func (k Kind) Arity() int {
	switch k {
	case KindQuaternion, KindSwingX, KindSwingY, KindSwingZ:
		return 4
	case KindTwist:
		return 1
	}

	return 0
}

// Axis identifies a local basis axis for swing/twist decompositions.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// String implements fmt.Stringer.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	}

	return "?"
}

// SwingKind returns the swing metric kind for axis.
func SwingKind(a Axis) Kind {
	switch a {
	case AxisY:
		return KindSwingY
	case AxisZ:
		return KindSwingZ
	}

	return KindSwingX
}

// Accepts reports whether the metric can compare vectors of length n.
func (k Kind) Accepts(n int) bool {
	want := k.Arity()

	return want == 0 || want == n
}

// Resolve returns the metric for kind, checking the arity against n.
// On mismatch it logs a warning and returns Euclidean.
func Resolve(kind Kind, n int, logger hclog.Logger) Func {
	if !kind.Accepts(n) {
		if logger != nil {
			logger.Warn("metric arity mismatch, falling back to euclidean",
				"metric", kind.String(), "want", kind.Arity(), "got", n)
		}

		return Euclidean
	}
	switch kind {
	case KindQuaternion:
		return Quaternion
	case KindSwingX:
		return Swing(AxisX)
	case KindSwingY:
		return Swing(AxisY)
	case KindSwingZ:
		return Swing(AxisZ)
	case KindTwist:
		return Twist
	}

	return Euclidean
}

// Euclidean returns sqrt(Σ(aᵢ−bᵢ)²) over the common prefix of a and b.
func Euclidean(a, b []float64) float64 {
	var sum, d float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		d = a[i] - b[i]
		sum += d * d
	}

	return math.Sqrt(sum)
}

// Quaternion returns the normalized rotation angle between two unit
// quaternions (w, x, y, z): acos(clamp(2·dot²−1))/π.
func Quaternion(a, b []float64) float64 {
	dot := Clamp(a[0]*b[0]+a[1]*b[1]+a[2]*b[2]+a[3]*b[3], -1, 1)

	return math.Acos(Clamp(2*dot*dot-1, -1, 1)) / math.Pi
}

// Swing returns the metric comparing where each rotation sends the given
// basis axis. Identical swings give 0, opposite swings give 1.
func Swing(axis Axis) Func {
	return func(a, b []float64) float64 {
		u := AxisImage(a, axis)
		v := AxisImage(b, axis)
		dot := Clamp(u[0]*v[0]+u[1]*v[1]+u[2]*v[2], -1, 1)

		return (math.Pi/2 - math.Asin(dot)) / math.Pi
	}
}

// Twist returns |a₀−b₀|/π.
func Twist(a, b []float64) float64 {
	return math.Abs(a[0]-b[0]) / math.Pi
}

// AxisImage returns the image of a basis axis under the rotation of the
// quaternion q = (w, x, y, z), i.e. the matching column of its rotation matrix.
func AxisImage(q []float64, axis Axis) [3]float64 {
	w, x, y, z := q[0], q[1], q[2], q[3]
	switch axis {
	case AxisY:
		return [3]float64{2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x)}
	case AxisZ:
		return [3]float64{2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y)}
	}

	return [3]float64{1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y)}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
