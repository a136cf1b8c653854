// SPDX-License-Identifier: MIT

package metric

import "math"

// Representation names how a rotation sample is laid out over the four
// channels (w, x, y, z) of a rotation input.
//
//   - RepQuaternion: a unit quaternion. Swing inputs use it too.
//   - RepEuler: XYZ Euler angles in x, y, z; w is unused and stored as 0.
//   - RepSwingTwistX/Y/Z: the twist angle about the axis sits in that axis'
//     channel, the other three channels hold the swing quaternion.
type Representation int

const (
	RepQuaternion Representation = iota
	RepEuler
	RepSwingTwistX
	RepSwingTwistY
	RepSwingTwistZ
)

// SwingTwistRep returns the swing-twist representation for axis.
func SwingTwistRep(a Axis) Representation {
	switch a {
	case AxisY:
		return RepSwingTwistY
	case AxisZ:
		return RepSwingTwistZ
	}

	return RepSwingTwistX
}

func (r Representation) twistAxis() (Axis, bool) {
	switch r {
	case RepSwingTwistX:
		return AxisX, true
	case RepSwingTwistY:
		return AxisY, true
	case RepSwingTwistZ:
		return AxisZ, true
	}

	return 0, false
}

// ConvertRotation rewrites the sample v from one representation to another.
func ConvertRotation(from, to Representation, v [4]float64) [4]float64 {
	if from == to {
		return v
	}

	return FromQuaternion(to, ToQuaternion(from, v))
}

// ToQuaternion returns the quaternion (w, x, y, z) described by v.
func ToQuaternion(r Representation, v [4]float64) [4]float64 {
	if r == RepEuler {
		return eulerToQuaternion(v[1], v[2], v[3])
	}
	axis, ok := r.twistAxis()
	if !ok {
		return v
	}
	k := int(axis) + 1
	theta := v[k]
	swing := v
	swing[k] = 0
	var twist [4]float64
	twist[0] = math.Cos(theta / 2)
	twist[k] = math.Sin(theta / 2)

	return mulQuaternion(swing, twist)
}

// FromQuaternion returns q in representation r. The twist angle lies in
// [−π, π]; a rotation with no component about the twist axis has twist 0.
func FromQuaternion(r Representation, q [4]float64) [4]float64 {
	if r == RepEuler {
		return quaternionToEuler(q)
	}
	axis, ok := r.twistAxis()
	if !ok {
		return q
	}
	k := int(axis) + 1
	tw, tv := q[0], q[k]
	n := math.Hypot(tw, tv)
	if n < 1e-12 {
		out := q
		out[k] = 0
		return out
	}
	tw, tv = tw/n, tv/n
	if tw < 0 {
		tw, tv = -tw, -tv
	}
	var twist [4]float64
	twist[0], twist[k] = tw, -tv
	out := mulQuaternion(q, twist)
	out[k] = 2 * math.Atan2(tv, tw)

	return out
}

// mulQuaternion returns the Hamilton product a·b.
func mulQuaternion(a, b [4]float64) [4]float64 {
	return [4]float64{
		a[0]*b[0] - a[1]*b[1] - a[2]*b[2] - a[3]*b[3],
		a[0]*b[1] + a[1]*b[0] + a[2]*b[3] - a[3]*b[2],
		a[0]*b[2] - a[1]*b[3] + a[2]*b[0] + a[3]*b[1],
		a[0]*b[3] + a[1]*b[2] - a[2]*b[1] + a[3]*b[0],
	}
}

// eulerToQuaternion composes Rz·Ry·Rx.
func eulerToQuaternion(x, y, z float64) [4]float64 {
	cx, sx := math.Cos(x/2), math.Sin(x/2)
	cy, sy := math.Cos(y/2), math.Sin(y/2)
	cz, sz := math.Cos(z/2), math.Sin(z/2)

	return [4]float64{
		cx*cy*cz + sx*sy*sz,
		sx*cy*cz - cx*sy*sz,
		cx*sy*cz + sx*cy*sz,
		cx*cy*sz - sx*sy*cz,
	}
}

func quaternionToEuler(q [4]float64) [4]float64 {
	w, x, y, z := q[0], q[1], q[2], q[3]

	return [4]float64{
		0,
		math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		math.Asin(Clamp(2*(w*y-z*x), -1, 1)),
		math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z)),
	}
}
