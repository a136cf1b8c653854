// SPDX-License-Identifier: MIT

package rbf

import (
	"fmt"
	"strings"
)

// Smoothing selects how the driver turns distances into weights.
type Smoothing int

const (
	// Radial shapes distances with a kernel and solves against I.
	Radial Smoothing = iota
	// Linear passes distances through and solves against regularization·I.
	Linear
)

var smoothingNames = []string{"RADIAL", "LINEAR"}

// Kernel is the radial basis function applied when smoothing is Radial.
type Kernel int

const (
	// Gaussian is exp(−(d²/2)·r²).
	Gaussian Kernel = iota
	// Quadratic is sqrt(d² + r²).
	Quadratic
)

var kernelNames = []string{"GAUSSIAN", "QUADRATIC"}

// InputType is the kind of data an input reads.
type InputType int

const (
	Location InputType = iota
	Rotation
	Scale
	RotationDiff
	LocDiff
	ShapeKey
	UserDefined
)

var inputTypeNames = []string{"LOCATION", "ROTATION", "SCALE", "ROTATION_DIFF", "LOC_DIFF", "SHAPE_KEY", "USER_DEFINED"}

// RotationMode selects the channels and metric of a Rotation input.
type RotationMode int

const (
	Quaternion RotationMode = iota
	Euler
	SwingX
	SwingY
	SwingZ
	TwistX
	TwistY
	TwistZ
)

var rotationModeNames = []string{"QUATERNION", "EULER", "SWING_X", "SWING_Y", "SWING_Z", "TWIST_X", "TWIST_Y", "TWIST_Z"}

// VariableType selects how a variable reads its targets.
type VariableType int

const (
	SingleProp VariableType = iota
	Transforms
	LocDiffVar
	RotDiffVar
)

var variableTypeNames = []string{"SINGLE_PROP", "TRANSFORMS", "LOC_DIFF", "ROTATION_DIFF"}

func enumString(names []string, v int, kind string) string {
	if v >= 0 && v < len(names) {
		return names[v]
	}

	return fmt.Sprintf("%s(%d)", kind, v)
}

func parseEnum(names []string, s, kind string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: %s %q", ErrInvalidMode, kind, s)
}

func (s Smoothing) String() string    { return enumString(smoothingNames, int(s), "smoothing") }
func (k Kernel) String() string       { return enumString(kernelNames, int(k), "kernel") }
func (t InputType) String() string    { return enumString(inputTypeNames, int(t), "input_type") }
func (m RotationMode) String() string { return enumString(rotationModeNames, int(m), "rotation_mode") }
func (t VariableType) String() string { return enumString(variableTypeNames, int(t), "variable_type") }

// ParseSmoothing parses "radial" or "linear", case-insensitively.
func ParseSmoothing(s string) (Smoothing, error) {
	v, err := parseEnum(smoothingNames, s, "smoothing")
	return Smoothing(v), err
}

// ParseKernel parses a kernel name.
func ParseKernel(s string) (Kernel, error) {
	v, err := parseEnum(kernelNames, s, "kernel")
	return Kernel(v), err
}

// ParseInputType parses an input type name such as "shape_key".
func ParseInputType(s string) (InputType, error) {
	v, err := parseEnum(inputTypeNames, s, "input_type")
	return InputType(v), err
}

// ParseRotationMode parses a rotation mode name such as "swing_y".
func ParseRotationMode(s string) (RotationMode, error) {
	v, err := parseEnum(rotationModeNames, s, "rotation_mode")
	return RotationMode(v), err
}
