// SPDX-License-Identifier: MIT

package rbf

import "errors"

// Argument errors are returned before any state changes.
var (
	// ErrOutOfRange is returned for an index or scalar outside its domain.
	ErrOutOfRange = errors.New("rbf: value out of range")

	// ErrRestPose is returned when removing or moving the rest pose.
	ErrRestPose = errors.New("rbf: the rest pose cannot be removed or moved")

	// ErrNotMember is returned when an entity does not belong to the collection.
	ErrNotMember = errors.New("rbf: not a member of this collection")

	// ErrVariableLimit is returned when an input would own fewer than 1 or
	// more than MaxVariables variables.
	ErrVariableLimit = errors.New("rbf: variable count limit")

	// ErrSampleCount is returned when a sample series does not have one
	// value per pose.
	ErrSampleCount = errors.New("rbf: sample count does not match pose count")

	// ErrInvalidCurve is returned for control points outside [0,1]² or not
	// sorted by x.
	ErrInvalidCurve = errors.New("rbf: invalid falloff curve")

	// ErrDisposed is returned when mutating a removed driver.
	ErrDisposed = errors.New("rbf: driver has been removed")

	// ErrInvalidMode is returned for a rotation mode on a non-rotation input,
	// or an unknown enum value.
	ErrInvalidMode = errors.New("rbf: invalid mode")
)
