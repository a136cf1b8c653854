// SPDX-License-Identifier: MIT

// Package rbf is the pose-space interpolation model: drivers (RBF networks)
// made of typed inputs and example poses, and the numeric cascade that turns
// their samples into a solved variable matrix.
//
// A System owns drivers. Every driver starts with a rest pose at index 0
// that cannot be removed. Inputs own 1..MaxVariables variables; each
// variable stores one sample per pose, so adding, removing or moving a pose
// edits every series in step.
//
// Every mutation method is a complete transaction. It validates its
// arguments (returning ErrOutOfRange, ErrRestPose, ErrNotMember,
// ErrVariableLimit or ErrSampleCount without touching state), applies the
// change, then runs the cascade once per affected driver, in this order:
//
//	input distance matrices and radii → driver mean matrix → auto radii →
//	kernel shaping → weight solve → DriverUpdated
//
// Events are delivered through the typed topics of System.Events after the
// cascade, in publication order. The exceptions are the Disposable events of
// the New/Disposable/Removed triples, which are delivered before the entity
// is physically removed unless the removal runs inside System.Batch. Consumers that keep derived state, such as
// the formula compiler, regenerate it on DriverUpdated.
//
// Children hold explicit back-references to their parents (Variable.Input,
// Input.Driver, Pose.Driver, Driver.System).
package rbf
