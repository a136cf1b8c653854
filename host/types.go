// SPDX-License-Identifier: MIT

// Package host defines the collaborators the interpolation core needs from
// its host application, plus reference implementations of each:
//
//   - Store: named scalar-array cells ("slots") with create-if-absent,
//     prefix-preserving resize, splice, move and delete-with-cleanup, each cell
//     optionally carrying a formula and free-form annotations.
//     MemoryStore implements it; SQLiteSnapshot persists it with modernc.org/sqlite.
//   - Scene: live values of host properties and transform channels.
//   - Runtime: a frame evaluator that parses every stored formula, orders
//     cells by dependency and evaluates them once per Frame call.
package host

import (
	"fmt"
	"slices"
)

// SlotRef addresses one entry of a named slot.
type SlotRef struct {
	Slot  string `json:"slot"`
	Index int    `json:"index"`
}

// String renders "slot[index]".
func (r SlotRef) String() string { return fmt.Sprintf("%s[%d]", r.Slot, r.Index) }

// IsZero reports whether r is the zero reference.
func (r SlotRef) IsZero() bool { return r.Slot == "" && r.Index == 0 }

// Target addresses a live host value.
type Target struct {
	// ID names the object or datablock holding the value.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
	// DataPath is a property path for single-property reads.
	DataPath string `json:"data_path,omitempty" yaml:"data_path,omitempty"`
	// Bone optionally narrows ID to a sub-element (e.g. a bone of an armature).
	Bone string `json:"bone,omitempty" yaml:"bone,omitempty"`
	// Channel is a transform channel such as LOC_X, ROT_W or SCALE_Z.
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`
	// Space is the transform space (WORLD_SPACE, LOCAL_SPACE, ...).
	Space string `json:"space,omitempty" yaml:"space,omitempty"`
	// RotationMode selects how rotation channels are reported (QUATERNION,
	// SWING_TWIST_Y, ...).
	RotationMode string `json:"rotation_mode,omitempty" yaml:"rotation_mode,omitempty"`
}

// Key returns a stable lookup key for the target.
func (t Target) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s", t.ID, t.Bone, t.DataPath, t.Channel, t.Space, t.RotationMode)
}

// IsZero reports whether t addresses nothing.
func (t Target) IsZero() bool { return t.ID == "" && t.DataPath == "" }

// BindingKind selects how a formula variable obtains its value.
type BindingKind int

const (
	// BindCell reads another slot cell.
	BindCell BindingKind = iota
	// BindSingleProp reads a property by data path.
	BindSingleProp
	// BindTransforms reads a transform channel.
	BindTransforms
	// BindLocDiff is the distance between the locations of two targets.
	BindLocDiff
	// BindRotDiff is the rotational difference between two targets.
	BindRotDiff
)

// String implements fmt.Stringer.
func (k BindingKind) String() string {
	switch k {
	case BindCell:
		return "cell"
	case BindSingleProp:
		return "single_prop"
	case BindTransforms:
		return "transforms"
	case BindLocDiff:
		return "loc_diff"
	case BindRotDiff:
		return "rot_diff"
	}

	return fmt.Sprintf("binding(%d)", int(k))
}

// Binding binds one formula variable.
type Binding struct {
	Name    string      `json:"name"`
	Kind    BindingKind `json:"kind"`
	Cell    SlotRef     `json:"cell"`
	Targets []Target    `json:"targets,omitempty"`
}

// Equal reports deep equality.
func (b Binding) Equal(o Binding) bool {
	return b.Name == o.Name && b.Kind == o.Kind && b.Cell == o.Cell && slices.Equal(b.Targets, o.Targets)
}

// Formula is the (text, bindings) pair evaluated by the host runtime.
type Formula struct {
	Expr     string    `json:"expr"`
	Bindings []Binding `json:"bindings,omitempty"`
}

// Equal reports whether two formulas have identical text and bindings.
func (f Formula) Equal(o Formula) bool {
	return f.Expr == o.Expr && slices.EqualFunc(f.Bindings, o.Bindings, Binding.Equal)
}

// CellRefs returns the cells read by f, in binding order.
func (f Formula) CellRefs() []SlotRef {
	var refs []SlotRef
	for _, b := range f.Bindings {
		if b.Kind == BindCell {
			refs = append(refs, b.Cell)
		}
	}

	return refs
}
