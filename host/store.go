// SPDX-License-Identifier: MIT

package host

import "errors"

var (
	// ErrNoSlot is returned when a named slot does not exist.
	ErrNoSlot = errors.New("host: no such slot")

	// ErrIndex is returned for an entry index outside the slot.
	ErrIndex = errors.New("host: slot index out of range")

	// ErrReadOnly is returned when a View transaction attempts a write.
	ErrReadOnly = errors.New("host: read-only transaction")

	// ErrBadSize is returned for a negative slot size.
	ErrBadSize = errors.New("host: negative slot size")
)

// Reader is the read half of a store transaction.
type Reader interface {
	// Names returns every slot name, sorted.
	Names() []string
	// Len returns the number of entries in name, or -1 if it does not exist.
	Len(name string) int
	// Value returns the stored value of a cell.
	Value(ref SlotRef) (float64, error)
	// Values returns a copy of all values of a slot.
	Values(name string) ([]float64, error)
	// Formula returns the formula attached to a cell, if any.
	Formula(ref SlotRef) (Formula, bool)
	// Annotation returns the annotation key of a cell, if set.
	Annotation(ref SlotRef, key string) (string, bool)
	// Annotations returns a copy of every annotation of a cell.
	Annotations(ref SlotRef) map[string]string
}

// Tx is a read-write store transaction.
type Tx interface {
	Reader

	// Ensure creates name with size entries set to fill if absent, otherwise
	// resizes it preserving the prefix; new entries are set to fill.
	Ensure(name string, size int, fill float64) error
	// Delete removes name and clears every formula that reads one of its
	// cells. Deleting a missing slot is a no-op.
	Delete(name string) error
	// Splice removes entry index of name, shifting higher entries down with
	// their formulas and annotations. Bindings elsewhere that read shifted
	// cells are re-pointed; formulas that read the removed cell are cleared.
	Splice(name string, index int) error
	// Move relocates entry from to position to (shifting the entries
	// between) and re-points bindings accordingly.
	Move(name string, from, to int) error

	SetValue(ref SlotRef, v float64) error
	// SetFormula attaches f to ref and reports whether it differed from the
	// formula already attached.
	SetFormula(ref SlotRef, f Formula) (bool, error)
	ClearFormula(ref SlotRef) error
	// Annotate sets key on ref; an empty value removes it.
	Annotate(ref SlotRef, key, value string) error
}

// Store is a transactional slot store. View transactions may run
// concurrently with each other; Update transactions are exclusive.
type Store interface {
	View(fn func(Reader) error) error
	Update(fn func(Tx) error) error
}
