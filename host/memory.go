// SPDX-License-Identifier: MIT

package host

import (
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/exp/maps"
)

type entry struct {
	value   float64
	formula *Formula
	notes   map[string]string
}

// MemoryStore is the in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	slots  map[string][]entry
	logger hclog.Logger
}

var _ Store = (*MemoryStore)(nil)

// Option configures a MemoryStore or Runtime.
type Option func(*options)

type options struct {
	logger hclog.Logger
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: hclog.NewNullLogger()}
	for _, fn := range opts {
		fn(&o)
	}

	return o
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)

	return &MemoryStore{slots: make(map[string][]entry), logger: o.logger}
}

// View runs fn under the read lock.
func (s *MemoryStore) View(fn func(Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&memTx{s: s})
}

// Update runs fn under the write lock.
func (s *MemoryStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(&memTx{s: s, writable: true})
}

type memTx struct {
	s        *MemoryStore
	writable bool
}

func (tx *memTx) Names() []string {
	names := maps.Keys(tx.s.slots)
	slices.Sort(names)

	return names
}

func (tx *memTx) Len(name string) int {
	es, ok := tx.s.slots[name]
	if !ok {
		return -1
	}

	return len(es)
}

func (tx *memTx) entry(ref SlotRef) (*entry, error) {
	es, ok := tx.s.slots[ref.Slot]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSlot, ref.Slot)
	}
	if ref.Index < 0 || ref.Index >= len(es) {
		return nil, fmt.Errorf("%w: %s", ErrIndex, ref)
	}

	return &es[ref.Index], nil
}

func (tx *memTx) Value(ref SlotRef) (float64, error) {
	e, err := tx.entry(ref)
	if err != nil {
		return 0, err
	}

	return e.value, nil
}

func (tx *memTx) Values(name string) ([]float64, error) {
	es, ok := tx.s.slots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSlot, name)
	}
	out := make([]float64, len(es))
	for i, e := range es {
		out[i] = e.value
	}

	return out, nil
}

func (tx *memTx) Formula(ref SlotRef) (Formula, bool) {
	e, err := tx.entry(ref)
	if err != nil || e.formula == nil {
		return Formula{}, false
	}

	return *e.formula, true
}

func (tx *memTx) Annotation(ref SlotRef, key string) (string, bool) {
	e, err := tx.entry(ref)
	if err != nil {
		return "", false
	}
	v, ok := e.notes[key]

	return v, ok
}

func (tx *memTx) Annotations(ref SlotRef) map[string]string {
	e, err := tx.entry(ref)
	if err != nil || len(e.notes) == 0 {
		return nil
	}

	return maps.Clone(e.notes)
}

func (tx *memTx) checkWritable() error {
	if !tx.writable {
		return ErrReadOnly
	}

	return nil
}

func (tx *memTx) Ensure(name string, size int, fill float64) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if size < 0 {
		return fmt.Errorf("%w: %s(%d)", ErrBadSize, name, size)
	}
	es, ok := tx.s.slots[name]
	if !ok {
		es = make([]entry, 0, size)
	}
	if len(es) > size {
		tx.rebind(func(r SlotRef) (SlotRef, bool) {
			return r, r.Slot != name || r.Index < size
		})
		es = es[:size:size]
	}
	for len(es) < size {
		es = append(es, entry{value: fill})
	}
	tx.s.slots[name] = es

	return nil
}

func (tx *memTx) Delete(name string) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if _, ok := tx.s.slots[name]; !ok {
		return nil
	}
	delete(tx.s.slots, name)
	tx.rebind(func(r SlotRef) (SlotRef, bool) { return r, r.Slot != name })

	return nil
}

func (tx *memTx) Splice(name string, index int) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	es, ok := tx.s.slots[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSlot, name)
	}
	if index < 0 || index >= len(es) {
		return fmt.Errorf("%w: %s", ErrIndex, SlotRef{name, index})
	}
	tx.s.slots[name] = slices.Delete(es, index, index+1)
	tx.rebind(func(r SlotRef) (SlotRef, bool) {
		if r.Slot != name || r.Index < index {
			return r, true
		}
		if r.Index == index {
			return r, false
		}
		r.Index--
		return r, true
	})

	return nil
}

func (tx *memTx) Move(name string, from, to int) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	es, ok := tx.s.slots[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSlot, name)
	}
	if from < 0 || from >= len(es) {
		return fmt.Errorf("%w: %s", ErrIndex, SlotRef{name, from})
	}
	if to < 0 || to >= len(es) {
		return fmt.Errorf("%w: %s", ErrIndex, SlotRef{name, to})
	}
	if from == to {
		return nil
	}
	e := es[from]
	es = slices.Delete(es, from, from+1)
	tx.s.slots[name] = slices.Insert(es, to, e)
	tx.rebind(func(r SlotRef) (SlotRef, bool) {
		if r.Slot == name {
			r.Index = MovedIndex(r.Index, from, to)
		}
		return r, true
	})

	return nil
}

// MovedIndex maps an index before Move(from, to) to its index after.
func MovedIndex(i, from, to int) int {
	switch {
	case i == from:
		return to
	case from < to && i > from && i <= to:
		return i - 1
	case to < from && i >= to && i < from:
		return i + 1
	}

	return i
}

// rebind re-points every cell binding through fn; a false result clears the
// owning formula because the cell it read no longer exists.
func (tx *memTx) rebind(fn func(SlotRef) (SlotRef, bool)) {
	for name, es := range tx.s.slots {
		for i := range es {
			f := es[i].formula
			if f == nil {
				continue
			}
			var (
				changed  bool
				dangling bool
				bs       = slices.Clone(f.Bindings)
			)
			for k := range bs {
				if bs[k].Kind != BindCell {
					continue
				}
				r, ok := fn(bs[k].Cell)
				if !ok {
					dangling = true
					break
				}
				if r != bs[k].Cell {
					bs[k].Cell = r
					changed = true
				}
			}
			switch {
			case dangling:
				tx.s.logger.Debug("clearing formula with dangling binding", "cell", SlotRef{name, i})
				es[i].formula = nil
			case changed:
				es[i].formula = &Formula{Expr: f.Expr, Bindings: bs}
			}
		}
	}
}

func (tx *memTx) SetValue(ref SlotRef, v float64) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	e, err := tx.entry(ref)
	if err != nil {
		return err
	}
	e.value = v

	return nil
}

func (tx *memTx) SetFormula(ref SlotRef, f Formula) (bool, error) {
	if err := tx.checkWritable(); err != nil {
		return false, err
	}
	e, err := tx.entry(ref)
	if err != nil {
		return false, err
	}
	if e.formula != nil && e.formula.Equal(f) {
		return false, nil
	}
	cp := Formula{Expr: f.Expr, Bindings: slices.Clone(f.Bindings)}
	e.formula = &cp

	return true, nil
}

func (tx *memTx) ClearFormula(ref SlotRef) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	e, err := tx.entry(ref)
	if err != nil {
		return err
	}
	e.formula = nil

	return nil
}

func (tx *memTx) Annotate(ref SlotRef, key, value string) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	e, err := tx.entry(ref)
	if err != nil {
		return err
	}
	if value == "" {
		delete(e.notes, key)
		return nil
	}
	if e.notes == nil {
		e.notes = make(map[string]string)
	}
	e.notes[key] = value

	return nil
}
