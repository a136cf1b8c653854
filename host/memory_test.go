// SPDX-License-Identifier: MIT

package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/posespace/host"
)

func cellFormula(expr string, refs ...host.SlotRef) host.Formula {
	f := host.Formula{Expr: expr}
	for i, r := range refs {
		f.Bindings = append(f.Bindings, host.Binding{Name: string(rune('a' + i)), Kind: host.BindCell, Cell: r})
	}

	return f
}

func TestMemoryStore_EnsurePreservesPrefix(t *testing.T) {
	s := host.NewMemoryStore()
	require.NoError(t, s.Update(func(tx host.Tx) error {
		require.NoError(t, tx.Ensure("w", 2, 1))
		require.NoError(t, tx.SetValue(host.SlotRef{Slot: "w", Index: 1}, 5))
		return tx.Ensure("w", 4, 0)
	}))
	require.NoError(t, s.View(func(r host.Reader) error {
		vs, err := r.Values("w")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 5, 0, 0}, vs)
		assert.Equal(t, -1, r.Len("missing"))
		return nil
	}))
}

func TestMemoryStore_ViewIsReadOnly(t *testing.T) {
	s := host.NewMemoryStore()
	err := s.View(func(r host.Reader) error {
		return r.(host.Tx).Ensure("w", 1, 0)
	})
	assert.ErrorIs(t, err, host.ErrReadOnly)
}

func TestMemoryStore_SpliceRebinds(t *testing.T) {
	s := host.NewMemoryStore()
	in := func(i int) host.SlotRef { return host.SlotRef{Slot: "in", Index: i} }
	out := func(i int) host.SlotRef { return host.SlotRef{Slot: "out", Index: i} }

	require.NoError(t, s.Update(func(tx host.Tx) error {
		require.NoError(t, tx.Ensure("in", 3, 0))
		require.NoError(t, tx.Ensure("out", 3, 0))
		for i := 0; i < 3; i++ {
			if _, err := tx.SetFormula(out(i), cellFormula("a", in(i))); err != nil {
				return err
			}
		}
		return tx.Splice("in", 1)
	}))

	require.NoError(t, s.View(func(r host.Reader) error {
		assert.Equal(t, 2, r.Len("in"))
		f0, ok := r.Formula(out(0))
		require.True(t, ok)
		assert.Equal(t, in(0), f0.Bindings[0].Cell)
		_, ok = r.Formula(out(1))
		assert.False(t, ok, "formula reading the removed cell is cleared")
		f2, ok := r.Formula(out(2))
		require.True(t, ok)
		assert.Equal(t, in(1), f2.Bindings[0].Cell)
		return nil
	}))
}

func TestMemoryStore_MoveRebinds(t *testing.T) {
	s := host.NewMemoryStore()
	ref := func(slot string, i int) host.SlotRef { return host.SlotRef{Slot: slot, Index: i} }

	require.NoError(t, s.Update(func(tx host.Tx) error {
		require.NoError(t, tx.Ensure("in", 3, 0))
		require.NoError(t, tx.Ensure("out", 1, 0))
		for i := 0; i < 3; i++ {
			require.NoError(t, tx.SetValue(ref("in", i), float64(i)))
		}
		if _, err := tx.SetFormula(ref("out", 0), cellFormula("a", ref("in", 0))); err != nil {
			return err
		}
		return tx.Move("in", 0, 2)
	}))

	require.NoError(t, s.View(func(r host.Reader) error {
		vs, err := r.Values("in")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 0}, vs)
		f, ok := r.Formula(ref("out", 0))
		require.True(t, ok)
		assert.Equal(t, ref("in", 2), f.Bindings[0].Cell)
		return nil
	}))
}

func TestMovedIndex(t *testing.T) {
	cases := []struct{ i, from, to, want int }{
		{0, 0, 2, 2},
		{1, 0, 2, 0},
		{2, 0, 2, 1},
		{3, 0, 2, 3},
		{2, 2, 0, 0},
		{0, 2, 0, 1},
		{1, 2, 0, 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, host.MovedIndex(c.i, c.from, c.to), "i=%d from=%d to=%d", c.i, c.from, c.to)
	}
}

func TestMemoryStore_DeleteAndShrinkClearDangling(t *testing.T) {
	s := host.NewMemoryStore()
	ref := func(slot string, i int) host.SlotRef { return host.SlotRef{Slot: slot, Index: i} }

	require.NoError(t, s.Update(func(tx host.Tx) error {
		require.NoError(t, tx.Ensure("a", 2, 0))
		require.NoError(t, tx.Ensure("b", 2, 0))
		require.NoError(t, tx.Ensure("c", 1, 0))
		if _, err := tx.SetFormula(ref("c", 0), cellFormula("a", ref("a", 0))); err != nil {
			return err
		}
		if _, err := tx.SetFormula(ref("b", 0), cellFormula("a", ref("a", 1))); err != nil {
			return err
		}
		require.NoError(t, tx.Ensure("a", 1, 0))
		_, ok := tx.Formula(ref("b", 0))
		assert.False(t, ok)
		_, ok = tx.Formula(ref("c", 0))
		assert.True(t, ok)
		return tx.Delete("a")
	}))

	require.NoError(t, s.View(func(r host.Reader) error {
		_, ok := r.Formula(ref("c", 0))
		assert.False(t, ok)
		assert.Equal(t, []string{"b", "c"}, r.Names())
		return nil
	}))
}

func TestMemoryStore_SetFormulaReportsChange(t *testing.T) {
	s := host.NewMemoryStore()
	ref := host.SlotRef{Slot: "x", Index: 0}
	require.NoError(t, s.Update(func(tx host.Tx) error {
		require.NoError(t, tx.Ensure("x", 1, 0))
		changed, err := tx.SetFormula(ref, host.Formula{Expr: "1.0"})
		require.NoError(t, err)
		assert.True(t, changed)
		changed, err = tx.SetFormula(ref, host.Formula{Expr: "1.0"})
		require.NoError(t, err)
		assert.False(t, changed)
		require.NoError(t, tx.Annotate(ref, "owner", "driver"))
		v, ok := tx.Annotation(ref, "owner")
		assert.True(t, ok)
		assert.Equal(t, "driver", v)
		_, err = tx.Value(host.SlotRef{Slot: "x", Index: 3})
		assert.ErrorIs(t, err, host.ErrIndex)
		return nil
	}))
}

func TestMemoryStore_AnnotationsTravelAndClear(t *testing.T) {
	s := host.NewMemoryStore()
	ref := func(i int) host.SlotRef { return host.SlotRef{Slot: "w", Index: i} }
	require.NoError(t, s.Update(func(tx host.Tx) error {
		require.NoError(t, tx.Ensure("w", 3, 0))
		require.NoError(t, tx.Annotate(ref(1), "pose", "b"))
		require.NoError(t, tx.Annotate(ref(2), "pose", "c"))
		require.NoError(t, tx.Annotate(ref(2), "tag", "x"))
		require.NoError(t, tx.Splice("w", 0))
		return tx.Annotate(ref(1), "tag", "")
	}))
	require.NoError(t, s.View(func(r host.Reader) error {
		v, ok := r.Annotation(ref(0), "pose")
		assert.True(t, ok)
		assert.Equal(t, "b", v)
		assert.Equal(t, map[string]string{"pose": "c"}, r.Annotations(ref(1)))
		assert.Nil(t, r.Annotations(host.SlotRef{Slot: "w", Index: 9}))
		return nil
	}))
}
