// SPDX-License-Identifier: MIT

package host_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/posespace/host"
)

func TestSQLiteSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	snap := host.NewSQLiteSnapshot(filepath.Join(t.TempDir(), "rig.db"))
	require.NoError(t, snap.Init(ctx))
	t.Cleanup(func() { _ = snap.Close() })

	src := host.NewMemoryStore()
	target := host.Target{ID: "Armature", Bone: "forearm", Channel: "ROT_W", Space: "LOCAL_SPACE"}
	require.NoError(t, src.Update(func(tx host.Tx) error {
		require.NoError(t, tx.Ensure("rbfn_pinf", 2, 1))
		require.NoError(t, tx.Ensure("rbfn_pwgt", 2, 0))
		require.NoError(t, tx.SetValue(host.SlotRef{Slot: "rbfn_pinf", Index: 1}, 0.25))
		_, err := tx.SetFormula(host.SlotRef{Slot: "rbfn_pwgt", Index: 0}, host.Formula{
			Expr: "a*b",
			Bindings: []host.Binding{
				{Name: "a", Kind: host.BindCell, Cell: host.SlotRef{Slot: "rbfn_pinf", Index: 0}},
				{Name: "b", Kind: host.BindTransforms, Targets: []host.Target{target}},
			},
		})
		require.NoError(t, err)
		return tx.Annotate(host.SlotRef{Slot: "rbfn_pwgt", Index: 0}, "driver", "d1")
	}))
	require.NoError(t, snap.Save(ctx, src))

	dst := host.NewMemoryStore()
	require.NoError(t, dst.Update(func(tx host.Tx) error { return tx.Ensure("stale", 1, 0) }))
	require.NoError(t, snap.Load(ctx, dst))

	require.NoError(t, dst.View(func(r host.Reader) error {
		assert.Equal(t, []string{"rbfn_pinf", "rbfn_pwgt"}, r.Names())
		vs, err := r.Values("rbfn_pinf")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 0.25}, vs)
		f, ok := r.Formula(host.SlotRef{Slot: "rbfn_pwgt", Index: 0})
		require.True(t, ok)
		assert.Equal(t, "a*b", f.Expr)
		require.Len(t, f.Bindings, 2)
		assert.Equal(t, target, f.Bindings[1].Targets[0])
		note, ok := r.Annotation(host.SlotRef{Slot: "rbfn_pwgt", Index: 0}, "driver")
		assert.True(t, ok)
		assert.Equal(t, "d1", note)
		return nil
	}))
}

func TestSQLiteSnapshot_Errors(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, host.NewSQLiteSnapshot("").Init(ctx))
	assert.Error(t, host.NewSQLiteSnapshot("x.db").Save(ctx, host.NewMemoryStore()))

	snap := host.NewSQLiteSnapshot(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, snap.Init(ctx))
	t.Cleanup(func() { _ = snap.Close() })
	assert.ErrorIs(t, snap.Load(ctx, host.NewMemoryStore()), host.ErrSnapshotVersion)
}
