// SPDX-License-Identifier: MIT

package depgraph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/posespace/depgraph"
)

func TestTopologicalSort_Chain(t *testing.T) {
	g := depgraph.New()
	require.NoError(t, g.AddEdge("pdst", "pwgt"))
	require.NoError(t, g.AddEdge("pwgt", "wsum"))
	require.NoError(t, g.AddEdge("pwgt", "norm"))
	require.NoError(t, g.AddEdge("wsum", "norm"))

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"pdst", "pwgt", "wsum", "norm"}, order)
}

func TestTopologicalSort_IndependentVerticesAreLexicographic(t *testing.T) {
	g := depgraph.New()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, g.AddVertex(id))
	}
	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTopologicalSort_Cycle(t *testing.T) {
	g := depgraph.New()
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "a"))
	_, err := g.TopologicalSort()
	assert.ErrorIs(t, err, depgraph.ErrCycleDetected)
}

func TestTopologicalSort_Cancelled(t *testing.T) {
	g := depgraph.New()
	require.NoError(t, g.AddEdge("a", "b"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.TopologicalSort(depgraph.WithCancelContext(ctx))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownstream(t *testing.T) {
	g := depgraph.New()
	require.NoError(t, g.AddEdge("in", "d0"))
	require.NoError(t, g.AddEdge("in", "d1"))
	require.NoError(t, g.AddEdge("d0", "sum"))
	require.NoError(t, g.AddEdge("d1", "sum"))
	require.NoError(t, g.AddVertex("other"))

	assert.Equal(t, []string{"d0", "sum"}, g.Downstream("d0"))
	assert.Equal(t, []string{"d0", "d1", "in", "sum"}, g.Downstream("in"))
	assert.Equal(t, []string{"missing"}, g.Downstream("missing"))
	assert.Empty(t, g.Downstream())
	assert.ErrorIs(t, g.AddVertex(""), depgraph.ErrEmptyID)
	assert.ErrorIs(t, g.AddEdge("in", ""), depgraph.ErrEmptyID)
}
