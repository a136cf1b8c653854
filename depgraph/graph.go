// SPDX-License-Identifier: MIT

// Package depgraph is a small directed dependency graph over string keys.
//
// An edge u→v means "v reads u": u must be evaluated before v. The graph
// provides a deterministic topological order (DFS post-order, vertices and
// successors visited in lexicographic order), cycle detection, and the
// downstream closure of a set of changed vertices.
//
// Complexity:
//
//   - TopologicalSort: O(V log V + E log E) including the sorting of neighbours
//   - Downstream:      O(V + E)
package depgraph

import (
	"context"
	"errors"
	"slices"
	"sync"

	"golang.org/x/exp/maps"
)

var (
	// ErrCycleDetected indicates that the graph is not a DAG.
	ErrCycleDetected = errors.New("depgraph: cycle detected")

	// ErrEmptyID indicates an empty vertex key.
	ErrEmptyID = errors.New("depgraph: empty vertex id")
)

// Visitation states of the DFS.
const (
	White = iota
	Gray
	Black
)

// Graph is a directed graph safe for concurrent use.
type Graph struct {
	mu  sync.RWMutex
	out map[string]map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{out: make(map[string]map[string]struct{})}
}

// AddVertex inserts id if absent.
func (g *Graph) AddVertex(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addVertexLocked(id)

	return nil
}

func (g *Graph) addVertexLocked(id string) {
	if _, ok := g.out[id]; !ok {
		g.out[id] = make(map[string]struct{})
	}
}

// AddEdge records that to depends on from, inserting both vertices.
func (g *Graph) AddEdge(from, to string) error {
	if from == "" || to == "" {
		return ErrEmptyID
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addVertexLocked(from)
	g.addVertexLocked(to)
	g.out[from][to] = struct{}{}

	return nil
}

// TopoOption configures TopologicalSort.
type TopoOption func(*topoOptions)

type topoOptions struct {
	ctx context.Context
}

// WithCancelContext makes the sort observe ctx. A nil ctx has no effect.
func WithCancelContext(ctx context.Context) TopoOption {
	return func(o *topoOptions) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

type topoSorter struct {
	g     *Graph
	opts  topoOptions
	state map[string]int
	order []string
}

// TopologicalSort returns every vertex ordered so that each edge u→v has u
// before v. Returns ErrCycleDetected if the graph has a cycle.
func (g *Graph) TopologicalSort(options ...TopoOption) ([]string, error) {
	opts := topoOptions{ctx: context.Background()}
	for _, opt := range options {
		opt(&opts)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	verts := maps.Keys(g.out)
	slices.Sort(verts)
	s := &topoSorter{
		g:     g,
		opts:  opts,
		state: make(map[string]int, len(verts)),
		order: make([]string, 0, len(verts)),
	}
	// Visit in reverse lexicographic order so that the reversed post-order
	// lists independent vertices lexicographically.
	for i := len(verts) - 1; i >= 0; i-- {
		if s.state[verts[i]] == White {
			if err := s.visit(verts[i]); err != nil {
				return nil, err
			}
		}
	}
	slices.Reverse(s.order)

	return s.order, nil
}

func (s *topoSorter) visit(id string) error {
	select {
	case <-s.opts.ctx.Done():
		return s.opts.ctx.Err()
	default:
	}
	switch s.state[id] {
	case Gray:
		return ErrCycleDetected
	case Black:
		return nil
	}
	s.state[id] = Gray

	next := maps.Keys(s.g.out[id])
	slices.Sort(next)
	for i := len(next) - 1; i >= 0; i-- {
		if err := s.visit(next[i]); err != nil {
			return err
		}
	}

	s.state[id] = Black
	s.order = append(s.order, id)

	return nil
}

// Downstream returns roots plus every vertex reachable from them, sorted.
// Unknown roots are included as-is.
func (g *Graph) Downstream(roots ...string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]struct{}, len(roots))
	stack := append([]string(nil), roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		for to := range g.out[id] {
			stack = append(stack, to)
		}
	}
	ids := maps.Keys(seen)
	slices.Sort(ids)

	return ids
}
