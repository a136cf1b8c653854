// SPDX-License-Identifier: MIT

// Package posespace is a radial-basis-function pose interpolation engine.
//
// A driver holds an ordered list of poses (samples of its inputs' values)
// and keeps, for every pose, a weight that rises towards 1 as the live
// input values approach that pose. The work is split into packages that
// mirror the data flow:
//
//	metric/    distance functions between samples (euclidean, quaternion, swing, twist)
//	matrix/    dense matrices with LU, Jacobi eigen decomposition and pseudo-inverse
//	solver/    exact solve with least-squares and zero fallbacks
//	events/    typed observables on a FIFO bus with batching
//	rbf/       drivers, inputs, variables, poses and the recompute cascade
//	formula/   the expression dialect evaluated by the host: AST, parser, renderer
//	depgraph/  dependency ordering of formula cells
//	host/      slot store, sqlite snapshots and a reference frame evaluator
//	compiler/  emits and reconciles each driver's formula graph in a host store
//	config/    YAML rigs and logger construction
//	cmd/posespace  command line front end
//
// A typical embedding creates an rbf.System, attaches a compiler.Compiler to
// a host.Store and mutates drivers through the rbf API. Each mutation runs
// its cascade (input matrices, driver matrix, solve, compile) before it
// returns:
//
//	sys := rbf.NewSystem(rbf.WithLogger(logger))
//	store := host.NewMemoryStore()
//	compiler.New(sys, store)
//
//	d, _ := sys.NewDriver("elbow")
//	in, _ := d.Inputs().New(rbf.Rotation)
//	_ = in.SetTarget(host.Target{ID: "Armature", Bone: "forearm"})
//	_, _ = d.Poses().New("bent")
//
//	frame, _ := host.NewRuntime(store, scene).Frame(ctx)
//	w, _ := frame.Value(compiler.WeightRef(d.Poses().At(1)))
package posespace
