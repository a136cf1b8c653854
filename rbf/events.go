// SPDX-License-Identifier: MIT

package rbf

import (
	"github.com/katalvlaran/posespace/events"
	"github.com/katalvlaran/posespace/solver"
)

// DriverEvent reports a driver lifecycle step.
type DriverEvent struct {
	Driver *Driver
}

// InputEvent reports an input lifecycle step. Index is the position of the
// input in its driver at the time of the event.
type InputEvent struct {
	Driver *Driver
	Input  *Input
	Index  int
}

// PoseEvent reports a pose lifecycle step. Index is the position of the
// pose before removal (PoseDisposable, PoseRemoved) or after insertion
// (PoseAdded).
type PoseEvent struct {
	Driver *Driver
	Pose   *Pose
	Index  int
}

// PoseMovedEvent reports a reorder of one pose.
type PoseMovedEvent struct {
	Driver   *Driver
	Pose     *Pose
	From, To int
}

// InputDistanceEvent is published after an input matrix is recomputed.
type InputDistanceEvent struct {
	Input *Input
}

// DriverDistanceEvent is published after the aggregated driver matrix and
// the auto radii are recomputed.
type DriverDistanceEvent struct {
	Driver *Driver
}

// WeightsEvent is published after the variable matrix is solved.
type WeightsEvent struct {
	Driver *Driver
	Method solver.Method
}

// DriverUpdatedEvent is published once per driver at the end of every
// cascade, after all recomputation; consumers regenerate derived state here.
type DriverUpdatedEvent struct {
	Driver *Driver
}

// Events is the set of typed topics of a System.
type Events struct {
	DriverCreated    *events.Observable[DriverEvent]
	DriverDisposable *events.Observable[DriverEvent]
	DriverDisposed   *events.Observable[DriverEvent]

	InputAdded      *events.Observable[InputEvent]
	InputDisposable *events.Observable[InputEvent]
	InputRemoved    *events.Observable[InputEvent]
	InputChanged    *events.Observable[InputEvent]
	PoseAdded       *events.Observable[PoseEvent]
	PoseDisposable  *events.Observable[PoseEvent]
	PoseRemoved     *events.Observable[PoseEvent]
	PoseMoved       *events.Observable[PoseMovedEvent]

	InputDistanceUpdated  *events.Observable[InputDistanceEvent]
	DriverDistanceUpdated *events.Observable[DriverDistanceEvent]
	WeightsUpdated        *events.Observable[WeightsEvent]
	DriverUpdated         *events.Observable[DriverUpdatedEvent]
}

func newEvents(bus *events.Bus) *Events {
	return &Events{
		DriverCreated:    events.NewObservable[DriverEvent](bus, "driver_created"),
		DriverDisposable: events.NewObservable[DriverEvent](bus, "driver_disposable"),
		DriverDisposed:   events.NewObservable[DriverEvent](bus, "driver_disposed"),

		InputAdded:      events.NewObservable[InputEvent](bus, "input_added"),
		InputDisposable: events.NewObservable[InputEvent](bus, "input_disposable"),
		InputRemoved:    events.NewObservable[InputEvent](bus, "input_removed"),
		InputChanged:    events.NewObservable[InputEvent](bus, "input_changed"),
		PoseAdded:       events.NewObservable[PoseEvent](bus, "pose_added"),
		PoseDisposable:  events.NewObservable[PoseEvent](bus, "pose_disposable"),
		PoseRemoved:     events.NewObservable[PoseEvent](bus, "pose_removed"),
		PoseMoved:       events.NewObservable[PoseMovedEvent](bus, "pose_moved"),

		InputDistanceUpdated:  events.NewObservable[InputDistanceEvent](bus, "input_distance_updated"),
		DriverDistanceUpdated: events.NewObservable[DriverDistanceEvent](bus, "driver_distance_updated"),
		WeightsUpdated:        events.NewObservable[WeightsEvent](bus, "weights_updated"),
		DriverUpdated:         events.NewObservable[DriverUpdatedEvent](bus, "driver_updated"),
	}
}
