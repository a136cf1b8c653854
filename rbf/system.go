// SPDX-License-Identifier: MIT

package rbf

import (
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/katalvlaran/posespace/events"
	"github.com/katalvlaran/posespace/host"
	"github.com/katalvlaran/posespace/solver"
)

// ValueSource supplies the live value of a variable; it is read when a new
// pose captures its samples.
type ValueSource interface {
	Value(v *Variable) (float64, error)
}

// ValueSourceFunc adapts a function to ValueSource.
type ValueSourceFunc func(v *Variable) (float64, error)

// Value implements ValueSource.
func (f ValueSourceFunc) Value(v *Variable) (float64, error) { return f(v) }

// DefaultValues is the ValueSource that reports each variable's default.
type DefaultValues struct{}

// Value implements ValueSource.
func (DefaultValues) Value(v *Variable) (float64, error) { return v.Default(), nil }

// SceneValues reads variables through a host.Scene.
type SceneValues struct {
	Scene host.Scene
}

// Value implements ValueSource.
func (s SceneValues) Value(v *Variable) (float64, error) {
	return s.Scene.Resolve(v.Binding("value"))
}

// TargetResolver decides whether a variable's targets address live values.
type TargetResolver interface {
	Resolves(v *Variable) bool
}

// ResolverFunc adapts a function to TargetResolver.
type ResolverFunc func(v *Variable) bool

// Resolves implements TargetResolver.
func (f ResolverFunc) Resolves(v *Variable) bool { return f(v) }

// StructuralResolver accepts a variable when it has the number of targets
// its type needs and each target carries an id plus a data path (single
// property) or channel (transforms).
type StructuralResolver struct{}

// Resolves implements TargetResolver.
func (StructuralResolver) Resolves(v *Variable) bool {
	if len(v.targets) != v.typ.targetCount() {
		return false
	}
	for _, t := range v.targets {
		if t.ID == "" {
			return false
		}
		switch v.typ {
		case SingleProp:
			if t.DataPath == "" {
				return false
			}
		case Transforms:
			if t.Channel == "" {
				return false
			}
		}
	}

	return true
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l hclog.Logger) Option {
	return func(s *System) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithValueSource sets where new poses capture their samples from.
func WithValueSource(v ValueSource) Option {
	return func(s *System) {
		if v != nil {
			s.values = v
		}
	}
}

// WithTargetResolver sets the validity check of variable targets.
func WithTargetResolver(r TargetResolver) Option {
	return func(s *System) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithSolverOptions configures the weight solver.
func WithSolverOptions(opts ...solver.Option) Option {
	return func(s *System) { s.solverOpts = append(s.solverOpts, opts...) }
}

// System owns the drivers, the event bus and the host collaborators.
// A System is not safe for concurrent use.
type System struct {
	logger     hclog.Logger
	bus        *events.Bus
	events     *Events
	values     ValueSource
	resolver   TargetResolver
	solverOpts []solver.Option
	solver     *solver.Solver
	prop       *propagator
	drivers    []*Driver
}

// NewSystem returns an empty system.
func NewSystem(opts ...Option) *System {
	s := &System{
		logger:   hclog.NewNullLogger(),
		values:   DefaultValues{},
		resolver: StructuralResolver{},
	}
	for _, o := range opts {
		o(s)
	}
	s.bus = events.NewBus(s.logger.Named("events"))
	s.events = newEvents(s.bus)
	s.solver = solver.New(append([]solver.Option{solver.WithLogger(s.logger.Named("solver"))}, s.solverOpts...)...)
	s.prop = newPropagator(s)

	return s
}

// Events returns the typed topics. Subscribe before mutating.
func (s *System) Events() *Events { return s.events }

// Logger returns the system logger.
func (s *System) Logger() hclog.Logger { return s.logger }

// Drivers returns the drivers in creation order.
func (s *System) Drivers() []*Driver { return slices.Clone(s.drivers) }

// Driver returns the driver with id, or nil.
func (s *System) Driver(id uuid.UUID) *Driver {
	for _, d := range s.drivers {
		if d.ID() == id {
			return d
		}
	}

	return nil
}

// DriverByName returns the first driver called name, or nil.
func (s *System) DriverByName(name string) *Driver {
	for _, d := range s.drivers {
		if d.name == name {
			return d
		}
	}

	return nil
}

// NewDriver creates a driver holding a single rest pose and no inputs.
func (s *System) NewDriver(name string) (*Driver, error) {
	d := newDriver(s, name)
	err := s.prop.run(func() error {
		s.drivers = append(s.drivers, d)
		s.prop.markDriver(d, stageMatrix)
		return s.events.DriverCreated.Publish(DriverEvent{Driver: d})
	})

	return d, err
}

// RemoveDriver disposes d. DriverDisposable is delivered while d is still
// listed; DriverDisposed after.
func (s *System) RemoveDriver(d *Driver) error {
	idx := slices.Index(s.drivers, d)
	if idx < 0 {
		return ErrNotMember
	}
	disposable := s.events.DriverDisposable.Publish(DriverEvent{Driver: d})
	err := s.prop.run(func() error {
		s.drivers = slices.Delete(s.drivers, idx, idx+1)
		d.disposed = true
		return s.events.DriverDisposed.Publish(DriverEvent{Driver: d})
	})

	return joinErrors(disposable, err)
}

// Batch runs fn as one mutation: every cascade it triggers is coalesced and
// runs once when fn returns.
func (s *System) Batch(fn func() error) error { return s.prop.run(fn) }

// Refresh recomputes every driver, e.g. after target validity changed in
// the host.
func (s *System) Refresh() error {
	return s.prop.run(func() error {
		var errs []error
		for _, d := range s.drivers {
			errs = append(errs, s.prop.markAll(d))
		}
		return joinErrors(errs...)
	})
}

// joinErrors returns nil, the single non-nil error, or a multierror.
func joinErrors(errs ...error) error {
	var (
		merr  *multierror.Error
		last  error
		count int
	)
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
			last = err
			count++
		}
	}
	if count == 1 {
		return last
	}

	return merr.ErrorOrNil()
}
