// SPDX-License-Identifier: MIT

package rbf

import "github.com/katalvlaran/posespace/events"

// stage is how far down the pipeline a driver must be recomputed.
type stage int

const (
	stageCompile stage = iota + 1 // only DriverUpdated
	stageSolve                    // weights, then DriverUpdated
	stageMatrix                   // driver matrix, radii, kernel, weights
)

// propagator coalesces the cascades of one mutation. Mutations mark inputs
// and drivers dirty; when the outermost mutation returns, each dirty driver
// runs its pipeline once, in the order the drivers were first marked:
// input matrices and radii, driver matrix and auto radii, kernel, solve,
// then DriverUpdated for the compiler.
type propagator struct {
	sys    *System
	bus    *events.Bus
	depth  int
	order  []*Driver
	stages map[*Driver]stage
	inputs map[*Input]struct{}
}

func newPropagator(s *System) *propagator {
	return &propagator{
		sys:    s,
		bus:    s.bus,
		stages: make(map[*Driver]stage),
		inputs: make(map[*Input]struct{}),
	}
}

// run executes fn inside a bus batch and flushes on the outermost call.
func (p *propagator) run(fn func() error) error {
	return p.bus.Batch(func() error {
		p.depth++
		err := fn()
		p.depth--
		if p.depth > 0 {
			return err
		}

		return joinErrors(err, p.flush())
	})
}

func (p *propagator) markDriver(d *Driver, st stage) {
	cur, ok := p.stages[d]
	if !ok {
		p.order = append(p.order, d)
	}
	if st > cur {
		p.stages[d] = st
	}
}

func (p *propagator) markInput(in *Input) error {
	var err error
	if _, ok := p.inputs[in]; !ok {
		p.inputs[in] = struct{}{}
		err = p.sys.events.InputChanged.Publish(InputEvent{Driver: in.driver, Input: in, Index: in.Index()})
	}
	p.markDriver(in.driver, stageMatrix)

	return err
}

func (p *propagator) markAll(d *Driver) error {
	var errs []error
	for _, in := range d.inputs.items {
		errs = append(errs, p.markInput(in))
	}
	p.markDriver(d, stageMatrix)

	return joinErrors(errs...)
}

func (p *propagator) flush() error {
	var errs []error
	for len(p.order) > 0 {
		d := p.order[0]
		p.order = p.order[1:]
		st := p.stages[d]
		delete(p.stages, d)

		dirty := make(map[*Input]bool)
		for in := range p.inputs {
			if in.driver == d {
				dirty[in] = true
				delete(p.inputs, in)
			}
		}
		if d.disposed {
			continue
		}
		if err := d.recompute(st, dirty); err != nil {
			errs = append(errs, err)
		}
	}
	clear(p.inputs)

	return joinErrors(errs...)
}
