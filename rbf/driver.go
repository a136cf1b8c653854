// SPDX-License-Identifier: MIT

package rbf

import (
	"fmt"
	"math"

	"github.com/katalvlaran/posespace/matrix"
	"github.com/katalvlaran/posespace/solver"
)

// Driver is one RBF network: ordered inputs and poses, the derived driver
// distance matrix and the solved variable matrix.
type Driver struct {
	Identity

	system   *System
	name     string
	inputs   *Inputs
	poses    *Poses
	distance *DriverDistance
	weights  solver.Result
	disposed bool

	smoothing      Smoothing
	kernel         Kernel
	radius         float64
	regularization float64
	curve          Curve
}

func newDriver(s *System, name string) *Driver {
	d := &Driver{
		Identity:       newIdentity(),
		system:         s,
		name:           name,
		radius:         1,
		regularization: 1,
		curve:          LinearCurve(),
		weights:        solver.Result{W: matrix.NewEmpty(), Method: solver.MethodEmpty},
	}
	d.inputs = &Inputs{driver: d}
	d.poses = &Poses{driver: d}
	d.poses.items = []*Pose{newPose(d, RestPoseName)}
	d.distance = &DriverDistance{driver: d, raw: matrix.NewEmpty(), shaped: matrix.NewEmpty()}

	return d
}

func (d *Driver) System() *System          { return d.system }
func (d *Driver) Name() string             { return d.name }
func (d *Driver) Inputs() *Inputs          { return d.inputs }
func (d *Driver) Poses() *Poses            { return d.poses }
func (d *Driver) Distance() *DriverDistance { return d.distance }
func (d *Driver) Smoothing() Smoothing     { return d.smoothing }
func (d *Driver) Kernel() Kernel           { return d.kernel }
func (d *Driver) Radius() float64          { return d.radius }
func (d *Driver) Regularization() float64  { return d.regularization }
func (d *Driver) Curve() Curve             { return d.curve }

// Disposed reports whether the driver was removed from its system.
func (d *Driver) Disposed() bool { return d.disposed }

// Weights returns a copy of the solved variable matrix W (N×N, or empty).
func (d *Driver) Weights() *matrix.Dense { return d.weights.W.Clone() }

// SolveMethod reports how the current weights were obtained.
func (d *Driver) SolveMethod() solver.Method { return d.weights.Method }

// set applies a driver property change and schedules the cascade from st.
func (d *Driver) set(st stage, apply func()) error {
	if d.disposed {
		return ErrDisposed
	}

	return d.system.prop.run(func() error {
		apply()
		d.system.prop.markDriver(d, st)
		return nil
	})
}

// SetName renames the driver.
func (d *Driver) SetName(name string) error {
	return d.set(stageCompile, func() { d.name = name })
}

// SetRadius sets the driver radius factor; r must be positive.
func (d *Driver) SetRadius(r float64) error {
	if !(r > 0) || math.IsInf(r, 0) {
		return fmt.Errorf("%w: radius %g", ErrOutOfRange, r)
	}

	return d.set(stageMatrix, func() { d.radius = r })
}

// SetRegularization sets the Tikhonov scalar used by Linear smoothing.
func (d *Driver) SetRegularization(v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: regularization %g", ErrOutOfRange, v)
	}

	return d.set(stageSolve, func() { d.regularization = v })
}

// SetSmoothing switches between Radial and Linear.
func (d *Driver) SetSmoothing(s Smoothing) error {
	if s != Radial && s != Linear {
		return fmt.Errorf("%w: %s", ErrInvalidMode, s)
	}

	return d.set(stageMatrix, func() { d.smoothing = s })
}

// SetKernel selects the radial kernel.
func (d *Driver) SetKernel(k Kernel) error {
	if k != Gaussian && k != Quadratic {
		return fmt.Errorf("%w: %s", ErrInvalidMode, k)
	}

	return d.set(stageMatrix, func() { d.kernel = k })
}

// SetCurve sets the default falloff curve of poses that do not use their own.
func (d *Driver) SetCurve(c Curve) error {
	return d.set(stageCompile, func() { d.curve = c })
}

// Apply returns the kernel value for distance dist and radius r.
func (k Kernel) Apply(dist, r float64) float64 {
	if k == Quadratic {
		return math.Sqrt(dist*dist + r*r)
	}

	return math.Exp(-(dist * dist / 2) * r * r)
}

// recompute runs the pipeline from st. Structural errors of single inputs
// are returned after the whole pipeline ran with those inputs excluded.
func (d *Driver) recompute(st stage, dirty map[*Input]bool) error {
	var errs []error
	for _, in := range d.inputs.items {
		if dirty[in] {
			if err := in.distance.update(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if st >= stageMatrix {
		if err := d.distance.update(); err != nil {
			errs = append(errs, err)
		}
	}
	if st >= stageSolve {
		if err := d.solve(); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, d.system.events.DriverUpdated.Publish(DriverUpdatedEvent{Driver: d}))

	return joinErrors(errs...)
}

func (d *Driver) solve() error {
	lambda := 1.0
	if d.smoothing == Linear {
		lambda = d.regularization
	}
	res, err := d.system.solver.Solve(d.distance.shaped, lambda)
	if err != nil {
		return fmt.Errorf("driver %q: %w", d.name, err)
	}
	d.weights = res

	return d.system.events.WeightsUpdated.Publish(WeightsEvent{Driver: d, Method: res.Method})
}
