// SPDX-License-Identifier: MIT

package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/katalvlaran/posespace/host"
	"github.com/katalvlaran/posespace/rbf"
)

// Build creates every driver of r in sys, each as one batch, and returns the
// scene holding the live values the rig declares. Drivers that fail to
// build are reported and the remaining ones are still built.
func (r *Rig) Build(sys *rbf.System) (host.MapScene, error) {
	scene := host.MapScene{}
	var errs *multierror.Error
	for _, spec := range r.Drivers {
		if err := buildDriver(sys, spec, scene); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("driver %q: %w", spec.Name, err))
		}
	}

	return scene, errs.ErrorOrNil()
}

func buildDriver(sys *rbf.System, spec DriverSpec, scene host.MapScene) error {
	d, err := sys.NewDriver(spec.Name)
	if err != nil {
		return err
	}

	return sys.Batch(func() error {
		if err := configureDriver(d, spec); err != nil {
			return err
		}
		for j, ps := range spec.Poses {
			p := d.Poses().At(0)
			if j > 0 || ps.Name != rbf.RestPoseName {
				if p, err = d.Poses().New(ps.Name); err != nil {
					return err
				}
			}
			if err := configurePose(p, ps); err != nil {
				return fmt.Errorf("pose %q: %w", ps.Name, err)
			}
		}
		for k, is := range spec.Inputs {
			if err := buildInput(d, is, scene); err != nil {
				return fmt.Errorf("input %d: %w", k, err)
			}
		}
		return nil
	})
}

func configureDriver(d *rbf.Driver, spec DriverSpec) error {
	if spec.Radius != nil {
		if err := d.SetRadius(*spec.Radius); err != nil {
			return err
		}
	}
	if spec.Regularization != nil {
		if err := d.SetRegularization(*spec.Regularization); err != nil {
			return err
		}
	}
	if spec.Smoothing != "" {
		s, err := rbf.ParseSmoothing(spec.Smoothing)
		if err != nil {
			return err
		}
		if err := d.SetSmoothing(s); err != nil {
			return err
		}
	}
	if spec.Kernel != "" {
		k, err := rbf.ParseKernel(spec.Kernel)
		if err != nil {
			return err
		}
		if err := d.SetKernel(k); err != nil {
			return err
		}
	}
	if spec.Curve != nil {
		c, err := curve(spec.Curve)
		if err != nil {
			return err
		}
		return d.SetCurve(c)
	}

	return nil
}

func configurePose(p *rbf.Pose, spec PoseSpec) error {
	if spec.Influence != nil {
		if err := p.SetInfluence(*spec.Influence); err != nil {
			return err
		}
	}
	if spec.Radius != nil {
		if err := p.SetRadius(*spec.Radius); err != nil {
			return err
		}
	}
	if spec.RadiusFactor != nil {
		if err := p.Falloff().SetRadiusFactor(*spec.RadiusFactor); err != nil {
			return err
		}
	}
	if spec.Curve != nil {
		c, err := curve(spec.Curve)
		if err != nil {
			return err
		}
		if err := p.Falloff().SetCurve(c); err != nil {
			return err
		}
		return p.Falloff().SetUseCurve(true)
	}

	return nil
}

func buildInput(d *rbf.Driver, spec InputSpec, scene host.MapScene) error {
	typ, err := rbf.ParseInputType(spec.Type)
	if err != nil {
		return err
	}
	in, err := d.Inputs().New(typ)
	if err != nil {
		return err
	}
	if spec.RotationMode != "" {
		m, err := rbf.ParseRotationMode(spec.RotationMode)
		if err != nil {
			return err
		}
		if err := in.SetRotationMode(m); err != nil {
			return err
		}
	}
	if err := in.SetTarget(spec.Target); err != nil {
		return err
	}

	for _, vs := range spec.Variables {
		v := in.Variables().ByName(vs.Name)
		if v == nil {
			if v, err = in.Variables().New(vs.Name); err != nil {
				return err
			}
			t := spec.Target
			t.DataPath = vs.DataPath
			if err := v.SetTarget(0, t); err != nil {
				return err
			}
		}
		if err := configureVariable(v, vs, scene); err != nil {
			return fmt.Errorf("variable %q: %w", vs.Name, err)
		}
	}

	return nil
}

func configureVariable(v *rbf.Variable, spec VariableSpec, scene host.MapScene) error {
	if spec.Enabled != nil {
		if err := v.SetEnabled(*spec.Enabled); err != nil {
			return err
		}
	}
	if spec.Normalized != nil {
		if err := v.SetNormalized(*spec.Normalized); err != nil {
			return err
		}
	}
	for i, t := range spec.Targets {
		if err := v.SetTarget(i, t); err != nil {
			return err
		}
	}
	if spec.Samples != nil {
		if err := v.SetSamples(spec.Samples); err != nil {
			return err
		}
	}
	if spec.Live != nil {
		ts := v.Targets()
		if len(ts) != 1 {
			return fmt.Errorf("live value needs a single-target variable, %s has %d targets", v.Type(), len(ts))
		}
		scene.Set(ts[0], *spec.Live)
	}

	return nil
}
