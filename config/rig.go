// SPDX-License-Identifier: MIT

// Package config loads YAML rig descriptions and builds them into an
// rbf.System, plus the logger used by the command line tool.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v2"

	"github.com/katalvlaran/posespace/host"
	"github.com/katalvlaran/posespace/rbf"
)

// Rig is the root of a rig file.
type Rig struct {
	Drivers []DriverSpec `yaml:"drivers"`
}

// PointSpec is one curve control point.
type PointSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// DriverSpec describes one driver. Unset optional fields keep the driver
// defaults.
type DriverSpec struct {
	Name           string      `yaml:"name"`
	Radius         *float64    `yaml:"radius,omitempty"`
	Regularization *float64    `yaml:"regularization,omitempty"`
	Smoothing      string      `yaml:"smoothing,omitempty"`
	Kernel         string      `yaml:"kernel,omitempty"`
	Curve          []PointSpec `yaml:"curve,omitempty"`
	Poses          []PoseSpec  `yaml:"poses"`
	Inputs         []InputSpec `yaml:"inputs"`
}

// PoseSpec describes one pose. A first entry named Rest configures the rest
// pose; otherwise the rest pose is implicit.
type PoseSpec struct {
	Name         string      `yaml:"name"`
	Influence    *float64    `yaml:"influence,omitempty"`
	Radius       *float64    `yaml:"radius,omitempty"`
	RadiusFactor *float64    `yaml:"radius_factor,omitempty"`
	Curve        []PointSpec `yaml:"curve,omitempty"`
}

// InputSpec describes one input and overrides of its variables.
type InputSpec struct {
	Type         string         `yaml:"type"`
	RotationMode string         `yaml:"rotation_mode,omitempty"`
	Target       host.Target    `yaml:"target"`
	Variables    []VariableSpec `yaml:"variables,omitempty"`
}

// VariableSpec overrides the variable called Name, creating a
// single-property variable when the input has none by that name.
type VariableSpec struct {
	Name       string        `yaml:"name"`
	Enabled    *bool         `yaml:"enabled,omitempty"`
	Normalized *bool         `yaml:"normalized,omitempty"`
	DataPath   string        `yaml:"data_path,omitempty"`
	Targets    []host.Target `yaml:"targets,omitempty"`
	Samples    []float64     `yaml:"samples,omitempty"`
	// Live is the current scene value of the variable's target.
	Live *float64 `yaml:"live,omitempty"`
}

// PoseCount returns the number of poses the driver will hold, rest included.
func (d DriverSpec) PoseCount() int {
	if len(d.Poses) > 0 && d.Poses[0].Name == rbf.RestPoseName {
		return len(d.Poses)
	}

	return len(d.Poses) + 1
}

// Load reads and validates a rig file.
func Load(path string) (*Rig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rig, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rig, nil
}

// Parse decodes and validates a rig document. Unknown fields are rejected.
func Parse(data []byte) (*Rig, error) {
	var rig Rig
	if err := yaml.UnmarshalStrict(data, &rig); err != nil {
		return nil, err
	}
	if err := rig.Validate(); err != nil {
		return nil, err
	}

	return &rig, nil
}

// Validate reports every problem of the rig at once.
func (r *Rig) Validate() error {
	var errs *multierror.Error
	seen := make(map[string]bool)
	for i, d := range r.Drivers {
		where := fmt.Sprintf("drivers[%d]", i)
		if d.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: name is required", where))
		} else if seen[d.Name] {
			errs = multierror.Append(errs, fmt.Errorf("%s: duplicate driver %q", where, d.Name))
		}
		seen[d.Name] = true
		if d.Smoothing != "" {
			if _, err := rbf.ParseSmoothing(d.Smoothing); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", where, err))
			}
		}
		if d.Kernel != "" {
			if _, err := rbf.ParseKernel(d.Kernel); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", where, err))
			}
		}
		if d.Curve != nil {
			if _, err := curve(d.Curve); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", where, err))
			}
		}
		errs = multierror.Append(errs, d.validatePoses(where)...)
		errs = multierror.Append(errs, d.validateInputs(where)...)
	}

	return errs.ErrorOrNil()
}

func (d DriverSpec) validatePoses(where string) []error {
	var errs []error
	names := make(map[string]bool)
	for j, p := range d.Poses {
		at := fmt.Sprintf("%s.poses[%d]", where, j)
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", at))
		}
		if p.Name == rbf.RestPoseName && j > 0 {
			errs = append(errs, fmt.Errorf("%s: %w", at, rbf.ErrRestPose))
		}
		if names[p.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate pose %q", at, p.Name))
		}
		names[p.Name] = true
		if p.Curve != nil {
			if _, err := curve(p.Curve); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", at, err))
			}
		}
	}

	return errs
}

func (d DriverSpec) validateInputs(where string) []error {
	var errs []error
	n := d.PoseCount()
	for k, in := range d.Inputs {
		at := fmt.Sprintf("%s.inputs[%d]", where, k)
		typ, err := rbf.ParseInputType(in.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", at, err))
		}
		if in.RotationMode != "" {
			if _, err := rbf.ParseRotationMode(in.RotationMode); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", at, err))
			} else if typ != rbf.Rotation {
				errs = append(errs, fmt.Errorf("%s: rotation_mode needs a rotation input", at))
			}
		}
		if len(in.Variables) > rbf.MaxVariables {
			errs = append(errs, fmt.Errorf("%s: %w", at, rbf.ErrVariableLimit))
		}
		for m, v := range in.Variables {
			vat := fmt.Sprintf("%s.variables[%d]", at, m)
			if v.Name == "" {
				errs = append(errs, fmt.Errorf("%s: name is required", vat))
			}
			if v.Samples != nil && len(v.Samples) != n {
				errs = append(errs, fmt.Errorf("%s: %w: got %d samples for %d poses", vat, rbf.ErrSampleCount, len(v.Samples), n))
			}
		}
	}

	return errs
}

func curve(points []PointSpec) (rbf.Curve, error) {
	pts := make([]rbf.Point, len(points))
	for i, p := range points {
		pts[i] = rbf.Point{X: p.X, Y: p.Y}
	}

	return rbf.NewCurve(pts...)
}
