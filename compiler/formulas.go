// SPDX-License-Identifier: MIT

package compiler

import (
	"fmt"

	"github.com/katalvlaran/posespace/formula"
	"github.com/katalvlaran/posespace/host"
	"github.com/katalvlaran/posespace/metric"
	"github.com/katalvlaran/posespace/rbf"
)

func build(n formula.Node, bindings ...host.Binding) host.Formula {
	return host.Formula{Expr: formula.Render(n), Bindings: bindings}
}

// effectiveRadius is the radius the live distance of pose j is divided by:
// the input-level auto radius (or the user radius) scaled by the driver
// radius and the falloff factor. Non-positive results fall back to 1.
func effectiveRadius(p *rbf.Pose, inputRadius float64) float64 {
	base := p.Radius()
	if p.AutoRadius() {
		base = inputRadius
	}
	r := base * p.Driver().Radius() * p.Falloff().RadiusFactor()
	if r <= 0 {
		return 1
	}

	return r
}

// distanceFormula compares the live values of in's enabled variables with
// the samples of pose j and maps the result to 1 - dist/r.
func distanceFormula(in *rbf.Input, j int, radius host.SlotRef) host.Formula {
	vars := in.Variables().Enabled()
	live := make([]formula.Node, len(vars))
	sample := make([]float64, len(vars))
	bindings := make([]host.Binding, 0, len(vars)+1)
	for k, v := range vars {
		name := fmt.Sprintf("v%d", k)
		bindings = append(bindings, v.Binding(name))
		live[k] = formula.V(name)
		if norm := v.Norm(); v.IsNormalized() && norm != 0 {
			live[k] = formula.Div(live[k], formula.N(norm))
		}
		sample[k] = v.NormalizedSamples()[j]
	}
	bindings = append(bindings, cell("r", radius))

	dist := metricNode(in.EffectiveMetric(), live, sample)

	return build(formula.Sub(formula.N(1), formula.Div(dist, formula.V("r"))), bindings...)
}

func metricNode(kind metric.Kind, live []formula.Node, sample []float64) formula.Node {
	pi := formula.V("pi")
	switch kind {
	case metric.KindQuaternion:
		dot := formula.Clamp(dotNode(live, sample), -1, 1)
		angle := formula.Fn("acos", formula.Clamp(formula.Sub(formula.Mul(formula.N(2), formula.Sq(dot)), formula.N(1)), -1, 1))
		return formula.Div(angle, pi)
	case metric.KindSwingX, metric.KindSwingY, metric.KindSwingZ:
		axis := swingAxis(kind)
		img := axisImage(live, axis)
		s := metric.AxisImage(sample, axis)
		dot := formula.Clamp(dotNode(img[:], s[:]), -1, 1)
		return formula.Div(formula.Sub(formula.Div(pi, formula.N(2)), formula.Fn("asin", dot)), pi)
	case metric.KindTwist:
		return formula.Div(formula.Fn("fabs", formula.Sub(live[0], formula.N(sample[0]))), pi)
	}

	terms := make([]formula.Node, len(live))
	for k := range live {
		terms[k] = formula.Sq(formula.Sub(live[k], formula.N(sample[k])))
	}

	return formula.Fn("sqrt", formula.Sum(terms...))
}

func dotNode(live []formula.Node, sample []float64) formula.Node {
	terms := make([]formula.Node, len(live))
	for k := range live {
		terms[k] = formula.Mul(live[k], formula.N(sample[k]))
	}

	return formula.Sum(terms...)
}

func swingAxis(kind metric.Kind) metric.Axis {
	switch kind {
	case metric.KindSwingY:
		return metric.AxisY
	case metric.KindSwingZ:
		return metric.AxisZ
	}

	return metric.AxisX
}

// axisImage mirrors metric.AxisImage over live quaternion components.
func axisImage(q []formula.Node, axis metric.Axis) [3]formula.Node {
	w, x, y, z := q[0], q[1], q[2], q[3]
	one, two := formula.N(1), formula.N(2)
	mul, add, sub := formula.Mul, formula.Add, formula.Sub
	switch axis {
	case metric.AxisY:
		return [3]formula.Node{
			mul(two, sub(mul(x, y), mul(w, z))),
			sub(one, mul(two, add(mul(x, x), mul(z, z)))),
			mul(two, add(mul(y, z), mul(w, x))),
		}
	case metric.AxisZ:
		return [3]formula.Node{
			mul(two, add(mul(x, z), mul(w, y))),
			mul(two, sub(mul(y, z), mul(w, x))),
			sub(one, mul(two, add(mul(x, x), mul(y, y)))),
		}
	}

	return [3]formula.Node{
		sub(one, mul(two, add(mul(y, y), mul(z, z)))),
		mul(two, add(mul(x, y), mul(w, z))),
		mul(two, sub(mul(x, z), mul(w, y))),
	}
}

// curveNode renders c applied to x as nested conditionals, matching
// rbf.Curve.Eval. Vertical segments are never selected and are skipped.
func curveNode(c rbf.Curve, x formula.Node) formula.Node {
	pts := c.Points()
	acc := formula.N(pts[len(pts)-1].Y)
	for i := len(pts) - 1; i >= 1; i-- {
		a, b := pts[i-1], pts[i]
		if a.X == b.X {
			continue
		}
		acc = formula.IfElse(lerp(a, b, x), formula.Lt(x, formula.N(b.X)), acc)
	}

	return formula.IfElse(formula.N(pts[0].Y), formula.Lt(x, formula.N(pts[0].X)), acc)
}

// lerp returns a.Y + (x-a.X)*slope with the identity terms folded away.
func lerp(a, b rbf.Point, x formula.Node) formula.Node {
	slope := (b.Y - a.Y) / (b.X - a.X)
	if slope == 0 {
		return formula.N(a.Y)
	}
	t := x
	if a.X != 0 {
		t = formula.Sub(x, formula.N(a.X))
	}
	if slope != 1 {
		t = formula.Mul(t, formula.N(slope))
	}
	if a.Y != 0 {
		t = formula.Add(formula.N(a.Y), t)
	}

	return t
}
