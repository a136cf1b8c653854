// SPDX-License-Identifier: MIT

package formula

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnbound is returned when a variable has no value in the environment.
	ErrUnbound = errors.New("formula: unbound variable")

	// ErrUnknownFunc is returned for calls to functions outside the builtin set.
	ErrUnknownFunc = errors.New("formula: unknown function")

	// ErrArity is returned when a builtin receives the wrong number of arguments.
	ErrArity = errors.New("formula: wrong number of arguments")

	// ErrDivisionByZero mirrors the host evaluator, which raises on x/0.
	ErrDivisionByZero = errors.New("formula: division by zero")
)

// Env resolves variable names to values.
type Env interface {
	Lookup(name string) (float64, bool)
}

// MapEnv is an Env backed by a map.
type MapEnv map[string]float64

// Lookup implements Env.
func (m MapEnv) Lookup(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

// constants are resolved when the environment does not bind the name.
var constants = map[string]float64{
	"pi": math.Pi,
}

type builtin struct {
	arity int // -1 means at least one
	fn    func(args []float64) float64
}

var builtins = map[string]builtin{
	"sqrt":  {1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"pow":   {2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"acos":  {1, func(a []float64) float64 { return math.Acos(a[0]) }},
	"asin":  {1, func(a []float64) float64 { return math.Asin(a[0]) }},
	"cos":   {1, func(a []float64) float64 { return math.Cos(a[0]) }},
	"sin":   {1, func(a []float64) float64 { return math.Sin(a[0]) }},
	"exp":   {1, func(a []float64) float64 { return math.Exp(a[0]) }},
	"fabs":  {1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"abs":   {1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"clamp": {3, func(a []float64) float64 { return math.Min(math.Max(a[0], a[1]), a[2]) }},
	"min": {-1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m
	}},
	"max": {-1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m
	}},
}

// Eval evaluates n against env. Conditionals evaluate only the selected
// branch; comparisons yield 1 or 0.
func Eval(n Node, env Env) (float64, error) {
	switch x := n.(type) {
	case Num:
		return x.V, nil
	case Var:
		if env != nil {
			if v, ok := env.Lookup(x.Name); ok {
				return v, nil
			}
		}
		if v, ok := constants[x.Name]; ok {
			return v, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnbound, x.Name)
	case Unary:
		v, err := Eval(x.X, env)
		if err != nil {
			return 0, err
		}
		return -v, nil
	case Call:
		b, ok := builtins[x.Fn]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownFunc, x.Fn)
		}
		if (b.arity >= 0 && len(x.Args) != b.arity) || (b.arity < 0 && len(x.Args) == 0) {
			return 0, fmt.Errorf("%w: %s(%d args)", ErrArity, x.Fn, len(x.Args))
		}
		args := make([]float64, len(x.Args))
		for i, a := range x.Args {
			v, err := Eval(a, env)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return b.fn(args), nil
	case Binary:
		l, err := Eval(x.L, env)
		if err != nil {
			return 0, err
		}
		r, err := Eval(x.R, env)
		if err != nil {
			return 0, err
		}
		return binary(x.Op, l, r)
	case Cond:
		c, err := Eval(x.If, env)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return Eval(x.Then, env)
		}
		return Eval(x.Else, env)
	}

	return 0, fmt.Errorf("formula: unknown node %T", n)
}

func binary(op string, l, r float64) (float64, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	case "==":
		return truth(l == r), nil
	case "!=":
		return truth(l != r), nil
	case "<":
		return truth(l < r), nil
	case "<=":
		return truth(l <= r), nil
	case ">":
		return truth(l > r), nil
	case ">=":
		return truth(l >= r), nil
	}

	return 0, fmt.Errorf("%w: operator %q", ErrSyntax, op)
}

func truth(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
