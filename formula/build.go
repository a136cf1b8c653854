// SPDX-License-Identifier: MIT

package formula

// N returns a literal.
func N(v float64) Node { return Num{V: v} }

// V returns a variable reference.
func V(name string) Node { return Var{Name: name} }

// Fn returns a builtin call.
func Fn(name string, args ...Node) Node { return Call{Fn: name, Args: args} }

func Add(a, b Node) Node { return Binary{Op: "+", L: a, R: b} }
func Sub(a, b Node) Node { return Binary{Op: "-", L: a, R: b} }
func Mul(a, b Node) Node { return Binary{Op: "*", L: a, R: b} }
func Div(a, b Node) Node { return Binary{Op: "/", L: a, R: b} }
func Ne(a, b Node) Node  { return Binary{Op: "!=", L: a, R: b} }
func Lt(a, b Node) Node  { return Binary{Op: "<", L: a, R: b} }

// IfElse returns "then if cond else els".
func IfElse(then, cond, els Node) Node { return Cond{Then: then, If: cond, Else: els} }

// Sum folds xs with + from the left; the empty sum is 0.0.
func Sum(xs ...Node) Node {
	if len(xs) == 0 {
		return N(0)
	}
	acc := xs[0]
	for _, x := range xs[1:] {
		acc = Add(acc, x)
	}

	return acc
}

// Mean returns the arithmetic mean of xs; a single operand is returned as is.
func Mean(xs ...Node) Node {
	switch len(xs) {
	case 0:
		return N(0)
	case 1:
		return xs[0]
	}

	return Div(Sum(xs...), N(float64(len(xs))))
}

// Sq returns pow(x,2.0).
func Sq(x Node) Node { return Fn("pow", x, N(2)) }

// Clamp returns clamp(x,lo,hi).
func Clamp(x Node, lo, hi float64) Node { return Fn("clamp", x, N(lo), N(hi)) }
