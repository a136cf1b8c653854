// SPDX-License-Identifier: MIT

// Package formula is the small scalar expression language of the compiled
// pose-weight graph.
//
// Expressions are built as trees (Node) by the compiler, rendered to text in
// the Python-like dialect understood by the host evaluator
// ("1.0-sqrt(pow(a-0.5,2.0))/r", "w/s if s != 0.0 else w"), and can be parsed
// back and evaluated by the reference runtime in package host.
package formula

// Node is an expression tree node.
type Node interface {
	prec() int
}

// Num is a numeric literal.
type Num struct{ V float64 }

// Var references a named variable bound by the host.
type Var struct{ Name string }

// Call applies a builtin function.
type Call struct {
	Fn   string
	Args []Node
}

// Binary is an infix operation. Op is one of + - * / == != < <= > >=.
type Binary struct {
	Op   string
	L, R Node
}

// Unary negation.
type Unary struct {
	Op string
	X  Node
}

// Cond is "Then if If else Else".
type Cond struct {
	Then, If, Else Node
}

// Operator precedence, lowest first.
const (
	precCond = iota + 1
	precCmp
	precAdd
	precMul
	precUnary
	precAtom
)

func (n Num) prec() int {
	if n.V < 0 {
		return precUnary
	}

	return precAtom
}

func (Var) prec() int   { return precAtom }
func (Call) prec() int  { return precAtom }
func (Unary) prec() int { return precUnary }
func (Cond) prec() int  { return precCond }

func (b Binary) prec() int {
	switch b.Op {
	case "+", "-":
		return precAdd
	case "*", "/":
		return precMul
	}

	return precCmp
}
