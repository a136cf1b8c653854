// SPDX-License-Identifier: MIT

package formula

import (
	"strconv"
	"strings"
)

// Render returns the expression text of n with the minimum parentheses
// needed for Parse(Render(n)) to rebuild the same tree.
func Render(n Node) string {
	var sb strings.Builder
	render(&sb, n)

	return sb.String()
}

// FormatNum renders v the way the host dialect expects float literals:
// shortest round-trip digits, always with a decimal point or exponent.
func FormatNum(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}

	return s
}

func render(sb *strings.Builder, n Node) {
	switch x := n.(type) {
	case Num:
		sb.WriteString(FormatNum(x.V))
	case Var:
		sb.WriteString(x.Name)
	case Call:
		sb.WriteString(x.Fn)
		sb.WriteByte('(')
		for i, a := range x.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			render(sb, a)
		}
		sb.WriteByte(')')
	case Unary:
		sb.WriteString(x.Op)
		child(sb, x.X, precUnary)
	case Binary:
		p := x.prec()
		if p == precCmp {
			// comparisons do not chain
			child(sb, x.L, precAdd)
			sb.WriteString(" " + x.Op + " ")
		} else {
			child(sb, x.L, p)
			sb.WriteString(x.Op)
		}
		child(sb, x.R, p+1)
	case Cond:
		child(sb, x.Then, precCmp)
		sb.WriteString(" if ")
		child(sb, x.If, precCmp)
		sb.WriteString(" else ")
		child(sb, x.Else, precCond)
	}
}

// child renders n, parenthesized when its precedence is below min.
func child(sb *strings.Builder, n Node, min int) {
	if n.prec() < min {
		sb.WriteByte('(')
		render(sb, n)
		sb.WriteByte(')')

		return
	}
	render(sb, n)
}
