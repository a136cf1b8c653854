// SPDX-License-Identifier: MIT

package formula

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"
)

// ErrSyntax is returned by Parse for malformed expression text.
var ErrSyntax = errors.New("formula: syntax error")

type tokenKind int

const (
	tkEOF tokenKind = iota
	tkNum
	tkIdent
	tkOp
	tkLParen
	tkRParen
	tkComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	i := 0
	for i < len(rs) {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				j := i + 1
				if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
					j++
				}
				if j < len(rs) && unicode.IsDigit(rs[j]) {
					i = j
					for i < len(rs) && unicode.IsDigit(rs[i]) {
						i++
					}
				}
			}
			toks = append(toks, token{tkNum, string(rs[start:i]), start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_') {
				i++
			}
			toks = append(toks, token{tkIdent, string(rs[start:i]), start})
		case r == '(':
			toks = append(toks, token{tkLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tkRParen, ")", i})
			i++
		case r == ',':
			toks = append(toks, token{tkComma, ",", i})
			i++
		case r == '=' || r == '!' || r == '<' || r == '>':
			if i+1 < len(rs) && rs[i+1] == '=' {
				toks = append(toks, token{tkOp, string(rs[i : i+2]), i})
				i += 2
			} else if r == '<' || r == '>' {
				toks = append(toks, token{tkOp, string(r), i})
				i++
			} else {
				return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, r, i)
			}
		case r == '+' || r == '-' || r == '*' || r == '/':
			toks = append(toks, token{tkOp, string(r), i})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, r, i)
		}
	}

	return append(toks, token{tkEOF, "", len(rs)}), nil
}

type parser struct {
	toks []token
	pos  int
}

// Parse builds the expression tree of src.
func Parse(src string) (Node, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.cond()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tkEOF {
		return nil, fmt.Errorf("%w: trailing %q at %d", ErrSyntax, t.text, t.pos)
	}

	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tkEOF {
		p.pos++
	}

	return t
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tkIdent && t.text == word
}

func (p *parser) cond() (Node, error) {
	then, err := p.cmp()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("if") {
		return then, nil
	}
	p.next()
	test, err := p.cmp()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("else") {
		t := p.peek()
		return nil, fmt.Errorf("%w: expected else at %d", ErrSyntax, t.pos)
	}
	p.next()
	els, err := p.cond()
	if err != nil {
		return nil, err
	}

	return Cond{Then: then, If: test, Else: els}, nil
}

func (p *parser) cmp() (Node, error) {
	l, err := p.add()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tkOp && isCmp(t.text) {
		p.next()
		r, err := p.add()
		if err != nil {
			return nil, err
		}
		return Binary{Op: t.text, L: l, R: r}, nil
	}

	return l, nil
}

func (p *parser) add() (Node, error) {
	l, err := p.mul()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tkOp || (t.text != "+" && t.text != "-") {
			return l, nil
		}
		p.next()
		r, err := p.mul()
		if err != nil {
			return nil, err
		}
		l = Binary{Op: t.text, L: l, R: r}
	}
}

func (p *parser) mul() (Node, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tkOp || (t.text != "*" && t.text != "/") {
			return l, nil
		}
		p.next()
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = Binary{Op: t.text, L: l, R: r}
	}
}

func (p *parser) unary() (Node, error) {
	t := p.peek()
	if t.kind == tkOp && (t.text == "-" || t.text == "+") {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if t.text == "+" {
			return x, nil
		}
		// fold negative literals so that Render(Num{-v}) round-trips
		if num, ok := x.(Num); ok && num.V >= 0 && p.toks[p.pos-1].kind == tkNum {
			return Num{V: -num.V}, nil
		}
		return Unary{Op: "-", X: x}, nil
	}

	return p.atom()
}

func (p *parser) atom() (Node, error) {
	t := p.next()
	switch t.kind {
	case tkNum:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q at %d", ErrSyntax, t.text, t.pos)
		}
		return Num{V: v}, nil
	case tkIdent:
		if t.text == "if" || t.text == "else" {
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
		}
		if p.peek().kind != tkLParen {
			return Var{Name: t.text}, nil
		}
		p.next()
		var args []Node
		if p.peek().kind != tkRParen {
			for {
				a, err := p.cond()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.peek().kind != tkComma {
					break
				}
				p.next()
			}
		}
		if r := p.next(); r.kind != tkRParen {
			return nil, fmt.Errorf("%w: expected ) at %d", ErrSyntax, r.pos)
		}
		return Call{Fn: t.text, Args: args}, nil
	case tkLParen:
		n, err := p.cond()
		if err != nil {
			return nil, err
		}
		if r := p.next(); r.kind != tkRParen {
			return nil, fmt.Errorf("%w: expected ) at %d", ErrSyntax, r.pos)
		}
		return n, nil
	}

	return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
}

func isCmp(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}

	return false
}
