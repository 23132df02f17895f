package expr

import (
	"fmt"
	"math"
)

type evalFunc func(cells []float64) float64

type parser struct {
	src   string
	toks  []token
	pos   int
	scope *Arena
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

func (p *parser) fail(kind Kind, t token, format string, args ...any) *Error {
	text := t.text
	if t.kind == tokEOF {
		text = ""
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Formula: p.src, Token: text, Pos: t.pos}
}

func (p *parser) parseExpr() (evalFunc, *Error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isOp("?") {
		return cond, nil
	}
	p.next()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.isOp(":") {
		return nil, p.fail(SyntaxError, p.peek(), "expected ':' in conditional")
	}
	p.next()
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return func(c []float64) float64 {
		if cond(c) != 0 {
			return then(c)
		}
		return els(c)
	}, nil
}

func (p *parser) parseOr() (evalFunc, *Error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("||") {
		p.next()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l := lhs
		lhs = func(c []float64) float64 { return boolf(l(c) != 0 || rhs(c) != 0) }
	}
	return lhs, nil
}

func (p *parser) parseAnd() (evalFunc, *Error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&") {
		p.next()
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		l := lhs
		lhs = func(c []float64) float64 { return boolf(l(c) != 0 && rhs(c) != 0) }
	}
	return lhs, nil
}

func (p *parser) parseEquality() (evalFunc, *Error) {
	lhs, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isOp("==", "!=") {
		op := p.next().text
		rhs, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		l := lhs
		if op == "==" {
			lhs = func(c []float64) float64 { return boolf(l(c) == rhs(c)) }
		} else {
			lhs = func(c []float64) float64 { return boolf(l(c) != rhs(c)) }
		}
	}
	return lhs, nil
}

func (p *parser) parseComparison() (evalFunc, *Error) {
	lhs, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	for p.isOp("<", "<=", ">", ">=") {
		op := p.next().text
		rhs, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		l := lhs
		switch op {
		case "<":
			lhs = func(c []float64) float64 { return boolf(l(c) < rhs(c)) }
		case "<=":
			lhs = func(c []float64) float64 { return boolf(l(c) <= rhs(c)) }
		case ">":
			lhs = func(c []float64) float64 { return boolf(l(c) > rhs(c)) }
		default:
			lhs = func(c []float64) float64 { return boolf(l(c) >= rhs(c)) }
		}
	}
	return lhs, nil
}

func (p *parser) parseSum() (evalFunc, *Error) {
	lhs, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.next().text
		rhs, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		l := lhs
		if op == "+" {
			lhs = func(c []float64) float64 { return l(c) + rhs(c) }
		} else {
			lhs = func(c []float64) float64 { return l(c) - rhs(c) }
		}
	}
	return lhs, nil
}

func (p *parser) parseProduct() (evalFunc, *Error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/") {
		op := p.next().text
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l := lhs
		if op == "*" {
			lhs = func(c []float64) float64 { return l(c) * rhs(c) }
		} else {
			lhs = func(c []float64) float64 { return l(c) / rhs(c) }
		}
	}
	return lhs, nil
}

func (p *parser) parseUnary() (evalFunc, *Error) {
	if p.isOp("+") {
		p.next()
		return p.parseUnary()
	}
	if p.isOp("-") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return func(c []float64) float64 { return -operand(c) }, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (evalFunc, *Error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !p.isOp("^") {
		return base, nil
	}
	p.next()
	// right-associative, and the exponent may carry its own sign: 2^-1
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return func(c []float64) float64 { return math.Pow(base(c), exp(c)) }, nil
}

func (p *parser) parsePrimary() (evalFunc, *Error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v := t.num
		if p.peek().kind == tokLParen {
			return nil, p.fail(TypeError, t, "number %s is not a function", t.text)
		}
		return func([]float64) float64 { return v }, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(t)
		}
		return p.resolve(t)
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, p.fail(SyntaxError, p.peek(), "expected ')'")
		}
		p.next()
		return inner, nil
	case tokEOF:
		return nil, p.fail(SyntaxError, t, "unexpected end of formula")
	default:
		return nil, p.fail(SyntaxError, t, "unexpected token %q", t.text)
	}
}

func (p *parser) resolve(t token) (evalFunc, *Error) {
	if v, ok := constants[t.text]; ok {
		return func([]float64) float64 { return v }, nil
	}
	if _, ok := builtins[t.text]; ok {
		return nil, p.fail(TypeError, t, "function %s used without arguments", t.text)
	}
	if p.scope == nil {
		return nil, p.fail(UnknownVariable, t, "undefined name %s", t.text)
	}
	idx, ok := p.scope.Index(t.text)
	if !ok {
		return nil, p.fail(UnknownVariable, t, "undefined name %s", t.text)
	}
	return func(c []float64) float64 { return c[idx] }, nil
}

func (p *parser) parseCall(name token) (evalFunc, *Error) {
	fn, ok := builtins[name.text]
	if !ok {
		if p.scope != nil {
			if _, isVar := p.scope.Index(name.text); isVar {
				return nil, p.fail(TypeError, name, "variable %s is not a function", name.text)
			}
		}
		if _, isConst := constants[name.text]; isConst {
			return nil, p.fail(TypeError, name, "constant %s is not a function", name.text)
		}
		return nil, p.fail(UnknownVariable, name, "undefined function %s", name.text)
	}
	p.next() // (

	var args []evalFunc
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if p.peek().kind != tokRParen {
		return nil, p.fail(SyntaxError, p.peek(), "expected ')' after arguments to %s", name.text)
	}
	p.next()

	switch {
	case fn.arity == variadic && len(args) == 0:
		return nil, p.fail(TypeError, name, "%s needs at least one argument", name.text)
	case fn.arity != variadic && len(args) != fn.arity:
		return nil, p.fail(TypeError, name, "%s takes %d argument(s), got %d", name.text, fn.arity, len(args))
	}

	switch fn.arity {
	case 1:
		a, f := args[0], fn.fn1
		return func(c []float64) float64 { return f(a(c)) }, nil
	case 2:
		a, b, f := args[0], args[1], fn.fn2
		return func(c []float64) float64 { return f(a(c), b(c)) }, nil
	default:
		buf := make([]float64, len(args))
		f := fn.fnN
		return func(c []float64) float64 {
			for i, a := range args {
				buf[i] = a(c)
			}
			return f(buf)
		}, nil
	}
}
