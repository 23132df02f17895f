package expr

import (
	"math"
	"strings"
)

// Expr is a compiled formula bound to the cells of one Arena.
type Expr struct {
	src   string
	arena *Arena
	fn    evalFunc
}

// Compile parses formula and binds every name it references to a cell of scope.
// scope may be nil for formulas that only use numbers and constants.
func Compile(formula string, scope *Arena) (*Expr, error) {
	if strings.TrimSpace(formula) == "" {
		return nil, &Error{Kind: SyntaxError, Message: "empty formula", Formula: formula, Pos: 0}
	}
	toks, lerr := lex(formula)
	if lerr != nil {
		return nil, lerr
	}
	p := &parser{src: formula, toks: toks, scope: scope}
	fn, perr := p.parseExpr()
	if perr != nil {
		return nil, perr
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.fail(SyntaxError, t, "unexpected token %q", t.text)
	}
	return &Expr{src: formula, arena: scope, fn: fn}, nil
}

// Eval evaluates the formula against the current cell values.
func (e *Expr) Eval() (float64, error) {
	var cells []float64
	if e.arena != nil {
		cells = e.arena.cells
	}
	v := e.fn(cells)
	if math.IsNaN(v) {
		return v, &Error{Kind: EvaluationError, Message: "undefined result (NaN)", Formula: e.src, Pos: -1}
	}
	return v, nil
}

func (e *Expr) String() string { return e.src }
