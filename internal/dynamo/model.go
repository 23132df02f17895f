package dynamo

import (
	"fmt"
	"math"

	"github.com/san-kum/pathtracer/internal/expr"
)

// TimeName is the cell every rule can read for the current time.
const TimeName = "t"

// Model holds the compiled rules of one problem and the cells they read.
//
// The cell layout is fixed at configuration: t, then every variable, then every
// parameter. All rules are compiled against the same arena, so writing a cell is
// immediately visible to every rule. The stage methods (Load, UpdateParams, Derive, ...)
// exist for integrators; callers outside the producer goroutine must not use them.
type Model struct {
	arena      *expr.Arena
	varNames   []string
	paramNames []string
	derivs     []*expr.Expr
	params     []*expr.Expr
	varBase    int
	paramBase  int
	h          float64
	initial    Point
}

// Configure compiles varRules and paramRules, seeds the cells from initial and
// evaluates the parameters once, in declaration order, to complete the initial point.
// initial.Params is ignored. Any failure yields a *ConfigurationError and no Model.
func Configure(varRules []VariableRule, paramRules []ParameterRule, initial Point, h float64) (*Model, error) {
	if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return nil, Configf("dt", "step size must be positive and finite, got %v", h)
	}
	if len(initial.Vars) != len(varRules) {
		return nil, Configf("initial", "%d initial values for %d variables", len(initial.Vars), len(varRules))
	}
	if math.IsNaN(initial.T) || math.IsInf(initial.T, 0) {
		return nil, Configf("t_init", "initial time must be finite, got %v", initial.T)
	}

	m := &Model{
		arena:      expr.NewArena(),
		varNames:   make([]string, len(varRules)),
		paramNames: make([]string, len(paramRules)),
		derivs:     make([]*expr.Expr, len(varRules)),
		params:     make([]*expr.Expr, len(paramRules)),
		varBase:    1,
		paramBase:  1 + len(varRules),
		h:          h,
	}

	if _, err := m.arena.Define(TimeName); err != nil {
		return nil, &ConfigurationError{Field: TimeName, Err: err}
	}
	for i, r := range varRules {
		if _, err := m.arena.Define(r.Name); err != nil {
			return nil, &ConfigurationError{Field: fmt.Sprintf("variables[%d].name", i), Err: err}
		}
		m.varNames[i] = r.Name
	}
	for i, r := range paramRules {
		if _, err := m.arena.Define(r.Name); err != nil {
			return nil, &ConfigurationError{Field: fmt.Sprintf("parameters[%d].name", i), Err: err}
		}
		m.paramNames[i] = r.Name
	}

	for i, r := range varRules {
		e, err := expr.Compile(r.Derivative, m.arena)
		if err != nil {
			return nil, &ConfigurationError{Field: fmt.Sprintf("variables[%d].derivative", i), Err: err}
		}
		m.derivs[i] = e
	}
	for i, r := range paramRules {
		e, err := expr.Compile(r.Expression, m.arena)
		if err != nil {
			return nil, &ConfigurationError{Field: fmt.Sprintf("parameters[%d].equation", i), Err: err}
		}
		m.params[i] = e
	}

	m.Load(initial.T, initial.Vars)
	if err := m.UpdateParams(); err != nil {
		return nil, &ConfigurationError{Field: "parameters", Err: err}
	}
	m.initial = Point{T: initial.T, Vars: make([]float64, len(varRules)), Params: make([]float64, len(paramRules))}
	copy(m.initial.Vars, initial.Vars)
	m.ReadParams(m.initial.Params)

	return m, nil
}

func (m *Model) VarCount() int        { return len(m.derivs) }
func (m *Model) ParamCount() int      { return len(m.params) }
func (m *Model) StepSize() float64    { return m.h }
func (m *Model) VarNames() []string   { return append([]string(nil), m.varNames...) }
func (m *Model) ParamNames() []string { return append([]string(nil), m.paramNames...) }

// Initial returns a copy of the initial point with its parameters evaluated.
func (m *Model) Initial() Point { return m.initial.Clone() }

// Load writes t and vars into the cells. Parameter cells are left untouched.
func (m *Model) Load(t float64, vars []float64) {
	m.arena.Set(0, t)
	for i, v := range vars {
		m.arena.Set(m.varBase+i, v)
	}
}

// LoadShifted writes t and base + scale*k into the cells.
func (m *Model) LoadShifted(t float64, base, k []float64, scale float64) {
	m.arena.Set(0, t)
	for i := range base {
		m.arena.Set(m.varBase+i, base[i]+scale*k[i])
	}
}

// LoadParams writes params into the parameter cells.
func (m *Model) LoadParams(params []float64) {
	for i, v := range params {
		m.arena.Set(m.paramBase+i, v)
	}
}

// UpdateParams evaluates every parameter rule in declaration order, writing each result
// to its cell before the next rule runs.
func (m *Model) UpdateParams() error {
	for i, e := range m.params {
		v, err := e.Eval()
		if err != nil {
			return &EvaluationError{Time: m.arena.Get(0), Rule: m.paramNames[i], Err: err}
		}
		m.arena.Set(m.paramBase+i, v)
	}
	return nil
}

// Derive evaluates every derivative rule into dst, which must have VarCount elements.
func (m *Model) Derive(dst []float64) error {
	for i, e := range m.derivs {
		v, err := e.Eval()
		if err != nil {
			return &EvaluationError{Time: m.arena.Get(0), Rule: m.varNames[i], Err: err}
		}
		dst[i] = v
	}
	return nil
}

func (m *Model) ReadParams(dst []float64) {
	for i := range dst {
		dst[i] = m.arena.Get(m.paramBase + i)
	}
}

// CheckPoint reports whether p has the dimensions of this model.
func (m *Model) CheckPoint(p Point) error {
	if len(p.Vars) != len(m.derivs) || len(p.Params) != len(m.params) {
		return fmt.Errorf("%w: point has %d vars/%d params, model has %d/%d",
			ErrInvalidState, len(p.Vars), len(p.Params), len(m.derivs), len(m.params))
	}
	return nil
}
