package integrators

import "github.com/san-kum/pathtracer/internal/dynamo"

// RK4 is the classical fixed-step fourth-order Runge-Kutta scheme.
//
// Parameters are never integrated: before each of stages 2-4 they are re-derived from
// the stage's (t, vars), and once more at the final point.
type RK4 struct {
	k1, k2, k3, k4 []float64
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make([]float64, n)
		r.k2 = make([]float64, n)
		r.k3 = make([]float64, n)
		r.k4 = make([]float64, n)
	}
}

func (r *RK4) Step(m *dynamo.Model, p dynamo.Point) (dynamo.Point, error) {
	if err := m.CheckPoint(p); err != nil {
		return dynamo.Point{}, err
	}
	n := len(p.Vars)
	r.ensureScratch(n)
	h := m.StepSize()
	half := h * 0.5

	m.Load(p.T, p.Vars)
	m.LoadParams(p.Params)
	if err := m.Derive(r.k1); err != nil {
		return dynamo.Point{}, err
	}

	m.LoadShifted(p.T+half, p.Vars, r.k1, half)
	if err := m.UpdateParams(); err != nil {
		return dynamo.Point{}, err
	}
	if err := m.Derive(r.k2); err != nil {
		return dynamo.Point{}, err
	}

	m.LoadShifted(p.T+half, p.Vars, r.k2, half)
	if err := m.UpdateParams(); err != nil {
		return dynamo.Point{}, err
	}
	if err := m.Derive(r.k3); err != nil {
		return dynamo.Point{}, err
	}

	m.LoadShifted(p.T+h, p.Vars, r.k3, h)
	if err := m.UpdateParams(); err != nil {
		return dynamo.Point{}, err
	}
	if err := m.Derive(r.k4); err != nil {
		return dynamo.Point{}, err
	}

	next := dynamo.Point{
		T:      p.T + h,
		Vars:   make([]float64, n),
		Params: make([]float64, len(p.Params)),
	}
	h6 := h / 6.0
	for i := 0; i < n; i++ {
		next.Vars[i] = p.Vars[i] + h6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	m.Load(next.T, next.Vars)
	if err := m.UpdateParams(); err != nil {
		return dynamo.Point{}, err
	}
	m.ReadParams(next.Params)

	return next, nil
}
