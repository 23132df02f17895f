package integrators

import "github.com/san-kum/pathtracer/internal/dynamo"

// Euler is the explicit first-order scheme. Kept as a cheap baseline for comparing
// against RK4 on the same rules.
type Euler struct {
	k []float64
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(m *dynamo.Model, p dynamo.Point) (dynamo.Point, error) {
	if err := m.CheckPoint(p); err != nil {
		return dynamo.Point{}, err
	}
	n := len(p.Vars)
	if len(e.k) != n {
		e.k = make([]float64, n)
	}
	h := m.StepSize()

	m.Load(p.T, p.Vars)
	m.LoadParams(p.Params)
	if err := m.Derive(e.k); err != nil {
		return dynamo.Point{}, err
	}

	next := dynamo.Point{T: p.T + h, Vars: make([]float64, n), Params: make([]float64, len(p.Params))}
	for i := range p.Vars {
		next.Vars[i] = p.Vars[i] + h*e.k[i]
	}
	m.Load(next.T, next.Vars)
	if err := m.UpdateParams(); err != nil {
		return dynamo.Point{}, err
	}
	m.ReadParams(next.Params)
	return next, nil
}
