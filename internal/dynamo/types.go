package dynamo

import (
	"fmt"
	"math"
)

// Point is one sample of a trajectory. Vars[i] belongs to the i-th declared variable,
// Params[i] to the i-th declared parameter.
type Point struct {
	T      float64
	Vars   []float64
	Params []float64
}

// Clone returns a deep copy that shares no storage with p.
func (p Point) Clone() Point {
	c := Point{T: p.T}
	if p.Vars != nil {
		c.Vars = make([]float64, len(p.Vars))
		copy(c.Vars, p.Vars)
	}
	if p.Params != nil {
		c.Params = make([]float64, len(p.Params))
		copy(c.Params, p.Params)
	}
	return c
}

// IsValid reports whether every component of p is finite.
func (p Point) IsValid() bool {
	if math.IsNaN(p.T) || math.IsInf(p.T, 0) {
		return false
	}
	for _, v := range p.Vars {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range p.Params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Point) String() string {
	return fmt.Sprintf("t=%.6g vars=%v params=%v", p.T, p.Vars, p.Params)
}

// VariableRule defines d(Name)/dt = Derivative.
type VariableRule struct {
	Name       string
	Derivative string
}

// ParameterRule defines Name = Expression, re-derived at every stage and never integrated.
type ParameterRule struct {
	Name       string
	Expression string
}
