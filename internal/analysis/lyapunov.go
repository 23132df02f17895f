package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/integrators"
)

// LyapunovExponent estimates the largest Lyapunov exponent of m from its initial point
// using the trajectory separation method. A positive value indicates chaos.
//
// Algorithm:
// 1. Run two trajectories whose first variable differs by d0
// 2. Measure their separation after every step
// 3. λ ≈ mean(ln(d/d0)) / h, renormalising the perturbed state back to d0 each step
func LyapunovExponent(m *dynamo.Model, method integrators.Method, steps int, d0 float64) (float64, error) {
	if m.VarCount() == 0 {
		return 0, errors.New("analysis: model has no variables")
	}
	if steps <= 0 || d0 <= 0 {
		return 0, errors.New("analysis: steps and perturbation must be positive")
	}

	x := m.Initial()
	xp := x.Clone()
	xp.Vars[0] += d0
	if err := refreshParams(m, &xp); err != nil {
		return 0, err
	}

	sumLog := 0.0
	count := 0
	for i := 0; i < steps; i++ {
		var err error
		if x, err = method.Step(m, x); err != nil {
			return 0, err
		}
		if xp, err = method.Step(m, xp); err != nil {
			return 0, err
		}

		sep := 0.0
		for j := range x.Vars {
			diff := xp.Vars[j] - x.Vars[j]
			sep += diff * diff
		}
		sep = math.Sqrt(sep)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / d0)
		count++

		scale := d0 / sep
		for j := range xp.Vars {
			xp.Vars[j] = x.Vars[j] + (xp.Vars[j]-x.Vars[j])*scale
		}
		if err := refreshParams(m, &xp); err != nil {
			return 0, err
		}
	}

	if count == 0 {
		return 0, nil
	}
	return sumLog / (float64(count) * m.StepSize()), nil
}

// refreshParams re-derives p's parameters after its variables were edited.
func refreshParams(m *dynamo.Model, p *dynamo.Point) error {
	m.Load(p.T, p.Vars)
	if err := m.UpdateParams(); err != nil {
		return err
	}
	m.ReadParams(p.Params)
	return nil
}
