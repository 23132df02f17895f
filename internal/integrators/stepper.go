package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/pathtracer/internal/dynamo"
)

// Method advances a model by one fixed step. Implementations keep scratch buffers and
// are not safe for concurrent use.
type Method interface {
	Name() string
	Step(m *dynamo.Model, p dynamo.Point) (dynamo.Point, error)
}

var methods = map[string]func() Method{
	"rk4":   func() Method { return NewRK4() },
	"euler": func() Method { return NewEuler() },
}

// Get returns a fresh instance of the named method.
func Get(name string) (Method, error) {
	fn, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stepper iterates a trajectory: it remembers the current point and replaces it with
// each step's result. A Stepper and its Model belong to one goroutine.
type Stepper struct {
	model   *dynamo.Model
	method  Method
	current dynamo.Point
	steps   int
}

// New starts a stepper at the model's initial point. A nil method selects RK4.
func New(m *dynamo.Model, method Method) *Stepper {
	if method == nil {
		method = NewRK4()
	}
	return &Stepper{model: m, method: method, current: m.Initial()}
}

// Step computes the successor of p without touching the stepper's current point.
func (s *Stepper) Step(p dynamo.Point) (dynamo.Point, error) {
	next, err := s.method.Step(s.model, p)
	if err != nil {
		var evalErr *dynamo.EvaluationError
		if errors.As(err, &evalErr) {
			evalErr.Step = s.steps
		}
		return dynamo.Point{}, err
	}
	return next, nil
}

// CalculateStep advances the current point by one step and returns a copy of it.
// On error the current point is left unchanged.
func (s *Stepper) CalculateStep() (dynamo.Point, error) {
	next, err := s.Step(s.current)
	if err != nil {
		return dynamo.Point{}, err
	}
	s.current = next
	s.steps++
	return next.Clone(), nil
}

// Current returns a copy of the point the next CalculateStep starts from.
func (s *Stepper) Current() dynamo.Point { return s.current.Clone() }

// Steps returns how many successful CalculateStep calls have been made.
func (s *Stepper) Steps() int { return s.steps }

func (s *Stepper) Model() *dynamo.Model { return s.model }
func (s *Stepper) Method() Method       { return s.method }
