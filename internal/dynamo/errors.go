package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for model configuration and stepping.
var (
	// ErrConfiguration indicates a problem definition that cannot be compiled or is
	// missing required values. It is fatal to loading, never to a running simulation.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrEvaluation indicates a runtime fault inside a compiled rule. It is fatal to the run.
	ErrEvaluation = errors.New("dynamo: rule evaluation failed")

	// ErrInvalidState indicates a point with mismatched dimensions, or a non-finite point
	// when state validation is enabled.
	ErrInvalidState = errors.New("dynamo: invalid state")

	// ErrStopped is returned when controlling a simulation that has already finished.
	ErrStopped = errors.New("dynamo: simulation stopped")
)

// ConfigurationError wraps a configuration failure with the field that caused it.
type ConfigurationError struct {
	// Field names the offending rule or setting, e.g. "variables[1].derivative".
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %v", ErrConfiguration, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrConfiguration, e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() []error { return []error{ErrConfiguration, e.Err} }

// EvaluationError wraps a rule failure with the integration context it happened in.
type EvaluationError struct {
	// Step is the number of completed steps before the failing one.
	Step int
	Time float64
	// Rule is the name of the variable or parameter whose formula failed.
	Rule string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%v: step %d (t=%.4f): rule %s: %v", ErrEvaluation, e.Step, e.Time, e.Rule, e.Err)
}

func (e *EvaluationError) Unwrap() []error { return []error{ErrEvaluation, e.Err} }

// Configf builds a ConfigurationError for field from a formatted message.
func Configf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Err: fmt.Errorf(format, args...)}
}
