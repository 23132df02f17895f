package expr

import "fmt"

// Kind classifies an expression failure.
type Kind int

const (
	SyntaxError Kind = iota
	UnknownVariable
	TypeError
	EvaluationError
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case UnknownVariable:
		return "unknown variable"
	case TypeError:
		return "type error"
	case EvaluationError:
		return "evaluation error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error describes a compile or evaluation failure of one formula.
type Error struct {
	Kind    Kind
	Message string

	// Formula is the source text that failed.
	Formula string

	// Token is the offending token, empty for evaluation errors.
	Token string

	// Pos is the byte offset of Token in Formula, -1 when not applicable.
	Pos int
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("expr: %s at position %d in %q: %s", e.Kind, e.Pos, e.Formula, e.Message)
	}
	return fmt.Sprintf("expr: %s in %q: %s", e.Kind, e.Formula, e.Message)
}
