package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName indicates a cell name was defined twice in one arena.
	ErrDuplicateName = errors.New("expr: duplicate cell name")

	// ErrInvalidName indicates a cell name that formulas could never reference.
	ErrInvalidName = errors.New("expr: invalid cell name")
)

// Arena is a set of named float64 cells addressed by stable index.
//
// An Arena is not safe for concurrent use; the goroutine that evaluates expressions
// bound to it must be the only one writing its cells.
type Arena struct {
	names []string
	index map[string]int
	cells []float64
}

func NewArena() *Arena {
	return &Arena{index: make(map[string]int)}
}

// Define appends a zero-valued cell and returns its index.
func (a *Arena) Define(name string) (int, error) {
	if !IsIdentifier(name) {
		return -1, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, ok := a.index[name]; ok {
		return -1, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if _, ok := constants[name]; ok {
		return -1, fmt.Errorf("%w: %q shadows a constant", ErrInvalidName, name)
	}
	if _, ok := builtins[name]; ok {
		return -1, fmt.Errorf("%w: %q shadows a function", ErrInvalidName, name)
	}
	i := len(a.cells)
	a.names = append(a.names, name)
	a.cells = append(a.cells, 0)
	a.index[name] = i
	return i, nil
}

func (a *Arena) Index(name string) (int, bool) {
	i, ok := a.index[name]
	return i, ok
}

func (a *Arena) Set(i int, v float64) { a.cells[i] = v }
func (a *Arena) Get(i int) float64    { return a.cells[i] }
func (a *Arena) Len() int             { return len(a.cells) }

// Names returns the cell names in index order.
func (a *Arena) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// IsIdentifier reports whether s is a name formulas can reference: a letter or
// underscore followed by letters, digits or underscores.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if isIdentStart(r) {
			continue
		}
		if i > 0 && isDigit(r) {
			continue
		}
		return false
	}
	return true
}
