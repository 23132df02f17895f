// Package labels tracks the named values shown beside a running plot.
package labels

import (
	"errors"
	"slices"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/san-kum/pathtracer/internal/dynamo"
)

var (
	ErrDuplicate    = errors.New("labels: duplicate label")
	ErrUnknown      = errors.New("labels: unknown parameter")
	ErrNotRemovable = errors.New("labels: label is not removable")
)

// Placeholder is shown for a label that has not received a point yet.
const Placeholder = "---"

const timeIndex = -1

type Row struct {
	Name      string
	Value     string
	Removable bool
}

type label struct {
	name      string
	index     int // into Point.Params, or timeIndex
	value     string
	removable bool
}

// Board is the ordered set of labels. A failed Add or Remove is logged and leaves the
// board unchanged; it never affects the run feeding it. Board implements sim.Observer.
type Board struct {
	mu         sync.Mutex
	paramNames []string
	labels     []*label
	log        *zap.Logger
}

func New(paramNames []string, log *zap.Logger) *Board {
	if log == nil {
		log = zap.NewNop()
	}
	return &Board{
		paramNames: append([]string(nil), paramNames...),
		log:        log.Named("labels"),
	}
}

// Add appends a label for the parameter called name, or for time when name is "t".
func (b *Board) Add(name string, removable bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.find(name) >= 0 {
		b.log.Warn("can't set label: duplicate parameter", zap.String("label", name))
		return ErrDuplicate
	}
	idx := timeIndex
	if name != dynamo.TimeName {
		idx = slices.Index(b.paramNames, name)
		if idx < 0 {
			b.log.Warn("can't set label: unknown parameter", zap.String("label", name))
			return ErrUnknown
		}
	}
	b.labels = append(b.labels, &label{name: name, index: idx, value: Placeholder, removable: removable})
	return nil
}

func (b *Board) Remove(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.find(name)
	switch {
	case i < 0:
		b.log.Warn("can't remove label: not shown", zap.String("label", name))
		return ErrUnknown
	case !b.labels[i].removable:
		b.log.Warn("can't remove label: fixed", zap.String("label", name))
		return ErrNotRemovable
	}
	b.labels = slices.Delete(b.labels, i, i+1)
	return nil
}

// Update refreshes every label from p.
func (b *Board) Update(p dynamo.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.labels {
		switch {
		case l.index == timeIndex:
			l.value = format(p.T)
		case l.index < len(p.Params):
			l.value = format(p.Params[l.index])
		}
	}
}

func (b *Board) OnPoint(p dynamo.Point) { b.Update(p) }

func (b *Board) Rows() []Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows := make([]Row, len(b.labels))
	for i, l := range b.labels {
		rows[i] = Row{Name: l.name, Value: l.value, Removable: l.removable}
	}
	return rows
}

// Available returns the names that can be added, sorted, with "t" first.
func (b *Board) Available() []string {
	names := append([]string{dynamo.TimeName}, b.paramNames...)
	slices.Sort(names[1:])
	return names
}

func (b *Board) find(name string) int {
	return slices.IndexFunc(b.labels, func(l *label) bool { return l.name == name })
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
