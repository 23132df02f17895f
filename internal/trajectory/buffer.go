// Package trajectory keeps the bounded, newest-first history of emitted points.
package trajectory

import (
	"sync"

	"github.com/san-kum/pathtracer/internal/dynamo"
)

// Buffer is a fixed-capacity ring of points. Index 0 is always the newest point; once
// full, every Push evicts the oldest one. It is safe for concurrent use and implements
// sim.Observer so it can be subscribed to a scheduler directly.
type Buffer struct {
	mu   sync.RWMutex
	buf  []dynamo.Point
	head int // slot of the newest point
	n    int
}

// New returns an empty buffer holding at most capacity points. A capacity below 1 is
// raised to 1.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{buf: make([]dynamo.Point, capacity), head: -1}
}

// Push stores p as the newest point. The buffer keeps p as given; callers hand over
// ownership.
func (b *Buffer) Push(p dynamo.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = (b.head + 1) % len(b.buf)
	b.buf[b.head] = p
	if b.n < len(b.buf) {
		b.n++
	}
}

func (b *Buffer) OnPoint(p dynamo.Point) { b.Push(p) }

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.n
}

func (b *Buffer) Cap() int { return len(b.buf) }

// At returns a copy of the i-th newest point.
func (b *Buffer) At(i int) (dynamo.Point, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= b.n {
		return dynamo.Point{}, false
	}
	return b.buf[b.slot(i)].Clone(), true
}

func (b *Buffer) Newest() (dynamo.Point, bool) { return b.At(0) }

// Points returns copies of all points, newest first.
func (b *Buffer) Points() []dynamo.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]dynamo.Point, b.n)
	for i := range out {
		out[i] = b.buf[b.slot(i)].Clone()
	}
	return out
}

// Each calls fn for every point, newest first, until fn returns false. fn must not
// retain or modify p and must not call back into the buffer.
func (b *Buffer) Each(fn func(i int, p dynamo.Point) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for i := 0; i < b.n; i++ {
		if !fn(i, b.buf[b.slot(i)]) {
			return
		}
	}
}

// Chronological returns copies of all points, oldest first.
func (b *Buffer) Chronological() []dynamo.Point {
	pts := b.Points()
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
	return pts
}

func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.buf)
	b.head = -1
	b.n = 0
}

func (b *Buffer) slot(i int) int {
	return (b.head - i + len(b.buf)) % len(b.buf)
}
