package sim

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/san-kum/pathtracer/internal/dynamo"
)

// State is the lifecycle of a Scheduler.
type State int32

const (
	Suspended State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Suspended:
		return "suspended"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type Options struct {
	// MaxFPS bounds emissions per second.
	MaxFPS int
	// Skip is the number of computed steps discarded between two emissions.
	Skip int
	// ValidateState ends the run with dynamo.ErrInvalidState on the first computed point
	// with a NaN or Inf component. Off by default, since an overflowing rule is legal.
	ValidateState bool
	Logger        *zap.Logger
}

func (o Options) Validate() error {
	if o.MaxFPS <= 0 {
		return dynamo.Configf("max_fps", "must be positive, got %d", o.MaxFPS)
	}
	if o.Skip < 0 {
		return dynamo.Configf("frame_skip", "must not be negative, got %d", o.Skip)
	}
	return nil
}

// Observer receives every emitted point on the producer goroutine. Implementations must
// return quickly; a slow observer delays the next step.
type Observer interface {
	OnPoint(p dynamo.Point)
}

// ErrorObserver is implemented by observers that want the error that ended a run.
type ErrorObserver interface {
	OnError(err error)
}

type ObserverFunc func(p dynamo.Point)

func (f ObserverFunc) OnPoint(p dynamo.Point) { f(p) }

type Stats struct {
	Steps   uint64
	Emitted uint64
}

// Mailbox hands points to a consumer running at its own pace. It holds at most one
// point: an unread point is replaced by the newer one, so the producer never blocks.
type Mailbox struct {
	ch      chan dynamo.Point
	dropped atomic.Uint64
}

func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan dynamo.Point, 1)}
}

func (m *Mailbox) OnPoint(p dynamo.Point) {
	for {
		select {
		case m.ch <- p:
			return
		default:
		}
		select {
		case <-m.ch:
			m.dropped.Add(1)
		default:
		}
	}
}

// C returns the channel the consumer receives from. It is never closed; use the
// scheduler's Done to detect the end of a run.
func (m *Mailbox) C() <-chan dynamo.Point { return m.ch }

// Dropped returns how many points were overwritten before being received.
func (m *Mailbox) Dropped() uint64 { return m.dropped.Load() }
