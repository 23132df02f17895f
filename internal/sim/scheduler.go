package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/pathtracer/internal/dynamo"
)

// Stepper produces successive points of one trajectory. *integrators.Stepper
// implements it.
type Stepper interface {
	CalculateStep() (dynamo.Point, error)
}

// Scheduler drives a Stepper on a single producer goroutine and emits at most MaxFPS
// points per second to its observers, discarding Skip computed steps between two
// emissions. It starts Suspended.
//
// The control methods may be called from any goroutine.
type Scheduler struct {
	stepper     Stepper
	observers   []Observer
	skip        int
	minInterval time.Duration
	validate    bool
	log         *zap.Logger

	mu      sync.Mutex
	state   State
	started bool
	err     error

	// wake is signalled on every state change so a waiting producer re-checks state.
	wake chan struct{}
	done chan struct{}

	steps   atomic.Uint64
	emitted atomic.Uint64
}

func New(stepper Stepper, opts Options, observers ...Observer) (*Scheduler, error) {
	if stepper == nil {
		return nil, errors.New("sim: nil stepper")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		stepper:     stepper,
		observers:   append([]Observer(nil), observers...),
		skip:        opts.Skip,
		minInterval: time.Second / time.Duration(opts.MaxFPS),
		validate:    opts.ValidateState,
		log:         log.Named("sim"),
		state:       Suspended,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}, nil
}

// Start launches the producer. Cancelling ctx has the effect of Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped || s.state == Stopping {
		return dynamo.ErrStopped
	}
	if s.started {
		return errors.New("sim: scheduler already started")
	}
	s.started = true

	s.log.Debug("starting producer",
		zap.Duration("min_interval", s.minInterval),
		zap.Int("skip", s.skip),
		zap.Stringer("state", s.state))
	go s.run(ctx)
	return nil
}

// Suspend moves a running scheduler to Suspended. It reports whether the state changed.
func (s *Scheduler) Suspend() bool {
	return s.transition(Running, Suspended)
}

// Resume moves a suspended scheduler to Running. It reports whether the state changed.
func (s *Scheduler) Resume() bool {
	return s.transition(Suspended, Running)
}

// Toggle flips between Running and Suspended. It returns false once stopping has begun.
func (s *Scheduler) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Running:
		s.setLocked(Suspended)
	case Suspended:
		s.setLocked(Running)
	default:
		return false
	}
	return true
}

// Stop asks the producer to finish. It returns immediately; use Wait or Done to learn
// when the producer has exited. An emission already under way when Stop is called may
// still reach the observers; only Wait returning or Done closing guarantees that no
// further points follow. Stopping a scheduler that was never started finishes it
// at once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Suspended, Running:
		if !s.started {
			s.state = Stopped
			close(s.done)
			return
		}
		s.setLocked(Stopping)
	}
}

// Wait blocks until the producer has exited and returns the error that ended the run,
// or nil if it was stopped.
func (s *Scheduler) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Scheduler) Done() <-chan struct{} { return s.done }

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Stats() Stats {
	return Stats{Steps: s.steps.Load(), Emitted: s.emitted.Load()}
}

func (s *Scheduler) transition(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.setLocked(to)
	return true
}

func (s *Scheduler) setLocked(st State) {
	s.log.Debug("state change", zap.Stringer("from", s.state), zap.Stringer("to", st))
	s.state = st
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	stopOnCancel := context.AfterFunc(ctx, s.Stop)
	defer stopOnCancel()
	defer s.finish()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	last := time.Now()
	for {
		for i := 0; i < s.skip; i++ {
			if !s.awaitRunning() {
				return
			}
			if _, err := s.step(); err != nil {
				s.fail(err)
				return
			}
		}

		if !s.awaitRunning() {
			return
		}
		p, err := s.step()
		if err != nil {
			s.fail(err)
			return
		}

		if !s.sleepUntil(timer, last.Add(s.minInterval)) {
			return
		}
		s.emit(p)
		last = time.Now()
	}
}

func (s *Scheduler) step() (dynamo.Point, error) {
	p, err := s.stepper.CalculateStep()
	if err != nil {
		return dynamo.Point{}, err
	}
	if s.validate && !p.IsValid() {
		return dynamo.Point{}, fmt.Errorf("%w: non-finite point at t=%.4f", dynamo.ErrInvalidState, p.T)
	}
	s.steps.Add(1)
	return p, nil
}

// awaitRunning blocks while suspended. It returns false once stopping has begun.
func (s *Scheduler) awaitRunning() bool {
	for {
		switch s.State() {
		case Running:
			return true
		case Suspended:
			<-s.wake
		default:
			return false
		}
	}
}

// sleepUntil waits for deadline and, if suspended meanwhile, for the next resume. It
// returns false once stopping has begun.
func (s *Scheduler) sleepUntil(timer *time.Timer, deadline time.Time) bool {
	for {
		if !s.awaitRunning() {
			return false
		}
		d := time.Until(deadline)
		if d <= 0 {
			return true
		}
		timer.Reset(d)
		select {
		case <-timer.C:
			return s.awaitRunning()
		case <-s.wake:
			timer.Stop()
		}
	}
}

func (s *Scheduler) emit(p dynamo.Point) {
	for _, o := range s.observers {
		o.OnPoint(p.Clone())
	}
	s.emitted.Add(1)
}

func (s *Scheduler) fail(err error) {
	s.log.Error("simulation failed", zap.Error(err), zap.Uint64("steps", s.steps.Load()))
	s.mu.Lock()
	s.err = fmt.Errorf("sim: %w", err)
	s.setLocked(Stopping)
	s.mu.Unlock()
	for _, o := range s.observers {
		if eo, ok := o.(ErrorObserver); ok {
			eo.OnError(err)
		}
	}
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()
	s.log.Debug("producer exited",
		zap.Uint64("steps", s.steps.Load()),
		zap.Uint64("emitted", s.emitted.Load()))
	close(s.done)
}
