package sim_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/integrators"
	"github.com/san-kum/pathtracer/internal/sim"
)

type recorder struct {
	mu     sync.Mutex
	points []dynamo.Point
	errs   []error
}

func (r *recorder) OnPoint(p dynamo.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, p)
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.points)
}

func (r *recorder) Points() []dynamo.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dynamo.Point(nil), r.points...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// clock integrates dx/dt = 1 from x = 0, so every point satisfies x == t.
func clock(h float64) *integrators.Stepper {
	m, err := dynamo.Configure(
		[]dynamo.VariableRule{{Name: "x", Derivative: "1"}},
		nil,
		dynamo.Point{Vars: []float64{0}},
		h,
	)
	Expect(err).NotTo(HaveOccurred())
	return integrators.New(m, nil)
}

func expectContiguous(points []dynamo.Point, stride float64) {
	for i := 1; i < len(points); i++ {
		Expect(points[i].T-points[i-1].T).To(Equal(stride), "gap between point %d and %d", i-1, i)
	}
}

var _ = Describe("Scheduler", func() {
	var (
		rec *recorder
		ctx context.Context
	)

	BeforeEach(func() {
		rec = &recorder{}
		ctx = context.Background()
	})

	newScheduler := func(st sim.Stepper, opts sim.Options) *sim.Scheduler {
		s, err := sim.New(st, opts, rec)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			s.Stop()
			Eventually(s.Done()).Should(BeClosed())
		})
		return s
	}

	Describe("construction", func() {
		It("rejects non-positive frame rates", func() {
			_, err := sim.New(clock(1), sim.Options{MaxFPS: 0})
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})

		It("rejects a negative skip", func() {
			_, err := sim.New(clock(1), sim.Options{MaxFPS: 10, Skip: -1})
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})

		It("rejects a nil stepper", func() {
			_, err := sim.New(nil, sim.Options{MaxFPS: 60})
			Expect(err).To(HaveOccurred())
		})

		It("starts suspended and computes nothing until resumed", func() {
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 1000})
			Expect(s.State()).To(Equal(sim.Suspended))
			Expect(s.Start(ctx)).To(Succeed())

			Consistently(s.Stats, 100*time.Millisecond).Should(Equal(sim.Stats{}))
			Expect(rec.Len()).To(BeZero())

			Expect(s.Resume()).To(BeTrue())
			Eventually(rec.Len).Should(BeNumerically(">", 0))
		})
	})

	Describe("emission", func() {
		It("never exceeds the frame rate", func() {
			s := newScheduler(clock(0.01), sim.Options{MaxFPS: 10})
			Expect(s.Start(ctx)).To(Succeed())
			s.Resume()

			time.Sleep(time.Second)
			s.Stop()
			Expect(s.Wait()).To(Succeed())

			Expect(rec.Len()).To(BeNumerically("<=", 11))
			Expect(rec.Len()).To(BeNumerically(">=", 5))
		})

		It("emits every skip+1-th step", func() {
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 1000, Skip: 4})
			Expect(s.Start(ctx)).To(Succeed())
			s.Resume()

			Eventually(rec.Len).Should(BeNumerically(">=", 5))
			s.Stop()
			Expect(s.Wait()).To(Succeed())

			points := rec.Points()
			Expect(points[0].T).To(Equal(2.5))
			expectContiguous(points, 2.5)
			Expect(s.Stats().Steps).To(BeNumerically(">=", uint64(5*len(points))))
		})

		It("hands observers independent copies", func() {
			other := &recorder{}
			s, err := sim.New(clock(0.5), sim.Options{MaxFPS: 1000}, rec, other)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start(ctx)).To(Succeed())
			s.Resume()
			Eventually(other.Len).Should(BeNumerically(">=", 1))
			s.Stop()
			Expect(s.Wait()).To(Succeed())

			rec.Points()[0].Vars[0] = 99
			Expect(other.Points()[0].Vars[0]).To(Equal(0.5))
		})
	})

	Describe("suspend and resume", func() {
		It("pauses without emitting and resumes without skipping steps", func() {
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 500})
			Expect(s.Start(ctx)).To(Succeed())
			Expect(s.Resume()).To(BeTrue())
			Eventually(rec.Len).Should(BeNumerically(">=", 5))

			Expect(s.Suspend()).To(BeTrue())
			Expect(s.State()).To(Equal(sim.Suspended))
			time.Sleep(20 * time.Millisecond)

			paused := s.Stats()
			n := rec.Len()
			Consistently(s.Stats, 200*time.Millisecond).Should(Equal(paused))
			Expect(rec.Len()).To(Equal(n))

			Expect(s.Resume()).To(BeTrue())
			Eventually(rec.Len).Should(BeNumerically(">=", n+5))
			s.Stop()
			Expect(s.Wait()).To(Succeed())

			points := rec.Points()
			Expect(points[0].T).To(Equal(0.5))
			expectContiguous(points, 0.5)
		})

		It("toggles between running and suspended", func() {
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 60})
			Expect(s.Toggle()).To(BeTrue())
			Expect(s.State()).To(Equal(sim.Running))
			Expect(s.Toggle()).To(BeTrue())
			Expect(s.State()).To(Equal(sim.Suspended))
		})

		It("ignores redundant requests", func() {
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 60})
			Expect(s.Suspend()).To(BeFalse())
			Expect(s.Resume()).To(BeTrue())
			Expect(s.Resume()).To(BeFalse())
		})
	})

	Describe("stopping", func() {
		It("exits promptly while waiting out the frame interval", func() {
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 1})
			Expect(s.Start(ctx)).To(Succeed())
			s.Resume()
			Eventually(func() uint64 { return s.Stats().Steps }).Should(Equal(uint64(1)))

			s.Stop()
			Eventually(s.Done()).WithTimeout(200 * time.Millisecond).Should(BeClosed())
			Expect(s.Wait()).To(Succeed())
			Expect(rec.Len()).To(BeZero())
			Expect(s.State()).To(Equal(sim.Stopped))
		})

		It("emits nothing once Wait has returned", func() {
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 1000})
			Expect(s.Start(ctx)).To(Succeed())
			s.Resume()
			Eventually(rec.Len).Should(BeNumerically(">=", 5))

			s.Stop()
			Expect(s.Wait()).To(Succeed())
			n := rec.Len()
			Expect(s.Stats().Emitted).To(Equal(uint64(n)))
			Consistently(rec.Len, 100*time.Millisecond).Should(Equal(n))
		})

		It("exits promptly while suspended", func() {
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 60})
			Expect(s.Start(ctx)).To(Succeed())

			s.Stop()
			Eventually(s.Done()).WithTimeout(200 * time.Millisecond).Should(BeClosed())
		})

		It("finishes at once when never started", func() {
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 60})
			s.Stop()
			Expect(s.Done()).To(BeClosed())
			Expect(s.Start(ctx)).To(MatchError(dynamo.ErrStopped))
		})

		It("treats context cancellation as stop", func() {
			cctx, cancel := context.WithCancel(ctx)
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 1000})
			Expect(s.Start(cctx)).To(Succeed())
			s.Resume()
			Eventually(rec.Len).Should(BeNumerically(">", 0))

			cancel()
			Eventually(s.Done()).Should(BeClosed())
			Expect(s.Wait()).To(Succeed())
		})

		It("rejects every control once stopped", func() {
			s := newScheduler(clock(0.5), sim.Options{MaxFPS: 60})
			Expect(s.Start(ctx)).To(Succeed())
			Expect(s.Start(ctx)).NotTo(Succeed())
			s.Stop()
			Expect(s.Wait()).To(Succeed())

			Expect(s.Resume()).To(BeFalse())
			Expect(s.Suspend()).To(BeFalse())
			Expect(s.Toggle()).To(BeFalse())
			Expect(s.Start(ctx)).To(MatchError(dynamo.ErrStopped))
			s.Stop()
			Expect(s.State()).To(Equal(sim.Stopped))
		})
	})

	Describe("step failures", func() {
		It("stops the run and reports the error", func() {
			m, err := dynamo.Configure(
				[]dynamo.VariableRule{{Name: "x", Derivative: "-1"}},
				[]dynamo.ParameterRule{{Name: "q", Expression: "x*log(x)"}},
				dynamo.Point{Vars: []float64{1}},
				1,
			)
			Expect(err).NotTo(HaveOccurred())

			s := newScheduler(integrators.New(m, nil), sim.Options{MaxFPS: 1000})
			Expect(s.Start(ctx)).To(Succeed())
			s.Resume()

			Eventually(s.Done()).Should(BeClosed())
			Expect(s.Wait()).To(MatchError(dynamo.ErrEvaluation))
			Expect(rec.Errors()).To(HaveLen(1))
			Expect(rec.Len()).To(BeZero())
			Expect(s.Stats().Steps).To(BeZero())
			Expect(s.State()).To(Equal(sim.Stopped))
		})

		Context("with a rule that overflows", func() {
			var blowup *integrators.Stepper

			BeforeEach(func() {
				m, err := dynamo.Configure(
					[]dynamo.VariableRule{{Name: "x", Derivative: "1/0"}},
					nil,
					dynamo.Point{Vars: []float64{0}},
					0.5,
				)
				Expect(err).NotTo(HaveOccurred())
				blowup = integrators.New(m, nil)
			})

			It("emits infinite points by default", func() {
				s := newScheduler(blowup, sim.Options{MaxFPS: 1000})
				Expect(s.Start(ctx)).To(Succeed())
				s.Resume()

				Eventually(rec.Len).Should(BeNumerically(">=", 1))
				Expect(rec.Points()[0].IsValid()).To(BeFalse())
			})

			It("fails the run when state validation is on", func() {
				s := newScheduler(blowup, sim.Options{MaxFPS: 1000, ValidateState: true})
				Expect(s.Start(ctx)).To(Succeed())
				s.Resume()

				Eventually(s.Done()).Should(BeClosed())
				Expect(s.Wait()).To(MatchError(dynamo.ErrInvalidState))
				Expect(rec.Errors()).To(HaveLen(1))
				Expect(rec.Len()).To(BeZero())
				Expect(s.Stats().Steps).To(BeZero())
			})
		})
	})
})

var _ = Describe("Mailbox", func() {
	It("keeps only the newest unread point", func() {
		mb := sim.NewMailbox()
		for i := 1; i <= 3; i++ {
			mb.OnPoint(dynamo.Point{T: float64(i)})
		}

		var p dynamo.Point
		Expect(mb.C()).To(Receive(&p))
		Expect(p.T).To(Equal(3.0))
		Expect(mb.Dropped()).To(Equal(uint64(2)))
		Expect(mb.C()).NotTo(Receive())
	})

	It("never blocks a running scheduler", func() {
		mb := sim.NewMailbox()
		s, err := sim.New(clock(0.5), sim.Options{MaxFPS: 1000}, mb)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Start(context.Background())).To(Succeed())
		s.Resume()

		Eventually(func() uint64 { return s.Stats().Emitted }).Should(BeNumerically(">=", 10))
		s.Stop()
		Expect(s.Wait()).To(Succeed())

		var p dynamo.Point
		Expect(mb.C()).To(Receive(&p))
		Expect(mb.Dropped()).To(BeNumerically(">", 0))
	})
})

var _ = Describe("State", func() {
	DescribeTable("String",
		func(st sim.State, want string) {
			Expect(st.String()).To(Equal(want))
		},
		Entry("suspended", sim.Suspended, "suspended"),
		Entry("running", sim.Running, "running"),
		Entry("stopping", sim.Stopping, "stopping"),
		Entry("stopped", sim.Stopped, "stopped"),
		Entry("unknown", sim.State(42), "unknown"),
	)
})
