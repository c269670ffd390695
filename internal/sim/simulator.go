package sim

import (
	"iter"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/vector"
)

// State is the lifecycle position of a stepper.
type State int

const (
	NotStarted State = iota
	Running
	Exhausted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// endTolerance absorbs rounding in t_start + k·t_step so that a t_end which
// is a whole number of steps away is still emitted.
const endTolerance = 1e-9

// Stepper is the pull protocol shared by Run and OwningRun.
type Stepper[C vector.Components] interface {
	Next() (RunStep[C], bool)
	Err() error
	State() State
	Reset()
}

type options struct {
	validate bool
}

type Option func(*options)

// WithStateValidation controls whether a NaN or Inf snapshot aborts the run
// with ErrInvalidState. Validation is on by default.
func WithStateValidation(on bool) Option {
	return func(o *options) { o.validate = on }
}

func buildOptions(opts []Option) options {
	o := options{validate: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type stepper[C vector.Components] struct {
	sim     *Simulation[C]
	opts    options
	state   State
	k       int
	current body.BodyMap[C]
	err     error
}

// Next emits the current snapshot and computes its successor. It returns
// false once t_end has passed or the run failed; see Err.
func (s *stepper[C]) Next() (RunStep[C], bool) {
	switch s.state {
	case Exhausted:
		return RunStep[C]{}, false
	case NotStarted:
		if err := s.start(); err != nil {
			s.fail(err)
			return RunStep[C]{}, false
		}
	}

	t := s.sim.tStart + float64(s.k)*s.sim.tStep
	if end, ok := s.sim.TEnd(); ok && t > end+endTolerance*s.sim.tStep {
		s.state = Exhausted
		return RunStep[C]{}, false
	}
	if s.opts.validate && !s.current.IsFinite() {
		s.fail(&StepError{Step: s.k, T: t, Err: ErrInvalidState})
		return RunStep[C]{}, false
	}

	step := RunStep[C]{T: t, Bodies: s.current}
	s.current = Advance(s.sim.law, s.current, s.sim.tStep)
	s.k++
	return step, true
}

func (s *stepper[C]) start() error {
	if s.opts.validate {
		if err := s.sim.Validate(); err != nil {
			return err
		}
	}
	m, err := s.sim.BodyMap()
	if err != nil {
		return err
	}
	s.current = m
	s.k = 0
	s.state = Running
	return nil
}

func (s *stepper[C]) fail(err error) {
	s.err = err
	s.state = Exhausted
	s.current = body.BodyMap[C]{}
}

func (s *stepper[C]) Err() error   { return s.err }
func (s *stepper[C]) State() State { return s.state }

// Reset rewinds to the initial configuration.
func (s *stepper[C]) Reset() {
	s.state = NotStarted
	s.k = 0
	s.err = nil
	s.current = body.BodyMap[C]{}
}

// Steps adapts Next to range-over-func.
func (s *stepper[C]) Steps() iter.Seq[RunStep[C]] {
	return func(yield func(RunStep[C]) bool) {
		for {
			step, ok := s.Next()
			if !ok || !yield(step) {
				return
			}
		}
	}
}

// Advance computes the snapshot that follows m. Forces are evaluated once
// over the whole population before any body is integrated.
func Advance[C vector.Components](law physics.Law[C], m body.BodyMap[C], dt float64) body.BodyMap[C] {
	fm := physics.ForcesFromBodies(law, m.Bodies())
	return m.Map(func(b body.Body[C]) body.Body[C] {
		return b.WithForces(fm[b.Label]).Integrate(dt)
	})
}

// Run borrows its Simulation. Several runs may share one Simulation as long
// as nothing modifies it while they step.
type Run[C vector.Components] struct {
	stepper[C]
}

func NewRun[C vector.Components](s *Simulation[C], opts ...Option) *Run[C] {
	return &Run[C]{stepper: stepper[C]{sim: s, opts: buildOptions(opts)}}
}

// OwningRun steps a private copy of its Simulation.
type OwningRun[C vector.Components] struct {
	owned Simulation[C]
	stepper[C]
}

func NewOwningRun[C vector.Components](s Simulation[C], opts ...Option) *OwningRun[C] {
	r := &OwningRun[C]{owned: *s.Clone()}
	r.stepper = stepper[C]{sim: &r.owned, opts: buildOptions(opts)}
	return r
}

// Simulation returns a copy of the owned configuration.
func (r *OwningRun[C]) Simulation() *Simulation[C] {
	return r.owned.Clone()
}
