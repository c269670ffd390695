package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/vector"
)

const (
	DefaultTStart = 0.0
	DefaultTStep  = 0.1
)

// Config holds the time domain of a simulation. A nil TEnd is unbounded.
type Config struct {
	TStart float64
	TStep  float64
	TEnd   *float64
}

func DefaultConfig() Config {
	return Config{TStart: DefaultTStart, TStep: DefaultTStep}
}

// RunStep is one emitted snapshot.
type RunStep[C vector.Components] struct {
	T      float64
	Bodies body.BodyMap[C]
}

// Metric observes every snapshot a run emits.
type Metric[C vector.Components] interface {
	Name() string
	Observe(step RunStep[C])
	Value() float64
	Reset()
}

// Simulation is the initial configuration of a run.
type Simulation[C vector.Components] struct {
	bodies []body.Body[C]
	tStart float64
	tStep  float64
	tEnd   *float64
	law    physics.Law[C]
}

func New[C vector.Components](cfg Config) *Simulation[C] {
	s := &Simulation[C]{
		tStart: cfg.TStart,
		tStep:  cfg.TStep,
		law:    physics.NewGravity[C](physics.DefaultG),
	}
	if cfg.TEnd != nil {
		end := *cfg.TEnd
		s.tEnd = &end
	}
	return s
}

func (s *Simulation[C]) AddBody(b body.Body[C]) {
	s.bodies = append(s.bodies, b.Clone())
}

// Bodies returns copies of the initial bodies in insertion order.
func (s *Simulation[C]) Bodies() []body.Body[C] {
	out := make([]body.Body[C], len(s.bodies))
	for i, b := range s.bodies {
		out[i] = b.Clone()
	}
	return out
}

// BodyMap builds the initial snapshot.
func (s *Simulation[C]) BodyMap() (body.BodyMap[C], error) {
	return body.NewBodyMap(s.bodies...)
}

func (s *Simulation[C]) TStart() float64 { return s.tStart }
func (s *Simulation[C]) TStep() float64  { return s.tStep }

func (s *Simulation[C]) TEnd() (float64, bool) {
	if s.tEnd == nil {
		return 0, false
	}
	return *s.tEnd, true
}

// SetLaw replaces the force law. A nil law restores default gravity.
func (s *Simulation[C]) SetLaw(law physics.Law[C]) {
	if law == nil {
		law = physics.NewGravity[C](physics.DefaultG)
	}
	s.law = law
}

func (s *Simulation[C]) Law() physics.Law[C] { return s.law }

// Validate rejects configurations whose first advance would produce NaN or
// Inf: non-positive masses, non-finite vectors, duplicate labels and
// coincident bodies.
func (s *Simulation[C]) Validate() error {
	if !(s.tStep > 0) || math.IsInf(s.tStep, 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidStep, s.tStep)
	}
	if math.IsNaN(s.tStart) || math.IsInf(s.tStart, 0) {
		return fmt.Errorf("%w: t_start %g", ErrInvalidEnd, s.tStart)
	}
	if s.tEnd != nil {
		if math.IsNaN(*s.tEnd) || math.IsInf(*s.tEnd, 0) || *s.tEnd < s.tStart {
			return fmt.Errorf("%w: t_end %g, t_start %g", ErrInvalidEnd, *s.tEnd, s.tStart)
		}
	}
	if len(s.bodies) == 0 {
		return ErrNoBodies
	}
	for _, b := range s.bodies {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	if _, err := s.BodyMap(); err != nil {
		return err
	}
	for i := range s.bodies {
		for j := i + 1; j < len(s.bodies); j++ {
			if s.bodies[i].Position.Distance(s.bodies[j].Position) == 0 {
				return fmt.Errorf("%w: %q and %q at %v", ErrCoincidentBodies,
					s.bodies[i].Label, s.bodies[j].Label, s.bodies[i].Position)
			}
		}
	}
	return nil
}

// WithStep returns a copy of s advancing by dt.
func (s *Simulation[C]) WithStep(dt float64) *Simulation[C] {
	c := s.Clone()
	c.tStep = dt
	return c
}

func (s *Simulation[C]) Clone() *Simulation[C] {
	c := &Simulation[C]{
		bodies: s.Bodies(),
		tStart: s.tStart,
		tStep:  s.tStep,
		law:    s.law,
	}
	if s.tEnd != nil {
		end := *s.tEnd
		c.tEnd = &end
	}
	return c
}
