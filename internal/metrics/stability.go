package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

// Stability is the fraction of snapshots in which every body stays within
// radius of the centre of mass.
type Stability[C vector.Components] struct {
	name       string
	radius     float64
	violations int
	samples    int
}

func NewStability[C vector.Components](radius float64) *Stability[C] {
	return &Stability[C]{
		name:   "stability",
		radius: radius,
	}
}

func (s *Stability[C]) Name() string {
	return s.name
}

func (s *Stability[C]) Observe(step sim.RunStep[C]) {
	s.samples++
	bodies := step.Bodies.Bodies()
	com := physics.CenterOfMass(bodies)
	for _, b := range bodies {
		if b.Position.Distance(com) > s.radius {
			s.violations++
			break
		}
	}
}

func (s *Stability[C]) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability[C]) Reset() {
	s.violations = 0
	s.samples = 0
}

// MinSeparation records the closest approach between any two bodies.
type MinSeparation[C vector.Components] struct {
	name string
	min  float64
}

func NewMinSeparation[C vector.Components]() *MinSeparation[C] {
	return &MinSeparation[C]{name: "min_separation", min: math.Inf(1)}
}

func (m *MinSeparation[C]) Name() string { return m.name }

func (m *MinSeparation[C]) Observe(step sim.RunStep[C]) {
	bodies := step.Bodies.Bodies()
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			m.min = math.Min(m.min, bodies[i].Position.Distance(bodies[j].Position))
		}
	}
}

// Value is +Inf until a snapshot with two or more bodies is observed.
func (m *MinSeparation[C]) Value() float64 { return m.min }

func (m *MinSeparation[C]) Reset() { m.min = math.Inf(1) }
