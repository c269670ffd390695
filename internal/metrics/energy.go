package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

// EnergyDrift tracks the largest relative deviation of total energy from
// its value in the first observed snapshot.
type EnergyDrift[C vector.Components] struct {
	name          string
	g             float64
	softening     float64
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift[C vector.Components](g, softening float64) *EnergyDrift[C] {
	return &EnergyDrift[C]{
		name:      "energy_drift",
		g:         g,
		softening: softening,
	}
}

func (e *EnergyDrift[C]) Name() string { return e.name }

func (e *EnergyDrift[C]) Observe(step sim.RunStep[C]) {
	energy := physics.TotalEnergy(e.g, e.softening, step.Bodies.Bodies())

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift[C]) Value() float64 {
	return e.maxDrift
}

// Energy returns the total energy of the last observed snapshot.
func (e *EnergyDrift[C]) Energy() float64 {
	return e.currentEnergy
}

func (e *EnergyDrift[C]) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift tracks the largest change in total linear momentum,
// relative to the total scalar momentum Σ m|v| of the first snapshot.
type MomentumDrift[C vector.Components] struct {
	name     string
	initial  vector.Vector[C]
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift[C vector.Components]() *MomentumDrift[C] {
	return &MomentumDrift[C]{name: "momentum_drift"}
}

func (m *MomentumDrift[C]) Name() string { return m.name }

func (m *MomentumDrift[C]) Observe(step sim.RunStep[C]) {
	bodies := step.Bodies.Bodies()
	p := physics.Momentum(bodies)

	if m.samples == 0 {
		m.initial = p
		for _, b := range bodies {
			m.scale += b.Mass * b.Velocity.Magnitude()
		}
	}
	m.samples++

	drift := p.Distance(m.initial)
	if m.scale != 0 {
		drift /= m.scale
	}
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MomentumDrift[C]) Value() float64 { return m.maxDrift }

func (m *MomentumDrift[C]) Reset() {
	m.initial = vector.Vector[C]{}
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}

// CenterOfMassDrift tracks how far the centre of mass strays from where
// uniform motion at the initial system velocity would put it.
type CenterOfMassDrift[C vector.Components] struct {
	name     string
	origin   vector.Vector[C]
	velocity vector.Vector[C]
	t0       float64
	maxDrift float64
	samples  int
}

func NewCenterOfMassDrift[C vector.Components]() *CenterOfMassDrift[C] {
	return &CenterOfMassDrift[C]{name: "com_drift"}
}

func (c *CenterOfMassDrift[C]) Name() string { return c.name }

func (c *CenterOfMassDrift[C]) Observe(step sim.RunStep[C]) {
	bodies := step.Bodies.Bodies()
	com := physics.CenterOfMass(bodies)

	if c.samples == 0 {
		c.origin = com
		c.t0 = step.T
		var mass float64
		for _, b := range bodies {
			mass += b.Mass
		}
		if mass > 0 {
			c.velocity = physics.Momentum(bodies).Div(mass)
		}
	}
	c.samples++

	expected := c.origin.Add(c.velocity.Scale(step.T - c.t0))
	c.maxDrift = math.Max(c.maxDrift, com.Distance(expected))
}

func (c *CenterOfMassDrift[C]) Value() float64 { return c.maxDrift }

func (c *CenterOfMassDrift[C]) Reset() {
	c.origin = vector.Vector[C]{}
	c.velocity = vector.Vector[C]{}
	c.t0 = 0
	c.maxDrift = 0
	c.samples = 0
}

// Default returns the conservation metrics reported for every run.
func Default[C vector.Components](g, softening float64) []sim.Metric[C] {
	return []sim.Metric[C]{
		NewEnergyDrift[C](g, softening),
		NewMomentumDrift[C](),
		NewCenterOfMassDrift[C](),
		NewMinSeparation[C](),
	}
}
