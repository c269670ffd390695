package physics

import (
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/vector"
)

// DefaultG is the gravitational constant in m³·kg⁻¹·s⁻².
const DefaultG = 6.67430e-11

// Law computes the force that from exerts on on.
type Law[C vector.Components] interface {
	Calculate(on, from body.Body[C]) body.Force[C]
}

// Gravity is Newtonian attraction. Softening adds ε² to the squared distance;
// zero gives the exact inverse-square law.
type Gravity[C vector.Components] struct {
	G         float64
	Softening float64
}

func NewGravity[C vector.Components](g float64) Gravity[C] {
	if g <= 0 {
		g = DefaultG
	}
	return Gravity[C]{G: g}
}

func (g Gravity[C]) Calculate(on, from body.Body[C]) body.Force[C] {
	d := on.Position.Distance(from.Position)
	mag := g.G * on.Mass * from.Mass / (d*d + g.Softening*g.Softening)
	return body.Force[C]{
		Label: "gravity_" + from.Label,
		V:     on.Position.Direction(from.Position).Scale(mag),
	}
}

// ForceMap holds the forces acting on each body, keyed by label.
type ForceMap[C vector.Components] map[string][]body.Force[C]

// ForcesFromBodies evaluates law once per unordered pair. Each pair
// contributes one force to each of its two bodies.
func ForcesFromBodies[C vector.Components](law Law[C], bodies []body.Body[C]) ForceMap[C] {
	fm := make(ForceMap[C], len(bodies))
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			fm[a.Label] = append(fm[a.Label], law.Calculate(a, b))
			fm[b.Label] = append(fm[b.Label], law.Calculate(b, a))
		}
	}
	return fm
}
