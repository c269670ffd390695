package physics

import (
	"math"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/vector"
)

func KineticEnergy[C vector.Components](bodies []body.Body[C]) float64 {
	var ke float64
	for _, b := range bodies {
		ke += 0.5 * b.Mass * b.Velocity.Dot(b.Velocity)
	}
	return ke
}

// PotentialEnergy sums -G·m1·m2/r over all pairs, with the same softening
// Gravity uses.
func PotentialEnergy[C vector.Components](g, softening float64, bodies []body.Body[C]) float64 {
	var pe float64
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			d := bodies[i].Position.Distance(bodies[j].Position)
			r := math.Sqrt(d*d + softening*softening)
			pe -= g * bodies[i].Mass * bodies[j].Mass / r
		}
	}
	return pe
}

func TotalEnergy[C vector.Components](g, softening float64, bodies []body.Body[C]) float64 {
	return KineticEnergy(bodies) + PotentialEnergy(g, softening, bodies)
}

func Momentum[C vector.Components](bodies []body.Body[C]) vector.Vector[C] {
	var p vector.Vector[C]
	for _, b := range bodies {
		p = p.Add(b.Velocity.Scale(b.Mass))
	}
	return p
}

// CenterOfMass returns the mass-weighted mean position, or the zero vector
// when the total mass is zero.
func CenterOfMass[C vector.Components](bodies []body.Body[C]) vector.Vector[C] {
	var sum vector.Vector[C]
	var total float64
	for _, b := range bodies {
		sum = sum.Add(b.Position.Scale(b.Mass))
		total += b.Mass
	}
	if total == 0 {
		return sum
	}
	return sum.Div(total)
}
