// Package body defines the simulated point mass and the label-ordered
// snapshot of a whole system.
package body

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/vector"
)

var (
	// ErrDuplicateLabel indicates two bodies share a label.
	ErrDuplicateLabel = errors.New("body: duplicate label")

	// ErrNonPositiveMass indicates a mass that is zero, negative or NaN.
	ErrNonPositiveMass = errors.New("body: mass must be positive")

	// ErrNonFinite indicates a NaN or Inf component in a body's state.
	ErrNonFinite = errors.New("body: non-finite state")
)

// Force is one labelled contribution to the net force on a body.
type Force[C vector.Components] struct {
	Label string
	V     vector.Vector[C]
}

func (f Force[C]) Magnitude() float64 { return f.V.Magnitude() }

// Spin is the kinematic rotation of a body. It has no effect on gravity.
type Spin struct {
	Angle    float64 `json:"angle" yaml:"angle"`
	Velocity float64 `json:"velocity" yaml:"velocity"`
	Tilt     float64 `json:"tilt" yaml:"tilt"`
}

type Body[C vector.Components] struct {
	Label    string           `json:"label"`
	Mass     float64          `json:"mass"`
	Position vector.Vector[C] `json:"position"`
	Velocity vector.Vector[C] `json:"velocity"`
	Spin     *Spin            `json:"spin,omitempty"`
	Diameter float64          `json:"diameter,omitempty"`
	Model    string           `json:"model,omitempty"`

	// Forces holds the contributions computed for the current step only.
	Forces []Force[C] `json:"-"`
}

// WithForces returns a copy of b carrying exactly fs.
func (b Body[C]) WithForces(fs []Force[C]) Body[C] {
	b.Forces = append([]Force[C](nil), fs...)
	return b
}

func (b Body[C]) NetForce() vector.Vector[C] {
	var net vector.Vector[C]
	for _, f := range b.Forces {
		net = net.Add(f.V)
	}
	return net
}

// Integrate advances b by dt under its current forces with the constant
// acceleration update
//
//	p' = p + v·dt + ½·a·dt²
//	v' = v + a·dt
//
// A zero net force gives zero acceleration. The receiver is not modified.
func (b Body[C]) Integrate(dt float64) Body[C] {
	net := b.NetForce()

	var accel vector.Vector[C]
	if mag := net.Magnitude(); mag != 0 {
		accel = net.Normalize().Scale(mag / b.Mass)
	}

	disp := b.Velocity.Scale(dt).Add(accel.Scale(0.5 * dt * dt))

	next := b
	next.Position = b.Position.Add(disp)
	next.Velocity = b.Velocity.Add(accel.Scale(dt))
	next.Forces = append([]Force[C](nil), b.Forces...)
	if b.Spin != nil {
		s := *b.Spin
		s.Angle += dt * s.Velocity
		next.Spin = &s
	}
	return next
}

// Validate rejects bodies that would poison the integration.
func (b Body[C]) Validate() error {
	if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
		return fmt.Errorf("%w: %q has mass %g", ErrNonPositiveMass, b.Label, b.Mass)
	}
	if !b.IsFinite() {
		return fmt.Errorf("%w: %q", ErrNonFinite, b.Label)
	}
	return nil
}

func (b Body[C]) IsFinite() bool {
	if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
		return false
	}
	if b.Spin != nil {
		for _, x := range []float64{b.Spin.Angle, b.Spin.Velocity, b.Spin.Tilt} {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}

// Clone returns a copy that shares no memory with b.
func (b Body[C]) Clone() Body[C] {
	if b.Spin != nil {
		s := *b.Spin
		b.Spin = &s
	}
	b.Forces = append([]Force[C](nil), b.Forces...)
	return b
}

func (b Body[C]) String() string {
	return fmt.Sprintf("%s{m=%g p=%v v=%v}", b.Label, b.Mass, b.Position, b.Velocity)
}
