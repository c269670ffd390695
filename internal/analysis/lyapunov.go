package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

// DivergenceResult is the separation history of two nearby runs.
type DivergenceResult struct {
	Times      []float64
	Separation []float64
	// Exponent is ln(d(T)/d(0)) / (T - t0), the finite-time estimate of the
	// largest Lyapunov exponent.
	Exponent float64
}

// Divergence runs s next to a copy whose body label is displaced by
// perturbation along the first axis, and measures how the two systems
// separate. The separation is the Euclidean norm over all body positions.
// Both runs stop at t_end or after steps snapshots, whichever is first.
func Divergence[C vector.Components](s *sim.Simulation[C], label string, perturbation float64, steps int) (*DivergenceResult, error) {
	if !(perturbation > 0) {
		return nil, fmt.Errorf("analysis: perturbation must be positive, got %g", perturbation)
	}

	shifted := sim.New[C](simConfig(s))
	shifted.SetLaw(s.Law())
	found := false
	for _, b := range s.Bodies() {
		if b.Label == label {
			var delta C
			delta[0] = perturbation
			b.Position = b.Position.Add(vector.From(delta))
			found = true
		}
		shifted.AddBody(b)
	}
	if !found {
		return nil, fmt.Errorf("analysis: unknown body %q", label)
	}

	base := sim.NewRun(s)
	pert := sim.NewRun(shifted)
	res := &DivergenceResult{}

	for steps <= 0 || len(res.Times) < steps {
		a, ok := base.Next()
		if !ok {
			break
		}
		b, ok := pert.Next()
		if !ok {
			break
		}
		res.Times = append(res.Times, a.T)
		res.Separation = append(res.Separation, separation(a.Bodies, b.Bodies))
	}
	if err := base.Err(); err != nil {
		return nil, err
	}
	if err := pert.Err(); err != nil {
		return nil, err
	}

	n := len(res.Times)
	if n < 2 {
		return nil, ErrTooShort
	}
	d0, dT := res.Separation[0], res.Separation[n-1]
	if d0 > 0 && dT > 0 {
		res.Exponent = math.Log(dT/d0) / (res.Times[n-1] - res.Times[0])
	}
	return res, nil
}

func simConfig[C vector.Components](s *sim.Simulation[C]) sim.Config {
	cfg := sim.Config{TStart: s.TStart(), TStep: s.TStep()}
	if end, ok := s.TEnd(); ok {
		cfg.TEnd = &end
	}
	return cfg
}

func separation[C vector.Components](a, b body.BodyMap[C]) float64 {
	var sum float64
	for label, ba := range a.All() {
		bb, ok := b.Get(label)
		if !ok {
			continue
		}
		d := ba.Position.Distance(bb.Position)
		sum += d * d
	}
	return math.Sqrt(sum)
}
