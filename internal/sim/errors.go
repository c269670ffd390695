package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/gravsim/internal/body"
)

var (
	// ErrNoBodies indicates a simulation with an empty population.
	ErrNoBodies = errors.New("sim: simulation has no bodies")

	// ErrInvalidStep indicates a t_step that is not positive and finite.
	ErrInvalidStep = errors.New("sim: t_step must be positive and finite")

	// ErrInvalidEnd indicates a t_end before t_start, or a non-finite bound.
	ErrInvalidEnd = errors.New("sim: invalid time bounds")

	// ErrCoincidentBodies indicates two bodies at the same position.
	ErrCoincidentBodies = errors.New("sim: coincident bodies")

	// ErrInvalidState indicates a snapshot containing NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrUnbounded indicates a run without t_end and without a step limit.
	ErrUnbounded = errors.New("sim: run has no t_end and no step limit")

	ErrDuplicateLabel  = body.ErrDuplicateLabel
	ErrNonPositiveMass = body.ErrNonPositiveMass
	ErrNonFinite       = body.ErrNonFinite
)

// StepError wraps an error with the step that produced it.
type StepError struct {
	Step int
	T    float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%g): %v", e.Step, e.T, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
