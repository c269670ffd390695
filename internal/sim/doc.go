// Package sim turns a Simulation into a time-ordered sequence of immutable
// body snapshots.
//
//   - [Simulation]: initial bodies plus t_start, t_step and an optional t_end
//   - [Run]: stepper that borrows a Simulation
//   - [OwningRun]: stepper that owns a private copy of its Simulation
//   - [Ensemble]: independent runs of one configuration at several step sizes
//
// # Stepping
//
// The first snapshot is the initial configuration at t_start. Snapshot k is
// stamped t_start + k·t_step, and t_end is inclusive:
//
//	run := sim.NewRun(s)
//	for step := range run.Steps() {
//	    fmt.Println(step.T, step.Bodies)
//	}
//	if err := run.Err(); err != nil {
//	    // invalid configuration or a NaN/Inf snapshot
//	}
//
// Every advance computes all pairwise forces from the current snapshot
// before any body moves.
//
// # Thread Safety
//
// Steppers are NOT thread-safe. Snapshots are never mutated after they are
// emitted and may be shared freely.
package sim
