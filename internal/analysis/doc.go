// Package analysis provides orbit analysis tools.
//
//   - [PowerSpectrum]: zero-padded FFT magnitude of a sampled series
//   - [DominantPeriod]: strongest oscillation period of a position series
//   - [Divergence]: finite-time Lyapunov exponent from two nearby runs
//
// # Chaos Detection
//
// A positive exponent that persists as the horizon grows indicates chaotic
// motion:
//
//	d, _ := analysis.Divergence(s, "c", 1e-6, 10000)
//	if d.Exponent > 0 {
//	    // sensitive to initial conditions
//	}
package analysis
