package analysis

import (
	"errors"
	"math"
)

var (
	ErrTooShort   = errors.New("analysis: series too short")
	ErrNonUniform = errors.New("analysis: samples are not evenly spaced")
	ErrNoSignal   = errors.New("analysis: series has no oscillation")
)

// DominantPeriod returns the period of the strongest non-zero frequency in
// series, sampled at times. The mean is removed first. Resolution is
// limited by the padded length: a series must span a few periods for a
// useful estimate.
func DominantPeriod(times, series []float64) (float64, error) {
	n := len(series)
	if n < 4 || len(times) != n {
		return 0, ErrTooShort
	}

	dt := times[1] - times[0]
	if !(dt > 0) {
		return 0, ErrNonUniform
	}
	for i := 2; i < n; i++ {
		if math.Abs(times[i]-times[i-1]-dt) > 1e-6*dt {
			return 0, ErrNonUniform
		}
	}

	var mean float64
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range series {
		centered[i] = v - mean
	}

	ps := PowerSpectrum(centered)
	best := 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > ps[best] || best == 0 {
			best = k
		}
	}
	if best == 0 || ps[best] == 0 {
		return 0, ErrNoSignal
	}

	return float64(nextPow2(n)) * dt / float64(best), nil
}
