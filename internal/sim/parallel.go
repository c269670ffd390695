package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/san-kum/gravsim/internal/vector"
)

// Summary is the outcome of one ensemble member.
type Summary[C vector.Components] struct {
	TStep   float64
	Steps   int
	Final   RunStep[C]
	Metrics map[string]float64
}

// Ensemble runs independent copies of one configuration at several step
// sizes, one goroutine per run. Each run is single-threaded.
type Ensemble[C vector.Components] struct {
	base    *Simulation[C]
	steps   []float64
	limit   int
	metrics func() []Metric[C]
	opts    []Option
	logger  *log.Logger
}

// NewEnsemble prepares one run per entry of steps. limit caps the number of
// snapshots per run; it is required when base has no t_end.
func NewEnsemble[C vector.Components](base *Simulation[C], steps []float64, limit int) *Ensemble[C] {
	return &Ensemble[C]{
		base:   base,
		steps:  steps,
		limit:  limit,
		logger: log.Default(),
	}
}

// WithMetrics sets a factory producing fresh metrics for every run.
func (e *Ensemble[C]) WithMetrics(factory func() []Metric[C]) *Ensemble[C] {
	e.metrics = factory
	return e
}

func (e *Ensemble[C]) WithOptions(opts ...Option) *Ensemble[C] {
	e.opts = opts
	return e
}

func (e *Ensemble[C]) WithLogger(l *log.Logger) *Ensemble[C] {
	if l != nil {
		e.logger = l
	}
	return e
}

func (e *Ensemble[C]) Run(ctx context.Context) ([]Summary[C], error) {
	if _, ok := e.base.TEnd(); !ok && e.limit <= 0 {
		return nil, ErrUnbounded
	}

	results := make([]Summary[C], len(e.steps))
	errs := make([]error, len(e.steps))

	var wg sync.WaitGroup
	for i, dt := range e.steps {
		wg.Add(1)
		go func(idx int, dt float64) {
			defer wg.Done()
			results[idx], errs[idx] = e.runOne(ctx, dt)
		}(i, dt)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("t_step %g: %w", e.steps[i], err)
		}
	}

	return results, nil
}

func (e *Ensemble[C]) runOne(ctx context.Context, dt float64) (Summary[C], error) {
	var metrics []Metric[C]
	if e.metrics != nil {
		metrics = e.metrics()
	}

	run := NewOwningRun(*e.base.WithStep(dt), e.opts...)
	sum := Summary[C]{TStep: dt, Metrics: make(map[string]float64)}

	for e.limit <= 0 || sum.Steps < e.limit {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		step, ok := run.Next()
		if !ok {
			break
		}
		for _, m := range metrics {
			m.Observe(step)
		}
		sum.Final = step
		sum.Steps++
	}
	if err := run.Err(); err != nil {
		return sum, err
	}

	for _, m := range metrics {
		sum.Metrics[m.Name()] = m.Value()
	}
	e.logger.Debug("ensemble run finished", "dt", dt, "steps", sum.Steps, "t", sum.Final.T)
	return sum, nil
}
