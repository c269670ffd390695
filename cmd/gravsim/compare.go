package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var compareColumns = []string{"energy_drift", "momentum_drift", "com_drift", "min_separation"}

func compareSteps(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("comparing %d step sizes on %s\n\n", len(steps), name)
	switch cfg.Dimensions() {
	case 1:
		return compareDims[[1]float64](ctx, cfg)
	case 2:
		return compareDims[[2]float64](ctx, cfg)
	case 3:
		return compareDims[[3]float64](ctx, cfg)
	}
	return unsupported(cfg)
}

func compareDims[C vector.Components](ctx context.Context, cfg *config.Config) error {
	s, err := config.Build[C](cfg)
	if err != nil {
		return err
	}

	ens := sim.NewEnsemble(s, steps, stepLimit(cfg)).
		WithMetrics(func() []sim.Metric[C] { return metrics.Default[C](cfg.G(), cfg.Simulation.Softening) }).
		WithOptions(sim.WithStateValidation(!noValidate)).
		WithLogger(log.Default())
	results, err := ens.Run(ctx)
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(append([]string{"t_step", "snapshots", "t_final"}, compareColumns...)...)
	for _, r := range results {
		row := []string{fmt.Sprintf("%g", r.TStep), fmt.Sprintf("%d", r.Steps), fmt.Sprintf("%g", r.Final.T)}
		for _, c := range compareColumns {
			row = append(row, fmt.Sprintf("%.4g", r.Metrics[c]))
		}
		t.Row(row...)
	}
	fmt.Println(t.Render())
	return nil
}

func measureDivergence(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var res *analysis.DivergenceResult
	switch cfg.Dimensions() {
	case 1:
		res, err = divergence[[1]float64](cfg, args[0])
	case 2:
		res, err = divergence[[2]float64](cfg, args[0])
	case 3:
		res, err = divergence[[3]float64](cfg, args[0])
	default:
		return unsupported(cfg)
	}
	if err != nil {
		return err
	}

	logSep := make([]float64, 0, len(res.Separation))
	for _, d := range res.Separation {
		if d > 0 {
			logSep = append(logSep, math.Log10(d))
		}
	}
	if len(logSep) > 1 {
		fmt.Println(asciigraph.Plot(logSep,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("log10 separation vs time"),
		))
		fmt.Println()
	}
	n := len(res.Times)
	fmt.Printf("samples: %d over t = %g..%g\n", n, res.Times[0], res.Times[n-1])
	fmt.Printf("separation: %.4g -> %.4g\n", res.Separation[0], res.Separation[n-1])
	fmt.Printf("finite-time exponent: %.6g\n", res.Exponent)
	return nil
}

func divergence[C vector.Components](cfg *config.Config, label string) (*analysis.DivergenceResult, error) {
	s, err := config.Build[C](cfg)
	if err != nil {
		return nil, err
	}
	return analysis.Divergence(s, label, perturbation, stepLimit(cfg))
}
