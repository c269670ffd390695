package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/output"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/vector"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	switch cfg.Dimensions() {
	case 1:
		return runDims[[1]float64](cfg, name, os.Stdout)
	case 2:
		return runDims[[2]float64](cfg, name, os.Stdout)
	case 3:
		return runDims[[3]float64](cfg, name, os.Stdout)
	}
	return unsupported(cfg)
}

func runDims[C vector.Components](cfg *config.Config, name string, w io.Writer) error {
	s, err := config.Build[C](cfg)
	if err != nil {
		return err
	}
	labels := cfg.Labels()

	var sink output.Tee[C]
	switch outputFormat {
	case "csv":
		sink = append(sink, output.NewCSV[C](w, labels))
	case "text":
		sink = append(sink, output.NewText[C](w))
	case "none":
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
	var rec *storage.Recorder[C]
	if save {
		rec = storage.NewRecorder[C](labels)
		sink = append(sink, rec)
	}

	ms := metrics.Default[C](cfg.G(), cfg.Simulation.Softening)
	start := time.Now()
	n, err := output.Drain[C](sim.NewRun(s, sim.WithStateValidation(!noValidate)), sink, stepLimit(cfg), ms...)
	if err != nil {
		return fmt.Errorf("run stopped after %d snapshots: %w", n, err)
	}

	values := make(map[string]float64, len(ms))
	for _, m := range ms {
		values[m.Name()] = m.Value()
	}
	log.Info("run finished", "snapshots", n, "elapsed", time.Since(start).Round(time.Millisecond))
	for _, m := range ms {
		log.Debug("metric", "name", m.Name(), "value", m.Value())
	}

	if !save {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(name, metadata(cfg, n, values), rec.Trajectory)
	if err != nil {
		return err
	}
	log.Info("saved run", "id", id)
	return nil
}

func metadata(cfg *config.Config, n int, values map[string]float64) storage.RunMetadata {
	meta := storage.RunMetadata{
		Dimensions: cfg.Dimensions(),
		TStart:     cfg.TStart(),
		TStep:      cfg.TStep(),
		Gravity:    cfg.G(),
		Softening:  cfg.Simulation.Softening,
		Steps:      n,
		Metrics:    values,
	}
	if end, ok := cfg.TEnd(); ok {
		meta.TEnd = &end
	}
	for _, b := range cfg.Simulation.Bodies {
		meta.Bodies = append(meta.Bodies, storage.BodyInfo{Label: b.Label, Mass: b.Mass, Diameter: b.Diameter})
	}
	return meta
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIMS\tBODIES\tT_STEP\tT_END\tG")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		end := "-"
		if e, ok := cfg.TEnd(); ok {
			end = fmt.Sprintf("%g", e)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%g\t%s\t%g\n", name, cfg.Dimensions(), len(cfg.Simulation.Bodies), cfg.TStep(), end, cfg.G())
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return fmt.Errorf("%w: %s", config.ErrUnknownPreset, preset)
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	log.Info("wrote configuration", "path", args[0], "preset", preset)
	return nil
}
