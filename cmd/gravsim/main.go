package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/config"
)

// defaultSteps caps runs whose configuration has no t_end.
const defaultSteps = 1000

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	tStep      float64
	tEnd       float64
	maxSteps   int
	noValidate bool

	outputFormat string
	save         bool

	xAxis   int
	yAxis   int
	axis    int
	label   string
	outFile string
	width   int
	height  int
	braille bool

	frameRate     int
	stepsPerFrame int
	theme         string
	trailLength   int
	addr          string

	steps        []float64
	perturbation float64
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "gravsim",
		Short:             "n-body gravity simulator",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and print its snapshots",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	simFlags(runCmd)
	runCmd.Flags().StringVarP(&outputFormat, "output", "o", "csv", "output format (csv, text, none)")
	runCmd.Flags().BoolVar(&save, "save", false, "save the run under the data directory")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in configurations",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a configuration file from a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "earth-apple", "preset to write")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one position component of every body",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&axis, "axis", 0, "position component to plot")
	plotCmd.Flags().StringVar(&label, "body", "", "plot only this body")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "f", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw a saved run's trajectories as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "f", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&xAxis, "x-axis", 0, "position component on the x axis")
	exportSVGCmd.Flags().IntVar(&yAxis, "y-axis", 1, "position component on the y axis (time when out of range)")
	exportSVGCmd.Flags().IntVar(&width, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 600, "image height")
	exportSVGCmd.Flags().BoolVar(&braille, "braille", false, "render the final frame through the 3D camera as dots")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate orbital periods of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	simFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().IntVar(&stepsPerFrame, "speed", 1, "simulation steps per frame")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")
	liveCmd.Flags().IntVar(&trailLength, "trail", 200, "trail length in frames")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream simulation frames over websockets",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	simFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&frameRate, "fps", 30, "frames per second per client")
	serveCmd.Flags().IntVar(&stepsPerFrame, "speed", 1, "simulation steps per frame")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare conservation metrics across step sizes",
		Args:  cobra.NoArgs,
		RunE:  compareSteps,
	}
	simFlags(compareCmd)
	compareCmd.Flags().Float64SliceVar(&steps, "dt", []float64{1, 0.1, 0.01}, "step sizes to compare")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [body]",
		Short: "measure how a small displacement of one body grows",
		Args:  cobra.ExactArgs(1),
		RunE:  measureDivergence,
	}
	simFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-6, "initial displacement along the first axis")

	rootCmd.AddCommand(runCmd, presetsCmd, initCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, analyzeCmd, liveCmd, serveCmd, compareCmd, lyapunovCmd)
	return rootCmd
}

// simFlags registers the flags that select and adjust a configuration.
func simFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (yaml, or ini/gcfg)")
	cmd.Flags().StringVar(&preset, "preset", "earth-apple", "built-in configuration, ignored with --config")
	cmd.Flags().Float64Var(&tStep, "t-step", 0, "override the time step")
	cmd.Flags().Float64Var(&tEnd, "t-end", 0, "override the end time")
	cmd.Flags().IntVar(&maxSteps, "steps", 0, fmt.Sprintf("maximum snapshots (default %d when there is no t_end)", defaultSteps))
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip the per-step finiteness check")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetReportTimestamp(false)
	return nil
}

// loadConfig resolves --config or --preset and applies overrides. The
// returned name identifies the run when it is saved.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		name string
		err  error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", configFile, err)
		}
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("%w: %s (available: %s)", config.ErrUnknownPreset, preset, strings.Join(config.ListPresets(), ", "))
		}
		name = preset
	}

	if cmd.Flags().Changed("t-step") {
		cfg.Simulation.TStep = &tStep
	}
	if cmd.Flags().Changed("t-end") {
		cfg.Simulation.TEnd = &tEnd
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	log.Debug("loaded configuration", "name", name, "dimensions", cfg.Dimensions(), "bodies", len(cfg.Simulation.Bodies))
	return cfg, name, nil
}

// stepLimit is the snapshot cap for a run of cfg. Zero means run to t_end.
func stepLimit(cfg *config.Config) int {
	if maxSteps > 0 {
		return maxSteps
	}
	if _, ok := cfg.TEnd(); !ok {
		log.Warn("no t_end configured, capping the run", "steps", defaultSteps)
		return defaultSteps
	}
	return 0
}

func unsupported(cfg *config.Config) error {
	return fmt.Errorf("%w: %d", config.ErrDimension, cfg.Dimensions())
}
