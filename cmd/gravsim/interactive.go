package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/render"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/stream"
	"github.com/san-kum/gravsim/internal/vector"
	"github.com/san-kum/gravsim/internal/viz"
)

// frameSource builds a fresh run of cfg as a render.Source. Runs without
// t_end are not capped here: viewers stop them.
func frameSource(cfg *config.Config) (render.Source, error) {
	switch cfg.Dimensions() {
	case 1:
		return newFrameSource[[1]float64](cfg)
	case 2:
		return newFrameSource[[2]float64](cfg)
	case 3:
		return newFrameSource[[3]float64](cfg)
	}
	return nil, unsupported(cfg)
}

func newFrameSource[C vector.Components](cfg *config.Config) (render.Source, error) {
	s, err := config.Build[C](cfg)
	if err != nil {
		return nil, err
	}
	run := sim.NewOwningRun(*s, sim.WithStateValidation(!noValidate))
	return render.NewFrameSource[C](run, 0), nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := frameSource(cfg)
	if err != nil {
		return err
	}

	m := viz.NewModel(src, viz.Options{
		Title:        name,
		Theme:        theme,
		FPS:          frameRate,
		StepsPerTick: stepsPerFrame,
		TrailLength:  trailLength,
	})
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// fail fast on a configuration that cannot build
	if _, err := frameSource(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.WithPrefix("stream")
	srv := stream.NewServer(
		func() (render.Source, error) { return frameSource(cfg) },
		stream.WithFrameInterval(time.Second/time.Duration(max(frameRate, 1))),
		stream.WithStepsPerFrame(stepsPerFrame),
		stream.WithLogger(logger),
	)
	logger.Info("serving", "config", name, "ws", "ws://"+addr+"/ws")
	return srv.ListenAndServe(ctx, addr)
}
