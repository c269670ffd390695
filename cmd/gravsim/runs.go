package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/export"
	"github.com/san-kum/gravsim/internal/render"
	"github.com/san-kum/gravsim/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tDIMS\tBODIES\tSTEPS\tT_STEP\tENERGY_DRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%g\t%.3g\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Dimensions,
			len(run.Bodies),
			run.Steps,
			run.TStep,
			run.Metrics["energy_drift"],
		)
	}

	return w.Flush()
}

func loadRun(id string) (*storage.RunMetadata, *storage.Trajectory, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	tr, err := st.LoadTrajectory(id)
	if err != nil {
		return nil, nil, err
	}
	if tr.Len() == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", id)
	}
	return meta, tr, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("samples: %d\n\n", tr.Len())

	for _, l := range tr.Labels {
		if label != "" && l != label {
			continue
		}
		data, err := tr.Series(l, axis)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s.%d vs time", l, axis+1)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	var w io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return storage.ExportJSON(w, meta, tr)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	var svg string
	if braille {
		svg = export.CanvasToSVG(finalFrame(meta, tr, width/4, height/8), 2)
	} else {
		svg, err = export.TrajectoriesToSVG(tr, xAxis, yAxis, width, height)
		if err != nil {
			return err
		}
	}

	path := outFile
	if path == "" {
		path = meta.ID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	log.Info("exported", "path", path)
	return nil
}

// finalFrame draws the last sample of tr, with every earlier sample as a
// trail, on a canvas of w x h cells.
func finalFrame(meta *storage.RunMetadata, tr *storage.Trajectory, w, h int) *render.Canvas {
	last := tr.Len() - 1
	diameters := make(map[string]float64, len(meta.Bodies))
	for _, b := range meta.Bodies {
		diameters[b.Label] = b.Diameter
	}

	point := func(i, idx int) mgl64.Vec3 {
		var p mgl64.Vec3
		copy(p[:], tr.Position(i, idx))
		return p
	}

	var ext float64
	for idx := range tr.Labels {
		ext = math.Max(ext, point(last, idx).Len()+diameters[tr.Labels[idx]]/2)
	}
	scale := math.Max(ext*1.25, math.SmallestNonzeroFloat64)

	f := render.Frame{T: tr.Times[last], Scale: scale}
	trails := make([][]mgl64.Vec3, len(tr.Labels))
	for idx, l := range tr.Labels {
		p := point(last, idx)
		size := diameters[l] / scale
		f.Instances = append(f.Instances, render.Instance{
			Label:    l,
			Position: p,
			Diameter: diameters[l],
			Model:    mgl64.Translate3D(p.Mul(1 / scale).Elem()).Mul4(mgl64.Scale3D(size, size, size)),
		})
		for i := 0; i < last; i++ {
			trails[idx] = append(trails[idx], point(i, idx).Mul(1/scale))
		}
	}

	cv := render.NewCanvas(w, h)
	render.Draw(cv, render.NewCamera(), f, trails)
	return cv
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d, t_step: %g\n\n", tr.Len(), meta.TStep)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tAXIS\tPERIOD\tFREQUENCY")
	for _, l := range tr.Labels {
		for ax := 0; ax < tr.Dims; ax++ {
			series, err := tr.Series(l, ax)
			if err != nil {
				return err
			}
			period, err := analysis.DominantPeriod(tr.Times, series)
			switch {
			case errors.Is(err, analysis.ErrNoSignal), errors.Is(err, analysis.ErrTooShort):
				fmt.Fprintf(w, "%s\t%d\t-\t-\n", l, ax+1)
				continue
			case err != nil:
				return fmt.Errorf("%s.%d: %w", l, ax+1, err)
			}
			fmt.Fprintf(w, "%s\t%d\t%.6g\t%.6g\n", l, ax+1, period, 1/period)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(meta.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		for _, name := range []string{"energy_drift", "momentum_drift", "com_drift", "min_separation"} {
			if v, ok := meta.Metrics[name]; ok {
				fmt.Printf("  %s: %.6g\n", name, v)
			}
		}
	}
	return nil
}
