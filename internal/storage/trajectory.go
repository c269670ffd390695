package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

// Trajectory is the position history of a run. Positions[i] holds the
// components of every body at Times[i], label-major.
type Trajectory struct {
	Labels    []string    `json:"labels"`
	Dims      int         `json:"dims"`
	Times     []float64   `json:"times"`
	Positions [][]float64 `json:"positions"`
}

func NewTrajectory(labels []string, dims int) *Trajectory {
	return &Trajectory{Labels: labels, Dims: dims}
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// Series returns one position component of one body over time.
func (tr *Trajectory) Series(label string, axis int) ([]float64, error) {
	if axis < 0 || axis >= tr.Dims {
		return nil, fmt.Errorf("storage: axis %d out of range for %d dimensions", axis, tr.Dims)
	}
	idx := -1
	for i, l := range tr.Labels {
		if l == label {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("storage: unknown body %q", label)
	}

	col := idx*tr.Dims + axis
	out := make([]float64, len(tr.Positions))
	for i, row := range tr.Positions {
		out[i] = row[col]
	}
	return out, nil
}

// Position returns the position of body idx at step i.
func (tr *Trajectory) Position(i, idx int) []float64 {
	start := idx * tr.Dims
	return tr.Positions[i][start : start+tr.Dims]
}

func (tr *Trajectory) header() []string {
	row := []string{"t"}
	for _, l := range tr.Labels {
		for i := 1; i <= tr.Dims; i++ {
			row = append(row, l+"."+strconv.Itoa(i))
		}
	}
	return row
}

// AppendStep records the positions of step. A body missing from the
// snapshot is recorded as NaN.
func AppendStep[C vector.Components](tr *Trajectory, step sim.RunStep[C]) {
	row := make([]float64, 0, len(tr.Labels)*tr.Dims)
	for _, l := range tr.Labels {
		b, ok := step.Bodies.Get(l)
		if !ok {
			for i := 0; i < tr.Dims; i++ {
				row = append(row, math.NaN())
			}
			continue
		}
		row = append(row, b.Position.Slice()...)
	}
	tr.Times = append(tr.Times, step.T)
	tr.Positions = append(tr.Positions, row)
}

// Recorder collects a Trajectory while a run is drained.
type Recorder[C vector.Components] struct {
	Trajectory *Trajectory
}

func NewRecorder[C vector.Components](labels []string) *Recorder[C] {
	return &Recorder[C]{Trajectory: NewTrajectory(labels, vector.Dims[C]())}
}

func (r *Recorder[C]) Header() error { return nil }

func (r *Recorder[C]) Write(step sim.RunStep[C]) error {
	AppendStep(r.Trajectory, step)
	return nil
}

func (r *Recorder[C]) Flush() error { return nil }

type exportData struct {
	*RunMetadata
	Trajectory *Trajectory `json:"trajectory"`
}

// ExportJSON writes meta and tr as one indented JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, tr *Trajectory) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData{RunMetadata: meta, Trajectory: tr})
}
