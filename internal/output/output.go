// Package output writes run snapshots as CSV rows or diagnostic text.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

// Adapter consumes the snapshots of one run.
type Adapter[C vector.Components] interface {
	Header() error
	Write(step sim.RunStep[C]) error
	Flush() error
}

// CSV writes one row per snapshot: t to one decimal place, then the
// position components of each body in the order given by labels.
type CSV[C vector.Components] struct {
	w      *csv.Writer
	labels []string
}

func NewCSV[C vector.Components](w io.Writer, labels []string) *CSV[C] {
	return &CSV[C]{w: csv.NewWriter(w), labels: labels}
}

// Header names N columns per body, label.1 through label.N.
func (c *CSV[C]) Header() error {
	dims := vector.Dims[C]()
	row := make([]string, 0, 1+len(c.labels)*dims)
	row = append(row, "t")
	for _, l := range c.labels {
		for i := 1; i <= dims; i++ {
			row = append(row, l+"."+strconv.Itoa(i))
		}
	}
	return c.w.Write(row)
}

// Write skips labels absent from the snapshot.
func (c *CSV[C]) Write(step sim.RunStep[C]) error {
	row := []string{strconv.FormatFloat(step.T, 'f', 1, 64)}
	for _, l := range c.labels {
		b, ok := step.Bodies.Get(l)
		if !ok {
			continue
		}
		for i := 0; i < b.Position.Dim(); i++ {
			row = append(row, strconv.FormatFloat(b.Position.At(i), 'f', -1, 64))
		}
	}
	return c.w.Write(row)
}

func (c *CSV[C]) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// Text prints each snapshot on one line as "t -> {bodies}".
type Text[C vector.Components] struct {
	w io.Writer
}

func NewText[C vector.Components](w io.Writer) *Text[C] {
	return &Text[C]{w: w}
}

func (t *Text[C]) Header() error { return nil }

func (t *Text[C]) Write(step sim.RunStep[C]) error {
	_, err := fmt.Fprintf(t.w, "%.1f -> %v\n", step.T, step.Bodies)
	return err
}

func (t *Text[C]) Flush() error { return nil }

// Tee fans every call out to each adapter in order, stopping at the first
// error.
type Tee[C vector.Components] []Adapter[C]

func (t Tee[C]) Header() error {
	for _, a := range t {
		if err := a.Header(); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee[C]) Write(step sim.RunStep[C]) error {
	for _, a := range t {
		if err := a.Write(step); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee[C]) Flush() error {
	for _, a := range t {
		if err := a.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Drain pulls up to limit snapshots (all when limit <= 0) from st into a
// and feeds each to metrics. It returns the number of snapshots written.
func Drain[C vector.Components](st sim.Stepper[C], a Adapter[C], limit int, metrics ...sim.Metric[C]) (int, error) {
	if err := a.Header(); err != nil {
		return 0, err
	}
	n := 0
	for limit <= 0 || n < limit {
		step, ok := st.Next()
		if !ok {
			break
		}
		for _, m := range metrics {
			m.Observe(step)
		}
		if err := a.Write(step); err != nil {
			return n, err
		}
		n++
	}
	if err := a.Flush(); err != nil {
		return n, err
	}
	return n, st.Err()
}
