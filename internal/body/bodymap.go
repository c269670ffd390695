package body

import (
	"fmt"
	"iter"
	"sort"

	"github.com/san-kum/gravsim/internal/vector"
)

// BodyMap is an immutable snapshot of every body at one instant, iterated
// in lexicographic label order.
type BodyMap[C vector.Components] struct {
	labels []string
	bodies map[string]Body[C]
}

func NewBodyMap[C vector.Components](bodies ...Body[C]) (BodyMap[C], error) {
	m := BodyMap[C]{
		labels: make([]string, 0, len(bodies)),
		bodies: make(map[string]Body[C], len(bodies)),
	}
	for _, b := range bodies {
		if _, ok := m.bodies[b.Label]; ok {
			return BodyMap[C]{}, fmt.Errorf("%w: %q", ErrDuplicateLabel, b.Label)
		}
		m.bodies[b.Label] = b.Clone()
		m.labels = append(m.labels, b.Label)
	}
	sort.Strings(m.labels)
	return m, nil
}

func (m BodyMap[C]) Get(label string) (Body[C], bool) {
	b, ok := m.bodies[label]
	if !ok {
		return Body[C]{}, false
	}
	return b.Clone(), true
}

func (m BodyMap[C]) Len() int { return len(m.labels) }

func (m BodyMap[C]) Labels() []string {
	return append([]string(nil), m.labels...)
}

// Bodies returns copies of all bodies in label order.
func (m BodyMap[C]) Bodies() []Body[C] {
	out := make([]Body[C], len(m.labels))
	for i, l := range m.labels {
		out[i] = m.bodies[l].Clone()
	}
	return out
}

func (m BodyMap[C]) All() iter.Seq2[string, Body[C]] {
	return func(yield func(string, Body[C]) bool) {
		for _, l := range m.labels {
			if !yield(l, m.bodies[l].Clone()) {
				return
			}
		}
	}
}

func (m BodyMap[C]) IsFinite() bool {
	for _, b := range m.bodies {
		if !b.IsFinite() {
			return false
		}
	}
	return true
}

// Map builds a new snapshot from fn applied to every body. fn must keep
// labels unchanged.
func (m BodyMap[C]) Map(fn func(Body[C]) Body[C]) BodyMap[C] {
	out := BodyMap[C]{
		labels: m.labels,
		bodies: make(map[string]Body[C], len(m.bodies)),
	}
	for _, l := range m.labels {
		out.bodies[l] = fn(m.bodies[l])
	}
	return out
}

func (m BodyMap[C]) String() string {
	s := "{"
	for i, l := range m.labels {
		if i > 0 {
			s += ", "
		}
		s += m.bodies[l].String()
	}
	return s + "}"
}
