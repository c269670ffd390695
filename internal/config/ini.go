package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/san-kum/gravsim/internal/body"
)

// ExampleINI documents the flat gcfg form of a configuration.
const ExampleINI = `[simulation]
dimensions = 2
t-step = 0.1
t-end = 10
# gravity = 6.6743e-11
# softening = 0

[body "earth"]
mass = 5.972e24
diameter = 12756000

[body "apple"]
mass = 1
position = 0 6379000
velocity = 0 0`

// optFloat is a float that remembers whether it was set.
type optFloat struct {
	v   float64
	set bool
}

func (o *optFloat) UnmarshalText(text []byte) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(text)), 64)
	if err != nil {
		return err
	}
	o.v, o.set = f, true
	return nil
}

func (o optFloat) ptr() *float64 {
	if !o.set {
		return nil
	}
	v := o.v
	return &v
}

// floatList is a whitespace or comma separated list of floats.
type floatList []float64

func (l *floatList) UnmarshalText(text []byte) error {
	fields := strings.FieldsFunc(string(text), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make(floatList, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

type iniSimulation struct {
	Dimensions int
	TStart     optFloat `gcfg:"t-start"`
	TStep      optFloat `gcfg:"t-step"`
	TEnd       optFloat `gcfg:"t-end"`
	Gravity    optFloat
	Softening  float64
}

type iniBody struct {
	Mass         float64
	Position     floatList
	Velocity     floatList
	Diameter     float64
	Model        string
	SpinAngle    optFloat `gcfg:"spin-angle"`
	SpinVelocity optFloat `gcfg:"spin-velocity"`
	SpinTilt     optFloat `gcfg:"spin-tilt"`
}

type iniFile struct {
	Simulation iniSimulation
	Body       map[string]*iniBody
}

// LoadINI reads a gcfg file with one [simulation] section and one
// [body "<label>"] subsection per body. Bodies are declared in label order.
func LoadINI(path string) (*Config, error) {
	var f iniFile
	if err := gcfg.ReadFileInto(&f, path); err != nil {
		return nil, &Error{Err: fmt.Errorf("config: %w", err)}
	}
	return f.config()
}

// ParseINI is LoadINI for an in-memory document.
func ParseINI(text string) (*Config, error) {
	var f iniFile
	if err := gcfg.ReadStringInto(&f, text); err != nil {
		return nil, &Error{Err: fmt.Errorf("config: %w", err)}
	}
	return f.config()
}

func (f *iniFile) config() (*Config, error) {
	cfg := &Config{
		Simulation: SimulationConfig{
			Dimensions: f.Simulation.Dimensions,
			TStart:     f.Simulation.TStart.ptr(),
			TStep:      f.Simulation.TStep.ptr(),
			TEnd:       f.Simulation.TEnd.ptr(),
			Gravity:    f.Simulation.Gravity.ptr(),
			Softening:  f.Simulation.Softening,
		},
	}

	labels := make([]string, 0, len(f.Body))
	for label := range f.Body {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		b := f.Body[label]
		bc := BodyConfig{
			Label:    label,
			Mass:     b.Mass,
			Position: b.Position,
			Velocity: b.Velocity,
			Diameter: b.Diameter,
			Model:    b.Model,
		}
		if b.SpinAngle.set || b.SpinVelocity.set || b.SpinTilt.set {
			bc.Spin = &body.Spin{Angle: b.SpinAngle.v, Velocity: b.SpinVelocity.v, Tilt: b.SpinTilt.v}
		}
		cfg.Simulation.Bodies = append(cfg.Simulation.Bodies, bc)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
