package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

const DefaultDimensions = 3

var (
	ErrMissingField  = errors.New("config: missing required field")
	ErrInvalidValue  = errors.New("config: invalid value")
	ErrDimension     = errors.New("config: dimension mismatch")
	ErrUnknownPreset = errors.New("config: unknown preset")
)

// Error locates a configuration failure.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fieldError(field string, err error, format string, args ...any) *Error {
	if format == "" {
		return &Error{Field: field, Err: err}
	}
	return &Error{Field: field, Err: fmt.Errorf("%w: "+format, append([]any{err}, args...)...)}
}

type Config struct {
	Simulation SimulationConfig       `yaml:"simulation"`
	Models     map[string]ModelConfig `yaml:"models,omitempty"`
}

type SimulationConfig struct {
	Dimensions int          `yaml:"dimensions,omitempty"`
	TStart     *float64     `yaml:"t_start,omitempty"`
	TStep      *float64     `yaml:"t_step,omitempty"`
	TEnd       *float64     `yaml:"t_end,omitempty"`
	Gravity    *float64     `yaml:"gravity,omitempty"`
	Softening  float64      `yaml:"softening,omitempty"`
	Bodies     []BodyConfig `yaml:"bodies"`
}

type BodyConfig struct {
	Label    string     `yaml:"label"`
	Mass     float64    `yaml:"mass"`
	Position []float64  `yaml:"position,flow,omitempty"`
	Velocity []float64  `yaml:"velocity,flow,omitempty"`
	Diameter float64    `yaml:"diameter,omitempty"`
	Model    string     `yaml:"model,omitempty"`
	Spin     *body.Spin `yaml:"spin,omitempty"`
}

// ModelConfig describes how a renderer draws a group of bodies.
type ModelConfig struct {
	Shape   string   `yaml:"shape"`
	Texture string   `yaml:"texture,omitempty"`
	Bodies  []string `yaml:"bodies,flow,omitempty"`
}

func (c *Config) Dimensions() int {
	if c.Simulation.Dimensions == 0 {
		return DefaultDimensions
	}
	return c.Simulation.Dimensions
}

func (c *Config) G() float64 {
	if c.Simulation.Gravity == nil {
		return physics.DefaultG
	}
	return *c.Simulation.Gravity
}

func (c *Config) TStart() float64 {
	if c.Simulation.TStart == nil {
		return sim.DefaultTStart
	}
	return *c.Simulation.TStart
}

func (c *Config) TStep() float64 {
	if c.Simulation.TStep == nil {
		return sim.DefaultTStep
	}
	return *c.Simulation.TStep
}

func (c *Config) TEnd() (float64, bool) {
	if c.Simulation.TEnd == nil {
		return 0, false
	}
	return *c.Simulation.TEnd, true
}

// Labels returns body labels in declaration order.
func (c *Config) Labels() []string {
	out := make([]string, len(c.Simulation.Bodies))
	for i, b := range c.Simulation.Bodies {
		out[i] = b.Label
	}
	return out
}

// Validate checks the document shape. Physical checks that depend on body
// positions, such as coincident bodies, are left to sim.Simulation.
func (c *Config) Validate() error {
	s := c.Simulation
	dims := c.Dimensions()
	if dims < 1 || dims > 3 {
		return fieldError("simulation.dimensions", ErrInvalidValue, "%d not in 1..3", dims)
	}
	if s.TStep != nil && !(*s.TStep > 0) {
		return fieldError("simulation.t_step", ErrInvalidValue, "must be positive, got %g", *s.TStep)
	}
	if end, ok := c.TEnd(); ok && end < c.TStart() {
		return fieldError("simulation.t_end", ErrInvalidValue, "%g precedes t_start %g", end, c.TStart())
	}
	if s.Gravity != nil && !(*s.Gravity > 0) {
		return fieldError("simulation.gravity", ErrInvalidValue, "must be positive, got %g", *s.Gravity)
	}
	if s.Softening < 0 {
		return fieldError("simulation.softening", ErrInvalidValue, "must not be negative, got %g", s.Softening)
	}
	if len(s.Bodies) == 0 {
		return fieldError("simulation.bodies", ErrMissingField, "")
	}

	seen := make(map[string]bool, len(s.Bodies))
	for i, b := range s.Bodies {
		field := fmt.Sprintf("simulation.bodies[%d]", i)
		if b.Label == "" {
			return fieldError(field+".label", ErrMissingField, "")
		}
		if seen[b.Label] {
			return fieldError(field+".label", ErrInvalidValue, "duplicate label %q", b.Label)
		}
		seen[b.Label] = true
		if !(b.Mass > 0) {
			return fieldError(field+".mass", ErrInvalidValue, "must be positive, got %g", b.Mass)
		}
		if n := len(b.Position); n != 0 && n != dims {
			return fieldError(field+".position", ErrDimension, "got %d components, want %d", n, dims)
		}
		if n := len(b.Velocity); n != 0 && n != dims {
			return fieldError(field+".velocity", ErrDimension, "got %d components, want %d", n, dims)
		}
	}

	for name, m := range c.Models {
		for _, label := range m.Bodies {
			if !seen[label] {
				return fieldError("models."+name+".bodies", ErrInvalidValue, "unknown body %q", label)
			}
		}
	}
	return nil
}

// Load reads a YAML document, or a gcfg file when path ends in .ini or .gcfg.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".gcfg":
		return LoadINI(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document. Unknown fields are errors.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fieldError("simulation", ErrMissingField, "")
		}
		return nil, &Error{Err: fmt.Errorf("config: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Build converts cfg into a simulation of dimension len(C).
func Build[C vector.Components](cfg *Config) (*sim.Simulation[C], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dims := vector.Dims[C](); dims != cfg.Dimensions() {
		return nil, fieldError("simulation.dimensions", ErrDimension, "document has %d, built %d", cfg.Dimensions(), dims)
	}

	sc := sim.Config{TStart: cfg.TStart(), TStep: cfg.TStep()}
	if end, ok := cfg.TEnd(); ok {
		sc.TEnd = &end
	}
	s := sim.New[C](sc)
	s.SetLaw(physics.Gravity[C]{G: cfg.G(), Softening: cfg.Simulation.Softening})

	for i, bc := range cfg.Simulation.Bodies {
		pos, err := vector.FromSlice[C](bc.Position)
		if err != nil {
			return nil, fieldError(fmt.Sprintf("simulation.bodies[%d].position", i), err, "")
		}
		vel, err := vector.FromSlice[C](bc.Velocity)
		if err != nil {
			return nil, fieldError(fmt.Sprintf("simulation.bodies[%d].velocity", i), err, "")
		}
		b := body.Body[C]{
			Label:    bc.Label,
			Mass:     bc.Mass,
			Position: pos,
			Velocity: vel,
			Diameter: bc.Diameter,
			Model:    bc.Model,
		}
		if bc.Spin != nil {
			spin := *bc.Spin
			b.Spin = &spin
		}
		s.AddBody(b)
	}
	return s, nil
}
