package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
)

const earthApple = `
simulation:
  dimensions: 2
  t_step: 0.5
  t_end: 2
  bodies:
    - label: earth
      mass: 5.972e24
      diameter: 12756000
      spin: {angle: 0, velocity: 7.29e-5, tilt: 0.41}
    - label: apple
      mass: 1
      position: [0, 6379000]
models:
  earth: {shape: sphere, texture: earth.jpeg, bodies: [earth]}
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(earthApple))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if cfg.Dimensions() != 2 {
		t.Errorf("expected 2 dimensions, got %d", cfg.Dimensions())
	}
	if cfg.TStart() != 0 {
		t.Errorf("expected default t_start 0, got %f", cfg.TStart())
	}
	if cfg.TStep() != 0.5 {
		t.Errorf("expected t_step 0.5, got %f", cfg.TStep())
	}
	if end, ok := cfg.TEnd(); !ok || end != 2 {
		t.Errorf("expected t_end 2, got %f (%v)", end, ok)
	}
	if cfg.G() != physics.DefaultG {
		t.Errorf("expected default G, got %g", cfg.G())
	}
	if cfg.Simulation.Bodies[0].Spin == nil || cfg.Simulation.Bodies[0].Spin.Tilt != 0.41 {
		t.Error("expected spin on earth")
	}
	if got := cfg.Models["earth"].Texture; got != "earth.jpeg" {
		t.Errorf("expected texture earth.jpeg, got %q", got)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("simulation:\n  bodies:\n    - {label: a, mass: 1}\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Dimensions() != DefaultDimensions {
		t.Errorf("expected %d dimensions, got %d", DefaultDimensions, cfg.Dimensions())
	}
	if cfg.TStep() != sim.DefaultTStep {
		t.Errorf("expected default t_step, got %f", cfg.TStep())
	}
	if _, ok := cfg.TEnd(); ok {
		t.Error("expected unbounded run")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		want  error
		field string
	}{
		{"empty", "", ErrMissingField, "simulation"},
		{"no bodies", "simulation: {t_step: 1}", ErrMissingField, "simulation.bodies"},
		{"zero mass", "simulation:\n  bodies: [{label: a, mass: 0}]", ErrInvalidValue, "simulation.bodies[0].mass"},
		{"missing label", "simulation:\n  bodies: [{mass: 1}]", ErrMissingField, "simulation.bodies[0].label"},
		{"duplicate", "simulation:\n  bodies: [{label: a, mass: 1}, {label: a, mass: 2}]", ErrInvalidValue, "simulation.bodies[1].label"},
		{"wrong arity", "simulation:\n  dimensions: 2\n  bodies: [{label: a, mass: 1, position: [1, 2, 3]}]", ErrDimension, "simulation.bodies[0].position"},
		{"bad step", "simulation:\n  t_step: -1\n  bodies: [{label: a, mass: 1}]", ErrInvalidValue, "simulation.t_step"},
		{"end before start", "simulation:\n  t_start: 5\n  t_end: 1\n  bodies: [{label: a, mass: 1}]", ErrInvalidValue, "simulation.t_end"},
		{"bad dimensions", "simulation:\n  dimensions: 4\n  bodies: [{label: a, mass: 1}]", ErrInvalidValue, "simulation.dimensions"},
		{"unknown model body", "simulation:\n  bodies: [{label: a, mass: 1}]\nmodels:\n  m: {shape: sphere, bodies: [b]}", ErrInvalidValue, "models.m.bodies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cerr.Field)
			}
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("simulation:\n  t_stpe: 1\n  bodies: [{label: a, mass: 1}]"))
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestBuild(t *testing.T) {
	cfg, err := Parse([]byte(earthApple))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	s, err := Build[[2]float64](cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("built simulation invalid: %v", err)
	}

	bodies := s.Bodies()
	if len(bodies) != 2 {
		t.Fatalf("expected 2 bodies, got %d", len(bodies))
	}
	if bodies[1].Position.At(1) != 6379000 {
		t.Errorf("expected apple y 6379000, got %f", bodies[1].Position.At(1))
	}
	if !bodies[0].Position.IsZero() || !bodies[0].Velocity.IsZero() {
		t.Error("expected omitted vectors to default to zero")
	}

	g, ok := s.Law().(physics.Gravity[[2]float64])
	if !ok || g.G != physics.DefaultG {
		t.Errorf("expected default gravity law, got %#v", s.Law())
	}

	if _, err := Build[[3]float64](cfg); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.yaml")
	if err := Save(path, GetPreset("binary")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Dimensions() != 2 || len(cfg.Simulation.Bodies) != 2 {
		t.Errorf("unexpected config after round trip: %+v", cfg.Simulation)
	}
}

func TestLoadINI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earth.ini")
	if err := os.WriteFile(path, []byte(ExampleINI), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	labels := cfg.Labels()
	if len(labels) != 2 || labels[0] != "apple" || labels[1] != "earth" {
		t.Errorf("expected [apple earth], got %v", labels)
	}
	if cfg.TStep() != 0.1 {
		t.Errorf("expected t_step 0.1, got %f", cfg.TStep())
	}
	if cfg.Simulation.Gravity != nil {
		t.Error("expected gravity unset")
	}
	if _, err := Build[[2]float64](cfg); err != nil {
		t.Errorf("build failed: %v", err)
	}
}

func TestParseINISpin(t *testing.T) {
	cfg, err := ParseINI("[simulation]\ndimensions = 1\n[body \"a\"]\nmass = 2\nposition = 3\nspin-velocity = 0.5\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	b := cfg.Simulation.Bodies[0]
	if b.Spin == nil || b.Spin.Velocity != 0.5 {
		t.Errorf("expected spin velocity 0.5, got %+v", b.Spin)
	}
	if len(b.Position) != 1 || b.Position[0] != 3 {
		t.Errorf("expected position [3], got %v", b.Position)
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}

	for _, name := range names {
		cfg := GetPreset(name)
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: invalid preset: %v", name, err)
		}
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}

	a := GetPreset("binary")
	a.Simulation.Bodies[0].Mass = 1
	if GetPreset("binary").Simulation.Bodies[0].Mass == 1 {
		t.Error("presets share state")
	}
}

func TestTrianglePresetIsEquilateral(t *testing.T) {
	cfg := GetPreset("triangle")
	s, err := Build[[2]float64](cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	b := s.Bodies()
	for i := range b {
		j := (i + 1) % len(b)
		if d := b[i].Position.Distance(b[j].Position); math.Abs(d-1) > 1e-12 {
			t.Errorf("expected side 1, got %f", d)
		}
	}
	if com := physics.CenterOfMass(b); com.Magnitude() > 1e-12 {
		t.Errorf("expected centroid at origin, got %v", com)
	}
}
