package config

import (
	"math"
	"sort"

	"github.com/san-kum/gravsim/internal/body"
)

func f64(v float64) *float64 { return &v }

// Presets builds a fresh configuration per call so callers may modify the
// result.
var Presets = map[string]func() *Config{
	"earth-apple": func() *Config {
		return &Config{
			Simulation: SimulationConfig{
				Dimensions: 3,
				TStep:      f64(0.1),
				TEnd:       f64(10),
				Bodies: []BodyConfig{
					{
						Label:    "earth",
						Mass:     5.972e24,
						Diameter: 12756000,
						Model:    "earth",
						Spin:     &body.Spin{Velocity: 7.2921159e-5, Tilt: 0.4091},
					},
					{Label: "apple", Mass: 1, Position: []float64{0, 6379000, 0}, Diameter: 0.08, Model: "apple"},
				},
			},
			Models: map[string]ModelConfig{
				"earth": {Shape: "sphere", Texture: "earth.jpeg", Bodies: []string{"earth"}},
				"apple": {Shape: "sphere", Bodies: []string{"apple"}},
			},
		}
	},
	"binary": func() *Config {
		// equal masses on a circular orbit: v = sqrt(G·m / 4r)
		m, r := 1e24, 1e7
		v := math.Sqrt(6.67430e-11 * m / (4 * r))
		return &Config{
			Simulation: SimulationConfig{
				Dimensions: 2,
				TStep:      f64(600),
				TEnd:       f64(3e6),
				Bodies: []BodyConfig{
					{Label: "alpha", Mass: m, Position: []float64{-r, 0}, Velocity: []float64{0, -v}},
					{Label: "beta", Mass: m, Position: []float64{r, 0}, Velocity: []float64{0, v}},
				},
			},
		}
	},
	"triangle": func() *Config {
		// Lagrange equilateral solution with side L = 1, G = 1 and unit
		// masses: each body circles the centroid at v = sqrt(G·m/L)
		h := math.Sqrt(3) / 2
		v := 1.0
		cy := h / 3
		pos := [][]float64{{-0.5, -cy}, {0.5, -cy}, {0, h - cy}}
		bodies := make([]BodyConfig, 3)
		for i, label := range []string{"a", "b", "c"} {
			x, y := pos[i][0], pos[i][1]
			r := math.Hypot(x, y)
			bodies[i] = BodyConfig{
				Label:    label,
				Mass:     1,
				Position: []float64{x, y},
				Velocity: []float64{-y / r * v, x / r * v},
			}
		}
		return &Config{
			Simulation: SimulationConfig{
				Dimensions: 2,
				TStep:      f64(0.001),
				TEnd:       f64(10),
				Gravity:    f64(1),
				Bodies:     bodies,
			},
		}
	},
	"earth-moon": func() *Config {
		return &Config{
			Simulation: SimulationConfig{
				Dimensions: 3,
				TStep:      f64(60),
				TEnd:       f64(2.4e6),
				Bodies: []BodyConfig{
					{
						Label:    "earth",
						Mass:     5.972e24,
						Diameter: 12756000,
						Model:    "earth",
						Spin:     &body.Spin{Velocity: 7.2921159e-5, Tilt: 0.4091},
					},
					{
						Label:    "moon",
						Mass:     7.342e22,
						Position: []float64{3.844e8, 0, 0},
						Velocity: []float64{0, 1022, 0},
						Diameter: 3474800,
						Model:    "moon",
						Spin:     &body.Spin{Velocity: 2.6617e-6, Tilt: 0.1167},
					},
				},
			},
			Models: map[string]ModelConfig{
				"earth": {Shape: "sphere", Texture: "earth.jpeg", Bodies: []string{"earth"}},
				"moon":  {Shape: "sphere", Texture: "moon.jpeg", Bodies: []string{"moon"}},
			},
		}
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
