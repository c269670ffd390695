package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

// Instance is what a renderer needs to draw one body. It is a copy: nothing
// a renderer does to it reaches the simulation.
type Instance struct {
	Label    string
	Position mgl64.Vec3
	Diameter float64
	Angle    float64
	Tilt     float64
	// Model maps the unit shape into scene space:
	// T(p/scale) · Rz(tilt) · Ry(angle) · S(diameter/scale).
	Model mgl64.Mat4
}

// Center is the instance's position in scene space.
func (in Instance) Center() mgl64.Vec3 {
	return in.Model.Col(3).Vec3()
}

type Frame struct {
	T         float64
	Scale     float64
	Instances []Instance
}

// Position3 embeds a 1D or 2D position in the z = 0 plane.
func Position3[C vector.Components](v vector.Vector[C]) mgl64.Vec3 {
	var p mgl64.Vec3
	for i := 0; i < v.Dim(); i++ {
		p[i] = v.At(i)
	}
	return p
}

// FrameFrom converts a snapshot into per-body instances. Positions and
// diameters are divided by scale.
func FrameFrom[C vector.Components](step sim.RunStep[C], scale float64) Frame {
	if !(scale > 0) {
		scale = 1
	}
	f := Frame{T: step.T, Scale: scale, Instances: make([]Instance, 0, step.Bodies.Len())}
	for label, b := range step.Bodies.All() {
		in := Instance{
			Label:    label,
			Position: Position3(b.Position),
			Diameter: b.Diameter,
		}
		if b.Spin != nil {
			in.Angle = b.Spin.Angle
			in.Tilt = b.Spin.Tilt
		}
		size := in.Diameter / scale
		in.Model = mgl64.Translate3D(in.Position.Mul(1 / scale).Elem()).
			Mul4(mgl64.HomogRotate3DZ(in.Tilt)).
			Mul4(mgl64.HomogRotate3DY(in.Angle)).
			Mul4(mgl64.Scale3D(size, size, size))
		f.Instances = append(f.Instances, in)
	}
	return f
}

// Extent is the largest distance of any body from the origin.
func Extent[C vector.Components](step sim.RunStep[C]) float64 {
	var ext float64
	for _, b := range step.Bodies.All() {
		ext = math.Max(ext, b.Position.Magnitude()+b.Diameter/2)
	}
	return ext
}

// Source yields frames until its run ends.
type Source interface {
	NextFrame() (Frame, bool)
	Err() error
	Reset()
}

// FrameSource adapts a stepper into a Source.
type FrameSource[C vector.Components] struct {
	st        sim.Stepper[C]
	scale     float64
	autoScale bool
}

// NewFrameSource converts each snapshot of st with the given scale. A
// scale <= 0 is derived from the first snapshot so that every body starts
// inside the unit sphere.
func NewFrameSource[C vector.Components](st sim.Stepper[C], scale float64) *FrameSource[C] {
	return &FrameSource[C]{st: st, scale: scale, autoScale: !(scale > 0)}
}

func (s *FrameSource[C]) NextFrame() (Frame, bool) {
	step, ok := s.st.Next()
	if !ok {
		return Frame{}, false
	}
	if s.autoScale && !(s.scale > 0) {
		s.scale = math.Max(Extent(step)*1.25, math.SmallestNonzeroFloat64)
	}
	return FrameFrom(step, s.scale), true
}

func (s *FrameSource[C]) Err() error { return s.st.Err() }

func (s *FrameSource[C]) Reset() {
	s.st.Reset()
	if s.autoScale {
		s.scale = 0
	}
}
