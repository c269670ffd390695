package render

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

func TestCanvas(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	assert.Equal(t, rune(0x2801), c.Grid[0][0])
	assert.Equal(t, rune(0x2880), c.Grid[0][1])
	assert.True(t, c.IsSet(3, 3))
	assert.False(t, c.IsSet(1, 1))

	c.Clear()
	assert.Equal(t, strings.Repeat(string(rune(blank)), 2)+"\n", c.String())
}

func TestDrawLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)
	for i := 0; i <= 7; i++ {
		assert.True(t, c.IsSet(i, i), "pixel %d", i)
	}
}

func TestTrackballDrag(t *testing.T) {
	tb := NewTrackball()
	assert.Equal(t, mgl64.QuatIdent(), tb.Rotation())

	tb.Start(0, 0)
	tb.Move(0.1, 0)
	assert.True(t, tb.Active())

	p := mgl64.Vec3(project(0, 0).Array())
	q := mgl64.Vec3(project(0.1, 0).Array())
	got := tb.Rotation().Rotate(p)
	assert.InDelta(t, q.X(), got.X(), 1e-12)
	assert.InDelta(t, q.Z(), got.Z(), 1e-12)

	tb.End(0.1, 0)
	assert.False(t, tb.Active())
	committed := tb.Rotation().Rotate(p)
	assert.InDelta(t, q.X(), committed.X(), 1e-12)

	tb.Reset()
	assert.Equal(t, mgl64.QuatIdent(), tb.Rotation())
}

func TestTrackballProjectIsUnit(t *testing.T) {
	for _, xy := range [][2]float64{{0, 0}, {0.3, -0.2}, {0.9, 0.9}, {-2, 1}} {
		assert.InDelta(t, 1.0, project(xy[0], xy[1]).Magnitude(), 1e-12)
	}
}

func TestFrameFrom(t *testing.T) {
	m, err := body.NewBodyMap(
		body.Body[[2]float64]{Label: "earth", Mass: 1, Diameter: 2},
		body.Body[[2]float64]{
			Label:    "moon",
			Mass:     1,
			Position: vector.New2(10, 0),
			Diameter: 1,
			Spin:     &body.Spin{Angle: math.Pi / 2, Tilt: 0.1},
		},
	)
	require.NoError(t, err)

	f := FrameFrom(sim.RunStep[[2]float64]{T: 3, Bodies: m}, 10)
	require.Len(t, f.Instances, 2)
	assert.Equal(t, 3.0, f.T)

	moon := f.Instances[1]
	assert.Equal(t, "moon", moon.Label)
	assert.Equal(t, mgl64.Vec3{10, 0, 0}, moon.Position)
	assert.InDelta(t, 1.0, moon.Center().X(), 1e-15)
	assert.Equal(t, math.Pi/2, moon.Angle)

	// a unit point on the shape's x axis is scaled to 0.1, then rotated
	// by the spin angle about y and tilted about z
	tip := moon.Model.Mul4x1(mgl64.Vec4{1, 0, 0, 1}).Vec3().Sub(moon.Center())
	assert.InDelta(t, 0.1, tip.Len(), 1e-12)
	assert.InDelta(t, -0.1, tip.Z(), 1e-12)
}

func TestFrameSourceAutoScale(t *testing.T) {
	end := 1.0
	s := sim.New[[3]float64](sim.Config{TStep: 1, TEnd: &end})
	s.AddBody(body.Body[[3]float64]{Label: "a", Mass: 1, Position: vector.New3(-4, 0, 0)})
	s.AddBody(body.Body[[3]float64]{Label: "b", Mass: 1, Position: vector.New3(4, 0, 0)})

	src := NewFrameSource[[3]float64](sim.NewRun(s), 0)
	f, ok := src.NextFrame()
	require.True(t, ok)
	assert.InDelta(t, 5.0, f.Scale, 1e-12)
	assert.InDelta(t, -0.8, f.Instances[0].Center().X(), 1e-12)

	_, ok = src.NextFrame()
	require.True(t, ok)
	_, ok = src.NextFrame()
	assert.False(t, ok)
	assert.NoError(t, src.Err())

	src.Reset()
	_, ok = src.NextFrame()
	assert.True(t, ok)
}

func TestCameraProject(t *testing.T) {
	cam := NewCamera()
	x, y, depth, ok := cam.Project(mgl64.Vec3{}, 100, 80)
	require.True(t, ok)
	assert.InDelta(t, 50, x, 1)
	assert.InDelta(t, 40, y, 1)
	assert.True(t, depth > 0 && depth < 1)

	// +y in the scene is up on screen
	_, yUp, _, ok := cam.Project(mgl64.Vec3{0, 0.5, 0}, 100, 80)
	require.True(t, ok)
	assert.Less(t, yUp, y)

	_, _, _, ok = cam.Project(mgl64.Vec3{0, 0, 10}, 100, 80)
	assert.False(t, ok, "points behind the eye are not visible")
}

func TestDraw(t *testing.T) {
	cv := NewCanvas(20, 10)
	f := Frame{Scale: 1, Instances: []Instance{{Label: "a", Diameter: 0.2, Model: mgl64.Ident4()}}}
	trail := [][]mgl64.Vec3{{{-0.5, 0, 0}, {0.5, 0, 0}}}

	Draw(cv, NewCamera(), f, trail)

	w, h := cv.PixelSize()
	assert.True(t, cv.IsSet(w/2, h/2-1) || cv.IsSet(w/2, h/2) || cv.IsSet(w/2-1, h/2))
	assert.NotEqual(t, strings.Repeat(string(rune(blank)), 20), cv.Rows()[(h/2-1)/4])
}
