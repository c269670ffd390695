package render

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera looks at the origin of scene space from +z, rotated by its
// trackball.
type Camera struct {
	Trackball *Trackball
	Distance  float64
	FOV       float64
	Near, Far float64
	Zoom      float64
}

func NewCamera() *Camera {
	return &Camera{
		Trackball: NewTrackball(),
		Distance:  3,
		FOV:       mgl64.DegToRad(45),
		Near:      0.01,
		Far:       100,
		Zoom:      1,
	}
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(1e6, c.Zoom*1.25) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(1e-6, c.Zoom/1.25) }

func (c *Camera) Reset() {
	c.Trackball.Reset()
	c.Zoom = 1
}

// View is the model-view matrix applied to scene coordinates.
func (c *Camera) View() mgl64.Mat4 {
	eye := mgl64.Vec3{0, 0, c.Distance}
	look := mgl64.LookAtV(eye, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	return look.Mul4(c.Trackball.Rotation().Mat4()).Mul4(mgl64.Scale3D(c.Zoom, c.Zoom, c.Zoom))
}

func (c *Camera) Projection(w, h int) mgl64.Mat4 {
	aspect := 1.0
	if h > 0 {
		aspect = float64(w) / float64(h)
	}
	return mgl64.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// Project maps a scene point to pixel coordinates with y pointing down.
// depth is in [0, 1] for points between the near and far planes.
func (c *Camera) Project(p mgl64.Vec3, w, h int) (int, int, float64, bool) {
	win := mgl64.Project(p, c.View(), c.Projection(w, h), 0, 0, w, h)
	x := int(math.Round(win.X()))
	y := h - 1 - int(math.Round(win.Y()))
	visible := win.Z() >= 0 && win.Z() <= 1 && x >= 0 && x < w && y >= 0 && y < h
	return x, y, win.Z(), visible
}

// PixelRadius approximates the on-screen radius of a sphere of radius r at
// scene point p.
func (c *Camera) PixelRadius(p mgl64.Vec3, r float64, h int) int {
	eyeSpace := c.View().Mul4x1(p.Vec4(1))
	depth := -eyeSpace.Z()
	if depth <= 0 {
		return 0
	}
	focal := float64(h) / (2 * math.Tan(c.FOV/2))
	return int(r * c.Zoom * focal / depth)
}

// Draw renders trails as polylines and then each instance as a disc,
// farthest first. trails[i] holds scene-space points for f.Instances[i].
func Draw(cv *Canvas, cam *Camera, f Frame, trails [][]mgl64.Vec3) {
	w, h := cv.PixelSize()

	for _, trail := range trails {
		var px, py int
		prev := false
		for _, p := range trail {
			x, y, _, ok := cam.Project(p, w, h)
			if ok && prev {
				cv.DrawLine(px, py, x, y)
			} else if ok {
				cv.Set(x, y)
			}
			px, py, prev = x, y, ok
		}
	}

	type projected struct {
		x, y, r int
		depth   float64
	}
	proj := make([]projected, 0, len(f.Instances))
	for _, in := range f.Instances {
		center := in.Center()
		x, y, d, ok := cam.Project(center, w, h)
		if !ok {
			continue
		}
		r := cam.PixelRadius(center, in.Diameter/f.Scale/2, h)
		proj = append(proj, projected{x, y, r, d})
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, p := range proj {
		cv.DrawDisc(p.x, p.y, p.r)
	}
}
