package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/vector"
)

// Trackball turns pointer drags into a view rotation. Coordinates are in
// normalized device space, [-1, 1] on both axes with y pointing down.
//
// See https://www.xarg.org/2021/07/trackball-rotation-using-quaternions/
type Trackball struct {
	startX, startY float64
	currX, currY   float64
	base           mgl64.Quat
	active         bool
}

func NewTrackball() *Trackball {
	return &Trackball{base: mgl64.QuatIdent()}
}

// project lifts (x, y) onto a sphere of radius 1 blended with a hyperbolic
// sheet outside radius 1/√2, then normalizes.
func project(x, y float64) vector.Vector3 {
	d2 := x*x + y*y
	if d2 <= 0.5 {
		return vector.New3(x, -y, math.Sqrt(1-d2))
	}
	return vector.New3(x, -y, 0.5/math.Sqrt(d2)).Normalize()
}

func (tb *Trackball) Active() bool { return tb.active }

func (tb *Trackball) Start(x, y float64) {
	tb.startX, tb.startY = x, y
	tb.currX, tb.currY = x, y
	tb.active = true
}

func (tb *Trackball) Move(x, y float64) {
	tb.currX, tb.currY = x, y
}

// End commits the drag into the base rotation.
func (tb *Trackball) End(x, y float64) {
	tb.Move(x, y)
	tb.base = tb.Rotation()
	tb.startX, tb.startY = x, y
	tb.active = false
}

// Nudge applies a whole drag from the centre by (dx, dy).
func (tb *Trackball) Nudge(dx, dy float64) {
	tb.Start(0, 0)
	tb.End(dx, dy)
}

func (tb *Trackball) Reset() {
	*tb = Trackball{base: mgl64.QuatIdent()}
}

// Rotation is the committed rotation composed with any drag in progress.
func (tb *Trackball) Rotation() mgl64.Quat {
	if tb.startX == tb.currX && tb.startY == tb.currY {
		return tb.base
	}
	p := project(tb.startX, tb.startY)
	q := project(tb.currX, tb.currY)

	axis := vector.Cross(p, q)
	if axis.Magnitude() == 0 {
		return tb.base
	}
	angle := math.Acos(mgl64.Clamp(p.Dot(q), -1, 1))
	return mgl64.QuatRotate(angle, mgl64.Vec3(axis.Normalize().Array())).Mul(tb.base).Normalize()
}
