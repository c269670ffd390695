// Package vector implements fixed-dimension vector algebra.
//
// The dimension is part of the type: a Vector2 and a Vector3 cannot be
// mixed, and every operation returns a new value.
package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrDimension reports a component list whose length does not match the
// vector's dimension.
var ErrDimension = errors.New("vector: dimension mismatch")

// Components is the set of backing arrays a Vector may wrap.
type Components interface {
	~[1]float64 | ~[2]float64 | ~[3]float64
}

// Vector is an ordered tuple of float64 components with a compile-time length.
type Vector[C Components] struct {
	c C
}

type (
	Vector1 = Vector[[1]float64]
	Vector2 = Vector[[2]float64]
	Vector3 = Vector[[3]float64]
)

func New1(x float64) Vector1       { return Vector1{c: [1]float64{x}} }
func New2(x, y float64) Vector2    { return Vector2{c: [2]float64{x, y}} }
func New3(x, y, z float64) Vector3 { return Vector3{c: [3]float64{x, y, z}} }

// From wraps an existing component array.
func From[C Components](c C) Vector[C] { return Vector[C]{c: c} }

// Zero returns the zero vector of dimension len(C).
func Zero[C Components]() Vector[C] { return Vector[C]{} }

// Dims reports the dimension of vectors backed by C.
func Dims[C Components]() int {
	var c C
	return len(c)
}

// FromSlice copies s into a vector. An empty or nil slice yields the zero
// vector; any other length must equal the dimension.
func FromSlice[C Components](s []float64) (Vector[C], error) {
	var v Vector[C]
	if len(s) == 0 {
		return v, nil
	}
	if len(s) != len(v.c) {
		return v, fmt.Errorf("%w: got %d components, want %d", ErrDimension, len(s), len(v.c))
	}
	for i := 0; i < len(v.c); i++ {
		v.c[i] = s[i]
	}
	return v, nil
}

func (v Vector[C]) Dim() int { return len(v.c) }

// At returns component i. It panics when i is out of range.
func (v Vector[C]) At(i int) float64 { return v.c[i] }

func (v Vector[C]) Array() C { return v.c }

func (v Vector[C]) Slice() []float64 {
	out := make([]float64, len(v.c))
	for i := 0; i < len(v.c); i++ {
		out[i] = v.c[i]
	}
	return out
}

func (v Vector[C]) Add(o Vector[C]) Vector[C] {
	for i := 0; i < len(v.c); i++ {
		v.c[i] += o.c[i]
	}
	return v
}

func (v Vector[C]) Sub(o Vector[C]) Vector[C] {
	for i := 0; i < len(v.c); i++ {
		v.c[i] -= o.c[i]
	}
	return v
}

func (v Vector[C]) Scale(s float64) Vector[C] {
	for i := 0; i < len(v.c); i++ {
		v.c[i] *= s
	}
	return v
}

func (v Vector[C]) Div(s float64) Vector[C] {
	for i := 0; i < len(v.c); i++ {
		v.c[i] /= s
	}
	return v
}

func (v Vector[C]) Dot(o Vector[C]) float64 {
	var sum float64
	for i := 0; i < len(v.c); i++ {
		sum += v.c[i] * o.c[i]
	}
	return sum
}

// Magnitude is the Euclidean norm.
func (v Vector[C]) Magnitude() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector in the direction of v. The zero vector
// has no direction and normalizes to NaN components; callers guard it.
func (v Vector[C]) Normalize() Vector[C] {
	return v.Div(v.Magnitude())
}

func (v Vector[C]) Distance(o Vector[C]) float64 {
	return v.Sub(o).Magnitude()
}

// Direction is the unit vector pointing from v toward to.
func (v Vector[C]) Direction(to Vector[C]) Vector[C] {
	return to.Sub(v).Normalize()
}

func (v Vector[C]) IsZero() bool {
	for i := 0; i < len(v.c); i++ {
		if v.c[i] != 0 {
			return false
		}
	}
	return true
}

func (v Vector[C]) IsFinite() bool {
	for i := 0; i < len(v.c); i++ {
		if math.IsNaN(v.c[i]) || math.IsInf(v.c[i], 0) {
			return false
		}
	}
	return true
}

// Sum folds vs with Add starting from the zero vector.
func Sum[C Components](vs ...Vector[C]) Vector[C] {
	var acc Vector[C]
	for _, v := range vs {
		acc = acc.Add(v)
	}
	return acc
}

// Cross is the 3D cross product a × b.
func Cross(a, b Vector3) Vector3 {
	return New3(
		a.c[1]*b.c[2]-a.c[2]*b.c[1],
		a.c[2]*b.c[0]-a.c[0]*b.c[2],
		a.c[0]*b.c[1]-a.c[1]*b.c[0],
	)
}

// Normal returns the unit normal of the plane through v1, v2 and v3,
// oriented by the right-hand rule.
func Normal(v1, v2, v3 Vector3) Vector3 {
	return Cross(v2.Sub(v1), v3.Sub(v1)).Normalize()
}

func (v Vector[C]) String() string {
	parts := make([]string, len(v.c))
	for i := 0; i < len(v.c); i++ {
		parts[i] = strconv.FormatFloat(v.c[i], 'g', -1, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (v Vector[C]) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Slice())
}

func (v *Vector[C]) UnmarshalJSON(data []byte) error {
	var s []float64
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	out, err := FromSlice[C](s)
	if err != nil {
		return err
	}
	*v = out
	return nil
}
