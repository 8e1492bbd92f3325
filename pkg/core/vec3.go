package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Lerp3 returns the point a + (b-a)*t
func Lerp3(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Lerp2 returns the point a + (b-a)*t
func Lerp2(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// Lerp returns a + (b-a)*t
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// DeCasteljau evaluates the cubic Bezier (p0, p1, p2, p3) at t with three
// levels of pairwise blending. blend is linear interpolation for vectors and
// spherical interpolation for quaternions.
func DeCasteljau[T any](p0, p1, p2, p3 T, t float64, blend func(a, b T, t float64) T) T {
	// level 0
	q0 := blend(p0, p1, t)
	q1 := blend(p1, p2, t)
	q2 := blend(p2, p3, t)
	// level 1
	r0 := blend(q0, q1, t)
	r1 := blend(q1, q2, t)
	// level 2
	return blend(r0, r1, t)
}

// IsFinite3 reports whether every component of v is a finite number
func IsFinite3(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Ray represents a ray with an origin and direction
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// NewRay creates a new ray
func NewRay(origin, direction r3.Vec) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Direction))
}

// DistanceSquared returns the squared distance from p to the infinite line
// through the ray. Direction must be a unit vector.
func (r Ray) DistanceSquared(p r3.Vec) float64 {
	l := r3.Sub(p, r.Origin)
	t := r3.Dot(l, r.Direction)
	return r3.Dot(l, l) - t*t
}
