package interp

import (
	"math"

	"github.com/df07/go-swept-surface/pkg/core"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// slerpLinearThreshold is the cosine above which slerp falls back to a
// normalized linear blend to avoid dividing by a vanishing sine.
const slerpLinearThreshold = 1 - 1e-12

// Identity is the quaternion of the null rotation
var Identity = quat.Number{Real: 1}

// FromAxisAngle returns the unit quaternion rotating by angle radians about
// axis: exp((angle/2)·axis/|axis|).
func FromAxisAngle(angle float64, axis r3.Vec) (quat.Number, error) {
	length := r3.Norm(axis)
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return quat.Number{}, core.InvalidGeometry("rotation axis %v cannot be normalized", axis)
	}
	u := r3.Scale(angle/2/length, axis)
	return Exp(quat.Number{Imag: u.X, Jmag: u.Y, Kmag: u.Z}), nil
}

// ToAxisAngle recovers an angle in [0, 2π) and unit axis from a unit
// quaternion. The identity maps to angle 0 about +X.
func ToAxisAngle(q quat.Number) (float64, r3.Vec) {
	v := Ln(q)
	half := math.Sqrt(v.Imag*v.Imag + v.Jmag*v.Jmag + v.Kmag*v.Kmag)
	if half == 0 {
		return 0, r3.Vec{X: 1}
	}
	return 2 * half, r3.Vec{X: v.Imag / half, Y: v.Jmag / half, Z: v.Kmag / half}
}

// Ln returns the logarithm of a unit quaternion as a pure quaternion
// (θ/2)·axis, where θ is the rotation angle.
func Ln(q quat.Number) quat.Number {
	l := quat.Log(q)
	l.Real = 0
	return l
}

// Exp returns the exponential of a pure quaternion, a unit quaternion
func Exp(v quat.Number) quat.Number {
	return quat.Exp(v)
}

// Normalize scales q to unit length
func Normalize(q quat.Number) quat.Number {
	return quat.Scale(1/quat.Abs(q), q)
}

// Rotate applies the rotation q to p
func Rotate(q quat.Number, p r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(p)
}

// Slerp interpolates between unit quaternions a and b along the shortest arc
func Slerp(a, b quat.Number, t float64) quat.Number {
	cos := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if cos < 0 {
		b = quat.Scale(-1, b)
		cos = -cos
	}
	if cos > slerpLinearThreshold {
		return Normalize(quat.Add(quat.Scale(1-t, a), quat.Scale(t, b)))
	}
	theta := math.Acos(cos)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return Normalize(quat.Add(quat.Scale(wa, a), quat.Scale(wb, b)))
}

// Quaternions interpolates unit orientations with the quaternion analogue of
// the Hermite scheme used by Vectors: tangents are logarithms of neighbour
// ratios and every de Casteljau blend is a slerp.
func Quaternions(samples []quat.Number, steps int) ([]quat.Number, error) {
	n := len(samples)
	if err := checkOpen(n, steps); err != nil {
		return nil, err
	}

	tangents := make([]quat.Number, n)
	tangents[0] = quat.Mul(quat.Conj(samples[0]), samples[1])
	for i := 1; i < n-1; i++ {
		tangents[i] = quat.Mul(quat.Conj(samples[i-1]), samples[i+1])
	}
	// The end tangent composes without the conjugate. Keep it: existing
	// models were authored against this orientation path.
	tangents[n-1] = quat.Mul(samples[n-2], samples[n-1])
	for i := range tangents {
		tangents[i] = quat.Scale(0.5, Ln(tangents[i]))
	}

	out := make([]quat.Number, 0, OutputLength(n, steps))
	for i := 1; i < n; i++ {
		q0 := samples[i-1]
		q1 := quat.Mul(samples[i-1], Exp(quat.Scale(1.0/3, tangents[i-1])))
		q2 := quat.Mul(samples[i], Exp(quat.Scale(-1.0/3, tangents[i])))
		q3 := samples[i]

		out = append(out, samples[i-1]) // t == 0
		for s := 1; s < steps; s++ {
			t := float64(s) / float64(steps)
			out = append(out, core.DeCasteljau(q0, q1, q2, q3, t, Slerp))
		}
	}
	out = append(out, samples[n-1])
	return out, nil
}
