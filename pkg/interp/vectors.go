// Package interp interpolates the open transform channels of a keyframed
// model: scalars and vectors with cubic Hermite splines, orientations with
// their quaternion-space analogue.
//
// Every interpolator takes n samples and a step count and returns
// (n-1)*steps + 1 values. The first value of each segment is the keyframe
// sample itself, and the last keyframe sample is emitted once at the end, so
// the output passes exactly through every input.
package interp

import (
	"github.com/df07/go-swept-surface/pkg/core"
	"gonum.org/v1/gonum/spatial/r3"
)

// OutputLength returns the number of values an interpolator produces for n
// samples at the given step count.
func OutputLength(n, steps int) int {
	if n < 1 {
		return 0
	}
	return (n-1)*steps + 1
}

func checkOpen(n, steps int) error {
	if n < 2 {
		return core.InvalidGeometry("interpolation needs at least 2 samples, got %d", n)
	}
	if steps < 1 {
		return core.InvalidGeometry("steps must be at least 1, got %d", steps)
	}
	return nil
}

// Vectors interpolates a vector channel with a C1 cubic Hermite spline
func Vectors(samples []r3.Vec, steps int) ([]r3.Vec, error) {
	n := len(samples)
	if err := checkOpen(n, steps); err != nil {
		return nil, err
	}

	tangents := make([]r3.Vec, n)
	tangents[0] = r3.Sub(samples[1], samples[0])
	for i := 1; i < n-1; i++ {
		tangents[i] = r3.Sub(samples[i+1], samples[i-1])
	}
	tangents[n-1] = r3.Sub(samples[n-1], samples[n-2])
	for i := range tangents {
		tangents[i] = r3.Scale(0.5, tangents[i])
	}

	out := make([]r3.Vec, 0, OutputLength(n, steps))
	for i := 1; i < n; i++ {
		v0 := samples[i-1]
		v1 := r3.Add(samples[i-1], r3.Scale(1.0/3, tangents[i-1]))
		v2 := r3.Sub(samples[i], r3.Scale(1.0/3, tangents[i]))
		v3 := samples[i]

		out = append(out, samples[i-1]) // t == 0
		for s := 1; s < steps; s++ {
			t := float64(s) / float64(steps)
			out = append(out, core.DeCasteljau(v0, v1, v2, v3, t, core.Lerp3))
		}
	}
	out = append(out, samples[n-1]) // t == 1 of the last segment
	return out, nil
}

// Scalars interpolates a scalar channel as a one-dimensional vector channel
func Scalars(samples []float64, steps int) ([]float64, error) {
	lifted := make([]r3.Vec, len(samples))
	for i, s := range samples {
		lifted[i] = r3.Vec{X: s}
	}
	curve, err := Vectors(lifted, steps)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(curve))
	for i, v := range curve {
		out[i] = v.X
	}
	return out, nil
}
