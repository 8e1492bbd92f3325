package model

import (
	"math"

	"github.com/df07/go-swept-surface/pkg/core"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sample returns a synthetic model of n unit circles with m points each,
// spaced evenly along the Y axis from -1 towards 1. Orientation is the
// identity (angle 0 about X). The result is not normalized.
func Sample(family CurveFamily, n, m int) (*Model, error) {
	if family < BSpline || family > Natural {
		return nil, &core.FormatError{Token: family.String()}
	}
	if n < 1 || m < 1 {
		return nil, core.InvalidGeometry("sample needs positive sizes, got n=%d m=%d", n, m)
	}

	model := &Model{Family: family, Keyframes: make([]Keyframe, n)}
	for i := range n {
		section := make([]r2.Vec, m)
		for j := range m {
			theta := 2.0 * math.Pi * float64(j) / float64(m)
			section[j] = r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)}
		}
		model.Keyframes[i] = Keyframe{
			CrossSection: section,
			Scale:        1.0,
			Angle:        0.0,
			Axis:         r3.Vec{X: 1},
			Position:     r3.Vec{Y: 2.0*float64(i)/float64(n) - 1.0},
		}
	}
	return model, nil
}
