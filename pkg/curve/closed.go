// Package curve evaluates closed cubic curves through the control points of
// a cross-section.
//
// All evaluators treat the control points as cyclic. Segment k of the output
// starts at (or, for the B-spline, near) control point k and contributes
// steps points, so a call returns len(points)*steps points forming one
// closed loop.
package curve

import (
	"github.com/df07/go-swept-surface/pkg/core"
	"github.com/df07/go-swept-surface/pkg/model"
	"gonum.org/v1/gonum/spatial/r2"
)

// Evaluate samples the closed curve of the given family through points with
// steps samples per segment.
func Evaluate(family model.CurveFamily, points []r2.Vec, steps int) ([]r2.Vec, error) {
	if err := checkClosed(points, steps); err != nil {
		return nil, err
	}
	switch family {
	case model.BSpline:
		return bsplineClosed(points, steps), nil
	case model.CatmullRom:
		return catmullRomClosed(points, steps), nil
	case model.Natural:
		return naturalClosed(points, steps)
	default:
		return nil, &core.FormatError{Token: family.String()}
	}
}

// BSpline samples the uniform cubic B-spline over points. The curve
// approximates the control points rather than passing through them.
func BSpline(points []r2.Vec, steps int) ([]r2.Vec, error) {
	return Evaluate(model.BSpline, points, steps)
}

// CatmullRom samples the closed Catmull-Rom spline through points
func CatmullRom(points []r2.Vec, steps int) ([]r2.Vec, error) {
	return Evaluate(model.CatmullRom, points, steps)
}

// Natural samples the closed C2 interpolating cubic spline through points
func Natural(points []r2.Vec, steps int) ([]r2.Vec, error) {
	return Evaluate(model.Natural, points, steps)
}

func checkClosed(points []r2.Vec, steps int) error {
	if len(points) < model.MinPoints {
		return core.InvalidGeometry("closed curve needs at least %d points, got %d", model.MinPoints, len(points))
	}
	if steps < 1 {
		return core.InvalidGeometry("steps must be at least 1, got %d", steps)
	}
	return nil
}

// window returns the four cyclic neighbours k-1, k, k+1, k+2
func window(points []r2.Vec, k int) (p0, p1, p2, p3 r2.Vec) {
	m := len(points)
	return points[(k-1+m)%m], points[k%m], points[(k+1)%m], points[(k+2)%m]
}
