package curve

import (
	"github.com/df07/go-swept-surface/pkg/core"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// naturalClosed solves for the B-spline control points G that make the
// closed B-spline pass through points, then samples that B-spline.
func naturalClosed(points []r2.Vec, steps int) ([]r2.Vec, error) {
	g, err := interpolatingControlPoints(points)
	if err != nil {
		return nil, err
	}
	return bsplineClosed(g, steps), nil
}

// interpolatingControlPoints solves N·G = P where N is the cyclic
// tridiagonal matrix (1 4 1)/6.
func interpolatingControlPoints(points []r2.Vec) ([]r2.Vec, error) {
	m := len(points)
	n := mat.NewDense(m, m, nil)
	for i := range m {
		n.Set(i, (i-1+m)%m, 1.0/6)
		n.Set(i, i, 4.0/6)
		n.Set(i, (i+1)%m, 1.0/6)
	}

	p := mat.NewDense(m, 2, nil)
	for i, pt := range points {
		p.Set(i, 0, pt.X)
		p.Set(i, 1, pt.Y)
	}

	var g mat.Dense
	if err := g.Solve(n, p); err != nil {
		return nil, core.InvalidGeometry("natural spline system is singular: %v", err)
	}

	out := make([]r2.Vec, m)
	for i := range out {
		out[i] = r2.Vec{X: g.At(i, 0), Y: g.At(i, 1)}
	}
	return out, nil
}
