package curve

import (
	"github.com/df07/go-swept-surface/pkg/core"
	"gonum.org/v1/gonum/spatial/r2"
)

func catmullRomClosed(points []r2.Vec, steps int) []r2.Vec {
	out := make([]r2.Vec, 0, len(points)*steps)
	for k := range points {
		// segment between p1 and p2
		p0, p1, p2, p3 := window(points, k)
		a0 := r2.Scale(0.5, r2.Sub(p2, p0))
		a1 := r2.Scale(0.5, r2.Sub(p3, p1))
		b0 := p1
		b1 := r2.Add(p1, r2.Scale(1.0/3, a0))
		b2 := r2.Sub(p2, r2.Scale(1.0/3, a1))
		b3 := p2

		out = append(out, b0) // t == 0
		for s := 1; s < steps; s++ {
			t := float64(s) / float64(steps)
			out = append(out, core.DeCasteljau(b0, b1, b2, b3, t, core.Lerp2))
		}
	}
	return out
}
