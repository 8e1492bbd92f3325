package curve

import "gonum.org/v1/gonum/spatial/r2"

// bsplineBasis is the uniform cubic B-spline basis matrix, applied as T·M·G
// with T = [t³ t² t 1].
var bsplineBasis = [4][4]float64{
	{-1.0 / 6, 3.0 / 6, -3.0 / 6, 1.0 / 6},
	{3.0 / 6, -6.0 / 6, 3.0 / 6, 0},
	{-3.0 / 6, 0, 3.0 / 6, 0},
	{1.0 / 6, 4.0 / 6, 1.0 / 6, 0},
}

// bsplineWeights returns T·M for every parameter t = s/steps, s in [0, steps)
func bsplineWeights(steps int) [][4]float64 {
	weights := make([][4]float64, steps)
	for s := range steps {
		t := float64(s) / float64(steps)
		T := [4]float64{t * t * t, t * t, t, 1}
		for col := range 4 {
			for row := range 4 {
				weights[s][col] += T[row] * bsplineBasis[row][col]
			}
		}
	}
	return weights
}

func bsplineClosed(points []r2.Vec, steps int) []r2.Vec {
	weights := bsplineWeights(steps)
	out := make([]r2.Vec, 0, len(points)*steps)
	for k := range points {
		p0, p1, p2, p3 := window(points, k)
		for _, w := range weights {
			out = append(out, r2.Vec{
				X: w[0]*p0.X + w[1]*p1.X + w[2]*p2.X + w[3]*p3.X,
				Y: w[0]*p0.Y + w[1]*p1.Y + w[2]*p2.Y + w[3]*p3.Y,
			})
		}
	}
	return out
}
