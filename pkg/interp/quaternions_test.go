package interp

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-swept-surface/pkg/core"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func quatClose(a, b quat.Number, tol float64) bool {
	// q and -q are the same rotation
	d1 := quat.Abs(quat.Sub(a, b))
	d2 := quat.Abs(quat.Add(a, b))
	return math.Min(d1, d2) <= tol
}

func mustAxisAngle(t *testing.T, angle float64, axis r3.Vec) quat.Number {
	t.Helper()
	q, err := FromAxisAngle(angle, axis)
	if err != nil {
		t.Fatal(err)
	}
	return q
}

func TestFromAxisAngle(t *testing.T) {
	tests := []struct {
		name     string
		angle    float64
		axis     r3.Vec
		vector   r3.Vec
		expected r3.Vec
	}{
		{"No rotation", 0, r3.Vec{X: 1}, r3.Vec{X: 1}, r3.Vec{X: 1}},
		{"90 degree rotation around Z axis", math.Pi / 2, r3.Vec{Z: 1}, r3.Vec{X: 1}, r3.Vec{Y: 1}},
		{"90 degree rotation around Y axis", math.Pi / 2, r3.Vec{Y: 1}, r3.Vec{X: 1}, r3.Vec{Z: -1}},
		{"90 degree rotation around unnormalized X axis", math.Pi / 2, r3.Vec{X: 5}, r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{"180 degree rotation around Y axis", math.Pi, r3.Vec{Y: 1}, r3.Vec{X: 1}, r3.Vec{X: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mustAxisAngle(t, tt.angle, tt.axis)
			if !scalar.EqualWithinAbs(quat.Abs(q), 1, 1e-12) {
				t.Errorf("Expected unit quaternion, got |q| = %g", quat.Abs(q))
			}
			result := Rotate(q, tt.vector)

			const tolerance = 1e-9
			if r3.Norm(r3.Sub(result, tt.expected)) > tolerance {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestFromAxisAngle_ZeroAxis(t *testing.T) {
	if _, err := FromAxisAngle(1, r3.Vec{}); !errors.Is(err, core.ErrInvalidGeometry) {
		t.Errorf("Expected invalid geometry for zero axis, got %v", err)
	}
}

func TestToAxisAngle_RoundTrip(t *testing.T) {
	axis := r3.Unit(r3.Vec{X: 1, Y: -2, Z: 0.5})
	for _, angle := range []float64{0.1, 1, 2.5, 3} {
		q := mustAxisAngle(t, angle, axis)
		gotAngle, gotAxis := ToAxisAngle(q)
		if !scalar.EqualWithinAbs(gotAngle, angle, 1e-9) {
			t.Errorf("angle %g: got %g", angle, gotAngle)
		}
		if r3.Norm(r3.Sub(gotAxis, axis)) > 1e-9 {
			t.Errorf("angle %g: axis %v, want %v", angle, gotAxis, axis)
		}
	}

	angle, axis0 := ToAxisAngle(Identity)
	if angle != 0 || axis0 != (r3.Vec{X: 1}) {
		t.Errorf("identity: got angle %g axis %v", angle, axis0)
	}
}

func TestLnExp_RoundTrip(t *testing.T) {
	q := mustAxisAngle(t, 1.2, r3.Vec{X: 0.3, Y: 0.4, Z: 0.5})
	l := Ln(q)
	if l.Real != 0 {
		t.Errorf("Ln of a unit quaternion should be pure, got real part %g", l.Real)
	}
	// |ln q| is half the rotation angle
	if half := quat.Abs(l); !scalar.EqualWithinAbs(half, 0.6, 1e-12) {
		t.Errorf("Expected |ln q| = 0.6, got %g", half)
	}
	if back := Exp(l); !quatClose(back, q, 1e-12) {
		t.Errorf("exp(ln q) = %v, want %v", back, q)
	}
}

func TestSlerp(t *testing.T) {
	a := Identity
	b := mustAxisAngle(t, math.Pi/2, r3.Vec{Z: 1})

	if got := Slerp(a, b, 0); !quatClose(got, a, 1e-12) {
		t.Errorf("t=0: got %v, want %v", got, a)
	}
	if got := Slerp(a, b, 1); !quatClose(got, b, 1e-12) {
		t.Errorf("t=1: got %v, want %v", got, b)
	}
	half := mustAxisAngle(t, math.Pi/4, r3.Vec{Z: 1})
	if got := Slerp(a, b, 0.5); !quatClose(got, half, 1e-12) {
		t.Errorf("t=0.5: got %v, want %v", got, half)
	}

	// The negated endpoint is the same rotation; slerp must take the short arc
	if got := Slerp(a, quat.Scale(-1, b), 0.5); !quatClose(got, half, 1e-12) {
		t.Errorf("short arc: got %v, want %v", got, half)
	}

	// Nearly identical inputs use the linear fallback without producing NaN
	c := mustAxisAngle(t, 1e-14, r3.Vec{Z: 1})
	if got := Slerp(a, c, 0.5); quat.IsNaN(got) || !scalar.EqualWithinAbs(quat.Abs(got), 1, 1e-12) {
		t.Errorf("near-identical slerp produced %v", got)
	}
}

func TestQuaternions_UnitNormAndInterpolation(t *testing.T) {
	samples := []quat.Number{
		mustAxisAngle(t, 0, r3.Vec{X: 1}),
		mustAxisAngle(t, math.Pi/3, r3.Vec{X: 0, Y: 1, Z: 0}),
		mustAxisAngle(t, 2.0, r3.Vec{X: 1, Y: 1, Z: 0}),
		mustAxisAngle(t, -1.0, r3.Vec{X: 0, Y: 0.2, Z: 1}),
		mustAxisAngle(t, 0.5, r3.Vec{X: 1, Y: 0, Z: 0}),
	}
	const steps = 10

	out, err := Quaternions(samples, steps)
	if err != nil {
		t.Fatal(err)
	}
	if want := (len(samples)-1)*steps + 1; len(out) != want {
		t.Fatalf("got %d orientations, want %d", len(out), want)
	}
	for i, q := range out {
		if n := quat.Abs(q); math.Abs(n-1) > 1e-9 {
			t.Errorf("sample %d: |q| = %.15f", i, n)
		}
	}
	for i, s := range samples {
		if out[i*steps] != s {
			t.Errorf("keyframe %d not reproduced: got %v, want %v", i, out[i*steps], s)
		}
	}
}

func TestQuaternions_ConstantOrientation(t *testing.T) {
	q := mustAxisAngle(t, 0, r3.Vec{X: 1})
	out, err := Quaternions([]quat.Number{q, q, q}, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i, got := range out {
		if !quatClose(got, Identity, 1e-12) {
			t.Errorf("sample %d: expected identity, got %v", i, got)
		}
	}
}

func TestQuaternions_Errors(t *testing.T) {
	if _, err := Quaternions([]quat.Number{Identity}, 3); !errors.Is(err, core.ErrInvalidGeometry) {
		t.Errorf("expected invalid geometry for a single sample, got %v", err)
	}
	if _, err := Quaternions([]quat.Number{Identity, Identity}, 0); !errors.Is(err, core.ErrInvalidGeometry) {
		t.Errorf("expected invalid geometry for zero steps, got %v", err)
	}
}

func TestQuaternions_EndTangentComposesWithoutConjugate(t *testing.T) {
	const steps = 8
	samples := []quat.Number{
		mustAxisAngle(t, 0.4, r3.Vec{X: 1}),
		mustAxisAngle(t, 0.9, r3.Vec{Z: 1}),
		mustAxisAngle(t, 1.3, r3.Vec{Y: 1}),
	}
	got, err := Quaternions(samples, steps)
	if err != nil {
		t.Fatalf("Quaternions failed: %v", err)
	}

	// Last segment built by hand: centered tangent at q1, q1*q2 at the end
	lastSegment := func(end quat.Number) []quat.Number {
		t1 := quat.Scale(0.5, Ln(quat.Mul(quat.Conj(samples[0]), samples[2])))
		t2 := quat.Scale(0.5, Ln(end))
		c1 := quat.Mul(samples[1], Exp(quat.Scale(1.0/3, t1)))
		c2 := quat.Mul(samples[2], Exp(quat.Scale(-1.0/3, t2)))
		out := make([]quat.Number, steps)
		for s := range steps {
			out[s] = core.DeCasteljau(samples[1], c1, c2, samples[2], float64(s)/float64(steps), Slerp)
		}
		return out
	}
	want := lastSegment(quat.Mul(samples[1], samples[2]))
	symmetric := lastSegment(quat.Mul(quat.Conj(samples[1]), samples[2]))

	const tolerance = 1e-12
	for s := 1; s < steps; s++ {
		if !quatClose(got[steps+s], want[s], tolerance) {
			t.Errorf("sample %d: got %v, want %v", steps+s, got[steps+s], want[s])
		}
	}
	// The two end tangents must give visibly different paths for this input
	if quatClose(want[steps/2], symmetric[steps/2], 1e-3) {
		t.Fatalf("test input does not distinguish the end tangent formulas")
	}
}
