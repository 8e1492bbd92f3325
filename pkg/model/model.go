// Package model holds the keyframed cross-section data a swept surface is
// built from.
package model

import (
	"math"
	"strings"

	"github.com/df07/go-swept-surface/pkg/core"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// CurveFamily selects the closed curve evaluated through every cross-section
type CurveFamily int

const (
	BSpline CurveFamily = iota
	CatmullRom
	Natural
)

var familyTokens = [...]string{
	BSpline:    "BSPLINE",
	CatmullRom: "CATMULL_ROM",
	Natural:    "NATURAL",
}

// String returns the file token of the family
func (f CurveFamily) String() string {
	if f < 0 || int(f) >= len(familyTokens) {
		return "UNKNOWN"
	}
	return familyTokens[f]
}

// ParseCurveFamily maps a file token to a family. Tokens are matched
// case-insensitively after trimming whitespace.
func ParseCurveFamily(token string) (CurveFamily, error) {
	t := strings.ToUpper(strings.TrimSpace(token))
	for f, name := range familyTokens {
		if name == t {
			return CurveFamily(f), nil
		}
	}
	return 0, &core.FormatError{Token: token}
}

// MarshalText implements encoding.TextMarshaler
func (f CurveFamily) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *CurveFamily) UnmarshalText(text []byte) error {
	parsed, err := ParseCurveFamily(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Minimum sizes the curve evaluators and interpolators need
const (
	MinKeyframes = 2
	MinPoints    = 4
)

// NormalizePadding is the margin left around a normalized cross-section
const NormalizePadding = 1.1

// Keyframe is one authored cross-section with its transform at a spine sample
type Keyframe struct {
	CrossSection []r2.Vec // closed planar polygon, z = 0
	Scale        float64  // uniform scale of the cross-section
	Angle        float64  // rotation angle in radians
	Axis         r3.Vec   // rotation axis, normalized when converted
	Position     r3.Vec   // placement along the spine
}

// Model is the full keyframe description of a swept surface
type Model struct {
	Family    CurveFamily
	Keyframes []Keyframe
}

// N returns the number of keyframes
func (m *Model) N() int {
	return len(m.Keyframes)
}

// M returns the number of points per cross-section, taken from the first keyframe
func (m *Model) M() int {
	if len(m.Keyframes) == 0 {
		return 0
	}
	return len(m.Keyframes[0].CrossSection)
}

// Validate checks the invariants every builder relies on
func (m *Model) Validate() error {
	if m.Family < BSpline || m.Family > Natural {
		return &core.FormatError{Token: m.Family.String()}
	}
	if m.N() < MinKeyframes {
		return core.InvalidGeometry("need at least %d keyframes, got %d", MinKeyframes, m.N())
	}
	points := m.M()
	if points < MinPoints {
		return core.InvalidGeometry("need at least %d points per cross-section, got %d", MinPoints, points)
	}
	for i, k := range m.Keyframes {
		if len(k.CrossSection) != points {
			return core.InvalidGeometry("keyframe %d has %d points, expected %d", i, len(k.CrossSection), points)
		}
		if r3.Norm(k.Axis) == 0 || !core.IsFinite3(k.Axis) {
			return core.InvalidGeometry("keyframe %d has a degenerate rotation axis", i)
		}
		if math.IsNaN(k.Scale) || math.IsInf(k.Scale, 0) || math.IsNaN(k.Angle) || math.IsInf(k.Angle, 0) || !core.IsFinite3(k.Position) {
			return core.InvalidGeometry("keyframe %d has a non-finite transform", i)
		}
		if k.Scale <= 0 {
			return core.InvalidGeometry("keyframe %d has non-positive scale %g", i, k.Scale)
		}
	}
	return nil
}

// Clone returns a deep copy of the model
func (m *Model) Clone() *Model {
	out := &Model{
		Family:    m.Family,
		Keyframes: make([]Keyframe, len(m.Keyframes)),
	}
	for i, k := range m.Keyframes {
		k.CrossSection = append([]r2.Vec(nil), k.CrossSection...)
		out.Keyframes[i] = k
	}
	return out
}

// Positions returns the spine: the position of every keyframe in order
func (m *Model) Positions() []r3.Vec {
	out := make([]r3.Vec, len(m.Keyframes))
	for i, k := range m.Keyframes {
		out[i] = k.Position
	}
	return out
}

// Scales returns the scale channel of the model
func (m *Model) Scales() []float64 {
	out := make([]float64, len(m.Keyframes))
	for i, k := range m.Keyframes {
		out[i] = k.Scale
	}
	return out
}

// Normalize rescales every cross-section in place so that its largest
// absolute coordinate, padded by NormalizePadding, equals 1. The removed
// factor is folded into the keyframe's scale so world size is unchanged.
func Normalize(m *Model) error {
	for i := range m.Keyframes {
		k := &m.Keyframes[i]
		size := 0.0
		for _, p := range k.CrossSection {
			size = max(size, math.Abs(p.X), math.Abs(p.Y))
		}
		size *= NormalizePadding
		if size == 0 || math.IsNaN(size) || math.IsInf(size, 0) {
			return core.InvalidGeometry("keyframe %d cross-section cannot be normalized", i)
		}
		for j := range k.CrossSection {
			k.CrossSection[j] = r2.Scale(1/size, k.CrossSection[j])
		}
		k.Scale *= size
	}
	return nil
}
