package geometry

import (
	"fmt"
	"math"
	"strings"

	"github.com/df07/go-swept-surface/pkg/core"
	"github.com/df07/go-swept-surface/pkg/curve"
	"github.com/df07/go-swept-surface/pkg/interp"
	"github.com/df07/go-swept-surface/pkg/model"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// SectionPolicy selects which cross-section shape a spine sample between two
// keyframes uses
type SectionPolicy int

const (
	// SectionNearest uses the polygon of the nearer keyframe. Ties go to the
	// earlier keyframe.
	SectionNearest SectionPolicy = iota
	// SectionBlend blends the two neighbouring polygons linearly
	SectionBlend
)

func (p SectionPolicy) String() string {
	switch p {
	case SectionNearest:
		return "nearest"
	case SectionBlend:
		return "blend"
	default:
		return fmt.Sprintf("SectionPolicy(%d)", int(p))
	}
}

// ParseSectionPolicy parses "nearest" or "blend", ignoring case
func ParseSectionPolicy(s string) (SectionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest":
		return SectionNearest, nil
	case "blend":
		return SectionBlend, nil
	}
	return 0, fmt.Errorf("unknown section policy %q (want nearest or blend)", s)
}

// SurfaceOptions controls surface tessellation
type SurfaceOptions struct {
	Steps        int           // spine samples per keyframe segment
	SectionSteps int           // closed-curve points per control point; 0 uses Steps
	Section      SectionPolicy // cross-section selection between keyframes
}

// DefaultSurfaceOptions returns the options the viewer starts with
func DefaultSurfaceOptions() SurfaceOptions {
	return SurfaceOptions{Steps: 10, Section: SectionNearest}
}

func (o SurfaceOptions) sectionSteps() int {
	if o.SectionSteps == 0 {
		return o.Steps
	}
	return o.SectionSteps
}

// Sample is the interpolated transform at one spine step
type Sample struct {
	Scale       float64
	Orientation quat.Number
	Position    r3.Vec
	Segment     int     // keyframe that starts the segment holding this sample
	T           float64 // local parameter within the segment, in [0, 1]
	Section     int     // keyframe whose cross-section governs this sample
}

// Surface is a swept surface as an ordered list of rings along the spine.
// Every ring has the same number of points.
type Surface struct {
	Rings   [][]r3.Vec
	Samples []Sample
}

// Samples interpolates the keyframe transforms of m along the spine without
// building any rings.
func Samples(m *model.Model, opts SurfaceOptions) ([]Sample, error) {
	if err := validate(m, opts); err != nil {
		return nil, err
	}
	return samples(m, opts)
}

func validate(m *model.Model, opts SurfaceOptions) error {
	if m == nil {
		return core.InvalidGeometry("no model")
	}
	if opts.Steps < 1 {
		return core.InvalidGeometry("steps must be at least 1, got %d", opts.Steps)
	}
	if opts.SectionSteps < 0 {
		return core.InvalidGeometry("section steps must not be negative, got %d", opts.SectionSteps)
	}
	if opts.Section != SectionNearest && opts.Section != SectionBlend {
		return core.InvalidGeometry("unknown section policy %d", int(opts.Section))
	}
	return m.Validate()
}

func samples(m *model.Model, opts SurfaceOptions) ([]Sample, error) {
	n := m.N()

	scales, err := interp.Scalars(m.Scales(), opts.Steps)
	if err != nil {
		return nil, fmt.Errorf("interpolating scales: %w", err)
	}
	positions, err := interp.Vectors(m.Positions(), opts.Steps)
	if err != nil {
		return nil, fmt.Errorf("interpolating positions: %w", err)
	}

	keyOrientations := make([]quat.Number, n)
	for i, k := range m.Keyframes {
		q, err := interp.FromAxisAngle(k.Angle, k.Axis)
		if err != nil {
			return nil, fmt.Errorf("keyframe %d: %w", i, err)
		}
		keyOrientations[i] = q
	}
	orientations, err := interp.Quaternions(keyOrientations, opts.Steps)
	if err != nil {
		return nil, fmt.Errorf("interpolating orientations: %w", err)
	}

	out := make([]Sample, len(scales))
	for k := range out {
		segment := k / opts.Steps
		if segment > n-2 {
			segment = n - 2
		}
		t := float64(k-segment*opts.Steps) / float64(opts.Steps)

		section := segment
		if t > 0.5 {
			section = segment + 1
		}

		out[k] = Sample{
			Scale:       scales[k],
			Orientation: orientations[k],
			Position:    positions[k],
			Segment:     segment,
			T:           t,
			Section:     section,
		}
	}
	return out, nil
}

// BuildSurface sweeps the cross-sections of m along its interpolated spine.
// The model is validated before any interpolation runs.
func BuildSurface(m *model.Model, opts SurfaceOptions) (*Surface, error) {
	if err := validate(m, opts); err != nil {
		return nil, err
	}

	spine, err := samples(m, opts)
	if err != nil {
		return nil, err
	}

	sections := make([][]r2.Vec, m.N())
	for i, k := range m.Keyframes {
		sections[i], err = curve.Evaluate(m.Family, k.CrossSection, opts.sectionSteps())
		if err != nil {
			return nil, fmt.Errorf("keyframe %d cross-section: %w", i, err)
		}
	}

	rings := make([][]r3.Vec, len(spine))
	for k, s := range spine {
		var shape []r2.Vec
		switch opts.Section {
		case SectionBlend:
			shape = blendSections(sections[s.Segment], sections[s.Segment+1], s.T)
		default:
			shape = sections[s.Section]
		}
		rings[k] = ring(shape, s)
	}

	return &Surface{Rings: rings, Samples: spine}, nil
}

func blendSections(a, b []r2.Vec, t float64) []r2.Vec {
	out := make([]r2.Vec, len(a))
	for j := range a {
		out[j] = core.Lerp2(a[j], b[j], t)
	}
	return out
}

// ring places a planar shape at a spine sample: scale, then rotate, then
// translate.
func ring(shape []r2.Vec, s Sample) []r3.Vec {
	rot := r3.Rotation(s.Orientation)
	out := make([]r3.Vec, len(shape))
	for j, p := range shape {
		local := r3.Vec{X: s.Scale * p.X, Y: s.Scale * p.Y}
		out[j] = r3.Add(s.Position, rot.Rotate(local))
	}
	return out
}

// RingCount returns the number of rings along the spine
func (s *Surface) RingCount() int {
	return len(s.Rings)
}

// RingSize returns the number of points in each ring
func (s *Surface) RingSize() int {
	if len(s.Rings) == 0 {
		return 0
	}
	return len(s.Rings[0])
}

// Vertices flattens the rings; ring i point j lands at index i*RingSize()+j
func (s *Surface) Vertices() []r3.Vec {
	out := make([]r3.Vec, 0, s.RingCount()*s.RingSize())
	for _, r := range s.Rings {
		out = append(out, r...)
	}
	return out
}

// Quads connects ring i point j to ring i+1, wrapping around each ring.
// Each quad is wound so that its normal points outward for sections
// traced counter-clockwise.
func (s *Surface) Quads() [][4]int {
	rings, size := s.RingCount(), s.RingSize()
	if rings < 2 || size < 2 {
		return nil
	}
	quads := make([][4]int, 0, (rings-1)*size)
	for i := 0; i < rings-1; i++ {
		for j := 0; j < size; j++ {
			next := (j + 1) % size
			quads = append(quads, [4]int{
				i*size + j,
				i*size + next,
				(i+1)*size + next,
				(i+1)*size + j,
			})
		}
	}
	return quads
}

// Triangles splits every quad along its first diagonal
func (s *Surface) Triangles() [][3]int {
	quads := s.Quads()
	tris := make([][3]int, 0, 2*len(quads))
	for _, q := range quads {
		tris = append(tris, [3]int{q[0], q[1], q[2]}, [3]int{q[0], q[2], q[3]})
	}
	return tris
}

// Bounds returns the axis-aligned box enclosing every ring point
func (s *Surface) Bounds() r3.Box {
	verts := s.Vertices()
	if len(verts) == 0 {
		return r3.Box{}
	}
	lo, hi := verts[0], verts[0]
	for _, v := range verts[1:] {
		lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return r3.Box{Min: lo, Max: hi}
}

// Normals returns a unit normal per vertex, the area-weighted average of the
// adjacent quad normals. Vertices with no non-degenerate quad get the zero
// vector.
func (s *Surface) Normals() []r3.Vec {
	verts := s.Vertices()
	normals := make([]r3.Vec, len(verts))
	for _, q := range s.Quads() {
		a, b, d := verts[q[0]], verts[q[1]], verts[q[3]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(d, a))
		for _, idx := range q {
			normals[idx] = r3.Add(normals[idx], n)
		}
	}
	for i, n := range normals {
		if l := r3.Norm(n); l > 0 {
			normals[i] = r3.Scale(1/l, n)
		}
	}
	return normals
}

// Spine returns the interpolated position of every ring
func (s *Surface) Spine() []r3.Vec {
	out := make([]r3.Vec, len(s.Samples))
	for i, sample := range s.Samples {
		out[i] = sample.Position
	}
	return out
}
