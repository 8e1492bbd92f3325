package server

import (
	"github.com/df07/go-swept-surface/pkg/geometry"
	"github.com/df07/go-swept-surface/pkg/model"
	"github.com/df07/go-swept-surface/pkg/renderer"
	"gonum.org/v1/gonum/spatial/r3"
)

type keyframeJSON struct {
	CrossSection [][2]float64 `json:"crossSection"`
	Scale        float64      `json:"scale"`
	Angle        float64      `json:"angle"`
	Axis         [3]float64   `json:"axis"`
	Position     [3]float64   `json:"position"`
}

type modelJSON struct {
	Family    string         `json:"family"`
	Keyframes []keyframeJSON `json:"keyframes"`
}

type sampleJSON struct {
	Scale       float64    `json:"scale"`
	Orientation [4]float64 `json:"orientation"` // w, x, y, z
	Position    [3]float64 `json:"position"`
	Segment     int        `json:"segment"`
	T           float64    `json:"t"`
	Section     int        `json:"section"`
}

type surfaceJSON struct {
	Version   int            `json:"version"`
	RingCount int            `json:"ringCount"`
	RingSize  int            `json:"ringSize"`
	Rings     [][][3]float64 `json:"rings"`
	Samples   []sampleJSON   `json:"samples"`
	Bounds    [2][3]float64  `json:"bounds"`
}

type cameraJSON struct {
	Eye    [3]float64 `json:"eye"`
	Ref    [3]float64 `json:"ref"`
	Up     [3]float64 `json:"up"`
	FOV    float64    `json:"fov"`
	Aspect float64    `json:"aspect"`
	Near   float64    `json:"near"`
	Far    float64    `json:"far"`
}

func vec(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func modelToJSON(m *model.Model) modelJSON {
	out := modelJSON{Family: m.Family.String(), Keyframes: make([]keyframeJSON, len(m.Keyframes))}
	for i, k := range m.Keyframes {
		section := make([][2]float64, len(k.CrossSection))
		for j, p := range k.CrossSection {
			section[j] = [2]float64{p.X, p.Y}
		}
		out.Keyframes[i] = keyframeJSON{
			CrossSection: section,
			Scale:        k.Scale,
			Angle:        k.Angle,
			Axis:         vec(k.Axis),
			Position:     vec(k.Position),
		}
	}
	return out
}

func surfaceToJSON(s *geometry.Surface, version int) surfaceJSON {
	out := surfaceJSON{
		Version:   version,
		RingCount: s.RingCount(),
		RingSize:  s.RingSize(),
		Rings:     make([][][3]float64, len(s.Rings)),
		Samples:   make([]sampleJSON, len(s.Samples)),
	}
	for i, ring := range s.Rings {
		out.Rings[i] = make([][3]float64, len(ring))
		for j, p := range ring {
			out.Rings[i][j] = vec(p)
		}
	}
	for i, sm := range s.Samples {
		q := sm.Orientation
		out.Samples[i] = sampleJSON{
			Scale:       sm.Scale,
			Orientation: [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag},
			Position:    vec(sm.Position),
			Segment:     sm.Segment,
			T:           sm.T,
			Section:     sm.Section,
		}
	}
	bounds := s.Bounds()
	out.Bounds = [2][3]float64{vec(bounds.Min), vec(bounds.Max)}
	return out
}

func cameraToJSON(c *renderer.Camera) cameraJSON {
	return cameraJSON{
		Eye:    vec(c.Eye),
		Ref:    vec(c.Ref),
		Up:     vec(c.Up),
		FOV:    c.FOV,
		Aspect: c.Aspect,
		Near:   c.Near,
		Far:    c.Far,
	}
}
