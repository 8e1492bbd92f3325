package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/df07/go-swept-surface/pkg/geometry"
	"golang.org/x/image/vector"
	"gonum.org/v1/gonum/spatial/r2"
)

// Wireframe rasterizes a surface's rings and longitudinal lines
type Wireframe struct {
	Width      int
	Height     int
	LineWidth  float64 // in pixels
	Background color.Color
	Stroke     color.Color
}

// DefaultWireframe matches the viewer's black background with white lines
func DefaultWireframe(width, height int) Wireframe {
	return Wireframe{
		Width:      width,
		Height:     height,
		LineWidth:  1,
		Background: color.Black,
		Stroke:     color.White,
	}
}

// Render draws the surface as seen by cam. Each ring is a closed loop and
// each point index traces a polyline across the rings. Segments with an end
// in front of the near plane are skipped.
func (w Wireframe) Render(cam *Camera, s *geometry.Surface) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w.Width, w.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(w.Background), image.Point{}, draw.Src)
	if s == nil || s.RingCount() == 0 || w.Width <= 0 || w.Height <= 0 {
		return img
	}

	raster := vector.NewRasterizer(w.Width, w.Height)
	halfWidth := math.Max(w.LineWidth, 0.5) / 2

	// Project every vertex once
	size := s.RingSize()
	projected := make([]r2.Vec, 0, s.RingCount()*size)
	visible := make([]bool, 0, cap(projected))
	for _, ring := range s.Rings {
		for _, p := range ring {
			ndc, ok := cam.Project(p)
			projected = append(projected, w.toPixel(ndc))
			visible = append(visible, ok)
		}
	}

	segment := func(a, b int) {
		if visible[a] && visible[b] {
			strokeSegment(raster, projected[a], projected[b], halfWidth)
		}
	}

	for i := range s.Rings {
		for j := 0; j < size; j++ {
			segment(i*size+j, i*size+(j+1)%size)
			if i+1 < len(s.Rings) {
				segment(i*size+j, (i+1)*size+j)
			}
		}
	}

	raster.Draw(img, img.Bounds(), image.NewUniform(w.Stroke), image.Point{})
	return img
}

// toPixel maps normalized device coordinates to pixel space, y down
func (w Wireframe) toPixel(ndc r2.Vec) r2.Vec {
	return r2.Vec{
		X: (ndc.X + 1) / 2 * float64(w.Width),
		Y: (1 - ndc.Y) / 2 * float64(w.Height),
	}
}

// strokeSegment adds a line segment to the path as a thin quad. The quad is
// always wound the same way relative to its direction so overlapping
// strokes accumulate instead of cancelling.
func strokeSegment(raster *vector.Rasterizer, a, b r2.Vec, halfWidth float64) {
	d := r2.Sub(b, a)
	length := r2.Norm(d)
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return
	}
	o := r2.Scale(halfWidth/length, r2.Vec{X: -d.Y, Y: d.X})

	p0, p1 := r2.Add(a, o), r2.Add(b, o)
	p2, p3 := r2.Sub(b, o), r2.Sub(a, o)
	raster.MoveTo(float32(p0.X), float32(p0.Y))
	raster.LineTo(float32(p1.X), float32(p1.Y))
	raster.LineTo(float32(p2.X), float32(p2.Y))
	raster.LineTo(float32(p3.X), float32(p3.Y))
	raster.ClosePath()
}

// Spine projects the surface spine to pixel coordinates, dropping points in
// front of the near plane
func (w Wireframe) Spine(cam *Camera, s *geometry.Surface) []r2.Vec {
	var out []r2.Vec
	for _, p := range s.Spine() {
		if ndc, ok := cam.Project(p); ok {
			out = append(out, w.toPixel(ndc))
		}
	}
	return out
}
