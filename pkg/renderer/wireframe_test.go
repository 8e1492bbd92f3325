package renderer

import (
	"image/color"
	"testing"

	"github.com/df07/go-swept-surface/pkg/geometry"
	"github.com/df07/go-swept-surface/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func squareTube(t *testing.T) *geometry.Surface {
	t.Helper()
	section := []r2.Vec{{X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5}, {X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}}
	m := &model.Model{
		Family: model.CatmullRom,
		Keyframes: []model.Keyframe{
			{CrossSection: section, Scale: 1, Axis: r3.Vec{X: 1}, Position: r3.Vec{Z: -1}},
			{CrossSection: section, Scale: 1, Axis: r3.Vec{X: 1}, Position: r3.Vec{Z: 0}},
		},
	}
	s, err := geometry.BuildSurface(m, geometry.SurfaceOptions{Steps: 1, SectionSteps: 1})
	require.NoError(t, err)
	return s
}

func isStroke(c color.RGBA) bool {
	return c.R > 128 && c.G > 128 && c.B > 128
}

func TestWireframeRender(t *testing.T) {
	surface := squareTube(t)
	camera := NewCamera(DefaultCameraConfig())
	wf := DefaultWireframe(100, 100)
	wf.LineWidth = 2

	img := wf.Render(camera, surface)
	require.Equal(t, 100, img.Bounds().Dx())
	require.Equal(t, 100, img.Bounds().Dy())

	// The front ring at z=0 projects to a square with corners at ±1/6 NDC,
	// i.e. pixel columns and rows near 41.7 and 58.3. Its top edge crosses
	// the centre column.
	assert.True(t, isStroke(img.RGBAAt(50, 42)), "expected the top edge of the front ring")
	assert.True(t, isStroke(img.RGBAAt(42, 50)), "expected the left edge of the front ring")

	// The centre of the view looks straight down the tube
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(50, 50))
	// Far corners of the image are background
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(99, 99))
}

func TestWireframeRender_SkipsSegmentsBehindNearPlane(t *testing.T) {
	surface := squareTube(t)
	config := DefaultCameraConfig()
	config.Eye = r3.Vec{Z: -0.5} // inside the tube, between the rings
	config.Ref = r3.Vec{Z: -3}
	camera := NewCamera(config)

	img := DefaultWireframe(64, 64).Render(camera, surface)

	// Only the back ring at z=-1 is at least near=1 away, but it is only
	// 0.5 in front of the eye; nothing is drawn.
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if isStroke(img.RGBAAt(x, y)) {
				t.Fatalf("unexpected stroke at (%d, %d)", x, y)
			}
		}
	}
}

func TestWireframeRender_EmptySurface(t *testing.T) {
	wf := DefaultWireframe(8, 8)
	img := wf.Render(NewCamera(DefaultCameraConfig()), &geometry.Surface{})
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(4, 4))
}

func TestWireframeSpine(t *testing.T) {
	surface := squareTube(t)
	wf := DefaultWireframe(100, 100)

	spine := wf.Spine(NewCamera(DefaultCameraConfig()), surface)
	require.Len(t, spine, 2)
	for _, p := range spine {
		assert.InDelta(t, 50, p.X, 1e-9)
		assert.InDelta(t, 50, p.Y, 1e-9)
	}
}
