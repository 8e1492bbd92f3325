package renderer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const tolerance = 1e-9

func assertVecNear(t *testing.T, expected, actual r3.Vec, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, tolerance, msgAndArgs...)
	assert.InDelta(t, expected.Y, actual.Y, tolerance, msgAndArgs...)
	assert.InDelta(t, expected.Z, actual.Z, tolerance, msgAndArgs...)
}

func TestCameraView_Default(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	view := camera.View()

	assertVecNear(t, r3.Vec{Z: -1}, view.Forward)
	assertVecNear(t, r3.Vec{X: 1}, view.Right)
	assertVecNear(t, r3.Vec{Y: 1}, view.Up)
}

func TestCameraView_UpParallelToViewDirection(t *testing.T) {
	config := DefaultCameraConfig()
	config.Eye = r3.Vec{Y: 3}
	camera := NewCamera(config)

	view := camera.View()
	assert.InDelta(t, 1, r3.Norm(view.Right), tolerance)
	assert.InDelta(t, 0, r3.Dot(view.Right, view.Forward), tolerance)
	assert.InDelta(t, 0, r3.Dot(view.Up, view.Forward), tolerance)
}

func TestCameraProject(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())

	tests := []struct {
		name    string
		point   r3.Vec
		wantX   float64
		wantY   float64
		inFront bool
	}{
		{"reference point", r3.Vec{}, 0, 0, true},
		{"right of reference", r3.Vec{X: 1}, 1.0 / 3, 0, true},
		{"above reference", r3.Vec{Y: 1.5}, 0, 0.5, true},
		{"on near plane edge", r3.Vec{X: 1, Z: 2}, 1, 0, true},
		{"behind eye", r3.Vec{Z: 5}, 0, 0, false},
		{"inside near plane", r3.Vec{Z: 2.5}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ndc, ok := camera.Project(tt.point)
			require.Equal(t, tt.inFront, ok)
			if ok {
				assert.InDelta(t, tt.wantX, ndc.X, tolerance)
				assert.InDelta(t, tt.wantY, ndc.Y, tolerance)
			}
		})
	}
}

func TestCameraNearPlanePoint_ProjectsBack(t *testing.T) {
	config := DefaultCameraConfig()
	config.Aspect = 1.5
	config.FOV = 60
	camera := NewCamera(config)

	for _, p := range [][2]float64{{0, 0}, {0.5, -0.25}, {-1, 1}} {
		world := camera.NearPlanePoint(p[0], p[1])
		ndc, ok := camera.Project(world)
		require.True(t, ok)
		assert.InDelta(t, p[0], ndc.X, tolerance)
		assert.InDelta(t, p[1], ndc.Y, tolerance)
	}
}

func TestCameraRotate_SamePointIsIdentity(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	camera.PointerDown(0.3, -0.2, Modifiers{})
	require.Equal(t, DragRotate, camera.Mode())

	camera.PointerMove(0.3, -0.2)
	assertVecNear(t, r3.Vec{Z: 3}, camera.Eye)
	assertVecNear(t, r3.Vec{}, camera.Ref)
}

func TestCameraRotate_OrbitsReference(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	camera.PointerDown(0, 0, Modifiers{})
	camera.PointerMove(0.2, 0)

	// Dragging right turns the scene right, so the eye swings left around
	// the reference at constant distance
	assert.Less(t, camera.Eye.X, 0.0)
	assert.InDelta(t, 0, camera.Eye.Y, tolerance)
	assert.InDelta(t, 3, r3.Norm(r3.Sub(camera.Eye, camera.Ref)), tolerance)
	assertVecNear(t, r3.Vec{}, camera.Ref)

	// The turn matches the angle between the two sphere points
	s := r3.Vec{Z: 1} // sphere point under the centre of the view
	camera2 := NewCamera(DefaultCameraConfig())
	camera2.prevEye, camera2.prevRef = camera2.Eye, camera2.Ref
	e := camera2.trackballPoint(0.2, 0)
	want := math.Acos(r3.Dot(s, e) / (r3.Norm(s) * r3.Norm(e)))
	got := math.Acos(r3.Dot(r3.Unit(camera.Eye), r3.Vec{Z: 1}))
	assert.InDelta(t, want, got, 1e-9)

	// Moves are relative to the drag start, not cumulative
	camera.PointerMove(0.2, 0)
	assert.InDelta(t, got, math.Acos(r3.Dot(r3.Unit(camera.Eye), r3.Vec{Z: 1})), 1e-12)

	camera.PointerUp()
	assert.Equal(t, DragNone, camera.Mode())
	eye := camera.Eye
	assert.False(t, camera.PointerMove(0.9, 0.9))
	assert.Equal(t, eye, camera.Eye)
}

func TestCameraTrackballPoint(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	camera.prevEye, camera.prevRef = camera.Eye, camera.Ref

	// Sphere radius is |ref - eye| - near = 2
	center := camera.trackballPoint(0, 0)
	assertVecNear(t, r3.Vec{Z: 2}, center)

	// A ray through the corner misses the sphere and lands on its silhouette
	corner := camera.trackballPoint(1, 1)
	assert.InDelta(t, 2, r3.Norm(corner), tolerance)
}

func TestCameraTranslate(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	camera.PointerDown(0, 0, Modifiers{Shift: true})
	require.Equal(t, DragTranslate, camera.Mode())

	// Near plane half height is tan(45°)·1 = 1
	camera.PointerMove(0.5, 0.25)
	assertVecNear(t, r3.Vec{X: -0.5, Y: -0.25, Z: 3}, camera.Eye)
	assertVecNear(t, r3.Vec{X: -0.5, Y: -0.25}, camera.Ref)

	camera.PointerMove(0, 0)
	assertVecNear(t, r3.Vec{Z: 3}, camera.Eye)
}

func TestCameraCtrlDragIsIgnored(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	camera.PointerDown(0, 0, Modifiers{Ctrl: true, Shift: true})
	assert.Equal(t, DragNone, camera.Mode())
	assert.False(t, camera.PointerMove(0.5, 0.5))
	assertVecNear(t, r3.Vec{Z: 3}, camera.Eye)
}

func TestCameraDolly(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())

	require.True(t, camera.Key('w'))
	assertVecNear(t, r3.Vec{Z: 2.9}, camera.Eye)
	require.True(t, camera.Key('s'))
	assertVecNear(t, r3.Vec{Z: 3}, camera.Eye)

	// Dolly in stops before the near distance
	steps := 0
	for camera.Key('w') {
		steps++
		require.Less(t, steps, 100)
	}
	distance := r3.Norm(r3.Sub(camera.Eye, camera.Ref))
	assert.Greater(t, distance, camera.Near)
	assert.LessOrEqual(t, distance-DollyStep, camera.Near)

	// Dolly out stops before the far distance
	for camera.Key('s') {
		steps++
		require.Less(t, steps, 1000)
	}
	distance = r3.Norm(r3.Sub(camera.Eye, camera.Ref))
	assert.Less(t, distance, camera.Far)
	assert.GreaterOrEqual(t, distance+DollyStep, camera.Far)
}

func TestCameraZoom(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())

	require.True(t, camera.Key('d'))
	assert.Equal(t, 89.0, camera.FOV)
	require.True(t, camera.Key('a'))
	assert.Equal(t, 90.0, camera.FOV)

	for camera.Key('d') {
	}
	assert.Equal(t, MinFOV, camera.FOV)

	for camera.Key('a') {
	}
	assert.Equal(t, MaxFOV-1, camera.FOV)

	assert.False(t, camera.Key('x'))
}
