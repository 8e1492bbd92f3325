package renderer

import (
	"math"

	"github.com/df07/go-swept-surface/pkg/core"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera movement limits
const (
	DollyStep = 0.1 // world units per dolly key press
	ZoomStep  = 1.0 // degrees per zoom key press
	MinFOV    = 1.0
	MaxFOV    = 180.0 // exclusive
)

// CameraConfig contains the initial camera placement and lens
type CameraConfig struct {
	Eye    r3.Vec  // Camera position
	Ref    r3.Vec  // Point the camera looks at; the trackball center
	Up     r3.Vec  // World up direction
	FOV    float64 // Vertical field of view in degrees
	Aspect float64 // Width / height
	Near   float64 // Near plane distance
	Far    float64 // Far plane distance
}

// DefaultCameraConfig looks at the origin from +Z with a 90° lens
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Eye:    r3.Vec{X: 0, Y: 0, Z: 3},
		Ref:    r3.Vec{},
		Up:     r3.Vec{Y: 1},
		FOV:    90,
		Aspect: 1,
		Near:   1,
		Far:    30,
	}
}

// DragMode is what a pointer drag does to the camera
type DragMode int

const (
	DragNone DragMode = iota
	DragRotate
	DragTranslate
)

func (m DragMode) String() string {
	switch m {
	case DragRotate:
		return "rotate"
	case DragTranslate:
		return "translate"
	default:
		return "none"
	}
}

// Modifiers are the keyboard modifiers held during a pointer event
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
}

// Camera is an orbit/trackball camera driven by pointer drags and keys.
// Pointer coordinates are normalized to [-1, 1] with +y up.
type Camera struct {
	Eye    r3.Vec
	Ref    r3.Vec
	Up     r3.Vec
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	mode    DragMode
	prevEye r3.Vec // eye when the drag started
	prevRef r3.Vec // ref when the drag started
	anchor  r3.Vec // near-plane or sphere point under the pointer at drag start
}

// NewCamera creates a camera from config
func NewCamera(config CameraConfig) *Camera {
	return &Camera{
		Eye:    config.Eye,
		Ref:    config.Ref,
		Up:     config.Up,
		FOV:    config.FOV,
		Aspect: config.Aspect,
		Near:   config.Near,
		Far:    config.Far,
	}
}

// Config returns the current placement and lens
func (c *Camera) Config() CameraConfig {
	return CameraConfig{Eye: c.Eye, Ref: c.Ref, Up: c.Up, FOV: c.FOV, Aspect: c.Aspect, Near: c.Near, Far: c.Far}
}

// Mode reports the active drag, DragNone when idle
func (c *Camera) Mode() DragMode {
	return c.mode
}

// View is the orthonormal look-at basis of a camera
type View struct {
	Eye     r3.Vec
	Forward r3.Vec // from eye towards ref
	Right   r3.Vec
	Up      r3.Vec
}

// View returns the current look-at basis
func (c *Camera) View() View {
	n, u, v := basis(c.Eye, c.Ref, c.Up)
	return View{Eye: c.Eye, Forward: r3.Scale(-1, n), Right: u, Up: v}
}

// basis returns n pointing from ref back to eye, u to the right and v up.
// If up is parallel to the view direction another axis stands in for it.
func basis(eye, ref, up r3.Vec) (n, u, v r3.Vec) {
	n = r3.Unit(r3.Sub(eye, ref))
	cross := r3.Cross(up, n)
	if r3.Norm(cross) < 1e-12 {
		alt := r3.Vec{Z: 1}
		if math.Abs(n.Z) > 0.9 {
			alt = r3.Vec{X: 1}
		}
		cross = r3.Cross(alt, n)
	}
	u = r3.Unit(cross)
	v = r3.Cross(n, u)
	return n, u, v
}

// nearPlaneHalfSize returns the half width and half height of the near plane
func (c *Camera) nearPlaneHalfSize() r2.Vec {
	height := math.Tan(c.FOV*math.Pi/360) * c.Near
	return r2.Vec{X: height * c.Aspect, Y: height}
}

// nearPlanePoint unprojects a normalized pointer position onto the near
// plane of a camera at eye looking at ref
func (c *Camera) nearPlanePoint(eye, ref r3.Vec, x, y float64) r3.Vec {
	size := c.nearPlaneHalfSize()
	n, u, v := basis(eye, ref, c.Up)
	o := r3.Sub(eye, r3.Scale(c.Near, n))
	return r3.Add(o, r3.Add(r3.Scale(x*size.X, u), r3.Scale(y*size.Y, v)))
}

// NearPlanePoint unprojects a normalized pointer position onto the current
// near plane
func (c *Camera) NearPlanePoint(x, y float64) r3.Vec {
	return c.nearPlanePoint(c.Eye, c.Ref, x, y)
}

// Ray returns the ray from the eye through the pointer position, with a
// unit direction
func (c *Camera) Ray(x, y float64) core.Ray {
	return core.NewRay(c.Eye, r3.Unit(r3.Sub(c.NearPlanePoint(x, y), c.Eye)))
}

// Project maps a world point to normalized device coordinates. The result
// is only meaningful when ok is true, i.e. the point is at or beyond the
// near plane.
func (c *Camera) Project(p r3.Vec) (ndc r2.Vec, ok bool) {
	n, u, v := basis(c.Eye, c.Ref, c.Up)
	rel := r3.Sub(p, c.Eye)
	depth := -r3.Dot(rel, n)
	if depth < c.Near {
		return r2.Vec{}, false
	}
	tan := math.Tan(c.FOV * math.Pi / 360)
	return r2.Vec{
		X: r3.Dot(rel, u) / (depth * tan * c.Aspect),
		Y: r3.Dot(rel, v) / (depth * tan),
	}, true
}

// trackballPoint intersects the pointer ray from the captured eye with the
// virtual sphere around ref. Rays that miss are pulled onto the sphere at
// their point of closest approach.
func (c *Camera) trackballPoint(x, y float64) r3.Vec {
	np := c.nearPlanePoint(c.prevEye, c.prevRef, x, y)
	dir := r3.Unit(r3.Sub(np, c.prevEye))

	l := r3.Sub(c.prevRef, c.prevEye)
	t := r3.Dot(l, dir)
	dd := r3.Dot(l, l) - t*t

	r := r3.Norm(l) - c.Near
	rr := r * r

	if dd > rr {
		q := r3.Add(c.prevEye, r3.Scale(t, dir))
		d := math.Sqrt(dd)
		return r3.Scale(1/d, r3.Add(r3.Scale(d-r, c.prevRef), r3.Scale(r, q)))
	}
	t -= math.Sqrt(rr - dd)
	return r3.Add(c.prevEye, r3.Scale(t, dir))
}

// PointerDown starts a drag. Shift translates, Ctrl is left to the
// keyframe editor, anything else rotates.
func (c *Camera) PointerDown(x, y float64, mods Modifiers) {
	c.prevEye = c.Eye
	c.prevRef = c.Ref
	switch {
	case mods.Ctrl:
		c.mode = DragNone
	case mods.Shift:
		c.mode = DragTranslate
		c.anchor = c.nearPlanePoint(c.prevEye, c.prevRef, x, y)
	default:
		c.mode = DragRotate
		c.anchor = c.trackballPoint(x, y)
	}
}

// PointerMove updates the camera for the active drag. It reports whether
// the camera changed.
func (c *Camera) PointerMove(x, y float64) bool {
	switch c.mode {
	case DragTranslate:
		displacement := r3.Sub(c.nearPlanePoint(c.prevEye, c.prevRef, x, y), c.anchor)
		c.Eye = r3.Sub(c.prevEye, displacement)
		c.Ref = r3.Sub(c.prevRef, displacement)
		return true
	case DragRotate:
		s := r3.Sub(c.anchor, c.prevRef)
		e := r3.Sub(c.trackballPoint(x, y), c.prevRef)
		axis := r3.Cross(s, e)
		sin := r3.Norm(axis)
		if sin == 0 || math.IsNaN(sin) {
			c.Eye = c.prevEye
			return true
		}
		// The scene turns from s to e, so the eye turns the other way
		angle := math.Atan2(sin, r3.Dot(s, e))
		rot := r3.NewRotation(-angle, axis)
		c.Eye = r3.Add(rot.Rotate(r3.Sub(c.prevEye, c.prevRef)), c.prevRef)
		return true
	}
	return false
}

// PointerUp ends the drag
func (c *Camera) PointerUp() {
	c.mode = DragNone
}

// Key applies a keyboard command: w/s dolly in and out, d/a zoom in and
// out. It reports whether the camera changed.
func (c *Camera) Key(ch rune) bool {
	switch ch {
	case 'w':
		return c.Dolly(-DollyStep)
	case 's':
		return c.Dolly(DollyStep)
	case 'd':
		return c.Zoom(-ZoomStep)
	case 'a':
		return c.Zoom(ZoomStep)
	}
	return false
}

// Dolly moves the eye along the view direction by delta (negative moves
// closer). Moves that would cross the near or far distance are ignored.
func (c *Camera) Dolly(delta float64) bool {
	v := r3.Sub(c.Eye, c.Ref)
	distance := r3.Norm(v)
	if delta < 0 && distance+delta <= c.Near || delta > 0 && distance+delta >= c.Far {
		return false
	}
	c.Eye = r3.Add(c.Eye, r3.Scale(delta/distance, v))
	return true
}

// Zoom changes the field of view by delta degrees within [MinFOV, MaxFOV)
func (c *Camera) Zoom(delta float64) bool {
	if delta < 0 && c.FOV+delta < MinFOV || delta > 0 && c.FOV+delta >= MaxFOV {
		return false
	}
	c.FOV += delta
	return true
}
