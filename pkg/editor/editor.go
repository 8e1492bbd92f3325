// Package editor edits keyframe transforms of a model with pointer drags
// through a camera.
package editor

import (
	"math"

	"github.com/df07/go-swept-surface/pkg/interp"
	"github.com/df07/go-swept-surface/pkg/model"
	"github.com/df07/go-swept-surface/pkg/renderer"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mode is the transform a drag edits
type Mode int

const (
	None Mode = iota
	Scale
	Translate
	Rotate
)

func (m Mode) String() string {
	switch m {
	case Scale:
		return "scale"
	case Translate:
		return "translate"
	case Rotate:
		return "rotate"
	default:
		return "none"
	}
}

// Editor drags one keyframe of a model at a time. Edits mutate the model in
// place; the caller rebuilds the surface afterwards.
type Editor struct {
	Model *model.Model

	mode   Mode
	picked int
	startY float64
	anchor r3.Vec // unit pointer direction at drag start

	// transform of the picked keyframe at drag start
	scale       float64
	position    r3.Vec
	orientation quat.Number
}

// New returns an editor for m
func New(m *model.Model) *Editor {
	return &Editor{Model: m, picked: -1}
}

// Mode reports the active drag, None when idle
func (e *Editor) Mode() Mode {
	return e.mode
}

// Picked returns the keyframe being dragged, or -1
func (e *Editor) Picked() int {
	if e.mode == None {
		return -1
	}
	return e.picked
}

// Pick returns the keyframe whose position is closest to the pointer ray,
// or -1 if the model has no keyframes
func Pick(cam *renderer.Camera, m *model.Model, x, y float64) int {
	ray := cam.Ray(x, y)
	picked := -1
	closest := math.Inf(1)
	for i, k := range m.Keyframes {
		if dd := ray.DistanceSquared(k.Position); dd < closest {
			closest = dd
			picked = i
		}
	}
	return picked
}

// Begin starts a drag at the pointer position. Ctrl scales, Shift
// translates, anything else rotates. It returns the picked keyframe, or -1
// when there is nothing to edit.
func (e *Editor) Begin(cam *renderer.Camera, x, y float64, mods renderer.Modifiers) int {
	e.mode = None
	if e.Model == nil {
		return -1
	}
	e.picked = Pick(cam, e.Model, x, y)
	if e.picked < 0 {
		return -1
	}

	k := e.Model.Keyframes[e.picked]
	switch {
	case mods.Ctrl:
		e.mode = Scale
		e.scale = k.Scale
	case mods.Shift:
		e.mode = Translate
		e.position = k.Position
	default:
		q, err := interp.FromAxisAngle(k.Angle, k.Axis)
		if err != nil {
			return -1
		}
		e.mode = Rotate
		e.orientation = q
	}
	e.startY = y
	e.anchor = cam.Ray(x, y).Direction
	return e.picked
}

// Move updates the picked keyframe for the pointer position. It reports
// whether the model changed.
func (e *Editor) Move(cam *renderer.Camera, x, y float64) bool {
	if e.mode == None || e.picked < 0 || e.picked >= len(e.Model.Keyframes) {
		return false
	}
	k := &e.Model.Keyframes[e.picked]

	switch e.mode {
	case Scale:
		scale := e.scale * math.Pow(10, y-e.startY)
		if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
			return false
		}
		k.Scale = scale
	case Translate:
		// Keep the keyframe's distance to the eye and slide it onto the ray
		distance := r3.Norm(r3.Sub(e.position, cam.Eye))
		k.Position = cam.Ray(x, y).At(distance)
	case Rotate:
		q := fromTwoVectors(cam.Ray(x, y).Direction, e.anchor)
		k.Angle, k.Axis = interp.ToAxisAngle(interp.Normalize(quat.Mul(q, e.orientation)))
	}
	return true
}

// End finishes the drag
func (e *Editor) End() {
	e.mode = None
}

// fromTwoVectors returns the shortest rotation taking a onto b. Parallel
// vectors give the identity.
func fromTwoVectors(a, b r3.Vec) quat.Number {
	axis := r3.Cross(a, b)
	sin := r3.Norm(axis)
	if sin == 0 {
		return interp.Identity
	}
	angle := math.Atan2(sin, r3.Dot(a, b))
	return quat.Number(r3.NewRotation(angle, axis))
}
