package server

import (
	"math"
	"net/http"

	"github.com/df07/go-swept-surface/pkg/editor"
	"github.com/df07/go-swept-surface/pkg/model"
	"github.com/df07/go-swept-surface/pkg/renderer"
)

// InspectResponse represents the JSON response for keyframe inspection
type InspectResponse struct {
	Hit          bool         `json:"hit"`
	Keyframe     int          `json:"keyframe"`
	Distance     float64      `json:"distance"` // from the pick ray to the keyframe position
	Scale        float64      `json:"scale,omitempty"`
	Angle        float64      `json:"angle,omitempty"`
	Axis         [3]float64   `json:"axis"`
	Position     [3]float64   `json:"position"`
	CrossSection [][2]float64 `json:"crossSection,omitempty"`
}

// handleInspect reports the keyframe nearest to the pointer ray through the
// configured camera. x and y are normalized to [-1, 1] with +y up.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	x, err := parseFloatParam(query, "x", 0, -1, 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	y, err := parseFloatParam(query, "y", 0, -1, 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	camera := renderer.NewCamera(s.config.CameraConfig())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		writeError(w, http.StatusNotFound, errNoModel)
		return
	}

	writeJSON(w, http.StatusOK, inspectKeyframe(camera, s.model.Keyframes, editor.Pick(camera, s.model, x, y), x, y))
}

func inspectKeyframe(camera *renderer.Camera, keyframes []model.Keyframe, index int, x, y float64) InspectResponse {
	if index < 0 {
		return InspectResponse{Keyframe: -1}
	}
	k := keyframes[index]
	ray := camera.Ray(x, y)
	section := make([][2]float64, len(k.CrossSection))
	for i, p := range k.CrossSection {
		section[i] = [2]float64{p.X, p.Y}
	}
	return InspectResponse{
		Hit:          true,
		Keyframe:     index,
		Distance:     math.Sqrt(math.Max(0, ray.DistanceSquared(k.Position))),
		Scale:        k.Scale,
		Angle:        k.Angle,
		Axis:         vec(k.Axis),
		Position:     vec(k.Position),
		CrossSection: section,
	}
}
