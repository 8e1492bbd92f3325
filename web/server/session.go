package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/df07/go-swept-surface/pkg/editor"
	"github.com/df07/go-swept-surface/pkg/loaders"
	"github.com/df07/go-swept-surface/pkg/renderer"
	"github.com/gorilla/websocket"
)

// clientMessage is a pointer or key event from the viewer. Pointer
// coordinates are normalized to [-1, 1] with +y up.
type clientMessage struct {
	Type   string  `json:"type"`   // "pointer", "key", "save"
	Action string  `json:"action"` // "down", "move", "up"
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Shift  bool    `json:"shift"`
	Ctrl   bool    `json:"ctrl"`
	Alt    bool    `json:"alt"`
	Key    string  `json:"key"`
}

// serverMessage is a reply to the viewer
type serverMessage struct {
	Type     string       `json:"type"` // "camera", "surface", "pick", "saved", "error"
	Camera   *cameraJSON  `json:"camera,omitempty"`
	Surface  *surfaceJSON `json:"surface,omitempty"`
	Keyframe *int         `json:"keyframe,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// session is one viewer connection. Alt drags move the camera, plain drags
// edit the keyframe under the pointer.
type session struct {
	server     *Server
	conn       *websocket.Conn
	camera     *renderer.Camera
	editor     *editor.Editor
	dragCamera bool
}

// handleWebSocket runs an interactive session until the client disconnects
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := &session{
		server: s,
		conn:   conn,
		camera: renderer.NewCamera(s.config.CameraConfig()),
		editor: editor.New(nil),
	}
	s.logger.Info("session started", "remote", r.RemoteAddr)
	defer s.logger.Info("session ended", "remote", r.RemoteAddr)

	if err := sess.sendCamera(); err != nil {
		return
	}
	if err := sess.sendSurface(); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("session read failed", "error", err)
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			err = sess.sendError(fmt.Errorf("invalid message: %w", err))
		} else {
			err = sess.handle(msg)
		}
		if err != nil {
			return
		}
	}
}

// handle applies one client message. The returned error is a write failure
// that ends the session.
func (sess *session) handle(msg clientMessage) error {
	switch msg.Type {
	case "pointer":
		return sess.handlePointer(msg)
	case "key":
		ch, _ := utf8.DecodeRuneInString(msg.Key)
		if ch == utf8.RuneError || !sess.camera.Key(ch) {
			return nil
		}
		return sess.sendCamera()
	case "save":
		return sess.save()
	default:
		return sess.sendError(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

func (sess *session) handlePointer(msg clientMessage) error {
	mods := renderer.Modifiers{Shift: msg.Shift, Ctrl: msg.Ctrl, Alt: msg.Alt}
	s := sess.server

	switch msg.Action {
	case "down":
		if msg.Alt {
			sess.dragCamera = true
			sess.camera.PointerDown(msg.X, msg.Y, mods)
			return nil
		}
		s.mu.Lock()
		sess.editor.Model = s.model
		picked := sess.editor.Begin(sess.camera, msg.X, msg.Y, mods)
		s.mu.Unlock()
		return sess.conn.WriteJSON(serverMessage{Type: "pick", Keyframe: &picked})

	case "move":
		if sess.dragCamera {
			if !sess.camera.PointerMove(msg.X, msg.Y) {
				return nil
			}
			return sess.sendCamera()
		}
		if sess.editor.Mode() == editor.None {
			return nil
		}
		s.mu.Lock()
		changed := false
		if sess.editor.Model != s.model {
			// replaced while dragging
			sess.editor.End()
		} else if changed = sess.editor.Move(sess.camera, msg.X, msg.Y); changed {
			s.version++
		}
		s.mu.Unlock()
		if !changed {
			return nil
		}
		s.modelChanged()
		return sess.sendSurface()

	case "up":
		if sess.dragCamera {
			sess.dragCamera = false
			sess.camera.PointerUp()
			return nil
		}
		sess.editor.End()
		return nil

	default:
		return sess.sendError(fmt.Errorf("unknown pointer action %q", msg.Action))
	}
}

// save writes the shared model back to the file it was loaded from
func (sess *session) save() error {
	s := sess.server
	s.mu.RLock()
	path, m := s.modelPath, s.model
	var err error
	switch {
	case m == nil:
		err = errNoModel
	case path == "":
		err = fmt.Errorf("model was not loaded from a file")
	default:
		err = loaders.SaveModel(path, m)
	}
	s.mu.RUnlock()
	if err != nil {
		return sess.sendError(err)
	}
	s.logger.Info("model saved", "path", path)
	return sess.conn.WriteJSON(serverMessage{Type: "saved"})
}

func (sess *session) sendCamera() error {
	camera := cameraToJSON(sess.camera)
	return sess.conn.WriteJSON(serverMessage{Type: "camera", Camera: &camera})
}

// sendSurface sends the current surface, or nothing when no model is loaded
func (sess *session) sendSurface() error {
	surface, version, err := sess.server.buildSurface(sess.server.config.SurfaceOptions())
	if errors.Is(err, errNoModel) {
		return nil
	}
	if err != nil {
		return sess.sendError(err)
	}
	body := surfaceToJSON(surface, version)
	return sess.conn.WriteJSON(serverMessage{Type: "surface", Surface: &body})
}

func (sess *session) sendError(err error) error {
	return sess.conn.WriteJSON(serverMessage{Type: "error", Error: err.Error()})
}
