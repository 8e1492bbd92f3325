package server

import (
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSession(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg serverMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// openSession dials and consumes the initial camera and surface messages
func openSession(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	conn := dialSession(t, s)

	msg := readMessage(t, conn)
	require.Equal(t, "camera", msg.Type)
	require.NotNil(t, msg.Camera)
	assert.Equal(t, [3]float64{0, 0, 3}, msg.Camera.Eye)

	msg = readMessage(t, conn)
	require.Equal(t, "surface", msg.Type)
	require.NotNil(t, msg.Surface)
	assert.Equal(t, 11, msg.Surface.RingCount)
	return conn
}

func TestSession_KeyMovesCamera(t *testing.T) {
	conn := openSession(t, newTestServer(t))

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "key", Key: "w"}))
	msg := readMessage(t, conn)
	require.Equal(t, "camera", msg.Type)
	assert.InDelta(t, 2.9, msg.Camera.Eye[2], 1e-9)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "key", Key: "d"}))
	msg = readMessage(t, conn)
	require.Equal(t, "camera", msg.Type)
	assert.InDelta(t, 89, msg.Camera.FOV, 1e-9)
}

func TestSession_AltDragOrbitsCamera(t *testing.T) {
	conn := openSession(t, newTestServer(t))

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "pointer", Action: "down", Alt: true}))
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "pointer", Action: "move", X: 0.2, Alt: true}))

	msg := readMessage(t, conn)
	require.Equal(t, "camera", msg.Type)
	eye := msg.Camera.Eye
	assert.InDelta(t, 3, math.Sqrt(eye[0]*eye[0]+eye[1]*eye[1]+eye[2]*eye[2]), 1e-9)
	assert.NotEqual(t, 0.0, eye[0])

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "pointer", Action: "up"}))
}

func TestSession_CtrlDragScalesKeyframe(t *testing.T) {
	s := newTestServer(t)
	before := s.model.Keyframes[0].Scale
	conn := openSession(t, s)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "pointer", Action: "down", Ctrl: true}))
	msg := readMessage(t, conn)
	require.Equal(t, "pick", msg.Type)
	require.NotNil(t, msg.Keyframe)
	assert.Equal(t, 0, *msg.Keyframe)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "pointer", Action: "move", Y: 0.1, Ctrl: true}))
	msg = readMessage(t, conn)
	require.Equal(t, "surface", msg.Type)
	assert.InDelta(t, before*math.Pow(10, 0.1), msg.Surface.Samples[0].Scale, 1e-9)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "pointer", Action: "up"}))
	// Releasing is silent; the next reply answers the key
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "key", Key: "s"}))
	assert.Equal(t, "camera", readMessage(t, conn).Type)

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.InDelta(t, before*math.Pow(10, 0.1), s.model.Keyframes[0].Scale, 1e-9)
}

func TestSession_Errors(t *testing.T) {
	conn := openSession(t, newTestServer(t))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Error, "invalid message")

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "teleport"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)

	// Model did not come from a file
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "save"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
}
