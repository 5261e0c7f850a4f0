package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-animated-scenes/pkg/panel"
	"github.com/df07/go-animated-scenes/pkg/renderer"
)

// ControlMessage is a client request on the control websocket
type ControlMessage struct {
	Type   string          `json:"type"` // "get", "set", "orbit", "dolly", "resize"
	Name   string          `json:"name,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	DX     float32         `json:"dx,omitempty"`
	DY     float32         `json:"dy,omitempty"`
	Scale  float32         `json:"scale,omitempty"`
	Width  int             `json:"width,omitempty"`
	Height int             `json:"height,omitempty"`
}

// ControlReply is sent after every control message
type ControlReply struct {
	Type  string      `json:"type"` // "panel" or "error"
	Panel *PanelState `json:"panel,omitempty"`
	Error string      `json:"error,omitempty"`
}

// PanelState is the panel of a live scene
type PanelState struct {
	Scene    string             `json:"scene"`
	Controls []panel.Descriptor `json:"controls"`
}

var errNoOrbit = errors.New("scene has no orbit controls")

type orbiter interface {
	OrbitControls() *renderer.OrbitControls
}

func panelState(sess *session) *PanelState {
	return &PanelState{Scene: sess.id, Controls: sess.scene.Panel().Controls()}
}

// decodeValue decodes a JSON panel value, keeping numbers as json.Number
func decodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing value", panel.ErrTypeMismatch)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", panel.ErrTypeMismatch, err)
	}
	return v, nil
}

// apply runs one control message on the loop goroutine
func (sess *session) apply(msg ControlMessage) error {
	sc := sess.scene
	switch msg.Type {
	case "get":
		return nil
	case "set":
		v, err := decodeValue(msg.Value)
		if err != nil {
			return err
		}
		return sc.Panel().Set(msg.Name, v)
	case "orbit", "dolly":
		o, ok := sc.(orbiter)
		if !ok {
			return errNoOrbit
		}
		if msg.Type == "orbit" {
			o.OrbitControls().Rotate(msg.DX, msg.DY)
		} else {
			o.OrbitControls().Dolly(msg.Scale)
		}
		return nil
	case "resize":
		return sc.Resize(msg.Width, msg.Height)
	default:
		return fmt.Errorf("unknown control message type %q", msg.Type)
	}
}

// handleControl upgrades to a websocket that edits a live scene
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.URL.Query().Get("scene"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var msg ControlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("control connection closed", "error", err)
			}
			return
		}

		var reply ControlReply
		err := sess.loop.Do(r.Context(), func() error {
			if err := sess.apply(msg); err != nil {
				return err
			}
			reply = ControlReply{Type: "panel", Panel: panelState(sess)}
			return nil
		})
		if err != nil {
			reply = ControlReply{Type: "error", Error: err.Error()}
		}

		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}
