package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"

	"github.com/df07/go-animated-scenes/pkg/renderer"
)

// FrameUpdate represents a single frame sent via SSE
type FrameUpdate struct {
	Frame     int64  `json:"frame"`
	ElapsedMs int64  `json:"elapsedMs"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
}

// Stats represents rasterizer statistics for one frame
type Stats struct {
	Triangles  int   `json:"triangles"`
	Culled     int   `json:"culled"`
	Drawn      int   `json:"drawn"`
	Bands      int   `json:"bands"`
	DurationUs int64 `json:"durationUs"`
}

func newStats(s renderer.FrameStats) Stats {
	return Stats{
		Triangles:  s.Triangles,
		Culled:     s.Culled,
		Drawn:      s.Drawn,
		Bands:      s.Bands,
		DurationUs: s.Duration.Microseconds(),
	}
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "frame", "panel", "error"
	Data string `json:"data"` // JSON-encoded data
}

// handleStream streams frames and console messages of a live scene via SSE
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	sess, err := s.session(r.URL.Query().Get("scene"))
	if err != nil {
		s.writeSSE(w, SSEEvent{Type: "error", Data: err.Error()})
		return
	}

	events := sess.subscribe()
	defer sess.unsubscribe(events)

	// Current panel state first, so the page can build its controls
	var panelData []byte
	err = sess.loop.Do(ctx, func() error {
		var err error
		panelData, err = json.Marshal(panelState(sess))
		return err
	})
	if err != nil {
		s.writeSSE(w, SSEEvent{Type: "error", Data: err.Error()})
		return
	}
	if err := s.writeSSE(w, SSEEvent{Type: "panel", Data: string(panelData)}); err != nil {
		return
	}

	s.writeSSEEvents(ctx, w, events, sess.loop.Done())
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes events until the client disconnects or the
// scene's loop ends
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, events <-chan SSEEvent, done <-chan struct{}) {
	for {
		select {
		case event := <-events:
			if err := s.writeSSE(w, event); err != nil {
				// Client disconnected during write
				return
			}
		case <-done:
			s.writeSSE(w, SSEEvent{Type: "complete", Data: "render loop stopped"})
			return
		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// writeSSE writes and flushes one event
func (s *Server) writeSSE(w http.ResponseWriter, event SSEEvent) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
