package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/cv-builder/internal/editor"
)

// SSEWriter writes preview updates as Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers and returns a writer, or an error
// when the connection cannot be flushed incrementally.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends a named event with a JSON payload
func (s *SSEWriter) WriteEvent(event string, data any) error {
	return s.writeFrame("", event, data)
}

// WriteRender sends a freshly rendered preview. The event id is the render
// sequence number, so a reconnecting client can tell whether it missed one.
func (s *SSEWriter) WriteRender(ev editor.Event) error {
	return s.writeFrame(strconv.Itoa(ev.Seq), "render", ev)
}

func (s *SSEWriter) writeFrame(id, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var frame strings.Builder
	if id != "" {
		frame.WriteString("id: " + id + "\n")
	}
	fmt.Fprintf(&frame, "event: %s\ndata: %s\n\n", event, payload)
	if _, err := io.WriteString(s.w, frame.String()); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WritePing sends a comment line that keeps idle proxies from closing the stream
func (s *SSEWriter) WritePing() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}
