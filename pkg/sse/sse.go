// Package sse encodes server-sent events in the line-oriented wire format
// consumed by the controller's stream reader: an optional "id:" line, an
// "event:" line, a "data:" line carrying compact JSON, and a blank line
// terminating the message.
package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Event is one server-sent event before encoding.
type Event struct {
	// ID becomes the "id:" line when non-empty. Command events use the
	// command id so clients can correlate acknowledgments.
	ID string

	// Name becomes the "event:" line (status, command, ping).
	Name string

	// Data is marshalled to compact JSON for the "data:" line.
	Data any
}

// Encode renders the event in wire format.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling event data: %w", err)
	}
	var buf bytes.Buffer
	if e.ID != "" {
		fmt.Fprintf(&buf, "id: %s\n", e.ID)
	}
	fmt.Fprintf(&buf, "event: %s\n", e.Name)
	fmt.Fprintf(&buf, "data: %s\n\n", data)
	return buf.Bytes(), nil
}

// Writer emits events onto an HTTP response, flushing after each one so
// long-lived push connections deliver promptly.
type Writer struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewWriter prepares w for event streaming and sets the response headers.
// It returns an error when the ResponseWriter cannot flush, since buffered
// delivery defeats a push channel.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	return &Writer{w: w, f: f}, nil
}

// Send encodes and writes one event, then flushes.
func (sw *Writer) Send(e Event) error {
	b, err := e.Encode()
	if err != nil {
		return err
	}
	if _, err := sw.w.Write(b); err != nil {
		return err
	}
	sw.f.Flush()
	return nil
}
