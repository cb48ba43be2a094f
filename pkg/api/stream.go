package api

import (
	"net/http"
	"time"

	"github.com/droneguard/droneguard/pkg/sse"
)

// HandleStream is the device-facing push channel. The device subscribes with
// its device_id and receives every command addressed to it as a server-sent
// event, interleaved with keepalive pings while idle.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid request", "device_id query parameter is required")
		return
	}

	sw, err := sse.NewWriter(w)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Streaming unsupported", err.Error())
		return
	}

	q, err := s.broker.Attach(deviceID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	defer s.broker.Detach(deviceID, q)

	hello := map[string]any{
		"status":    "connected",
		"device_id": deviceID,
		"ts_ms":     nowMs(),
	}
	if err := sw.Send(sse.Event{Name: "status", Data: hello}); err != nil {
		return
	}

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case env := <-q.Next():
			if err := sw.Send(sse.Event{ID: env.CommandID, Name: "command", Data: env}); err != nil {
				// Write failures mean the device went away; detach quietly.
				return
			}
			ticker.Reset(s.keepalive)
		case <-ticker.C:
			ping := map[string]any{"ts_ms": nowMs()}
			if err := sw.Send(sse.Event{Name: "ping", Data: ping}); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
