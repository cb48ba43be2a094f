package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The gate middleware already rejected non-LAN callers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleFirehoseWS streams hub activity (commands, acks, intrusions,
// uploads) to an observer over a websocket. Listeners are best-effort: a
// slow reader's buffer fills and events addressed to it are dropped rather
// than stalling the broadcasters.
func (s *Server) HandleFirehoseWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeError(w, http.StatusNotFound, "Not available", "Firehose is disabled")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Debugf("websocket upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	id, events := s.hub.Register()
	defer s.hub.Unregister(id)

	init := map[string]any{
		"type":  "init",
		"mode":  "push",
		"ts_ms": nowMs(),
	}
	if err := conn.WriteJSON(init); err != nil {
		return
	}

	// Drain reads so close frames and pings are processed; observers never
	// send application data.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteJSON(map[string]any{"type": "ping", "ts_ms": nowMs()}); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
