package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Health is the only ungated route; everything else goes through the
	// API-key + LAN gate.
	mux.HandleFunc("GET /health", s.HandleHealth)

	// Detector ingestion.
	mux.Handle("POST /v1/intrusion/events", s.gated(s.HandleIntrusionEvent))

	// Device side: command pull channel and ack reconciliation.
	mux.Handle("GET /v1/drone/stream", s.gated(s.HandleStream))
	mux.Handle("POST /v1/drone/ack", s.gated(s.HandleAck))
	mux.Handle("GET /v1/drone/clients", s.gated(s.HandleClients))

	// Operator side: direct commands fanned out through the broker.
	mux.Handle("POST /v1/drone/vs/enable", s.gated(s.HandleEnableVS))
	mux.Handle("POST /v1/drone/vs/moveSequence", s.gated(s.HandleMoveSequence))
	mux.Handle("POST /v1/drone/vs/stop", s.gated(s.HandleStop))
	mux.Handle("POST /v1/drone/media/photo", s.gated(s.HandlePhoto))

	// Direct control mode: talks to the controller's own HTTP server
	// instead of enqueueing.
	mux.Handle("GET /v1/drone/ping", s.gated(s.HandlePing))
	mux.Handle("POST /v1/drone/direct/moveSequence", s.gated(s.HandleDirectMove))
	mux.Handle("POST /v1/drone/direct/stop", s.gated(s.HandleDirectStop))

	// Livestream session bookkeeping.
	mux.Handle("POST /v1/drone/livestream/start", s.gated(s.HandleLivestreamStart))
	mux.Handle("POST /v1/drone/livestream/stop", s.gated(s.HandleLivestreamStop))
	mux.Handle("GET /v1/drone/livestream/status", s.gated(s.HandleLivestreamStatus))

	// Media uploads from devices.
	mux.Handle("POST /v1/drone/uploads/photo", s.gated(s.HandleUploadPhoto))
	mux.Handle("POST /v1/drone/uploads/video", s.gated(s.HandleUploadVideo))

	// Observer surfaces.
	mux.Handle("GET /api/firehose/ws", s.gated(s.HandleFirehoseWS))
	mux.Handle("GET /api/events/recent", s.gated(s.HandleRecentEvents))
}
