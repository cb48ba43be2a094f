package api

import (
	"fmt"
	"net/http"

	"github.com/droneguard/droneguard/pkg/controller"
)

// Direct command endpoints translate an operator request into a broker
// envelope addressed to the configured controller device. The device pulls
// them over its push channel like any mission step.

// enqueueCommand pushes one command and writes the standard accepted
// response.
func (s *Server) enqueueCommand(w http.ResponseWriter, cmdType string, payload map[string]any) {
	id, err := s.broker.Enqueue(s.deviceID, cmdType, payload)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Enqueue failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, CommandAcceptedResponse{
		OK:           true,
		CommandIDs:   []string{id},
		ReceivedAtMs: nowMs(),
	})
}

func (s *Server) HandleEnableVS(w http.ResponseWriter, r *http.Request) {
	var req EnableVSRequest
	if status, err := s.readJSON(w, r, &req); err != nil {
		s.writeError(w, status, "Invalid request", err.Error())
		return
	}
	if req.Enabled == nil {
		s.writeError(w, http.StatusUnprocessableEntity, "Invalid request", "enabled is required")
		return
	}
	s.enqueueCommand(w, "VS_ENABLE", map[string]any{"enabled": *req.Enabled})
}

func validateMoveBounds(req *MoveSequenceRequest) error {
	for name, v := range map[string]int{
		"leftX": req.LeftX, "leftY": req.LeftY,
		"rightX": req.RightX, "rightY": req.RightY,
	} {
		if v < -660 || v > 660 {
			return fmt.Errorf("%s must be within [-660, 660]", name)
		}
	}
	if req.DurationMs < 50 || req.DurationMs > 600000 {
		return fmt.Errorf("duration_ms must be within [50, 600000]")
	}
	if req.FreqHz != 0 && (req.FreqHz < 1 || req.FreqHz > 50) {
		return fmt.Errorf("freq_hz must be within [1, 50]")
	}
	return nil
}

func (s *Server) HandleMoveSequence(w http.ResponseWriter, r *http.Request) {
	var req MoveSequenceRequest
	if status, err := s.readJSON(w, r, &req); err != nil {
		s.writeError(w, status, "Invalid request", err.Error())
		return
	}
	if err := validateMoveBounds(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "Invalid request", err.Error())
		return
	}

	hz := req.FreqHz
	if hz == 0 {
		hz = s.moveFreqHz
	}
	move := map[string]any{
		"leftX":      req.LeftX,
		"leftY":      req.LeftY,
		"rightX":     req.RightX,
		"rightY":     req.RightY,
		"durationMs": req.DurationMs,
		"hz":         hz,
	}
	payload := map[string]any{
		"moves":     []any{move},
		"defaultHz": hz,
	}

	// The move goes on the queue first; FIFO delivery then hands the device
	// the snapshot after the movement, as "photo after" promises.
	moveID, err := s.broker.Enqueue(s.deviceID, "MOVE_SEQUENCE", payload)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Enqueue failed", err.Error())
		return
	}
	ids := []string{moveID}
	if req.TakePhotoAfter {
		snapID, err := s.broker.Enqueue(s.deviceID, "SNAPSHOT", map[string]any{"upload_url": req.UploadURL})
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "Enqueue failed", err.Error())
			return
		}
		ids = append(ids, snapID)
	}

	s.writeJSON(w, http.StatusOK, CommandAcceptedResponse{
		OK:           true,
		CommandIDs:   ids,
		ReceivedAtMs: nowMs(),
	})
}

func (s *Server) HandleStop(w http.ResponseWriter, r *http.Request) {
	s.enqueueCommand(w, "VS_STOP", map[string]any{})
}

func (s *Server) HandlePhoto(w http.ResponseWriter, r *http.Request) {
	var req PhotoRequest
	if r.ContentLength != 0 {
		if status, err := s.readJSON(w, r, &req); err != nil {
			s.writeError(w, status, "Invalid request", err.Error())
			return
		}
	}
	s.enqueueCommand(w, "SNAPSHOT", map[string]any{"upload_url": req.UploadURL})
}

// HandlePing probes the controller's own HTTP server (direct control mode).
func (s *Server) HandlePing(w http.ResponseWriter, r *http.Request) {
	if s.controller == nil {
		s.writeError(w, http.StatusNotFound, "Not available", "No controller configured")
		return
	}
	health, err := s.controller.Health(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "Controller unreachable", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, PingResponse{
		OK:           true,
		Controller:   "reachable",
		Health:       health,
		ReceivedAtMs: nowMs(),
	})
}

// HandleDirectMove bypasses the broker and drives the controller directly
// through the move runner. With wait=true the handler blocks until the move
// completes; otherwise it returns as soon as the run is launched.
func (s *Server) HandleDirectMove(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, http.StatusNotFound, "Not available", "No controller configured")
		return
	}
	var req MoveSequenceRequest
	if status, err := s.readJSON(w, r, &req); err != nil {
		s.writeError(w, status, "Invalid request", err.Error())
		return
	}
	if err := validateMoveBounds(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "Invalid request", err.Error())
		return
	}

	hz := req.FreqHz
	if hz == 0 {
		hz = s.moveFreqHz
	}
	move := controller.Move{
		LeftX:      float64(req.LeftX),
		LeftY:      float64(req.LeftY),
		RightX:     float64(req.RightX),
		RightY:     float64(req.RightY),
		DurationMs: req.DurationMs,
		Hz:         hz,
	}

	resp := DirectMoveResponse{OK: true, FreqHz: hz, ReceivedAtMs: nowMs()}
	if req.Wait {
		if err := s.runner.StartAndWait(r.Context(), move, hz); err != nil {
			s.writeError(w, http.StatusBadGateway, "Move failed", err.Error())
			return
		}
		resp.Detail = "completed"
		if req.TakePhotoAfter && s.controller != nil {
			photo, err := s.controller.TakePhoto(r.Context(), req.UploadURL)
			if err != nil {
				s.logger.Warnf("post-move photo failed: %v", err)
			} else {
				resp.Photo = photo
			}
		}
	} else {
		s.runner.Start(move, hz)
		resp.Detail = "started"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) HandleDirectStop(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, http.StatusNotFound, "Not available", "No controller configured")
		return
	}
	if err := s.runner.Stop(r.Context()); err != nil {
		s.writeError(w, http.StatusBadGateway, "Stop failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "detail": "stopped"})
}
