package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/droneguard/droneguard/pkg/broker"
	"github.com/droneguard/droneguard/pkg/eventlog"
	"github.com/droneguard/droneguard/pkg/realtime"
	"github.com/droneguard/droneguard/pkg/version"
)

var validEventTypes = map[string]bool{
	"PERSON_DETECTED":      true,
	"PERSON_STILL_PRESENT": true,
	"PERSON_LEFT":          true,
}

// readJSON decodes a request body into dst, enforcing the configured size
// cap. Oversized bodies report http.StatusRequestEntityTooLarge.
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("body exceeds %d bytes", s.maxBodyBytes)
		}
		return http.StatusUnprocessableEntity, fmt.Errorf("invalid JSON: %w", err)
	}
	return 0, nil
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) HandleIntrusionEvent(w http.ResponseWriter, r *http.Request) {
	var req IntrusionEventRequest
	if status, err := s.readJSON(w, r, &req); err != nil {
		s.writeError(w, status, "Invalid event", err.Error())
		return
	}

	if err := validateIntrusionEvent(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "Invalid event", err.Error())
		return
	}

	if s.limiter != nil && !s.limiter.Allow(req.DeviceID) {
		s.logger.Warnf("rate limited intrusion event from %s", req.DeviceID)
		s.writeError(w, http.StatusTooManyRequests, "Rate limited", "Too many events for this device")
		return
	}

	s.logger.Infof("intrusion event device_id=%s event_type=%s score=%.2f", req.DeviceID, req.EventType, *req.Score)

	if s.events != nil {
		err := s.events.RecordIntrusion(eventlog.IntrusionEvent{
			EventType:   req.EventType,
			TimestampMs: *req.TimestampMs,
			DeviceID:    req.DeviceID,
			Score:       *req.Score,
			EventID:     req.EventID,
		})
		if err != nil {
			s.logger.Errorf("recording intrusion event: %v", err)
		}
	}

	if s.hub != nil {
		ev := realtime.NewActivityEvent(realtime.KindIntrusion, req.DeviceID)
		ev.Detail = map[string]any{
			"event_type": req.EventType,
			"score":      *req.Score,
		}
		s.hub.Broadcast(ev)
	}

	// Mission dispatch happens off the request path; the detector only
	// needs to know the event was accepted.
	if s.dispatcher != nil && req.EventType == "PERSON_DETECTED" {
		s.dispatcher.Go()
	}

	s.writeJSON(w, http.StatusOK, IntrusionAcceptedResponse{
		OK:           true,
		ReceivedAtMs: nowMs(),
	})
}

func validateIntrusionEvent(req *IntrusionEventRequest) error {
	if !validEventTypes[req.EventType] {
		return fmt.Errorf("unknown event_type %q", req.EventType)
	}
	if req.TimestampMs == nil || *req.TimestampMs < 0 {
		return fmt.Errorf("timestamp_ms is required and must be >= 0")
	}
	if req.DeviceID == "" || len(req.DeviceID) > 64 {
		return fmt.Errorf("device_id must be 1-64 characters")
	}
	if req.Score == nil || *req.Score < 0 || *req.Score > 1 {
		return fmt.Errorf("score is required and must be within [0, 1]")
	}
	if len(req.EventID) > 128 {
		return fmt.Errorf("event_id must be at most 128 characters")
	}
	return nil
}

func (s *Server) HandleAck(w http.ResponseWriter, r *http.Request) {
	var req AckRequest
	if status, err := s.readJSON(w, r, &req); err != nil {
		s.writeError(w, status, "Invalid ack", err.Error())
		return
	}
	if req.DeviceID == "" || req.CommandID == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid ack", "device_id and command_id are required")
		return
	}

	found, err := s.broker.Ack(req.DeviceID, req.CommandID, req.OK, req.Error)
	if errors.Is(err, broker.ErrDeviceMismatch) {
		s.writeError(w, http.StatusBadRequest, "Invalid ack", "command_id belongs to a different device")
		return
	}

	s.writeJSON(w, http.StatusOK, AckResponse{
		OK:           true,
		DeviceID:     req.DeviceID,
		CommandID:    req.CommandID,
		AckOK:        req.OK,
		Error:        req.Error,
		PendingFound: found,
	})
}

func (s *Server) HandleClients(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.broker.Inspect())
}

func (s *Server) HandleRecentEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		s.writeError(w, http.StatusNotFound, "Not available", "Event history is disabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer")
			return
		}
		limit = n
	}

	entries, err := s.events.Recent(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Query failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"events": entries,
		"count":  len(entries),
	})
}
