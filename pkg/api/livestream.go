package api

import (
	"net/http"
	"strings"
)

// Livestream endpoints enqueue start/stop commands for the device and track
// the last-known session in memory. The hub never touches the RTMP traffic
// itself; it only tells the device where to publish.

func (s *Server) livestreamDevice(req LivestreamRequest) string {
	if req.DeviceID != "" {
		return req.DeviceID
	}
	return s.deviceID
}

func (s *Server) HandleLivestreamStart(w http.ResponseWriter, r *http.Request) {
	var req LivestreamRequest
	if r.ContentLength != 0 {
		if status, err := s.readJSON(w, r, &req); err != nil {
			s.writeError(w, status, "Invalid request", err.Error())
			return
		}
	}
	deviceID := s.livestreamDevice(req)

	rtmpURL := req.RTMPURL
	if rtmpURL == "" {
		if s.rtmpIngestBase == "" {
			s.writeError(w, http.StatusUnprocessableEntity, "Invalid request", "rtmp_url is required (no ingest base configured)")
			return
		}
		rtmpURL = strings.TrimRight(s.rtmpIngestBase, "/") + "/" + deviceID
	}

	if _, err := s.broker.Enqueue(deviceID, "LIVESTREAM_START", map[string]any{"rtmp_url": rtmpURL}); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Enqueue failed", err.Error())
		return
	}

	s.liveMu.Lock()
	s.live[deviceID] = liveState{RTMPURL: rtmpURL, StartedAtMs: nowMs()}
	s.liveMu.Unlock()
	s.logger.Infof("livestream start device_id=%s rtmp_url=%s", deviceID, rtmpURL)

	resp := LivestreamResponse{OK: true, DeviceID: deviceID, RTMPURL: rtmpURL}
	if s.playBase != "" {
		resp.PlayHint = strings.TrimRight(s.playBase, "/") + "/" + deviceID
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) HandleLivestreamStop(w http.ResponseWriter, r *http.Request) {
	var req LivestreamRequest
	if r.ContentLength != 0 {
		if status, err := s.readJSON(w, r, &req); err != nil {
			s.writeError(w, status, "Invalid request", err.Error())
			return
		}
	}
	deviceID := s.livestreamDevice(req)

	if _, err := s.broker.Enqueue(deviceID, "LIVESTREAM_STOP", map[string]any{}); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Enqueue failed", err.Error())
		return
	}

	s.liveMu.Lock()
	delete(s.live, deviceID)
	s.liveMu.Unlock()
	s.logger.Infof("livestream stop device_id=%s", deviceID)

	s.writeJSON(w, http.StatusOK, LivestreamResponse{OK: true, DeviceID: deviceID})
}

func (s *Server) HandleLivestreamStatus(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		deviceID = s.deviceID
	}

	s.liveMu.Lock()
	state, ok := s.live[deviceID]
	s.liveMu.Unlock()

	resp := LivestreamStatusResponse{OK: true, DeviceID: deviceID}
	if ok {
		resp.State = &state
	}
	s.writeJSON(w, http.StatusOK, resp)
}
