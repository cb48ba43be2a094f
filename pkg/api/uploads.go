package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/droneguard/droneguard/pkg/realtime"
)

// Uploads are multipart posts from the device carrying mission artifacts
// (snapshot photos, video clips). The part must be named "file".

func (s *Server) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	fallback := fmt.Sprintf("photo_%d.jpg", time.Now().UnixMilli())
	s.handleUpload(w, r, "photo", fallback)
}

func (s *Server) HandleUploadVideo(w http.ResponseWriter, r *http.Request) {
	fallback := fmt.Sprintf("video_%d.mp4", time.Now().UnixMilli())
	s.handleUpload(w, r, "video", fallback)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, kind, fallback string) {
	if s.uploads == nil {
		s.writeError(w, http.StatusNotFound, "Not available", "Uploads are disabled")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid upload", "multipart field 'file' is required")
		return
	}
	defer func() { _ = file.Close() }()

	savedTo, err := s.uploads.Save(header.Filename, fallback, file)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Upload failed", err.Error())
		return
	}

	deviceID := r.URL.Query().Get("device_id")

	if s.events != nil {
		if err := s.events.RecordUpload(kind, deviceID, savedTo); err != nil {
			s.logger.Errorf("recording upload: %v", err)
		}
	}
	if s.hub != nil {
		ev := realtime.NewActivityEvent(realtime.KindUpload, deviceID)
		ev.Detail = map[string]any{"kind": kind, "saved_to": savedTo}
		s.hub.Broadcast(ev)
	}

	s.writeJSON(w, http.StatusOK, UploadResponse{OK: true, SavedTo: savedTo})
}
