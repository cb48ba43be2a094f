package api

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// IntrusionEventRequest mirrors the detector's report. Pointer fields
// distinguish "absent" from zero values during validation.
type IntrusionEventRequest struct {
	EventType   string   `json:"event_type"`
	TimestampMs *int64   `json:"timestamp_ms"`
	DeviceID    string   `json:"device_id"`
	Score       *float64 `json:"score"`
	EventID     string   `json:"event_id,omitempty"`
}

type IntrusionAcceptedResponse struct {
	OK           bool  `json:"ok"`
	ReceivedAtMs int64 `json:"received_at_ms"`
}

type AckRequest struct {
	DeviceID  string `json:"device_id"`
	CommandID string `json:"command_id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

type AckResponse struct {
	OK           bool   `json:"ok"`
	DeviceID     string `json:"device_id"`
	CommandID    string `json:"command_id"`
	AckOK        bool   `json:"ack_ok"`
	Error        string `json:"error,omitempty"`
	PendingFound bool   `json:"pending_found"`
}

type CommandAcceptedResponse struct {
	OK           bool     `json:"ok"`
	CommandIDs   []string `json:"command_ids"`
	ReceivedAtMs int64    `json:"received_at_ms"`
}

type EnableVSRequest struct {
	Enabled *bool `json:"enabled"`
}

// MoveSequenceRequest uses the controller's stick units: integer deflections
// in [-660, 660], duration in [50ms, 10m], frequency in [1, 50] Hz.
type MoveSequenceRequest struct {
	LeftX  int `json:"leftX"`
	LeftY  int `json:"leftY"`
	RightX int `json:"rightX"`
	RightY int `json:"rightY"`

	DurationMs int  `json:"duration_ms"`
	FreqHz     int  `json:"freq_hz,omitempty"`
	Wait       bool `json:"wait,omitempty"`

	TakePhotoAfter bool   `json:"take_photo_after,omitempty"`
	UploadURL      string `json:"upload_url,omitempty"`
}

type PhotoRequest struct {
	UploadURL string `json:"upload_url,omitempty"`
}

type LivestreamRequest struct {
	DeviceID string `json:"device_id,omitempty"`
	RTMPURL  string `json:"rtmp_url,omitempty"`
}

type LivestreamResponse struct {
	OK       bool   `json:"ok"`
	DeviceID string `json:"device_id"`
	RTMPURL  string `json:"rtmp_url,omitempty"`
	PlayHint string `json:"play_hint,omitempty"`
}

type liveState struct {
	RTMPURL     string `json:"rtmp_url"`
	StartedAtMs int64  `json:"started_at_ms"`
}

type LivestreamStatusResponse struct {
	OK       bool       `json:"ok"`
	DeviceID string     `json:"device_id"`
	State    *liveState `json:"state"`
}

type UploadResponse struct {
	OK      bool   `json:"ok"`
	SavedTo string `json:"saved_to"`
}

type PingResponse struct {
	OK           bool           `json:"ok"`
	Controller   string         `json:"controller"`
	Health       map[string]any `json:"health"`
	ReceivedAtMs int64          `json:"received_at_ms"`
}

type DirectMoveResponse struct {
	OK           bool           `json:"ok"`
	Detail       string         `json:"detail"`
	FreqHz       int            `json:"freq_hz"`
	Photo        map[string]any `json:"photo,omitempty"`
	ReceivedAtMs int64          `json:"received_at_ms"`
}
