package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/droneguard/droneguard/pkg/broker"
	"github.com/droneguard/droneguard/pkg/controller"
	"github.com/droneguard/droneguard/pkg/eventlog"
	"github.com/droneguard/droneguard/pkg/log"
	"github.com/droneguard/droneguard/pkg/mission"
	"github.com/droneguard/droneguard/pkg/ratelimit"
	"github.com/droneguard/droneguard/pkg/realtime"
	"github.com/droneguard/droneguard/pkg/uploads"
)

// Server wires every HTTP surface of the hub to its collaborators. It holds
// no global state: construct one at process start and register its routes.
type Server struct {
	broker     *broker.Broker
	hub        *realtime.Hub
	limiter    *ratelimit.Limiter
	uploads    *uploads.Store
	events     *eventlog.Store // nil disables persistence
	dispatcher *mission.Dispatcher

	// Direct control mode collaborators; nil when no controller is
	// configured. The broker core never touches these.
	controller controller.Client
	runner     *controller.MoveRunner

	gate         atomic.Pointer[gateSettings]
	deviceID     string
	maxBodyBytes int64
	keepalive    time.Duration
	moveFreqHz   int

	rtmpIngestBase string
	playBase       string

	liveMu sync.Mutex
	live   map[string]liveState

	logger *log.Logger
}

// Options configures a Server. Broker, Hub and Limiter are required;
// everything else degrades gracefully when absent.
type Options struct {
	Broker     *broker.Broker
	Hub        *realtime.Hub
	Limiter    *ratelimit.Limiter
	Uploads    *uploads.Store
	Events     *eventlog.Store
	Dispatcher *mission.Dispatcher
	Controller controller.Client
	Runner     *controller.MoveRunner

	APIKey  string
	LanOnly bool
	// DeviceID is the controller device direct commands are addressed to.
	DeviceID     string
	MaxBodyBytes int64
	Keepalive    time.Duration
	MoveFreqHz   int

	RTMPIngestBase string
	PlayBase       string
}

// NewServer constructs the HTTP layer.
func NewServer(opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8192
	}
	if opts.Keepalive <= 0 {
		opts.Keepalive = 10 * time.Second
	}
	if opts.MoveFreqHz <= 0 {
		opts.MoveFreqHz = 25
	}
	s := &Server{
		broker:         opts.Broker,
		hub:            opts.Hub,
		limiter:        opts.Limiter,
		uploads:        opts.Uploads,
		events:         opts.Events,
		dispatcher:     opts.Dispatcher,
		controller:     opts.Controller,
		runner:         opts.Runner,
		deviceID:       opts.DeviceID,
		maxBodyBytes:   opts.MaxBodyBytes,
		keepalive:      opts.Keepalive,
		moveFreqHz:     opts.MoveFreqHz,
		rtmpIngestBase: opts.RTMPIngestBase,
		playBase:       opts.PlayBase,
		live:           make(map[string]liveState),
		logger:         log.ForService("api"),
	}
	s.gate.Store(&gateSettings{apiKey: opts.APIKey, lanOnly: opts.LanOnly})
	return s
}

// UpdateGate swaps the access-gate settings at runtime (config reload).
// In-flight requests keep the snapshot they started with.
func (s *Server) UpdateGate(apiKey string, lanOnly bool) {
	s.gate.Store(&gateSettings{apiKey: apiKey, lanOnly: lanOnly})
	s.logger.Infof("gate settings updated (api_key=%s lan_only=%t)", maskKey(apiKey), lanOnly)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}
