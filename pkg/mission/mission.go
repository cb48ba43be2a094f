// Package mission translates a validated intrusion event into the scripted
// command mission delivered to the drone controller: enable virtual stick,
// fly a short patrol pattern, take a snapshot, and upload it back to the hub.
package mission

import (
	"fmt"

	"github.com/droneguard/droneguard/pkg/log"
)

// Step is one ordered mission command before enqueueing.
type Step struct {
	CmdType string
	Payload map[string]any
}

// Enqueuer is the narrow slice of the broker the dispatcher needs.
type Enqueuer interface {
	Enqueue(deviceID, cmdType string, payload map[string]any) (string, error)
}

// patrolMove describes one virtual-stick move in controller units.
func patrolMove(rightX, rightY float64) map[string]any {
	return map[string]any{
		"leftX":      0,
		"leftY":      0,
		"rightX":     rightX,
		"rightY":     rightY,
		"durationMs": 800,
		"hz":         25,
	}
}

// IntrusionMission builds the scripted response to an intrusion: VS_ENABLE,
// a four-move patrol square, then a SNAPSHOT uploaded to the hub at
// advertisedHost. Order matters; FIFO delivery on a single subscriber queue
// reproduces it without wall-clock spacing between steps.
func IntrusionMission(advertisedHost string) []Step {
	moves := []any{
		patrolMove(0, 0.25),
		patrolMove(0, -0.25),
		patrolMove(0.25, 0),
		patrolMove(-0.25, 0),
	}
	return []Step{
		{CmdType: "VS_ENABLE", Payload: map[string]any{"enabled": true}},
		{CmdType: "MOVE_SEQUENCE", Payload: map[string]any{"moves": moves, "defaultHz": 25}},
		{CmdType: "SNAPSHOT", Payload: map[string]any{
			"upload_url": fmt.Sprintf("http://%s/v1/drone/uploads/photo", advertisedHost),
		}},
	}
}

// Dispatcher enqueues missions for the configured controller device.
type Dispatcher struct {
	enqueuer       Enqueuer
	deviceID       string
	advertisedHost string
	logger         *log.Logger
}

// NewDispatcher creates a dispatcher targeting deviceID; advertisedHost is
// the host:port remote devices use to reach this hub for uploads.
func NewDispatcher(enqueuer Enqueuer, deviceID, advertisedHost string) *Dispatcher {
	return &Dispatcher{
		enqueuer:       enqueuer,
		deviceID:       deviceID,
		advertisedHost: advertisedHost,
		logger:         log.ForService("mission"),
	}
}

// DispatchIntrusion enqueues the intrusion mission steps in order and
// returns the command ids. Callers that must not block (HTTP handlers)
// should run it via Go.
func (d *Dispatcher) DispatchIntrusion() []string {
	steps := IntrusionMission(d.advertisedHost)
	ids := make([]string, 0, len(steps))
	for _, step := range steps {
		id, err := d.enqueuer.Enqueue(d.deviceID, step.CmdType, step.Payload)
		if err != nil {
			// Enqueue only fails on malformed steps; log and keep going so a
			// single bad step does not abort the rest of the mission.
			d.logger.Errorf("mission step %s failed: %v", step.CmdType, err)
			continue
		}
		ids = append(ids, id)
	}
	d.logger.Infof("dispatched intrusion mission to device_id=%s (%d steps)", d.deviceID, len(ids))
	return ids
}

// Go dispatches the mission in a background goroutine (fire-and-forget).
func (d *Dispatcher) Go() {
	go d.DispatchIntrusion()
}
