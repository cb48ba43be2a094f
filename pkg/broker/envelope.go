package broker

import (
	"errors"

	"github.com/google/uuid"
)

// Envelope is the immutable unit of work sent to a device: a type tag, a
// unique correlation id, and an opaque payload. The same envelope may be
// referenced by several queues when multiple sessions share a device id, so
// it must never be mutated after construction.
//
// The JSON shape matches what the controller's command dispatcher expects:
//
//	{ "cmd_type": "...", "command_id": "...", "payload": {...} }
type Envelope struct {
	CmdType   string         `json:"cmd_type"`
	CommandID string         `json:"command_id"`
	Payload   map[string]any `json:"payload"`
}

// ErrEmptyCmdType is returned when an envelope is built without a type tag.
var ErrEmptyCmdType = errors.New("cmd_type must not be empty")

// NewEnvelope builds an envelope with a freshly generated command id.
// The payload is passed through opaquely; semantic validation is the
// producer's responsibility.
func NewEnvelope(cmdType string, payload map[string]any) (*Envelope, error) {
	return NewEnvelopeWithID(cmdType, payload, "")
}

// NewEnvelopeWithID builds an envelope with a caller-supplied command id,
// allowing idempotent resubmission. An empty id generates a fresh one.
func NewEnvelopeWithID(cmdType string, payload map[string]any, commandID string) (*Envelope, error) {
	if cmdType == "" {
		return nil, ErrEmptyCmdType
	}
	if commandID == "" {
		commandID = uuid.NewString()
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	return &Envelope{
		CmdType:   cmdType,
		CommandID: commandID,
		Payload:   payload,
	}, nil
}
