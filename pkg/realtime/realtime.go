// Package realtime provides shared, transport-agnostic types and a lightweight
// in-process publish/subscribe hub used to fan out hub activity (enqueued
// commands, acknowledgments, intrusion events, media uploads) to multiple
// observers (e.g. WebSocket sessions).
//
// Observers are strictly best-effort: a slow listener drops events rather
// than backpressuring command delivery. There is no persistence or replay;
// an observer that reconnects starts from "now". Zero observers is the
// normal state of a running hub.
package realtime

import (
	"sync"
	"time"
)

// Event kinds produced by the hub.
const (
	KindCommand   = "command"
	KindAck       = "ack"
	KindIntrusion = "intrusion"
	KindUpload    = "upload"
)

// ActivityEvent is one observable hub occurrence. Only the fields relevant
// to the kind are populated.
type ActivityEvent struct {
	Kind      string         `json:"type"`
	DeviceID  string         `json:"device_id,omitempty"`
	CommandID string         `json:"command_id,omitempty"`
	CmdType   string         `json:"cmd_type,omitempty"`
	TsMs      int64          `json:"ts_ms"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// NewActivityEvent stamps an event with the current wall clock.
func NewActivityEvent(kind, deviceID string) ActivityEvent {
	return ActivityEvent{
		Kind:     kind,
		DeviceID: deviceID,
		TsMs:     time.Now().UnixMilli(),
	}
}

// Hub is an in-memory fan-out dispatcher. Each registered observer receives
// events via its own buffered channel. If an observer's channel buffer is
// full when an event arrives, that event is dropped for that observer only,
// so a single stalled WebSocket cannot degrade delivery to devices or other
// observers.
//
// The hub is concurrency-safe.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan ActivityEvent
	nextID    uint64
	bufSize   int
}

// NewHub constructs a new hub with per-observer buffer size.
// If bufSize <= 0, a default of 32 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan ActivityEvent),
		bufSize:   bufSize,
	}
}

// Register adds a new observer and returns (listenerID, receiveOnlyChannel).
// Callers must later Unregister(id) to release resources.
func (h *Hub) Register() (uint64, <-chan ActivityEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan ActivityEvent, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the observer with the given id and closes its channel.
// It is safe to call multiple times; unknown ids are ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers an event to all registered observers (best effort).
func (h *Hub) Broadcast(event ActivityEvent) {
	if event.TsMs == 0 {
		event.TsMs = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- event:
		default:
			// Drop for slow observer.
		}
	}
}

// Size returns the current number of active observers (approximate).
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
