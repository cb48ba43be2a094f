package broker

import (
	"errors"
	"sync"
	"time"
)

// ErrDeviceMismatch is returned when an acknowledgment names a device id
// different from the one recorded when the command was enqueued.
var ErrDeviceMismatch = errors.New("ack device_id does not match the recorded command")

// PendingCommand is one ledger entry: a command awaiting acknowledgment.
type PendingCommand struct {
	DeviceID   string
	Envelope   *Envelope
	EnqueuedAt time.Time
}

// Ledger is the advisory record of in-flight commands. It is not required
// for delivery correctness; it exists for observability and ack correlation.
type Ledger struct {
	mu      sync.Mutex
	pending map[string]PendingCommand
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{pending: make(map[string]PendingCommand)}
}

// Record inserts an entry for env at enqueue time.
func (l *Ledger) Record(deviceID string, env *Envelope) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending[env.CommandID] = PendingCommand{
		DeviceID:   deviceID,
		Envelope:   env,
		EnqueuedAt: time.Now(),
	}
}

// Reconcile matches an acknowledgment against the ledger. An unknown
// command id is accepted (found=false) since delivery is best-effort and
// the hub may have restarted; a device id mismatch is rejected and leaves
// the entry untouched. On success the entry is removed.
func (l *Ledger) Reconcile(deviceID, commandID string) (found bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.pending[commandID]
	if !ok {
		return false, nil
	}
	if entry.DeviceID != deviceID {
		return true, ErrDeviceMismatch
	}
	delete(l.pending, commandID)
	return true, nil
}

// Pending returns the number of commands awaiting acknowledgment.
func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// SweepOlderThan evicts entries enqueued more than maxAge ago and returns
// how many were removed. Entries are advisory, so eviction never affects
// delivery; without sweeping, unacknowledged entries accumulate for the
// lifetime of the process.
func (l *Ledger) SweepOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, entry := range l.pending {
		if entry.EnqueuedAt.Before(cutoff) {
			delete(l.pending, id)
			removed++
		}
	}
	return removed
}
