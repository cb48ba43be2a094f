// Package ratelimit implements the fixed-window per-device limiter applied
// to intrusion event ingestion: at most N events per window per device id.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks recent event timestamps per device id. Timestamps older
// than the window are pruned on every check, so memory stays proportional
// to the number of active devices times the per-window cap.
type Limiter struct {
	mu        sync.Mutex
	window    time.Duration
	maxEvents int
	hits      map[string][]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// New creates a limiter allowing maxEvents per window for each device id.
func New(window time.Duration, maxEvents int) *Limiter {
	if window <= 0 {
		window = 10 * time.Second
	}
	if maxEvents <= 0 {
		maxEvents = 3
	}
	return &Limiter{
		window:    window,
		maxEvents: maxEvents,
		hits:      make(map[string][]time.Time),
		now:       time.Now,
	}
}

// Allow reports whether an event for deviceID fits in the current window
// and, when it does, records it.
func (l *Limiter) Allow(deviceID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.hits[deviceID][:0]
	for _, ts := range l.hits[deviceID] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.maxEvents {
		l.hits[deviceID] = recent
		return false
	}
	l.hits[deviceID] = append(recent, now)
	return true
}

// Update swaps the window and cap at runtime (config reload). Existing
// per-device history is kept and re-evaluated against the new settings.
func (l *Limiter) Update(window time.Duration, maxEvents int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if window > 0 {
		l.window = window
	}
	if maxEvents > 0 {
		l.maxEvents = maxEvents
	}
}
