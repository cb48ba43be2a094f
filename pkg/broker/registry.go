package broker

import "sync"

// Registry tracks, for each device id, the set of delivery queues owned by
// currently attached streaming sessions. A queue appears under a device
// entry exactly while one live session owns it; device entries with no
// queues left are pruned immediately.
//
// All mutations run under one mutex held only for map manipulation, never
// across I/O. Fan-out callers take a Snapshot and push outside the lock.
type Registry struct {
	mu       sync.Mutex
	subs     map[string]map[*Queue]struct{}
	capacity int
}

// NewRegistry creates an empty registry whose queues are bounded at
// queueCapacity (<= 0 selects DefaultQueueCapacity).
func NewRegistry(queueCapacity int) *Registry {
	return &Registry{
		subs:     make(map[string]map[*Queue]struct{}),
		capacity: queueCapacity,
	}
}

// Attach creates a new bounded delivery queue, associates it with deviceID
// and returns it. The caller owns the queue until it calls Detach.
func (r *Registry) Attach(deviceID string) *Queue {
	q := newQueue(r.capacity)

	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.subs[deviceID]
	if !ok {
		set = make(map[*Queue]struct{})
		r.subs[deviceID] = set
	}
	set[q] = struct{}{}
	return q
}

// Detach removes the association between deviceID and q. It is idempotent
// and safe to call concurrently with in-flight pushes; a push that already
// snapshotted q may still land in it, which is harmless since the queue is
// discarded with its session.
func (r *Registry) Detach(deviceID string, q *Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.subs[deviceID]
	if !ok {
		return
	}
	delete(set, q)
	if len(set) == 0 {
		delete(r.subs, deviceID)
	}
}

// Snapshot returns a point-in-time copy of the queues attached for deviceID.
// Iterating the copy cannot observe concurrent attach/detach mutation.
func (r *Registry) Snapshot(deviceID string) []*Queue {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.subs[deviceID]
	if len(set) == 0 {
		return nil
	}
	queues := make([]*Queue, 0, len(set))
	for q := range set {
		queues = append(queues, q)
	}
	return queues
}

// Counts returns the subscriber count per device id. Devices with zero
// subscribers never appear.
func (r *Registry) Counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int, len(r.subs))
	for id, set := range r.subs {
		counts[id] = len(set)
	}
	return counts
}

// CountFor returns the subscriber count for a single device id.
func (r *Registry) CountFor(deviceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[deviceID])
}

// Total returns the number of attached subscribers across all devices.
func (r *Registry) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, set := range r.subs {
		total += len(set)
	}
	return total
}

// clear detaches every queue; used on broker shutdown.
func (r *Registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = make(map[string]map[*Queue]struct{})
}
