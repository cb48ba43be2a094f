package broker

import "sync/atomic"

// DefaultQueueCapacity bounds a delivery queue when no capacity is configured.
const DefaultQueueCapacity = 200

// Queue is a bounded FIFO of pending envelopes owned by exactly one
// streaming session. Pushes are strictly non-blocking: when the queue is at
// capacity the oldest envelope is evicted before the new one is inserted
// (drop-oldest), so under overload a subscriber observes the most recent
// commands rather than a stale backlog.
//
// A queue's lifetime equals its session's connection lifetime. The channel
// is never closed; a queue detached from the registry simply stops receiving
// new pushes and is garbage collected with its session. This makes a push
// that raced with detach a silent no-op instead of a panic.
type Queue struct {
	ch      chan *Envelope
	dropped atomic.Uint64
}

func newQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{ch: make(chan *Envelope, capacity)}
}

// Push inserts env without blocking. It reports whether an older envelope
// had to be evicted to make room.
func (q *Queue) Push(env *Envelope) (evicted bool) {
	for {
		select {
		case q.ch <- env:
			return evicted
		default:
		}
		// Full: evict the head, then retry the insert.
		select {
		case <-q.ch:
			q.dropped.Add(1)
			evicted = true
		default:
		}
	}
}

// Next returns the receive side of the queue for the session's
// item/keepalive/disconnect select loop.
func (q *Queue) Next() <-chan *Envelope {
	return q.ch
}

// Len returns the number of envelopes currently buffered.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the fixed queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Dropped returns how many envelopes this queue evicted under overflow.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
