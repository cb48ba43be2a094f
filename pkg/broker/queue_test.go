package broker

import (
	"fmt"
	"testing"
)

func mustEnvelope(t *testing.T, cmdType string, payload map[string]any) *Envelope {
	t.Helper()
	env, err := NewEnvelope(cmdType, payload)
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	return env
}

func TestQueueFIFOOrder(t *testing.T) {
	q := newQueue(10)
	for i := 0; i < 3; i++ {
		q.Push(mustEnvelope(t, fmt.Sprintf("CMD_%d", i), nil))
	}
	for i := 0; i < 3; i++ {
		env := <-q.Next()
		if want := fmt.Sprintf("CMD_%d", i); env.CmdType != want {
			t.Fatalf("expected %s at position %d, got %s", want, i, env.CmdType)
		}
	}
}

func TestQueueOverflowDropsOldest(t *testing.T) {
	const capacity = 5
	q := newQueue(capacity)

	// capacity+1 pushes with no draining: exactly capacity envelopes remain,
	// and drop-oldest keeps the last capacity of them.
	for i := 0; i <= capacity; i++ {
		q.Push(mustEnvelope(t, fmt.Sprintf("CMD_%d", i), nil))
	}

	if q.Len() != capacity {
		t.Fatalf("expected %d queued envelopes, got %d", capacity, q.Len())
	}
	if q.Dropped() != 1 {
		t.Fatalf("expected 1 dropped envelope, got %d", q.Dropped())
	}

	first := <-q.Next()
	if first.CmdType != "CMD_1" {
		t.Fatalf("expected oldest envelope CMD_0 to be evicted, head is %s", first.CmdType)
	}
}

func TestQueuePushNeverBlocks(t *testing.T) {
	q := newQueue(1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			q.Push(mustEnvelope(t, "SNAPSHOT", nil))
		}
		close(done)
	}()
	<-done // would hang forever if Push blocked on the full queue
	if q.Len() != 1 {
		t.Fatalf("expected 1 envelope buffered, got %d", q.Len())
	}
}

func TestQueueDefaultCapacity(t *testing.T) {
	q := newQueue(0)
	if q.Cap() != DefaultQueueCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultQueueCapacity, q.Cap())
	}
}
