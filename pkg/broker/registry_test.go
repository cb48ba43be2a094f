package broker

import (
	"sync"
	"testing"
)

func TestRegistryAttachDetachAccounting(t *testing.T) {
	r := NewRegistry(10)

	q1 := r.Attach("d1")
	q2 := r.Attach("d1")
	q3 := r.Attach("d2")

	if got := r.CountFor("d1"); got != 2 {
		t.Fatalf("expected 2 subscribers for d1, got %d", got)
	}
	if got := r.Total(); got != 3 {
		t.Fatalf("expected 3 total subscribers, got %d", got)
	}

	r.Detach("d1", q1)
	r.Detach("d1", q1) // idempotent
	if got := r.CountFor("d1"); got != 1 {
		t.Fatalf("expected 1 subscriber for d1 after detach, got %d", got)
	}

	r.Detach("d1", q2)
	r.Detach("d2", q3)
	if got := r.Total(); got != 0 {
		t.Fatalf("expected 0 total subscribers, got %d", got)
	}
}

func TestRegistryPrunesEmptyDeviceEntries(t *testing.T) {
	r := NewRegistry(10)
	q := r.Attach("d1")
	r.Detach("d1", q)

	counts := r.Counts()
	if _, ok := counts["d1"]; ok {
		t.Fatalf("empty device entry must be pruned, counts: %v", counts)
	}
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	r := NewRegistry(10)
	r.Attach("d1")

	snap := r.Snapshot("d1")
	if len(snap) != 1 {
		t.Fatalf("expected 1 queue in snapshot, got %d", len(snap))
	}

	// Mutating the registry after the snapshot must not affect the copy.
	r.Detach("d1", snap[0])
	if len(snap) != 1 || snap[0] == nil {
		t.Fatalf("snapshot changed after detach")
	}
	if got := r.Snapshot("d1"); got != nil {
		t.Fatalf("expected nil snapshot for detached device, got %d queues", len(got))
	}
}

func TestRegistryConcurrentAttachDetach(t *testing.T) {
	r := NewRegistry(10)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := r.Attach("d1")
			for _, sq := range r.Snapshot("d1") {
				sq.Push(&Envelope{CmdType: "PING", CommandID: "x"})
			}
			r.Detach("d1", q)
		}()
	}
	wg.Wait()

	if got := r.Total(); got != 0 {
		t.Fatalf("expected 0 subscribers after all goroutines detached, got %d", got)
	}
}
