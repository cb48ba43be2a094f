package eventlog

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := newTestStore(t)

	err := store.RecordIntrusion(IntrusionEvent{
		EventType:   "PERSON_DETECTED",
		TimestampMs: 1700000000000,
		DeviceID:    "cam-01",
		Score:       0.91,
	})
	if err != nil {
		t.Fatalf("record intrusion: %v", err)
	}
	if err := store.RecordCommand("android-controller-01", "cmd-1", "VS_ENABLE"); err != nil {
		t.Fatalf("record command: %v", err)
	}
	if err := store.RecordAck("android-controller-01", "cmd-1", true, ""); err != nil {
		t.Fatalf("record ack: %v", err)
	}

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// Newest first.
	if entries[0].Kind != "ack" || entries[2].Kind != "intrusion" {
		t.Fatalf("unexpected order: %s, %s, %s", entries[0].Kind, entries[1].Kind, entries[2].Kind)
	}
	if entries[2].Detail["event_type"] != "PERSON_DETECTED" {
		t.Fatalf("intrusion detail missing: %v", entries[2].Detail)
	}
	if entries[1].Detail["command_id"] != "cmd-1" {
		t.Fatalf("command detail missing: %v", entries[1].Detail)
	}
}

func TestRecentLimitClamped(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		if err := store.RecordCommand("d1", "cmd", "SNAPSHOT"); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	entries, err := store.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestRecordUpload(t *testing.T) {
	store := newTestStore(t)
	if err := store.RecordUpload("photo", "cam-1", "/tmp/uploads/123_a.jpg"); err != nil {
		t.Fatalf("record upload: %v", err)
	}
	entries, err := store.Recent(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if entries[0].Kind != "upload" || entries[0].Detail["media"] != "photo" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
	if entries[0].DeviceID != "cam-1" {
		t.Fatalf("device id not stored: %+v", entries[0])
	}
}
