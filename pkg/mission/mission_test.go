package mission

import (
	"fmt"
	"sync"
	"testing"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	calls []struct {
		deviceID string
		cmdType  string
		payload  map[string]any
	}
}

func (r *recordingEnqueuer) Enqueue(deviceID, cmdType string, payload map[string]any) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, struct {
		deviceID string
		cmdType  string
		payload  map[string]any
	}{deviceID, cmdType, payload})
	return fmt.Sprintf("cmd-%d", len(r.calls)), nil
}

func TestIntrusionMissionShape(t *testing.T) {
	steps := IntrusionMission("192.168.1.10:8080")

	want := []string{"VS_ENABLE", "MOVE_SEQUENCE", "SNAPSHOT"}
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i, cmdType := range want {
		if steps[i].CmdType != cmdType {
			t.Fatalf("step %d: expected %s, got %s", i, cmdType, steps[i].CmdType)
		}
	}

	if enabled, _ := steps[0].Payload["enabled"].(bool); !enabled {
		t.Fatalf("VS_ENABLE payload must enable the stick: %v", steps[0].Payload)
	}
	moves, ok := steps[1].Payload["moves"].([]any)
	if !ok || len(moves) != 4 {
		t.Fatalf("expected a 4-move patrol, got %v", steps[1].Payload["moves"])
	}
	uploadURL, _ := steps[2].Payload["upload_url"].(string)
	if uploadURL != "http://192.168.1.10:8080/v1/drone/uploads/photo" {
		t.Fatalf("unexpected upload url: %s", uploadURL)
	}
}

func TestDispatchOrderAndTarget(t *testing.T) {
	rec := &recordingEnqueuer{}
	d := NewDispatcher(rec, "android-controller-01", "10.0.0.5:8080")

	ids := d.DispatchIntrusion()
	if len(ids) != 3 {
		t.Fatalf("expected 3 command ids, got %d", len(ids))
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 3 {
		t.Fatalf("expected 3 enqueue calls, got %d", len(rec.calls))
	}
	order := []string{"VS_ENABLE", "MOVE_SEQUENCE", "SNAPSHOT"}
	for i, call := range rec.calls {
		if call.deviceID != "android-controller-01" {
			t.Fatalf("call %d targeted %s", i, call.deviceID)
		}
		if call.cmdType != order[i] {
			t.Fatalf("call %d: expected %s, got %s", i, order[i], call.cmdType)
		}
	}
}
