package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestController(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c, err := NewHTTPClient(ts.URL, "secret", 2*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, ts
}

func TestEnableVirtualStickWireShape(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	var gotKey string

	c, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	resp, err := c.EnableVirtualStick(context.Background(), true)
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if gotPath != "/v1/drone/vs/enable" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	// The controller expects {"enable": true}, not "enabled".
	if enable, _ := gotBody["enable"].(bool); !enable {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	if gotKey != "secret" {
		t.Fatalf("missing X-API-Key header")
	}
	if ok, _ := resp["ok"].(bool); !ok {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestMoveSequenceWireShape(t *testing.T) {
	var gotBody map[string]any
	c, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	moves := []Move{{RightY: 0.25, DurationMs: 800, Hz: 25}}
	if _, err := c.MoveSequence(context.Background(), moves, 25); err != nil {
		t.Fatalf("move sequence: %v", err)
	}

	rawMoves, ok := gotBody["moves"].([]any)
	if !ok || len(rawMoves) != 1 {
		t.Fatalf("expected one move in body, got %v", gotBody["moves"])
	}
	first := rawMoves[0].(map[string]any)
	if first["durationMs"].(float64) != 800 {
		t.Fatalf("durationMs not propagated: %v", first)
	}
	if gotBody["defaultHz"].(float64) != 25 {
		t.Fatalf("defaultHz not propagated: %v", gotBody)
	}
}

func TestErrorStatusSurfaced(t *testing.T) {
	c, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "drone not connected", http.StatusServiceUnavailable)
	})

	if _, err := c.Health(context.Background()); err == nil {
		t.Fatalf("expected error for 503 response")
	}
}

func TestNonJSONResponseWrapped(t *testing.T) {
	c, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("PONG"))
	})

	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if resp["raw"] != "PONG" {
		t.Fatalf("expected raw text wrapping, got %v", resp)
	}
}

func TestEmptyBaseURLRejected(t *testing.T) {
	if _, err := NewHTTPClient("  ", "", time.Second); err != ErrNoBaseURL {
		t.Fatalf("expected ErrNoBaseURL, got %v", err)
	}
}
