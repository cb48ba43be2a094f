// Package eventlog persists hub activity history (intrusion events, command
// dispositions, media uploads) in a local sqlite database. It records what
// happened, never deliverable state: pending commands and subscriptions stay
// in memory and do not survive a restart.
package eventlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/droneguard/droneguard/pkg/log"
)

// Store wraps the sqlite event history database.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// IntrusionEvent is one validated intrusion report.
type IntrusionEvent struct {
	EventType   string  `json:"event_type"`
	TimestampMs int64   `json:"timestamp_ms"`
	DeviceID    string  `json:"device_id"`
	Score       float64 `json:"score"`
	EventID     string  `json:"event_id,omitempty"`
}

// Entry is one row returned by Recent.
type Entry struct {
	ID         int64          `json:"id"`
	Kind       string         `json:"kind"`
	DeviceID   string         `json:"device_id"`
	Detail     map[string]any `json:"detail,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// Open creates (or opens) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS activity (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		device_id TEXT NOT NULL,
		detail TEXT,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_recorded_at ON activity(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_activity_device ON activity(device_id);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db, logger: log.ForService("eventlog")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) record(kind, deviceID string, detail map[string]any) error {
	var detailJSON []byte
	if detail != nil {
		var err error
		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshaling detail: %w", err)
		}
	}
	_, err := s.db.Exec(
		"INSERT INTO activity (kind, device_id, detail, recorded_at) VALUES (?, ?, ?, ?)",
		kind, deviceID, string(detailJSON), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting %s row: %w", kind, err)
	}
	return nil
}

// RecordIntrusion persists a validated intrusion event.
func (s *Store) RecordIntrusion(ev IntrusionEvent) error {
	return s.record("intrusion", ev.DeviceID, map[string]any{
		"event_type":   ev.EventType,
		"timestamp_ms": ev.TimestampMs,
		"score":        ev.Score,
		"event_id":     ev.EventID,
	})
}

// RecordCommand persists an enqueued command.
func (s *Store) RecordCommand(deviceID, commandID, cmdType string) error {
	return s.record("command", deviceID, map[string]any{
		"command_id": commandID,
		"cmd_type":   cmdType,
	})
}

// RecordAck persists an acknowledgment outcome.
func (s *Store) RecordAck(deviceID, commandID string, ok bool, errMsg string) error {
	detail := map[string]any{"command_id": commandID, "ok": ok}
	if errMsg != "" {
		detail["error"] = errMsg
	}
	return s.record("ack", deviceID, detail)
}

// RecordUpload persists a stored media artifact.
func (s *Store) RecordUpload(kind, deviceID, savedTo string) error {
	return s.record("upload", deviceID, map[string]any{
		"media":    kind,
		"saved_to": savedTo,
	})
}

// Recent returns the newest limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.Query(
		"SELECT id, kind, device_id, detail, recorded_at FROM activity ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var detailJSON string
		var recordedMs int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.DeviceID, &detailJSON, &recordedMs); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		if detailJSON != "" {
			if err := json.Unmarshal([]byte(detailJSON), &e.Detail); err != nil {
				s.logger.Warnf("undecodable detail for row %d: %v", e.ID, err)
			}
		}
		e.RecordedAt = time.UnixMilli(recordedMs)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
