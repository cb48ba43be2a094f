// Package uploads stores media artifacts pushed back by the controller
// (photos, video clips) on local disk with timestamped, path-safe names.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/droneguard/droneguard/pkg/log"
)

// Store writes uploaded byte streams into a single directory.
type Store struct {
	dir    string
	logger *log.Logger
}

// NewStore creates the upload directory if needed and returns a store.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory not configured")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: log.ForService("uploads")}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// SanitizeFilename strips path components so a hostile filename cannot
// escape the upload directory.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" || name == "." || name == ".." {
		return "unnamed"
	}
	return name
}

// Save streams r to disk as "<unix_ms>_<sanitized-name>" and returns the
// path written. fallback names the file when the client sent none.
func (s *Store) Save(name, fallback string, r io.Reader) (string, error) {
	if strings.TrimSpace(name) == "" {
		name = fallback
	}
	ts := time.Now().UnixMilli()
	outPath := filepath.Join(s.dir, fmt.Sprintf("%d_%s", ts, SanitizeFilename(name)))

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 1<<20)
	written, err := io.CopyBuffer(f, r, buf)
	if err != nil {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("writing %s: %w", outPath, err)
	}

	s.logger.Infof("saved %s (%d bytes)", outPath, written)
	return outPath, nil
}
