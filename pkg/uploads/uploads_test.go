package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveWritesTimestampedFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	path, err := store.Save("intruder.jpg", "photo.jpg", strings.NewReader("jpegbytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "jpegbytes" {
		t.Fatalf("content mismatch: %q", data)
	}
	if !strings.HasSuffix(path, "_intruder.jpg") {
		t.Fatalf("expected timestamped name, got %s", filepath.Base(path))
	}
}

func TestSaveUsesFallbackName(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	path, err := store.Save("", "video.mp4", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(path, "_video.mp4") {
		t.Fatalf("expected fallback name, got %s", filepath.Base(path))
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":        "photo.jpg",
		"../../etc/passwd": "passwd",
		"a/b/c.jpg":        "c.jpg",
		"..\\..\\evil.exe": "evil.exe",
		"":                 "unnamed",
		"..":               "unnamed",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Fatalf("sanitize %q: expected %q, got %q", in, want, got)
		}
	}
}

func TestSavedFileStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	path, err := store.Save("../escape.jpg", "photo.jpg", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("file escaped upload dir: %s", path)
	}
}
