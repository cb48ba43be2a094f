package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.RateLimit.MaxEvents != 3 || cfg.RateLimit.Window.Duration != 10*time.Second {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Broker.QueueCapacity != 200 || cfg.Broker.Keepalive.Duration != 10*time.Second {
		t.Fatalf("unexpected broker defaults: %+v", cfg.Broker)
	}
	if !cfg.IsLanOnly() {
		t.Fatalf("lan_only must default to true")
	}
}

func TestLoadSparseFileFillsDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
api_key = "hunter2"
lan_only = false

[mission]
device_id = "patrol-drone-7"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "hunter2" {
		t.Fatalf("api key not read: %q", cfg.APIKey)
	}
	if cfg.IsLanOnly() {
		t.Fatalf("lan_only=false must disable the LAN gate")
	}
	if cfg.Mission.DeviceID != "patrol-drone-7" {
		t.Fatalf("device id not read: %q", cfg.Mission.DeviceID)
	}
	// Unset sections fall back to defaults.
	if cfg.Broker.QueueCapacity != 200 {
		t.Fatalf("queue capacity default not applied: %d", cfg.Broker.QueueCapacity)
	}
	if cfg.Controller.Timeout.Duration != 5*time.Second {
		t.Fatalf("controller timeout default not applied: %v", cfg.Controller.Timeout)
	}
	if !strings.HasSuffix(cfg.EventStorePath(), "droneguard.db") {
		t.Fatalf("event store default not applied: %q", cfg.EventStorePath())
	}
}

func TestEventStoreExplicitlyDisabled(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[event_store]\npath = \"\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EventStorePath() != "" {
		t.Fatalf("explicit empty path must disable persistence, got %q", cfg.EventStorePath())
	}
}

func TestDurationRoundTrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[broker]\nkeepalive = \"2s\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Broker.Keepalive.Duration != 2*time.Second {
		t.Fatalf("keepalive not parsed: %v", cfg.Broker.Keepalive)
	}
}

func TestSaveTemplateConfig(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := GetDefaultConfig()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if err := cfg.SaveTemplateConfig(path); err != nil {
		t.Fatalf("save template: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("template is empty")
	}

	// The template must parse back as valid config.
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("template does not round-trip: %v", err)
	}
}
