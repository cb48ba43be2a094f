package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Config is the full droneguard configuration.
type Config struct {
	ListenAddr   string `toml:"listen_addr"`
	APIKey       string `toml:"api_key"`
	LanOnly      *bool  `toml:"lan_only,omitempty"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`

	RateLimit  RateLimitConfig  `toml:"rate_limit"`
	Broker     BrokerConfig     `toml:"broker"`
	Mission    MissionConfig    `toml:"mission"`
	Controller ControllerConfig `toml:"controller"`
	Uploads    UploadsConfig    `toml:"uploads"`
	Livestream LivestreamConfig `toml:"livestream"`
	EventStore EventStoreConfig `toml:"event_store"`
}

// RateLimitConfig bounds intrusion events per device id.
type RateLimitConfig struct {
	Window    Duration `toml:"window"`
	MaxEvents int      `toml:"max_events"`
}

// BrokerConfig tunes command fan-out.
type BrokerConfig struct {
	QueueCapacity int      `toml:"queue_capacity"`
	Keepalive     Duration `toml:"keepalive"`
}

// MissionConfig targets the scripted intrusion response.
type MissionConfig struct {
	DeviceID string `toml:"device_id"`
	// AdvertisedHost is the host:port remote devices use to reach this hub
	// (upload URLs embedded in SNAPSHOT commands).
	AdvertisedHost string `toml:"advertised_host"`
}

// ControllerConfig locates the Android controller for direct control mode.
type ControllerConfig struct {
	BaseURL    string   `toml:"base_url"`
	APIKey     string   `toml:"api_key"`
	Timeout    Duration `toml:"timeout"`
	MoveFreqHz int      `toml:"move_freq_hz"`
}

// UploadsConfig locates media artifact storage.
type UploadsConfig struct {
	Dir string `toml:"dir"`
}

// LivestreamConfig names the RTMP ingest and playback bases.
type LivestreamConfig struct {
	RTMPIngestBase string `toml:"rtmp_ingest_base"`
	PlayBase       string `toml:"play_base"`
}

// EventStoreConfig locates the sqlite activity history. A nil path gets the
// default; an explicitly empty path disables persistence entirely.
type EventStoreConfig struct {
	Path *string `toml:"path"`
}

// Duration wraps time.Duration with TOML text (un)marshaling.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// IsLanOnly reports whether the private-network gate is active (default true).
func (c *Config) IsLanOnly() bool {
	return c.LanOnly == nil || *c.LanOnly
}

// EventStorePath returns the sqlite path, or "" when persistence is disabled.
func (c *Config) EventStorePath() string {
	if c.EventStore.Path == nil {
		return ""
	}
	return *c.EventStore.Path
}

// GetDefaultConfig returns a config with every default filled in.
func GetDefaultConfig() (*Config, error) {
	dataDir, err := GetDefaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("getting default data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "droneguard.db")
	cfg := &Config{
		ListenAddr:   ":8080",
		MaxBodyBytes: 8192,
		RateLimit:    RateLimitConfig{Window: Duration{10 * time.Second}, MaxEvents: 3},
		Broker:       BrokerConfig{QueueCapacity: 200, Keepalive: Duration{10 * time.Second}},
		Mission:      MissionConfig{DeviceID: "android-controller-01"},
		Controller:   ControllerConfig{Timeout: Duration{5 * time.Second}, MoveFreqHz: 25},
		Uploads:      UploadsConfig{Dir: filepath.Join(dataDir, "uploads")},
		EventStore:   EventStoreConfig{Path: &dbPath},
	}
	return cfg, nil
}

// LoadConfig reads configPath, falling back to defaults when the file does
// not exist. Zero-valued fields are filled with defaults so a sparse config
// file stays valid.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	defaults, err := GetDefaultConfig()
	if err != nil {
		return nil, err
	}
	if config.ListenAddr == "" {
		config.ListenAddr = defaults.ListenAddr
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if config.RateLimit.Window.Duration == 0 {
		config.RateLimit.Window = defaults.RateLimit.Window
	}
	if config.RateLimit.MaxEvents <= 0 {
		config.RateLimit.MaxEvents = defaults.RateLimit.MaxEvents
	}
	if config.Broker.QueueCapacity <= 0 {
		config.Broker.QueueCapacity = defaults.Broker.QueueCapacity
	}
	if config.Broker.Keepalive.Duration == 0 {
		config.Broker.Keepalive = defaults.Broker.Keepalive
	}
	if config.Mission.DeviceID == "" {
		config.Mission.DeviceID = defaults.Mission.DeviceID
	}
	if config.Controller.Timeout.Duration == 0 {
		config.Controller.Timeout = defaults.Controller.Timeout
	}
	if config.Controller.MoveFreqHz <= 0 {
		config.Controller.MoveFreqHz = defaults.Controller.MoveFreqHz
	}
	if config.Uploads.Dir == "" {
		config.Uploads.Dir = defaults.Uploads.Dir
	}
	if config.EventStore.Path == nil {
		config.EventStore.Path = defaults.EventStore.Path
	}

	return &config, nil
}

// SaveConfig writes the config as TOML.
func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the commented sample config, substituting the
// user's data directory.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	dataDir, err := GetDefaultDataDir()
	if err != nil {
		return fmt.Errorf("getting default data directory: %w", err)
	}
	template := strings.ReplaceAll(configTemplate, "/home/user/.local/share/droneguard", dataDir)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// GetDefaultDataDir returns the default directory for databases and uploads.
func GetDefaultDataDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "droneguard")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetConfigDir returns the configuration directory for droneguard.
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "droneguard")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
