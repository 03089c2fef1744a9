// Package config loads the badgelink configuration file.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ternbach/badgelink/internal/badge/protocol"
)

// Config holds all application configuration.
type Config struct {
	Badge    BadgeConfig   `yaml:"badge"`
	Display  DisplayConfig `yaml:"display"`
	OSC      OSCConfig     `yaml:"osc"`
	LogLevel string        `yaml:"log_level"`
}

// BadgeConfig holds the link settings for one badge.
type BadgeConfig struct {
	// Address is the badge's MAC (BlueZ) or peripheral UUID (Darwin).
	// Empty means scan for the first badge advertising the FEE9 service.
	Address string `yaml:"address"`
	// Key overrides the firmware AES-128 key, as 32 hex characters.
	Key             string        `yaml:"key"`
	AckTimeout      time.Duration `yaml:"ack_timeout"`
	InterChunkDelay time.Duration `yaml:"inter_chunk_delay"`
	ScanTimeout     time.Duration `yaml:"scan_timeout"`
}

// DisplayConfig holds the settings applied after an upload.
type DisplayConfig struct {
	Mode       string `yaml:"mode"` // static, left, right, up, down, snow
	Speed      int    `yaml:"speed"`
	Brightness int    `yaml:"brightness"`
}

// OSCConfig holds the bridge endpoints.
type OSCConfig struct {
	ListenHost string `yaml:"listen_host"`
	ListenPort int    `yaml:"listen_port"`
	ReplyHost  string `yaml:"reply_host"`
	ReplyPort  int    `yaml:"reply_port"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "badgelink")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Badge: BadgeConfig{
			AckTimeout:      5 * time.Second,
			InterChunkDelay: 10 * time.Millisecond,
			ScanTimeout:     10 * time.Second,
		},
		Display: DisplayConfig{
			Mode:       "left",
			Speed:      50,
			Brightness: 128,
		},
		OSC: OSCConfig{
			ListenHost: "0.0.0.0",
			ListenPort: 9000,
			ReplyHost:  "127.0.0.1",
			ReplyPort:  9001,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if _, err := c.Badge.DecodeKey(); err != nil {
		return err
	}

	if c.Badge.AckTimeout <= 0 {
		return fmt.Errorf("badge.ack_timeout must be > 0")
	}
	if c.Badge.InterChunkDelay < 0 {
		return fmt.Errorf("badge.inter_chunk_delay must not be negative")
	}
	if c.Badge.ScanTimeout <= 0 {
		return fmt.Errorf("badge.scan_timeout must be > 0")
	}

	if _, err := protocol.ParseMode(c.Display.Mode); err != nil {
		return fmt.Errorf("display.mode: %w", err)
	}
	if c.Display.Speed < 0 || c.Display.Speed > 255 {
		return fmt.Errorf("display.speed must be 0-255, got %d", c.Display.Speed)
	}
	if c.Display.Brightness < 0 || c.Display.Brightness > 255 {
		return fmt.Errorf("display.brightness must be 0-255, got %d", c.Display.Brightness)
	}

	if c.OSC.ListenPort < 1 || c.OSC.ListenPort > 65535 {
		return fmt.Errorf("osc.listen_port must be 1-65535, got %d", c.OSC.ListenPort)
	}
	if c.OSC.ReplyPort < 1 || c.OSC.ReplyPort > 65535 {
		return fmt.Errorf("osc.reply_port must be 1-65535, got %d", c.OSC.ReplyPort)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// DecodeKey returns the AES-128 key configured for the badge, falling
// back to the firmware default when unset.
func (b BadgeConfig) DecodeKey() ([]byte, error) {
	if b.Key == "" {
		return protocol.DefaultKey, nil
	}
	key, err := hex.DecodeString(b.Key)
	if err != nil {
		return nil, fmt.Errorf("badge.key must be hex: %w", err)
	}
	if len(key) != 16 {
		return nil, fmt.Errorf("badge.key must be 16 bytes (32 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

// defaultConfigYAML is what WriteDefault emits. Values must match
// Default().
const defaultConfigYAML = `# badgelink configuration
# Leave badge.address empty to connect to the first badge found.

badge:
  address: ""
  # key: 32 hex characters overriding the firmware AES key
  ack_timeout: 5s
  inter_chunk_delay: 10ms
  scan_timeout: 10s

display:
  mode: left # static, left, right, up, down, snow
  speed: 50
  brightness: 128

osc:
  listen_host: 0.0.0.0
  listen_port: 9000
  reply_host: 127.0.0.1
  reply_port: 9001

log_level: info
`

// WriteDefault writes a commented default config to the default path if
// none exists yet. It returns the written path, or "" when a config was
// already present.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if path == "" {
		return "", fmt.Errorf("cannot determine config directory")
	}
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}
	if err := os.MkdirAll(DefaultConfigDir(), 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}
	return path, nil
}

// ParseLogLevel maps a config log level to slog. Unknown values fall
// back to info.
func ParseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
