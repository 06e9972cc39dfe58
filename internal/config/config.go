// Package config loads and validates the filesweep configuration.
//
// Configuration precedence, lowest to highest:
//  1. Built-in defaults
//  2. Config file (filesweep.yaml)
//  3. Environment variable overrides (FILESWEEP_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	sweeperr "github.com/Aman-CERP/filesweep/internal/errors"
)

// ConfigFileName is the default config file name looked up in a directory.
const ConfigFileName = "filesweep.yaml"

// Duration wraps time.Duration so YAML values can be written as strings
// like "100ms" or "2s".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the standard duration formatting.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Accepts either a duration
// string ("100ms") or an integer nanosecond count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	*d = Duration(n)
	return nil
}

// Config represents the complete filesweep configuration.
// It is treated as immutable while monitoring is active; stop the monitor
// and processor before reconfiguring.
type Config struct {
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Move    MoveConfig    `yaml:"move" json:"move"`
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// WatchConfig configures what to watch and which files qualify.
type WatchConfig struct {
	// Path is the directory to watch. Must exist before starting.
	Path string `yaml:"path" json:"path"`

	// Extensions is the allow-list of file extensions (with or without the
	// leading dot, compared case-insensitively). Empty means all extensions.
	Extensions []string `yaml:"extensions" json:"extensions"`

	// Pattern is an optional regular expression matched against the filename
	// without its extension. The whole stem must match.
	Pattern string `yaml:"pattern" json:"pattern"`

	// Recursive watches subdirectories as well (default: false).
	Recursive bool `yaml:"recursive" json:"recursive"`

	// ScanExisting enqueues files already present in the watch directory
	// when processing starts (default: false).
	ScanExisting bool `yaml:"scan_existing" json:"scan_existing"`
}

// MoveConfig configures the move target and retry policy.
type MoveConfig struct {
	// TargetDir is the directory matched files are moved into.
	// The caller creates it before starting; the core never does.
	TargetDir string `yaml:"target_dir" json:"target_dir"`

	// RetryAttempts is the number of lock-probe attempts before a move is
	// declared failed (default: 10).
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts"`

	// RetryDelay is the pause between lock-probe attempts (default: 100ms).
	RetryDelay Duration `yaml:"retry_delay" json:"retry_delay"`
}

// MonitorConfig tunes event delivery.
type MonitorConfig struct {
	// EventBufferSize bounds the change-event channel (default: 1000).
	// When the buffer is full, events are dropped and counted.
	EventBufferSize int `yaml:"event_buffer_size" json:"event_buffer_size"`

	// CoalesceWindow merges rapid events for the same path within the
	// window. Zero disables coalescing (default).
	CoalesceWindow Duration `yaml:"coalesce_window" json:"coalesce_window"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Move: MoveConfig{
			RetryAttempts: 10,
			RetryDelay:    Duration(100 * time.Millisecond),
		},
		Monitor: MonitorConfig{
			EventBufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from dir/filesweep.yaml (when present), applies
// environment overrides, and validates the result.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadLogging reads only the logging section: defaults, then file, then
// env. Validation is skipped so logging can start even when the rest of
// the configuration is incomplete, and an unreadable file simply falls
// back to defaults.
func LoadLogging(dir string) LoggingConfig {
	cfg := NewConfig()
	_ = cfg.loadFromFile(dir)
	cfg.applyEnvOverrides()
	return cfg.Logging
}

// loadFromFile merges dir/filesweep.yaml into the config when the file exists.
func (c *Config) loadFromFile(dir string) error {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return sweeperr.ConfigError(
			fmt.Sprintf("parse config %s: %v", path, err), err)
	}
	return nil
}

// applyEnvOverrides applies FILESWEEP_* environment variables.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FILESWEEP_WATCH_PATH"); v != "" {
		c.Watch.Path = v
	}
	if v := os.Getenv("FILESWEEP_TARGET_DIR"); v != "" {
		c.Move.TargetDir = v
	}
	if v := os.Getenv("FILESWEEP_EXTENSIONS"); v != "" {
		c.Watch.Extensions = splitList(v)
	}
	if v := os.Getenv("FILESWEEP_PATTERN"); v != "" {
		c.Watch.Pattern = v
	}
	if v := os.Getenv("FILESWEEP_RECURSIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Watch.Recursive = b
		}
	}
	if v := os.Getenv("FILESWEEP_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Move.RetryAttempts = n
		}
	}
	if v := os.Getenv("FILESWEEP_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.Move.RetryDelay = Duration(d)
		}
	}
	if v := os.Getenv("FILESWEEP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// splitList splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the configuration for consistency.
// The watch path must name an existing directory; the pattern, when set,
// must compile.
func (c *Config) Validate() error {
	if c.Watch.Path == "" {
		return sweeperr.New(sweeperr.ErrCodeWatchPathMissing,
			"watch path is not configured", nil)
	}

	info, err := os.Stat(c.Watch.Path)
	if err != nil {
		return sweeperr.New(sweeperr.ErrCodeWatchPathInvalid,
			fmt.Sprintf("watch path %q does not exist", c.Watch.Path), err)
	}
	if !info.IsDir() {
		return sweeperr.New(sweeperr.ErrCodeWatchPathInvalid,
			fmt.Sprintf("watch path %q is not a directory", c.Watch.Path), nil)
	}

	if c.Move.TargetDir == "" {
		return sweeperr.New(sweeperr.ErrCodeTargetInvalid,
			"target directory is not configured", nil)
	}

	if c.Watch.Pattern != "" {
		if _, err := regexp.Compile(c.Watch.Pattern); err != nil {
			return sweeperr.New(sweeperr.ErrCodePatternInvalid,
				fmt.Sprintf("invalid filename pattern %q", c.Watch.Pattern), err)
		}
	}

	if c.Move.RetryAttempts < 1 {
		return sweeperr.ConfigError("retry_attempts must be at least 1", nil)
	}
	if c.Move.RetryDelay < 0 {
		return sweeperr.ConfigError("retry_delay must not be negative", nil)
	}
	if c.Monitor.EventBufferSize < 1 {
		return sweeperr.ConfigError("event_buffer_size must be at least 1", nil)
	}

	return nil
}

// WriteYAML writes the configuration to the given path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
