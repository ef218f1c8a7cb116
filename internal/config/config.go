// Package config loads the dashboard configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/thobiasn/skiff/internal/state"
)

// ErrInterval is returned when the poll interval is not positive.
var ErrInterval = errors.New("poll interval must be greater than 0")

// Duration wraps time.Duration for TOML string parsing ("1s", "500ms").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	return nil
}

type Config struct {
	PollInterval Duration     `toml:"poll_interval"`
	Color        bool         `toml:"color"`
	Raw          bool         `toml:"raw"`
	Timestamps   *bool        `toml:"timestamps"`
	LogFile      string       `toml:"log_file"`
	LogLevel     string       `toml:"log_level"`
	Headless     bool         `toml:"headless"`
	Docker       DockerConfig `toml:"docker"`
	Theme        ThemeConfig  `toml:"theme"`
}

type DockerConfig struct {
	Host string `toml:"host"` // empty uses DOCKER_HOST or the default socket
}

// ThemeConfig holds optional color overrides. Empty strings keep the ANSI
// defaults. Values can be ANSI numbers ("1"), 256-palette numbers ("196"),
// or hex ("#ff0000").
type ThemeConfig struct {
	Fg       string `toml:"fg"`
	FgDim    string `toml:"fg_dim"`
	Border   string `toml:"border"`
	Accent   string `toml:"accent"`
	Healthy  string `toml:"healthy"`
	Warning  string `toml:"warning"`
	Critical string `toml:"critical"`
	GraphCPU string `toml:"graph_cpu"`
	GraphMem string `toml:"graph_mem"`
}

// DefaultPath returns $XDG_CONFIG_HOME/skiff/config.toml, falling back to
// ~/.config/skiff/config.toml if unset.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "skiff", "config.toml")
}

// DefaultLogFile returns $XDG_STATE_HOME/skiff/skiff.log, falling back to
// ~/.local/state/skiff/skiff.log.
func DefaultLogFile() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".local", "state")
	}
	return filepath.Join(dir, "skiff", "skiff.log")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{PollInterval: Duration{Duration: time.Second}}
	setDefaults(cfg)
	return cfg
}

// Load reads the TOML file at path. A missing file yields the defaults,
// unless the path was given explicitly.
func Load(path string, explicit bool) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("load config: %w", err)
	}
	// An explicit zero interval is an error, not a request for the default.
	if !md.IsDefined("poll_interval") {
		cfg.PollInterval.Duration = time.Second
	}
	setDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Timestamps == nil {
		on := true
		cfg.Timestamps = &on
	}
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile()
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate checks values that flags may have overridden after loading.
func Validate(cfg *Config) error {
	if cfg.PollInterval.Duration <= 0 {
		return ErrInterval
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
	}
}

// LogDisplay returns the log rendering mode.
func (c *Config) LogDisplay() state.LogDisplay {
	return state.LogDisplay{
		Color:     c.Color,
		Raw:       c.Raw,
		Timestamp: c.Timestamps == nil || *c.Timestamps,
	}
}
