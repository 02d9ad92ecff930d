// Package config loads the clustta-blender configuration: where the agent
// listens, how long to wait for it, and where its binary lives.
// Values come from a TOML file, then from CLUSTTA_* environment variables,
// which may themselves be set by a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	AppDir     = "clustta-blender"
	ConfigFile = "config.toml"
	EnvFile    = ".env"

	DefaultAgentURL       = "http://127.0.0.1:1173"
	DefaultTimeout        = "5s"
	DefaultLogLevel       = "warn"
	DefaultAssetExtension = ".blend"
)

// Environment variables that override the file.
const (
	EnvAgentURL  = "CLUSTTA_AGENT_URL"
	EnvTimeout   = "CLUSTTA_AGENT_TIMEOUT"
	EnvAgentPath = "CLUSTTA_AGENT_PATH"
	EnvLogLevel  = "CLUSTTA_LOG_LEVEL"
)

// Config represents the clustta-blender configuration
type Config struct {
	AgentURL       string `toml:"agent_url"`
	Timeout        string `toml:"timeout"`    // Go duration, e.g. "5s"
	AgentPath      string `toml:"agent_path"` // explicit agent binary, tried before the bundled and system paths
	LogLevel       string `toml:"log_level"`
	AssetExtension string `toml:"asset_extension"`
	path           string // file the config was loaded from
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AgentURL:       DefaultAgentURL,
		Timeout:        DefaultTimeout,
		LogLevel:       DefaultLogLevel,
		AssetExtension: DefaultAssetExtension,
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, AppDir, ConfigFile), nil
}

// Load reads the config file at path (DefaultPath when empty). A missing file
// is not an error: the defaults apply. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := loadDotEnv(EnvFile); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv sets variables from a .env file without overriding the
// environment. A missing file is ignored.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAgentURL); v != "" {
		c.AgentURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvAgentPath); v != "" {
		c.AgentPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.AgentURL == "" {
		c.AgentURL = d.AgentURL
	}
	if c.Timeout == "" {
		c.Timeout = d.Timeout
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.AssetExtension == "" {
		c.AssetExtension = d.AssetExtension
	}
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.AgentURL)
	if err != nil {
		return fmt.Errorf("invalid agent_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid agent_url %q: scheme must be http or https", c.AgentURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid agent_url %q: must include a host", c.AgentURL)
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid timeout %q: must be positive", c.Timeout)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	if !strings.HasPrefix(c.AssetExtension, ".") {
		return fmt.Errorf("invalid asset_extension %q: must start with a dot", c.AssetExtension)
	}
	return nil
}

// TimeoutDuration returns the request timeout. Call after Validate.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultTimeout)
	}
	return d
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", s)
}

// Path returns the file the config was loaded from or will be saved to.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to its path, creating the directory.
func (c *Config) Save() error {
	if c.path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		c.path = p
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
