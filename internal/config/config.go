// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// APIBaseURL is the FocusBuddy API base URL (e.g. http://localhost:8000).
	APIBaseURL string `mapstructure:"FOCUSBUDDY_API_URL"`
	// HTTPTimeout is the per-request timeout (e.g. "30s").
	HTTPTimeout string `mapstructure:"FOCUSBUDDY_HTTP_TIMEOUT"`
	// HeartbeatEvery is the session heartbeat interval (e.g. "10s"). The server
	// auto-pauses a session whose last heartbeat is older than 30s, so this
	// must stay well under that.
	HeartbeatEvery string `mapstructure:"FOCUSBUDDY_HEARTBEAT_INTERVAL"`
	// StateDBPath is the sqlite file holding the persisted credential.
	// Empty means $HOME/.focusbuddy/state.db.
	StateDBPath string `mapstructure:"FOCUSBUDDY_STATE_DB"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"FOCUSBUDDY_LOG_LEVEL"`
	// MetricsAddr, when set (e.g. :9188), serves Prometheus metrics while a
	// session is running in the foreground. Empty disables the listener.
	MetricsAddr string `mapstructure:"FOCUSBUDDY_METRICS_ADDR"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("FOCUSBUDDY_API_URL", "http://localhost:8000")
	v.SetDefault("FOCUSBUDDY_HTTP_TIMEOUT", "30s")
	v.SetDefault("FOCUSBUDDY_HEARTBEAT_INTERVAL", "10s")
	v.SetDefault("FOCUSBUDDY_STATE_DB", "")
	v.SetDefault("FOCUSBUDDY_LOG_LEVEL", "info")
	v.SetDefault("FOCUSBUDDY_METRICS_ADDR", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("config: FOCUSBUDDY_API_URL must be set")
	}
	if d := cfg.Heartbeat(); d >= 30*time.Second {
		return nil, errors.New("config: FOCUSBUDDY_HEARTBEAT_INTERVAL must be under 30s (server staleness cutoff)")
	}

	return &cfg, nil
}

// Timeout parses HTTPTimeout as a time.Duration. Returns 30s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Heartbeat parses HeartbeatEvery as a time.Duration. Returns 10s if unset or invalid.
func (c *Config) Heartbeat() time.Duration {
	d, err := time.ParseDuration(c.HeartbeatEvery)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// StatePath returns the sqlite state file path, defaulting to
// $HOME/.focusbuddy/state.db when unset.
func (c *Config) StatePath() (string, error) {
	if c.StateDBPath != "" {
		return c.StateDBPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".focusbuddy", "state.db"), nil
}
