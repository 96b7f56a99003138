// Feedcore - Personalized Social Feed Ranking
// Copyright 2026 Arclight Social
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arclight-social/feedcore

// Package config loads application configuration with layered precedence:
// struct defaults, then an optional YAML file, then FEEDCORE_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/arclight-social/feedcore/internal/feed"
	"github.com/arclight-social/feedcore/internal/feed/profile"
	"github.com/arclight-social/feedcore/internal/feed/session"
	"github.com/arclight-social/feedcore/internal/logging"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/feedcore/config.yaml",
	"/etc/feedcore/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "FEEDCORE_CONFIG"

// envPrefix is the prefix for environment variable overrides, e.g.
// FEEDCORE_SERVER_PORT=9090.
const envPrefix = "FEEDCORE_"

// Config is the full application configuration.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `json:"server" koanf:"server"`

	// Logging configures the global logger.
	Logging logging.Config `json:"logging" koanf:"logging"`

	// Storage configures profile persistence.
	Storage StorageConfig `json:"storage" koanf:"storage"`

	// Session configures pagination and engagement batching.
	Session SessionConfig `json:"session" koanf:"session"`

	// Ranking configures the composite ranking engine, including
	// experiment variant weight overrides.
	Ranking feed.Config `json:"ranking" koanf:"ranking"`

	// Breaker configures the profile store circuit breaker.
	Breaker profile.BreakerConfig `json:"breaker" koanf:"breaker"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Host is the bind address.
	Host string `json:"host" koanf:"host"`

	// Port is the listen port.
	Port int `json:"port" koanf:"port"`

	// ReadTimeout bounds request reads.
	ReadTimeout time.Duration `json:"read_timeout" koanf:"read_timeout"`

	// WriteTimeout bounds response writes.
	WriteTimeout time.Duration `json:"write_timeout" koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" koanf:"shutdown_timeout"`

	// RateLimitPerSecond is the per-instance request rate limit.
	// Zero disables limiting.
	RateLimitPerSecond float64 `json:"rate_limit_per_second" koanf:"rate_limit_per_second"`

	// RateLimitBurst is the rate limiter burst size.
	RateLimitBurst int `json:"rate_limit_burst" koanf:"rate_limit_burst"`
}

// StorageConfig configures profile persistence.
type StorageConfig struct {
	// Backend selects the profile store: "memory" or "badger".
	Backend string `json:"backend" koanf:"backend"`

	// BadgerPath is the on-disk directory for the badger backend.
	BadgerPath string `json:"badger_path" koanf:"badger_path"`
}

// SessionConfig configures the session layer.
type SessionConfig struct {
	// PageSize is the feed page length.
	PageSize int `json:"page_size" koanf:"page_size"`

	// FlushInterval is how often queued engagement events are folded
	// into profiles.
	FlushInterval time.Duration `json:"flush_interval" koanf:"flush_interval"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       15 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerSecond: 100,
			RateLimitBurst:     200,
		},
		Logging: logging.Config{
			Level:     "info",
			Format:    "json",
			Timestamp: true,
		},
		Storage: StorageConfig{
			Backend:    "memory",
			BadgerPath: "/data/feedcore/profiles",
		},
		Session: SessionConfig{
			PageSize:      session.DefaultPageSize,
			FlushInterval: session.DefaultFlushInterval,
		},
		Ranking: *feed.DefaultConfig(),
		Breaker: profile.DefaultBreakerConfig(),
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables. An empty path searches DefaultConfigPaths.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envTransform maps FEEDCORE_SERVER_PORT to server.port. Nested keys with
// underscores in their names (e.g. session.flush_interval) use a double
// underscore: FEEDCORE_SESSION_FLUSH__INTERVAL.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	s = strings.ReplaceAll(s, "__", "-")
	s = strings.ReplaceAll(s, "_", ".")
	return strings.ReplaceAll(s, "-", "_")
}

// findConfigFile returns the first existing default config path.
func findConfigFile() string {
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate checks cross-field configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case "memory":
	case "badger":
		if c.Storage.BadgerPath == "" {
			return fmt.Errorf("storage backend badger requires badger_path")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Session.PageSize <= 0 {
		return fmt.Errorf("session page_size must be > 0, got %d", c.Session.PageSize)
	}
	if c.Session.FlushInterval <= 0 {
		return fmt.Errorf("session flush_interval must be > 0, got %s", c.Session.FlushInterval)
	}

	if err := c.Ranking.Validate(); err != nil {
		return fmt.Errorf("ranking config: %w", err)
	}

	return nil
}
