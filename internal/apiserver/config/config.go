// Package config provides configuration loading for the API server.
// Configuration sources (in priority order): env vars > config file > defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all API server configuration.
type Config struct {
	// Listen address (default ":8080")
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	// Data directory for SQLite databases (default "/var/lib/inkwell")
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Database settings. Empty driver selects SQLite files under DataDir.
	Database DatabaseConfig `json:"database,omitempty" yaml:"database,omitempty"`

	// TLS settings
	TLSCert string `json:"tls_cert,omitempty" yaml:"tls_cert,omitempty"`
	TLSKey  string `json:"tls_key,omitempty" yaml:"tls_key,omitempty"`

	// Session lifetime (default 24h)
	SessionLifetime time.Duration `json:"session_lifetime,omitempty" yaml:"session_lifetime,omitempty"`
	// Cron spec for expired-session cleanup (default "@hourly")
	SessionCleanup string `json:"session_cleanup,omitempty" yaml:"session_cleanup,omitempty"`

	// Login rate limiting
	RateLimit RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`

	// OTLP trace endpoint (empty disables tracing)
	OTLPEndpoint string `json:"otlp_endpoint,omitempty" yaml:"otlp_endpoint,omitempty"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// DatabaseConfig selects the backing database.
type DatabaseConfig struct {
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// RateLimitConfig configures the login attempt limiter.
type RateLimitConfig struct {
	LoginPerMinute int `json:"login_per_minute" yaml:"login_per_minute"`
}

// Default returns configuration with sensible defaults.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		DataDir:         "/var/lib/inkwell",
		SessionLifetime: 24 * time.Hour,
		SessionCleanup:  "@hourly",
		RateLimit: RateLimitConfig{
			LoginPerMinute: 10,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from a file, then overlays environment variables.
// The file format follows the extension: .yaml/.yml or JSON.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &cfg)
		default:
			err = json.Unmarshal(data, &cfg)
		}
		if err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("INKWELL_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("INKWELL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("INKWELL_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("INKWELL_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("INKWELL_TLS_CERT"); v != "" {
		cfg.TLSCert = v
	}
	if v := os.Getenv("INKWELL_TLS_KEY"); v != "" {
		cfg.TLSKey = v
	}
	if v := os.Getenv("INKWELL_SESSION_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionLifetime = d
		}
	}
	if v := os.Getenv("INKWELL_SESSION_CLEANUP"); v != "" {
		cfg.SessionCleanup = v
	}
	if v := os.Getenv("INKWELL_LOGIN_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.LoginPerMinute = n
		}
	}
	if v := os.Getenv("INKWELL_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := os.Getenv("INKWELL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() Config {
	cfg, _ := Load("")
	return cfg
}

// DatabaseDSN resolves the DSN for a named store. SQLite stores get one
// file per store under DataDir; other drivers share the configured DSN.
func (c Config) DatabaseDSN(store string) string {
	switch c.Database.Driver {
	case "", "sqlite":
		return filepath.Join(c.DataDir, store+".db")
	default:
		return c.Database.DSN
	}
}

// HasTLS returns true if TLS is configured.
func (c Config) HasTLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}
