// Package config provides configuration loading for the web front-end.
// Configuration sources (in priority order): env vars > config file > defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all web front-end configuration.
type Config struct {
	// Listen address (default ":8090")
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`

	// Base URL of the API service. Required; the front-end has no data
	// source of its own.
	APIBaseURL string `json:"api_base_url" yaml:"api_base_url"`

	// Timeout for a single relayed API call (default 30s)
	RelayTimeout time.Duration `json:"relay_timeout,omitempty" yaml:"relay_timeout,omitempty"`

	// Key used to sign the identity cookie. Required.
	IdentityKey string `json:"identity_key" yaml:"identity_key"`
	// Identity cookie lifetime (default 2h)
	IdentityLifetime time.Duration `json:"identity_lifetime,omitempty" yaml:"identity_lifetime,omitempty"`

	// TLS settings
	TLSCert string `json:"tls_cert,omitempty" yaml:"tls_cert,omitempty"`
	TLSKey  string `json:"tls_key,omitempty" yaml:"tls_key,omitempty"`

	// OTLP trace endpoint (empty disables tracing)
	OTLPEndpoint string `json:"otlp_endpoint,omitempty" yaml:"otlp_endpoint,omitempty"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// Default returns configuration with sensible defaults.
func Default() Config {
	return Config{
		ListenAddr:       ":8090",
		RelayTimeout:     30 * time.Second,
		IdentityLifetime: 2 * time.Hour,
		LogLevel:         "info",
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

	if v := os.Getenv("INKWELL_WEB_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("INKWELL_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("INKWELL_RELAY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RelayTimeout = d
		}
	}
	if v := os.Getenv("INKWELL_IDENTITY_KEY"); v != "" {
		cfg.IdentityKey = v
	}
	if v := os.Getenv("INKWELL_IDENTITY_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.IdentityLifetime = d
		}
	}
	if v := os.Getenv("INKWELL_WEB_TLS_CERT"); v != "" {
		cfg.TLSCert = v
	}
	if v := os.Getenv("INKWELL_WEB_TLS_KEY"); v != "" {
		cfg.TLSKey = v
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

// Validate reports configuration the front-end cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("api base url is required")
	}
	if strings.TrimSpace(c.IdentityKey) == "" {
		return fmt.Errorf("identity signing key is required")
	}
	return nil
}

// HasTLS returns true if TLS is configured.
func (c Config) HasTLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}
