package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ListenAddr != ":8090" {
		t.Errorf("ListenAddr = %q, want :8090", cfg.ListenAddr)
	}
	if cfg.RelayTimeout != 30*time.Second {
		t.Errorf("RelayTimeout = %v, want 30s", cfg.RelayTimeout)
	}
	if cfg.IdentityLifetime != 2*time.Hour {
		t.Errorf("IdentityLifetime = %v, want 2h", cfg.IdentityLifetime)
	}
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.json")
	content := `{"listen_addr": ":9000", "api_base_url": "http://api:8080", "identity_key": "secret"}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want :9000", cfg.ListenAddr)
	}
	if cfg.APIBaseURL != "http://api:8080" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.yaml")
	content := "api_base_url: http://api:8080\nidentity_key: secret\nrelay_timeout: 10s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RelayTimeout != 10*time.Second {
		t.Errorf("RelayTimeout = %v, want 10s", cfg.RelayTimeout)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.json")
	if err := os.WriteFile(path, []byte(`{"api_base_url": "http://file:8080"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INKWELL_API_BASE_URL", "http://env:8080")
	t.Setenv("INKWELL_IDENTITY_KEY", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://env:8080" {
		t.Errorf("APIBaseURL = %q, want env value", cfg.APIBaseURL)
	}
	if cfg.IdentityKey != "env-secret" {
		t.Errorf("IdentityKey = %q, want env value", cfg.IdentityKey)
	}
}

func TestValidateRequiresAPIBaseURL(t *testing.T) {
	cfg := Default()
	cfg.IdentityKey = "secret"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing api base url")
	}

	cfg.APIBaseURL = "http://api:8080"
	cfg.IdentityKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing identity key")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/web.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
