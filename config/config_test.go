package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.MaxSessionsPerUser != 5 {
		t.Errorf("Expected default quota 5, got %d", cfg.MaxSessionsPerUser)
	}
	if cfg.LoginTimeout != 30*time.Second {
		t.Errorf("Expected default login timeout 30s, got %v", cfg.LoginTimeout)
	}
	if !cfg.HeadlessBrowser {
		t.Error("Expected headless browsing by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("MAX_SESSIONS_PER_USER", "2")
	t.Setenv("LOGIN_TIMEOUT", "45s")
	t.Setenv("INFISICAL_ENVIRONMENT", "staging")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxSessionsPerUser != 2 {
		t.Errorf("Expected quota override 2, got %d", cfg.MaxSessionsPerUser)
	}
	if cfg.LoginTimeout != 45*time.Second {
		t.Errorf("Expected login timeout 45s, got %v", cfg.LoginTimeout)
	}
	if cfg.Infisical.Environment != "staging" {
		t.Errorf("Expected staging environment, got %q", cfg.Infisical.Environment)
	}
}

func TestLoadRequiresCoreVariables(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("MONGO_URI", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error when required variables are missing")
	}
}
