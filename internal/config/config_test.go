package config

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected missing JWT_SECRET to fail")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	for _, key := range []string{"PORT", "APP_ENV", "LOG_LEVEL", "SWEEP_INTERVAL", "NOTIFY_TIMEOUT", "MATCH_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SweepInterval != time.Minute || cfg.NotifyTimeout != 5*time.Second || cfg.MatchLimit != 10 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info log level, got %q", cfg.LogLevel)
	}
}

func TestLoadConfigParsesOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "Local")
	t.Setenv("SWEEP_INTERVAL", "30")
	t.Setenv("NOTIFY_TIMEOUT", "250ms")
	t.Setenv("MATCH_LIMIT", "3")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env, got %q", cfg.AppEnv)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("expected bare seconds to parse, got %v", cfg.SweepInterval)
	}
	if cfg.NotifyTimeout != 250*time.Millisecond || cfg.MatchLimit != 3 {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestLoadConfigRejectsBadNumbers(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	for key, value := range map[string]string{
		"SWEEP_INTERVAL": "soon",
		"NOTIFY_TIMEOUT": "-1s",
		"MATCH_LIMIT":    "0",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected %s=%q to be rejected", key, value)
			}
		})
	}
}
