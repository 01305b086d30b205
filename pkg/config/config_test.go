package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "parses valid duration",
			key:          "TEST_DURATION",
			defaultValue: time.Minute,
			envValue:     "30s",
			want:         30 * time.Second,
		},
		{
			name:         "falls back on invalid duration",
			key:          "TEST_DURATION_BAD",
			defaultValue: time.Minute,
			envValue:     "not-a-duration",
			want:         time.Minute,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_DURATION_NOT_SET",
			defaultValue: 15 * time.Minute,
			envValue:     "",
			want:         15 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// setRequiredEnv sets the minimum environment for Load to succeed
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CAREGATE_PROVIDER_URL", "https://auth.example.com")
	t.Setenv("CAREGATE_PROVIDER_API_KEY", "test-key")
	t.Setenv("CAREGATE_POSTGRES_URL", "postgres://localhost/caregate_test")
	t.Setenv("CAREGATE_GEOGRAPHY_URL", "https://geo.example.com")
}

// TestLoad_Defaults tests that defaults survive when no overrides are set
func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %v, want 8080", cfg.Server.Port)
	}
	if cfg.Session.IdleTimeout != 15*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want 15m", cfg.Session.IdleTimeout)
	}
	if cfg.Session.SweepInterval != time.Minute {
		t.Errorf("Session.SweepInterval = %v, want 1m", cfg.Session.SweepInterval)
	}
	if cfg.Session.KeyPrefix != "caregate" {
		t.Errorf("Session.KeyPrefix = %v, want caregate", cfg.Session.KeyPrefix)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %v, want info", cfg.Log.Level)
	}
}

// TestLoad_EnvOverrides tests that environment variables override defaults
func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CAREGATE_SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("CAREGATE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Session.IdleTimeout != 5*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want 5m", cfg.Session.IdleTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %v, want debug", cfg.Log.Level)
	}
}

// TestLoad_YAMLOverlay tests the file overlay with env precedence
func TestLoad_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "caregate.yaml")
	data := []byte(`
server:
  port: "9999"
session:
  key_prefix: "yamlprefix"
  idle_timeout: 20m
log:
  level: warn
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	setRequiredEnv(t)
	t.Setenv("CAREGATE_CONFIG_FILE", path)
	t.Setenv("CAREGATE_SESSION_PREFIX", "envprefix")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("Server.Port = %v, want 9999 from file", cfg.Server.Port)
	}
	if cfg.Session.IdleTimeout != 20*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want 20m from file", cfg.Session.IdleTimeout)
	}
	// env beats file
	if cfg.Session.KeyPrefix != "envprefix" {
		t.Errorf("Session.KeyPrefix = %v, want envprefix", cfg.Session.KeyPrefix)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %v, want warn", cfg.Log.Level)
	}
}

// TestValidate tests rejection of invalid configurations
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing provider URL", func(c *Config) { c.Provider.BaseURL = "" }},
		{"missing API key", func(c *Config) { c.Provider.APIKey = "" }},
		{"missing postgres URL", func(c *Config) { c.Directory.PostgresURL = "" }},
		{"missing redis addr", func(c *Config) { c.Session.RedisAddr = "" }},
		{"zero idle timeout", func(c *Config) { c.Session.IdleTimeout = 0 }},
		{"zero sweep interval", func(c *Config) { c.Session.SweepInterval = 0 }},
		{"missing geography URL", func(c *Config) { c.Geography.BaseURL = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"port collision", func(c *Config) { c.Server.MetricsPort = c.Server.Port }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.Provider.BaseURL = "https://auth.example.com"
			cfg.Provider.APIKey = "key"
			cfg.Directory.PostgresURL = "postgres://localhost/db"
			cfg.Geography.BaseURL = "https://geo.example.com"

			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
