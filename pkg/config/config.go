package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Provider configuration (hosted identity provider)
	Provider ProviderConfig `yaml:"provider"`

	// Directory configuration (profile-table lookups)
	Directory DirectoryConfig `yaml:"directory"`

	// Session configuration
	Session SessionConfig `yaml:"session"`

	// Geography configuration (reference-data service)
	Geography GeographyConfig `yaml:"geography"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Metrics server (separate port for scraping)
	MetricsPort string `yaml:"metrics_port"`
}

// ProviderConfig holds hosted identity provider settings
type ProviderConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// DirectoryConfig holds profile-directory database settings
type DirectoryConfig struct {
	PostgresURL string `yaml:"postgres_url"`
	MaxConns    int    `yaml:"max_conns"`
}

// SessionConfig holds session store and lifecycle settings
type SessionConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	KeyPrefix     string        `yaml:"key_prefix"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// GeographyConfig holds reference-data service settings
type GeographyConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	WarmupSchedule string        `yaml:"warmup_schedule"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from environment variables, optionally overlaid
// on a YAML file named by CAREGATE_CONFIG_FILE. Environment variables win.
func Load() (*Config, error) {
	cfg := defaults()

	if path := getEnv("CAREGATE_CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			MetricsPort:     "9090",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Provider: ProviderConfig{
			Timeout: 10 * time.Second,
		},
		Session: SessionConfig{
			RedisAddr:     "localhost:6379",
			KeyPrefix:     "caregate",
			IdleTimeout:   15 * time.Minute,
			SweepInterval: time.Minute,
		},
		Geography: GeographyConfig{
			Timeout:        10 * time.Second,
			WarmupSchedule: "@every 6h",
		},
		Directory: DirectoryConfig{
			MaxConns: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadFile overlays values from a YAML file onto the config
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays CAREGATE_* environment variables onto the config
func (c *Config) loadEnv() {
	c.Server.Host = getEnv("CAREGATE_HOST", c.Server.Host)
	c.Server.Port = getEnv("CAREGATE_PORT", c.Server.Port)
	c.Server.MetricsPort = getEnv("CAREGATE_METRICS_PORT", c.Server.MetricsPort)
	c.Server.ReadTimeout = getEnvDuration("CAREGATE_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("CAREGATE_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("CAREGATE_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Provider.BaseURL = getEnv("CAREGATE_PROVIDER_URL", c.Provider.BaseURL)
	c.Provider.APIKey = getEnv("CAREGATE_PROVIDER_API_KEY", c.Provider.APIKey)
	c.Provider.Timeout = getEnvDuration("CAREGATE_PROVIDER_TIMEOUT", c.Provider.Timeout)

	c.Directory.PostgresURL = getEnv("CAREGATE_POSTGRES_URL", c.Directory.PostgresURL)
	c.Directory.MaxConns = getEnvInt("CAREGATE_POSTGRES_MAX_CONNS", c.Directory.MaxConns)

	c.Session.RedisAddr = getEnv("CAREGATE_REDIS_ADDR", c.Session.RedisAddr)
	c.Session.RedisPassword = getEnv("CAREGATE_REDIS_PASSWORD", c.Session.RedisPassword)
	c.Session.RedisDB = getEnvInt("CAREGATE_REDIS_DB", c.Session.RedisDB)
	c.Session.KeyPrefix = getEnv("CAREGATE_SESSION_PREFIX", c.Session.KeyPrefix)
	c.Session.IdleTimeout = getEnvDuration("CAREGATE_SESSION_IDLE_TIMEOUT", c.Session.IdleTimeout)
	c.Session.SweepInterval = getEnvDuration("CAREGATE_SESSION_SWEEP_INTERVAL", c.Session.SweepInterval)

	c.Geography.BaseURL = getEnv("CAREGATE_GEOGRAPHY_URL", c.Geography.BaseURL)
	c.Geography.Timeout = getEnvDuration("CAREGATE_GEOGRAPHY_TIMEOUT", c.Geography.Timeout)
	c.Geography.WarmupSchedule = getEnv("CAREGATE_GEOGRAPHY_WARMUP", c.Geography.WarmupSchedule)

	c.Log.Level = getEnv("CAREGATE_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("CAREGATE_LOG_FORMAT", c.Log.Format)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.MetricsPort == "" {
		return fmt.Errorf("metrics port is required")
	}
	if c.Server.Port == c.Server.MetricsPort {
		return fmt.Errorf("server port and metrics port must be different")
	}

	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base URL is required")
	}
	if _, err := url.Parse(c.Provider.BaseURL); err != nil {
		return fmt.Errorf("invalid provider base URL: %w", err)
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider API key is required")
	}

	if c.Directory.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Session.RedisAddr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session idle timeout must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session sweep interval must be positive")
	}

	if c.Geography.BaseURL == "" {
		return fmt.Errorf("geography base URL is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
