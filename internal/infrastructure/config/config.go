package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Logging    LogConfig
	Supervisor SupervisorConfig
	Admin      AdminConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"HANDY_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"HANDY_LOG_DEV" default:"false"`
}

// SupervisorConfig holds backend process supervision settings.
// The runtime layout itself is fixed and intentionally absent here.
type SupervisorConfig struct {
	SuppressConsole bool          `envconfig:"HANDY_SUPPRESS_CONSOLE" default:"true"`
	CaptureOutput   bool          `envconfig:"HANDY_CAPTURE_OUTPUT" default:"true"`
	GracePeriod     time.Duration `envconfig:"HANDY_GRACE_PERIOD" default:"0s"`
	LockTimeout     time.Duration `envconfig:"HANDY_LOCK_TIMEOUT" default:"2s"`
}

// AdminConfig holds the optional loopback admin server configuration.
type AdminConfig struct {
	Addr string `envconfig:"HANDY_ADMIN_ADDR" default:""`
}

// Enabled reports whether the admin server should be started.
func (a AdminConfig) Enabled() bool {
	return a.Addr != ""
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Supervisor: SupervisorConfig{
			SuppressConsole: true,
			CaptureOutput:   true,
			GracePeriod:     0,
			LockTimeout:     2 * time.Second,
		},
		Admin: AdminConfig{},
	}
}

// Validate rejects values that would make shutdown hang or misbehave.
func (c *Config) Validate() error {
	if c.Supervisor.GracePeriod < 0 {
		return fmt.Errorf("invalid config: grace period must not be negative, got %s", c.Supervisor.GracePeriod)
	}
	if c.Supervisor.LockTimeout <= 0 {
		return fmt.Errorf("invalid config: lock timeout must be positive, got %s", c.Supervisor.LockTimeout)
	}
	return nil
}
