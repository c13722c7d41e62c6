// Package config provides 12-factor configuration management for the shell.
//
// Configuration is loaded from environment variables with sensible defaults.
// The location of the backend runtime is not configurable: it is derived from
// the installation layout alone.
//
// Configuration Sections:
//   - Logging: Log level and output format
//   - Supervisor: Console suppression, output capture, shutdown timing
//   - Admin: Optional loopback admin server
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("grace period: %s\n", cfg.Supervisor.GracePeriod)
//
// Environment Variables:
//   - HANDY_LOG_LEVEL, HANDY_LOG_DEV
//   - HANDY_SUPPRESS_CONSOLE, HANDY_CAPTURE_OUTPUT
//   - HANDY_GRACE_PERIOD, HANDY_LOCK_TIMEOUT
//   - HANDY_ADMIN_ADDR
package config
