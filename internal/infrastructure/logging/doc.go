// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs go to stderr by default so that a packaged build without a console
// can redirect them wholesale. Components receive the embedded *zap.Logger
// and derive named children ("locator", "supervisor", "backend", ...).
//
// Example Usage:
//
//	logger := logging.FromLevel("debug", true)
//	defer logger.Sync()
//	logger.Info("Backend started", zap.Int("pid", pid))
package logging
