// Command handyshell starts the desktop shell's backend runtime and keeps it
// tied to the shell's lifetime.
//
// On launch it locates the Python interpreter (development virtualenv first,
// bundled distribution second), runs "python -m handyapi" detached from any
// console, and terminates it when the shell receives a close or exit event.
//
// Configuration is read from HANDY_* environment variables; see
// internal/infrastructure/config.
//
// Usage:
//
//	# Production mode
//	./handyshell
//
//	# Development mode (colored logs) with the admin server on loopback
//	./handyshell -dev -admin 127.0.0.1:9464
//
// Signals:
//   - SIGINT, SIGTERM: terminate the backend and exit
package main
