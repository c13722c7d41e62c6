//go:build windows

package lifecycle

import (
	"os"
	"syscall"
)

// Console close, logoff and shutdown events arrive as SIGTERM.
func terminationSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
