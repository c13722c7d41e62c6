//go:build unix

package supervisor

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// platformHandle signals the backend's whole process group, which also
// reaches children the interpreter forks (e.g. a reloader).
type platformHandle struct {
	pgid int
}

func attach(p *os.Process) (*platformHandle, error) {
	return &platformHandle{pgid: p.Pid}, nil
}

func (h *platformHandle) interrupt(p *os.Process) error {
	return h.signal(p, unix.SIGTERM)
}

func (h *platformHandle) kill(p *os.Process) error {
	return h.signal(p, unix.SIGKILL)
}

// sweep kills any members left in the group after the leader exited. The
// group id stays reserved while members remain, so it cannot name a
// stranger's group.
func (h *platformHandle) sweep() error {
	err := unix.Kill(-h.pgid, unix.SIGKILL)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func (h *platformHandle) release() {}

func (h *platformHandle) signal(p *os.Process, sig unix.Signal) error {
	err := unix.Kill(-h.pgid, sig)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	// Group not signalable; fall back to the leader alone
	return p.Signal(sig)
}
