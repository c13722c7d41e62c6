package supervisor

import (
	"errors"
	"os/exec"
	"sync/atomic"
	"time"

	"go.uber.org/zap/zapio"
)

// State is the lifecycle state of the backend process.
type State int32

const (
	// StateRunning - spawned and not yet terminated
	StateRunning State = iota + 1
	// StateTerminated - terminate issued or process found gone; final
	StateTerminated
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Process is the supervised backend. It is created once by Spawn and only
// changes state under the supervisor's guard.
type Process struct {
	PID        int
	RunID      string
	Executable string
	Embedded   bool
	StartedAt  time.Time

	cmd      *exec.Cmd
	platform *platformHandle
	outputs  []*zapio.Writer

	state         atomic.Int32
	terminatedAt  atomic.Int64
	stopRequested atomic.Bool

	done    chan struct{}
	waitErr error
}

// State returns the current state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitErr returns the error from waiting on the process. Only meaningful
// after Done is closed.
func (p *Process) ExitErr() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// ExitCode returns the exit code and whether the process has exited.
func (p *Process) ExitCode() (int, bool) {
	select {
	case <-p.done:
	default:
		return 0, false
	}
	if p.cmd.ProcessState != nil {
		return p.cmd.ProcessState.ExitCode(), true
	}
	var exitErr *exec.ExitError
	if errors.As(p.waitErr, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return -1, true
}

// TerminatedAt returns when the process was marked terminated.
func (p *Process) TerminatedAt() (time.Time, bool) {
	ns := p.terminatedAt.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}

func (p *Process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// markTerminated must be called with the guard held.
func (p *Process) markTerminated() {
	p.terminatedAt.Store(time.Now().UnixNano())
	p.state.Store(int32(StateTerminated))
	p.platform.release()
}

// Status is a point-in-time snapshot of the supervised process.
type Status struct {
	Spawned      bool       `json:"spawned"`
	PID          int        `json:"pid,omitempty"`
	RunID        string     `json:"run_id,omitempty"`
	Executable   string     `json:"executable,omitempty"`
	Embedded     bool       `json:"embedded"`
	State        string     `json:"state"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	TerminatedAt *time.Time `json:"terminated_at,omitempty"`
	Exited       bool       `json:"exited"`
	ExitCode     *int       `json:"exit_code,omitempty"`
}
