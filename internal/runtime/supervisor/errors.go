package supervisor

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadySpawned is returned by a second Spawn on the same supervisor.
	ErrAlreadySpawned = errors.New("backend already spawned")
	// ErrNotSpawned is returned when terminating before anything was spawned.
	ErrNotSpawned = errors.New("backend not spawned")
	// ErrAlreadyTerminated is returned by every terminate after the first.
	ErrAlreadyTerminated = errors.New("backend already terminated")
	// ErrProcessExited means the backend exited before it was asked to.
	ErrProcessExited = errors.New("backend process already exited")
	// ErrLockUnavailable means the process guard could not be acquired in time.
	ErrLockUnavailable = errors.New("process guard unavailable")

	errGracefulUnsupported = errors.New("graceful stop not supported on this platform")
)

// SpawnError reports that the OS refused to create the backend process.
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn backend %s: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// TerminateError reports a failed or redundant termination. It is never
// fatal to the shell.
type TerminateError struct {
	PID int
	Err error
}

func (e *TerminateError) Error() string {
	if e.PID == 0 {
		return fmt.Sprintf("failed to terminate backend: %v", e.Err)
	}
	return fmt.Sprintf("failed to terminate backend (pid %d): %v", e.PID, e.Err)
}

func (e *TerminateError) Unwrap() error {
	return e.Err
}

// IsWarning reports whether err only says the backend was already gone.
func IsWarning(err error) bool {
	return errors.Is(err, ErrAlreadyTerminated) || errors.Is(err, ErrProcessExited)
}
