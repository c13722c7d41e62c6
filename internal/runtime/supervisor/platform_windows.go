//go:build windows

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// configureCommand keeps the interpreter from allocating a console window.
func configureCommand(cmd *exec.Cmd, suppressConsole bool) {
	attr := &syscall.SysProcAttr{}
	if suppressConsole {
		attr.HideWindow = true
		attr.CreationFlags |= windows.CREATE_NO_WINDOW
	}
	cmd.SysProcAttr = attr
}

// platformHandle holds a kill-on-close job object containing the backend,
// so the backend and its children die with the shell even when the shell
// is killed outright.
type platformHandle struct {
	job  windows.Handle
	once sync.Once
}

// attach runs after the child has started, so anything the child spawns
// before the assignment lands outside the job. The interpreter does not
// fork before importing the backend module, which keeps that window
// empty in practice.
func attach(p *os.Process) (*platformHandle, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return &platformHandle{}, fmt.Errorf("create job object: %w", err)
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	if _, err := windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	); err != nil {
		windows.CloseHandle(job)
		return &platformHandle{}, fmt.Errorf("configure job object: %w", err)
	}

	proc, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(p.Pid))
	if err != nil {
		windows.CloseHandle(job)
		return &platformHandle{}, fmt.Errorf("open backend process: %w", err)
	}
	defer windows.CloseHandle(proc)

	if err := windows.AssignProcessToJobObject(job, proc); err != nil {
		windows.CloseHandle(job)
		return &platformHandle{}, fmt.Errorf("assign job object: %w", err)
	}

	return &platformHandle{job: job}, nil
}

// interrupt is unsupported: a windowless child has no console to receive
// Ctrl+Break, so termination always goes straight to kill.
func (h *platformHandle) interrupt(*os.Process) error {
	return errGracefulUnsupported
}

func (h *platformHandle) kill(p *os.Process) error {
	if h.job != 0 {
		if err := windows.TerminateJobObject(h.job, 1); err == nil {
			return nil
		}
	}
	return p.Kill()
}

// sweep kills processes the backend left in its job.
func (h *platformHandle) sweep() error {
	if h.job == 0 {
		return nil
	}
	return windows.TerminateJobObject(h.job, 1)
}

func (h *platformHandle) release() {
	h.once.Do(func() {
		if h.job != 0 {
			windows.CloseHandle(h.job)
		}
	})
}
