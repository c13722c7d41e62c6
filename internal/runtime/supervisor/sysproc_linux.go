//go:build linux

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureCommand detaches the child into its own process group and has
// the kernel kill it if the shell dies without running its hooks.
// Pdeathsig fires when the forking OS thread exits rather than the
// process, which is why Spawn forks from a thread locked for the run.
// There is no console to suppress on Linux.
func configureCommand(cmd *exec.Cmd, _ bool) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
