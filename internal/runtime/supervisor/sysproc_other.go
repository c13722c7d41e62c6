//go:build unix && !linux

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureCommand detaches the child into its own process group.
// There is no console to suppress and no parent-death signal here.
func configureCommand(cmd *exec.Cmd, _ bool) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
