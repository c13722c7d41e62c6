//go:build unix

package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func syscallGetpgid(pid int) (int, error) {
	return unix.Getpgid(pid)
}

// processAlive reports whether pid is running. Zombies count as dead
// where procfs can tell them apart.
func processAlive(pid int) bool {
	if err := unix.Kill(pid, 0); err != nil {
		return false
	}
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return true
	}
	s := string(stat)
	i := strings.LastIndexByte(s, ')')
	return i < 0 || i+2 >= len(s) || s[i+2] != 'Z'
}

// leftoverScript returns a backend script that first starts a long-lived
// member of its process group, then runs body. The member writes its pid
// to pidFile once any TERM trap is in place.
func leftoverScript(t *testing.T, ignoreTerm bool, body string) (script, pidFile string) {
	t.Helper()
	pidFile = filepath.Join(t.TempDir(), "member.pid")
	trap := ""
	if ignoreTerm {
		trap = `trap "" TERM; `
	}
	member := "sh -c '" + trap + "echo $$ > " + pidFile + "; exec sleep 60' >/dev/null 2>&1 &\n"
	script = writeScript(t, "#!/bin/sh\n"+member+body)
	return script, pidFile
}

// readPID waits for the script to publish its member's pid and kills it
// at cleanup in case the test fails first.
func readPID(t *testing.T, pidFile string) int {
	t.Helper()
	var pid int
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(pidFile)
		if err != nil {
			return false
		}
		pid, err = strconv.Atoi(strings.TrimSpace(string(b)))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	t.Cleanup(func() { _ = unix.Kill(pid, unix.SIGKILL) })
	return pid
}
