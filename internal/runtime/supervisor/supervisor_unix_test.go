//go:build unix

package supervisor

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/handyshell/internal/lifecycle"
	"github.com/GriffinCanCode/handyshell/internal/runtime/locator"
)

const (
	longRunning = "#!/bin/sh\nwhile true; do sleep 1; done\n"
	exitsAtOnce = "#!/bin/sh\nexit 3\n"
)

// writeScript creates an executable stand-in for the interpreter.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func newObserved(t *testing.T, opts Options) (*Supervisor, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	s := New(opts, zap.New(core))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Terminate(ctx)
	})
	return s, logs
}

func waitDone(t *testing.T, p *Process) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("backend was not reaped")
	}
}

func TestSpawnPassesArgsAndEnvironment(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho \"args=$*\"\necho \"PYTHONPATH=$PYTHONPATH\"\necho oops >&2\n")
	loc := locator.NewLocation(script, true, map[string]string{"PYTHONPATH": "/app/python/Lib/site-packages"})

	s, logs := newObserved(t, DefaultOptions())
	proc, err := s.Spawn(context.Background(), loc)
	require.NoError(t, err)
	waitDone(t, proc)

	assert.Equal(t, 1, logs.FilterMessage("args=-m handyapi").Len())
	assert.Equal(t, 1, logs.FilterMessage("PYTHONPATH=/app/python/Lib/site-packages").Len())

	stderr := logs.FilterMessage("oops").All()
	require.Len(t, stderr, 1)
	assert.Equal(t, "backend", stderr[0].LoggerName)
	assert.Equal(t, "stderr", stderr[0].ContextMap()["stream"])
}

func TestSpawnRecordsProcess(t *testing.T) {
	script := writeScript(t, longRunning)
	rec := &fakeRecorder{}

	s, _ := newObserved(t, DefaultOptions())
	s.WithMetrics(rec)

	proc, err := s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.NoError(t, err)

	assert.Same(t, proc, s.Process())
	assert.Positive(t, proc.PID)
	assert.NotEmpty(t, proc.RunID)
	assert.Equal(t, script, proc.Executable)
	assert.False(t, proc.Embedded)
	assert.Equal(t, StateRunning, proc.State())
	assert.Equal(t, []operation{{name: "spawn", result: "success"}}, rec.operations())

	// Own process group so termination reaches the whole tree
	pgid, err := syscallGetpgid(proc.PID)
	require.NoError(t, err)
	assert.Equal(t, proc.PID, pgid)
}

func TestSpawnTwice(t *testing.T) {
	script := writeScript(t, longRunning)
	s, _ := newObserved(t, DefaultOptions())

	_, err := s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.NoError(t, err)

	_, err = s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.Error(t, err)
	var spawnErr *SpawnError
	assert.True(t, errors.As(err, &spawnErr))
	assert.ErrorIs(t, err, ErrAlreadySpawned)
}

func TestSpawnMissingExecutable(t *testing.T) {
	rec := &fakeRecorder{}
	s, _ := newObserved(t, DefaultOptions())
	s.WithMetrics(rec)

	missing := filepath.Join(t.TempDir(), "python")
	_, err := s.Spawn(context.Background(), locator.NewLocation(missing, true, nil))
	require.Error(t, err)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, missing, spawnErr.Executable)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Nil(t, s.Process())
	assert.Equal(t, []operation{{name: "spawn", result: "failure"}}, rec.operations())
}

func TestSpawnNotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(path, []byte(longRunning), 0o644))

	s, _ := newObserved(t, DefaultOptions())
	_, err := s.Spawn(context.Background(), locator.NewLocation(path, true, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestTerminateBeforeSpawn(t *testing.T) {
	s, _ := newObserved(t, DefaultOptions())

	err := s.Terminate(context.Background())
	assert.ErrorIs(t, err, ErrNotSpawned)
	assert.Equal(t, "not_spawned", s.Status().State)
}

func TestTerminateTwice(t *testing.T) {
	script := writeScript(t, longRunning)
	rec := &fakeRecorder{}
	s, _ := newObserved(t, DefaultOptions())
	s.WithMetrics(rec)

	proc, err := s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.NoError(t, err)

	require.NoError(t, s.Terminate(context.Background()))
	assert.Equal(t, StateTerminated, proc.State())
	_, ok := proc.TerminatedAt()
	assert.True(t, ok)

	err = s.Terminate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyTerminated)
	assert.True(t, IsWarning(err))
	assert.Equal(t, StateTerminated, proc.State())

	waitDone(t, proc)
	code, exited := proc.ExitCode()
	assert.True(t, exited)
	assert.Equal(t, -1, code) // killed by signal

	assert.Equal(t, []operation{
		{name: "spawn", result: "success"},
		{name: "terminate", result: "success"},
		{name: "terminate", result: "warning"},
	}, rec.operations())
}

func TestTerminateAfterBackendExited(t *testing.T) {
	script := writeScript(t, exitsAtOnce)
	s, logs := newObserved(t, DefaultOptions())

	proc, err := s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.NoError(t, err)
	waitDone(t, proc)

	code, exited := proc.ExitCode()
	assert.True(t, exited)
	assert.Equal(t, 3, code)
	assert.Error(t, proc.ExitErr())
	assert.Equal(t, 1, logs.FilterMessage("Backend exited on its own").Len())

	err = s.Terminate(context.Background())
	assert.ErrorIs(t, err, ErrProcessExited)
	assert.True(t, IsWarning(err))
	assert.Equal(t, StateTerminated, proc.State())
}

func TestTerminateGracefully(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\ntrap 'echo stopping; exit 0' TERM\necho ready\nwhile true; do sleep 0.1; done\n")

	opts := DefaultOptions()
	opts.GracePeriod = 5 * time.Second
	s, logs := newObserved(t, opts)

	proc, err := s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("ready").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Terminate(context.Background()))

	// Graceful stop waits for the exit
	select {
	case <-proc.Done():
	default:
		t.Fatal("graceful terminate returned before the backend exited")
	}
	code, _ := proc.ExitCode()
	assert.Equal(t, 0, code)
	assert.Equal(t, 1, logs.FilterMessage("stopping").Len())
}

func TestTerminateEscalatesToKill(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\ntrap '' TERM\necho ready\nwhile true; do sleep 0.1; done\n")

	opts := DefaultOptions()
	opts.GracePeriod = 200 * time.Millisecond
	s, logs := newObserved(t, opts)

	proc, err := s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("ready").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Terminate(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("Backend ignored stop request, killing").Len())
	waitDone(t, proc)
}

func TestHandleEventConcurrentTriggers(t *testing.T) {
	script := writeScript(t, longRunning)
	s, logs := newObserved(t, DefaultOptions())

	d := lifecycle.NewDispatcher(nil)
	proc, err := s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.NoError(t, err)
	d.Subscribe(s.Hook())

	var wg sync.WaitGroup
	for _, kind := range []lifecycle.Kind{lifecycle.CloseRequested, lifecycle.ExitRequested} {
		wg.Add(1)
		go func(kind lifecycle.Kind) {
			defer wg.Done()
			d.Emit(lifecycle.NewEvent(kind, "test"))
		}(kind)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent shutdown hooks deadlocked")
	}

	assert.Equal(t, 1, logs.FilterMessage("Backend terminated").Len())
	assert.Equal(t, 1, logs.FilterMessage("Backend already stopped").Len())
	assert.Zero(t, logs.FilterMessage("Failed to terminate backend").Len())
	waitDone(t, proc)
}

func TestStatus(t *testing.T) {
	script := writeScript(t, longRunning)
	s, _ := newObserved(t, DefaultOptions())

	proc, err := s.Spawn(context.Background(), locator.NewLocation(script, true, map[string]string{"PYTHONPATH": "/x"}))
	require.NoError(t, err)

	st := s.Status()
	assert.True(t, st.Spawned)
	assert.Equal(t, proc.PID, st.PID)
	assert.Equal(t, proc.RunID, st.RunID)
	assert.True(t, st.Embedded)
	assert.Equal(t, "running", st.State)
	assert.NotNil(t, st.StartedAt)
	assert.Nil(t, st.TerminatedAt)
	assert.False(t, st.Exited)

	require.NoError(t, s.Terminate(context.Background()))
	waitDone(t, proc)

	st = s.Status()
	assert.Equal(t, "terminated", st.State)
	assert.NotNil(t, st.TerminatedAt)
	assert.True(t, st.Exited)
	require.NotNil(t, st.ExitCode)
}

func TestSpawnInheritsStreamsWithoutCapture(t *testing.T) {
	script := writeScript(t, exitsAtOnce)
	opts := DefaultOptions()
	opts.CaptureOutput = false
	s, _ := newObserved(t, opts)

	proc, err := s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.NoError(t, err)
	assert.Same(t, os.Stdout, proc.cmd.Stdout)
	assert.Same(t, os.Stderr, proc.cmd.Stderr)
	waitDone(t, proc)
}

func TestTerminateAfterBackendExitedKillsLeftovers(t *testing.T) {
	script, pidFile := leftoverScript(t, false, "sleep 0.2\nexit 0\n")
	s, _ := newObserved(t, DefaultOptions())

	proc, err := s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.NoError(t, err)
	waitDone(t, proc)

	member := readPID(t, pidFile)
	require.True(t, processAlive(member), "group member should outlive the leader")

	err = s.Terminate(context.Background())
	assert.ErrorIs(t, err, ErrProcessExited)
	assert.Eventually(t, func() bool {
		return !processAlive(member)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTerminateGracefullyKillsLeftovers(t *testing.T) {
	script, pidFile := leftoverScript(t, true,
		"trap 'exit 0' TERM\necho ready\nwhile true; do sleep 0.1; done\n",
	)

	opts := DefaultOptions()
	opts.GracePeriod = 5 * time.Second
	s, logs := newObserved(t, opts)

	proc, err := s.Spawn(context.Background(), locator.NewLocation(script, false, nil))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return logs.FilterMessage("ready").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)
	member := readPID(t, pidFile)

	require.NoError(t, s.Terminate(context.Background()))
	waitDone(t, proc)
	assert.Equal(t, 0, logs.FilterMessage("Backend ignored stop request, killing").Len())
	assert.Eventually(t, func() bool {
		return !processAlive(member)
	}, 5*time.Second, 10*time.Millisecond)
}
