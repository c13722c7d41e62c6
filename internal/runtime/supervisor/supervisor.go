package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"

	"github.com/GriffinCanCode/handyshell/internal/lifecycle"
	"github.com/GriffinCanCode/handyshell/internal/runtime/locator"
)

// BackendModule is the module the interpreter is asked to run.
const BackendModule = "handyapi"

// Operation and result labels reported to the Recorder.
const (
	opSpawn     = "spawn"
	opTerminate = "terminate"

	resultSuccess = "success"
	resultWarning = "warning"
	resultFailure = "failure"
)

// Options controls how the backend is launched and stopped.
type Options struct {
	// Args follow the executable; they select the backend entry point.
	Args []string
	// SuppressConsole prevents a console window from appearing for the child
	// on platforms that would otherwise allocate one.
	SuppressConsole bool
	// CaptureOutput forwards child stdout/stderr into the logger instead of
	// inheriting the shell's streams.
	CaptureOutput bool
	// GracePeriod, when positive, asks the child to stop and waits this long
	// before killing it. Zero kills immediately without waiting.
	GracePeriod time.Duration
	// LockTimeout bounds how long a lifecycle hook waits for the guard.
	LockTimeout time.Duration
	// WaitDelay bounds how long reaping waits on output forwarding after
	// the child has exited.
	WaitDelay time.Duration
}

// DefaultOptions returns the production launch options.
func DefaultOptions() Options {
	return Options{
		Args:            []string{"-m", BackendModule},
		SuppressConsole: true,
		CaptureOutput:   true,
		GracePeriod:     0,
		LockTimeout:     2 * time.Second,
		WaitDelay:       2 * time.Second,
	}
}

// Recorder receives process lifecycle measurements.
type Recorder interface {
	RecordOperation(operation, result string, duration time.Duration)
	SetBackendRunning(running bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string, time.Duration) {}
func (nopRecorder) SetBackendRunning(bool)                        {}

// Supervisor owns the single backend process of an application run.
// Spawn and Terminate are serialised by a guard whose acquisition can time
// out; Status and Process read without it.
type Supervisor struct {
	opts    Options
	logger  *zap.Logger
	metrics Recorder

	guard *guard
	proc  atomic.Pointer[Process]
}

// New creates a supervisor.
func New(opts Options, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultOptions().LockTimeout
	}
	return &Supervisor{
		opts:    opts,
		logger:  logger,
		metrics: nopRecorder{},
		guard:   newGuard(),
	}
}

// WithMetrics sets the metrics recorder.
func (s *Supervisor) WithMetrics(r Recorder) *Supervisor {
	if r != nil {
		s.metrics = r
	}
	return s
}

// Process returns the spawned process, or nil.
func (s *Supervisor) Process() *Process {
	return s.proc.Load()
}

// Spawn launches the located runtime. It succeeds at most once.
func (s *Supervisor) Spawn(ctx context.Context, loc locator.Location) (*Process, error) {
	start := time.Now()
	proc, err := s.spawn(ctx, loc)
	if err != nil {
		s.metrics.RecordOperation(opSpawn, resultFailure, time.Since(start))
		s.logger.Error("Failed to spawn backend",
			zap.String("executable", loc.Executable()),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordOperation(opSpawn, resultSuccess, time.Since(start))
	s.metrics.SetBackendRunning(true)
	s.logger.Info("Backend started",
		zap.Int("pid", proc.PID),
		zap.String("run_id", proc.RunID),
		zap.String("executable", proc.Executable),
		zap.Bool("embedded", proc.Embedded),
		zap.Strings("args", s.opts.Args),
	)
	return proc, nil
}

func (s *Supervisor) spawn(ctx context.Context, loc locator.Location) (*Process, error) {
	if err := s.guard.lock(ctx); err != nil {
		return nil, &SpawnError{Executable: loc.Executable(), Err: fmt.Errorf("%w: %w", ErrLockUnavailable, err)}
	}
	defer s.guard.unlock()

	if s.proc.Load() != nil {
		return nil, &SpawnError{Executable: loc.Executable(), Err: ErrAlreadySpawned}
	}

	cmd := exec.Command(loc.Executable(), s.opts.Args...)
	cmd.Env = append(os.Environ(), loc.Environ()...)
	configureCommand(cmd, s.opts.SuppressConsole)

	var outputs []*zapio.Writer
	if s.opts.CaptureOutput {
		backend := s.logger.Named("backend")
		stdout := &zapio.Writer{Log: backend.With(zap.String("stream", "stdout")), Level: zapcore.InfoLevel}
		stderr := &zapio.Writer{Log: backend.With(zap.String("stream", "stderr")), Level: zapcore.InfoLevel}
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		cmd.WaitDelay = s.opts.WaitDelay
		outputs = []*zapio.Writer{stdout, stderr}
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	started := make(chan error, 1)
	handoff := make(chan *Process, 1)
	go s.run(cmd, started, handoff)
	if err := <-started; err != nil {
		return nil, &SpawnError{Executable: loc.Executable(), Err: err}
	}

	platform, err := attach(cmd.Process)
	if err != nil {
		s.logger.Warn("Backend lifetime not bound to shell",
			zap.Int("pid", cmd.Process.Pid),
			zap.Error(err),
		)
	}

	proc := &Process{
		PID:        cmd.Process.Pid,
		RunID:      uuid.New().String(),
		Executable: loc.Executable(),
		Embedded:   loc.Embedded(),
		StartedAt:  time.Now(),
		cmd:        cmd,
		platform:   platform,
		outputs:    outputs,
		done:       make(chan struct{}),
	}
	proc.state.Store(int32(StateRunning))
	s.proc.Store(proc)
	handoff <- proc

	return proc, nil
}

// run starts cmd and then reaps it on one goroutine locked to its OS
// thread. The parent-death signal follows the thread that forked the
// child, so that thread must stay alive until the child is gone.
func (s *Supervisor) run(cmd *exec.Cmd, started chan<- error, handoff <-chan *Process) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := cmd.Start(); err != nil {
		started <- err
		return
	}
	started <- nil
	s.reap(<-handoff)
}

// reap waits for the child so it never lingers as a zombie. Done is
// closed only after output has been flushed and the exit logged.
func (s *Supervisor) reap(p *Process) {
	err := p.cmd.Wait()
	for _, w := range p.outputs {
		_ = w.Close()
	}
	p.waitErr = err

	s.metrics.SetBackendRunning(false)

	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	fields := []zap.Field{
		zap.Int("pid", p.PID),
		zap.String("run_id", p.RunID),
		zap.Int("exit_code", code),
		zap.Duration("uptime", time.Since(p.StartedAt)),
	}
	if p.stopRequested.Load() {
		s.logger.Debug("Backend exited after termination", fields...)
	} else {
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		s.logger.Warn("Backend exited on its own", fields...)
	}

	close(p.done)
}

// Terminate stops the backend. Only the first call acts; later calls
// return a TerminateError wrapping ErrAlreadyTerminated. Unless a grace
// period is configured it does not wait for the child to exit.
func (s *Supervisor) Terminate(ctx context.Context) error {
	start := time.Now()
	err := s.terminate(ctx)

	result := resultSuccess
	switch {
	case err == nil:
	case IsWarning(err) || errors.Is(err, ErrNotSpawned):
		result = resultWarning
	default:
		result = resultFailure
	}
	s.metrics.RecordOperation(opTerminate, result, time.Since(start))

	return err
}

func (s *Supervisor) terminate(ctx context.Context) error {
	if err := s.guard.lock(ctx); err != nil {
		return &TerminateError{Err: fmt.Errorf("%w: %w", ErrLockUnavailable, err)}
	}
	defer s.guard.unlock()

	p := s.proc.Load()
	if p == nil {
		return &TerminateError{Err: ErrNotSpawned}
	}
	if p.State() == StateTerminated {
		return &TerminateError{PID: p.PID, Err: ErrAlreadyTerminated}
	}
	if p.exited() {
		s.sweep(p)
		p.markTerminated()
		return &TerminateError{PID: p.PID, Err: ErrProcessExited}
	}

	p.stopRequested.Store(true)
	if s.opts.GracePeriod > 0 && s.stopGracefully(ctx, p) {
		s.sweep(p)
		p.markTerminated()
		return nil
	}

	if err := p.platform.kill(p.cmd.Process); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			p.markTerminated()
			return &TerminateError{PID: p.PID, Err: ErrProcessExited}
		}
		return &TerminateError{PID: p.PID, Err: err}
	}

	p.markTerminated()
	s.metrics.SetBackendRunning(false)
	return nil
}

// sweep kills whatever the backend left behind once it has exited itself,
// such as a reloader's worker still holding the backend's port.
func (s *Supervisor) sweep(p *Process) {
	if err := p.platform.sweep(); err != nil {
		s.logger.Warn("Failed to kill leftover backend processes",
			zap.Int("pid", p.PID),
			zap.Error(err),
		)
	}
}

// stopGracefully asks the child to exit and reports whether it did within
// the grace period.
func (s *Supervisor) stopGracefully(ctx context.Context, p *Process) bool {
	if err := p.platform.interrupt(p.cmd.Process); err != nil {
		if !errors.Is(err, errGracefulUnsupported) {
			s.logger.Debug("Graceful stop request failed", zap.Int("pid", p.PID), zap.Error(err))
		}
		return false
	}

	timer := time.NewTimer(s.opts.GracePeriod)
	defer timer.Stop()

	select {
	case <-p.done:
		return true
	case <-timer.C:
		s.logger.Warn("Backend ignored stop request, killing",
			zap.Int("pid", p.PID),
			zap.Duration("grace_period", s.opts.GracePeriod),
		)
		return false
	case <-ctx.Done():
		return false
	}
}

// HandleEvent is the shutdown hook registered with the lifecycle
// dispatcher. It logs every outcome and never blocks longer than the lock
// timeout plus the grace period.
func (s *Supervisor) HandleEvent(evt lifecycle.Event) {
	if !evt.Kind.Terminal() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.LockTimeout+s.opts.GracePeriod)
	defer cancel()

	fields := []zap.Field{
		zap.Stringer("event", evt.Kind),
		zap.String("source", evt.Source),
	}

	err := s.Terminate(ctx)
	switch {
	case err == nil:
		s.logger.Info("Backend terminated", fields...)
	case IsWarning(err) || errors.Is(err, ErrNotSpawned):
		s.logger.Warn("Backend already stopped", append(fields, zap.Error(err))...)
	default:
		s.logger.Error("Failed to terminate backend", append(fields, zap.Error(err))...)
	}
}

// Hook returns HandleEvent as a lifecycle hook.
func (s *Supervisor) Hook() lifecycle.Hook {
	return s.HandleEvent
}

// Status returns a snapshot of the supervised process.
func (s *Supervisor) Status() Status {
	p := s.proc.Load()
	if p == nil {
		return Status{State: "not_spawned"}
	}

	started := p.StartedAt
	st := Status{
		Spawned:    true,
		PID:        p.PID,
		RunID:      p.RunID,
		Executable: p.Executable,
		Embedded:   p.Embedded,
		State:      p.State().String(),
		StartedAt:  &started,
	}
	if at, ok := p.TerminatedAt(); ok {
		st.TerminatedAt = &at
	}
	if code, ok := p.ExitCode(); ok {
		st.Exited = true
		st.ExitCode = &code
	}
	return st
}
