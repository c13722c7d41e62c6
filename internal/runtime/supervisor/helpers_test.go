package supervisor

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/handyshell/internal/lifecycle"
)

func lifecycleExit() lifecycle.Event {
	return lifecycle.NewEvent(lifecycle.Exit, "test")
}

type operation struct {
	name   string
	result string
}

// fakeRecorder captures everything reported by a supervisor.
type fakeRecorder struct {
	mu      sync.Mutex
	ops     []operation
	running []bool
}

func (f *fakeRecorder) RecordOperation(op, result string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, operation{name: op, result: result})
}

func (f *fakeRecorder) SetBackendRunning(running bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = append(f.running, running)
}

func (f *fakeRecorder) operations() []operation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]operation, len(f.ops))
	copy(out, f.ops)
	return out
}
