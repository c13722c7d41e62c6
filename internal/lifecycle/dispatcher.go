package lifecycle

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Hook receives lifecycle events.
type Hook func(Event)

type subscription struct {
	id   uint64
	hook Hook
}

// Dispatcher fans lifecycle events out to registered hooks.
// Hooks run synchronously on the emitting goroutine in subscription order.
// Emit is safe for concurrent use.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger *zap.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{logger: logger}
}

// Subscribe registers hook and returns a function that removes it.
func (d *Dispatcher) Subscribe(hook Hook) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscription{id: id, hook: hook})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(id) })
	}
}

func (d *Dispatcher) remove(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range d.subs {
		if s.id == id {
			d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered hooks.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// Emit delivers evt to every hook registered at the time of the call.
func (d *Dispatcher) Emit(evt Event) {
	d.mu.RLock()
	subs := make([]subscription, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	d.logger.Debug("Lifecycle event",
		zap.Stringer("kind", evt.Kind),
		zap.String("source", evt.Source),
		zap.Int("hooks", len(subs)),
	)

	for _, s := range subs {
		d.invoke(s, evt)
	}
}

// invoke runs one hook; a panicking hook must not stop the others.
func (d *Dispatcher) invoke(s subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Lifecycle hook panicked",
				zap.Uint64("hook", s.id),
				zap.Stringer("kind", evt.Kind),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	s.hook(evt)
}
