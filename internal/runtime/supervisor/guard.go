package supervisor

import "context"

// guard is a mutex whose acquisition can be abandoned, so a stuck holder
// can never hang shell exit.
type guard struct {
	ch chan struct{}
}

func newGuard() *guard {
	return &guard{ch: make(chan struct{}, 1)}
}

func (g *guard) lock(ctx context.Context) error {
	select {
	case g.ch <- struct{}{}:
		return nil
	default:
	}

	select {
	case g.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *guard) unlock() {
	<-g.ch
}
