package lifecycle

import (
	"context"
	"os"
	"os/signal"

	"go.uber.org/zap"
)

// SignalSource turns OS termination signals into ExitRequested events.
type SignalSource struct {
	dispatcher *Dispatcher
	signals    []os.Signal
	logger     *zap.Logger
}

// NewSignalSource watches sigs, or the platform's termination signals when
// none are given.
func NewSignalSource(d *Dispatcher, logger *zap.Logger, sigs ...os.Signal) *SignalSource {
	if len(sigs) == 0 {
		sigs = terminationSignals()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignalSource{dispatcher: d, signals: sigs, logger: logger}
}

// Run emits an event per received signal until ctx is done.
func (s *SignalSource) Run(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, s.signals...)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-ch:
			s.logger.Info("Received signal", zap.Stringer("signal", sig))
			s.dispatcher.Emit(NewEvent(ExitRequested, "signal:"+sig.String()))
		}
	}
}
