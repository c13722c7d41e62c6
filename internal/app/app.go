package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/handyshell/internal/infrastructure/config"
	"github.com/GriffinCanCode/handyshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/handyshell/internal/infrastructure/server"
	"github.com/GriffinCanCode/handyshell/internal/lifecycle"
	"github.com/GriffinCanCode/handyshell/internal/runtime/locator"
	"github.com/GriffinCanCode/handyshell/internal/runtime/supervisor"
)

// Locator resolves the backend runtime
type Locator interface {
	Locate() (locator.Location, error)
}

// App is the application context: it owns the backend process for one run
// and hands the shutdown path exactly the references it needs.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *monitoring.Metrics

	locator    Locator
	supervisor *supervisor.Supervisor
	dispatcher *lifecycle.Dispatcher
	signals    *lifecycle.SignalSource
	admin      *server.Server

	closing     chan struct{}
	closingOnce sync.Once
	exitOnce    sync.Once
	started     bool
}

// Option configures an App
type Option func(*App)

// WithLocator replaces the filesystem locator
func WithLocator(l Locator) Option {
	return func(a *App) {
		a.locator = l
	}
}

// WithoutSignals stops the App from turning OS signals into lifecycle events
func WithoutSignals() Option {
	return func(a *App) {
		a.signals = nil
	}
}

// New builds the application context from configuration
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := monitoring.NewMetrics()
	dispatcher := lifecycle.NewDispatcher(logger.Named("lifecycle"))

	supOpts := supervisor.DefaultOptions()
	supOpts.SuppressConsole = cfg.Supervisor.SuppressConsole
	supOpts.CaptureOutput = cfg.Supervisor.CaptureOutput
	supOpts.GracePeriod = cfg.Supervisor.GracePeriod
	supOpts.LockTimeout = cfg.Supervisor.LockTimeout

	a := &App{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		locator:    locator.New(locator.WithLogger(logger.Named("locator"))),
		supervisor: supervisor.New(supOpts, logger.Named("supervisor")).WithMetrics(metrics),
		dispatcher: dispatcher,
		signals:    lifecycle.NewSignalSource(dispatcher, logger.Named("lifecycle")),
		closing:    make(chan struct{}),
	}
	if cfg.Admin.Enabled() {
		a.admin = server.New(cfg.Admin.Addr, a.supervisor, metrics, logger.Named("admin"))
	}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dispatcher is where the host shell publishes its lifecycle events
func (a *App) Dispatcher() *lifecycle.Dispatcher {
	return a.dispatcher
}

// Supervisor returns the backend supervisor
func (a *App) Supervisor() *supervisor.Supervisor {
	return a.supervisor
}

// Start resolves and launches the backend, then registers the shutdown
// hook. Any error is fatal to the application.
func (a *App) Start(ctx context.Context) error {
	loc, err := a.locator.Locate()
	if err != nil {
		return fmt.Errorf("failed to locate backend runtime: %w", err)
	}

	if _, err := a.supervisor.Spawn(ctx, loc); err != nil {
		return fmt.Errorf("failed to start backend: %w", err)
	}

	// Only now is there a handle for the hook to act on
	a.dispatcher.Subscribe(a.supervisor.Hook())
	a.dispatcher.Subscribe(a.onLifecycle)
	a.started = true

	return nil
}

func (a *App) onLifecycle(evt lifecycle.Event) {
	if evt.Kind.Terminal() {
		a.closingOnce.Do(func() { close(a.closing) })
	}
}

// Run blocks until a terminal lifecycle event arrives or ctx is done, then
// shuts down. Admin server failures are logged, never fatal.
func (a *App) Run(ctx context.Context) error {
	if !a.started {
		return fmt.Errorf("app: Run called before Start")
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	if a.signals != nil {
		g.Go(func() error {
			return a.signals.Run(runCtx)
		})
	}
	if a.admin != nil {
		g.Go(func() error {
			if err := a.admin.Run(runCtx); err != nil {
				a.logger.Error("Admin server failed", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		select {
		case <-a.closing:
			a.logger.Info("Shell closing")
		case <-runCtx.Done():
		}
		cancel()
		return nil
	})

	err := g.Wait()
	a.Shutdown()
	return err
}

// Shutdown publishes the final Exit event unless a terminal event was
// already delivered. Safe to call more than once.
func (a *App) Shutdown() {
	a.exitOnce.Do(func() {
		select {
		case <-a.closing:
		default:
			a.dispatcher.Emit(lifecycle.NewEvent(lifecycle.Exit, "app"))
		}
		a.logger.Info("Application exit", zap.String("backend", a.supervisor.Status().State))
		_ = a.logger.Sync()
	})
}
