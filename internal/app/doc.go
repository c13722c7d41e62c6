// Package app provides the application context for the desktop shell.
//
// The App is constructed once at startup and owns everything with a
// lifetime equal to the run: the backend supervisor, the lifecycle
// dispatcher, metrics and the optional admin server.
//
// Startup is linear and fatal on error:
//
//	locate runtime → spawn backend → register shutdown hook
//
// Shutdown is reactive: the windowing toolkit publishes CloseRequested (or
// an OS signal produces ExitRequested) on Dispatcher(), the supervisor's
// hook terminates the backend, and Run returns.
//
// Example Usage:
//
//	a := app.New(cfg, logger)
//	if err := a.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	// window.OnClose(func() { a.Dispatcher().Emit(lifecycle.NewEvent(lifecycle.CloseRequested, "window")) })
//	_ = a.Run(ctx)
package app
