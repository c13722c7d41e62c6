package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/handyshell/internal/app"
	"github.com/GriffinCanCode/handyshell/internal/infrastructure/config"
	"github.com/GriffinCanCode/handyshell/internal/infrastructure/logging"
)

func main() {
	// Flags override environment for local debugging only
	dev := flag.Bool("dev", false, "Use the development log encoder")
	adminAddr := flag.String("admin", "", "Admin server listen address (overrides HANDY_ADMIN_ADDR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "handyshell: %v\n", err)
		os.Exit(1)
	}
	if *dev {
		cfg.Logging.Development = true
	}
	if *adminAddr != "" {
		cfg.Admin.Addr = *adminAddr
	}

	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	code := run(cfg, logger.Logger)
	_ = logger.Sync()
	os.Exit(code)
}

func run(cfg *config.Config, logger *zap.Logger) int {
	ctx := context.Background()
	application := app.New(cfg, logger)

	if err := application.Start(ctx); err != nil {
		logger.Error("Failed to start backend", zap.Error(err))
		return 1
	}

	if err := application.Run(ctx); err != nil {
		logger.Warn("Shutdown completed with errors", zap.Error(err))
	}
	return 0
}
