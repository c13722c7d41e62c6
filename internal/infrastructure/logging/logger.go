package logging

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with a Sync that tolerates console streams.
type Logger struct {
	*zap.Logger
}

// Options selects the level, encoder and destination of a Logger.
type Options struct {
	Level       string // "debug", "info", "warn", "error"; empty picks the mode default
	Development bool
	// Output receives entries; stderr when nil.
	Output zapcore.WriteSyncer
}

// New creates a logger. Development mode writes coloured console lines at
// debug level by default; production writes JSON at info.
func New(opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if opts.Development {
		level = zapcore.DebugLevel
	}
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	out := opts.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	zapOpts := []zap.Option{zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if opts.Development {
		zapOpts = append(zapOpts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	core := zapcore.NewCore(newEncoder(opts.Development), out, zap.NewAtomicLevelAt(level))
	return &Logger{Logger: zap.New(core, zapOpts...)}, nil
}

// FromLevel builds a stderr logger, ignoring a level it does not recognise.
func FromLevel(level string, development bool) *Logger {
	logger, err := New(Options{Level: level, Development: development})
	if err != nil {
		logger, _ = New(Options{Development: development})
		logger.Warn("Unknown log level, using default", zap.String("level", level))
	}
	return logger
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Sync flushes buffered entries. Errors from syncing terminals and pipes
// are not actionable and are dropped.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF) {
		return nil
	}
	return err
}

func newEncoder(development bool) zapcore.Encoder {
	if development {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.SecondsDurationEncoder
	return zapcore.NewJSONEncoder(cfg)
}
