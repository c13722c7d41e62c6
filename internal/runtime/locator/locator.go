package locator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrNoRuntime is returned when neither candidate interpreter exists.
var ErrNoRuntime = errors.New("no runtime executable found")

// ResolutionError reports that no usable runtime path could be determined.
type ResolutionError struct {
	Root       string
	Candidates []string
	Err        error
}

func (e *ResolutionError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("runtime resolution failed: %v", e.Err)
	}
	return fmt.Sprintf("runtime resolution failed under %s (tried %s): %v",
		e.Root, strings.Join(e.Candidates, ", "), e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Location is an immutable resolved runtime.
type Location struct {
	executable string
	embedded   bool
	env        map[string]string
}

// NewLocation builds a Location, copying env.
func NewLocation(executable string, embedded bool, env map[string]string) Location {
	cp := make(map[string]string, len(env))
	for k, v := range env {
		cp[k] = v
	}
	return Location{executable: executable, embedded: embedded, env: cp}
}

// Executable returns the absolute interpreter path.
func (l Location) Executable() string { return l.executable }

// Embedded reports whether the bundled distribution was selected.
func (l Location) Embedded() bool { return l.embedded }

// Env returns a copy of the auxiliary environment.
func (l Location) Env() map[string]string {
	cp := make(map[string]string, len(l.env))
	for k, v := range l.env {
		cp[k] = v
	}
	return cp
}

// Environ returns the auxiliary environment as sorted KEY=VALUE pairs.
func (l Location) Environ() []string {
	pairs := make([]string, 0, len(l.env))
	for k, v := range l.env {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return pairs
}

// Locator resolves the backend runtime from the install layout.
type Locator struct {
	layout     Layout
	executable func() (string, error)
	logger     *zap.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithLayout overrides the platform layout.
func WithLayout(layout Layout) Option {
	return func(l *Locator) {
		l.layout = layout
	}
}

// WithExecutable overrides how the running binary's path is found.
func WithExecutable(fn func() (string, error)) Option {
	return func(l *Locator) {
		l.executable = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Locator) {
		l.logger = logger
	}
}

// New creates a Locator for the running executable and platform layout.
func New(opts ...Option) *Locator {
	l := &Locator{
		layout:     DefaultLayout(),
		executable: os.Executable,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// InstallRoot returns the directory containing the running executable.
func (l *Locator) InstallRoot() (string, error) {
	exe, err := l.executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	exe, err = filepath.Abs(exe)
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// Locate picks the development virtualenv when present and otherwise the
// bundled distribution.
func (l *Locator) Locate() (Location, error) {
	root, err := l.InstallRoot()
	if err != nil {
		return Location{}, &ResolutionError{
			Err: fmt.Errorf("failed to determine install root: %w", err),
		}
	}

	dev := l.layout.DevExecutable(root)
	if err := checkExecutable(dev); err == nil {
		l.logger.Info("Using development runtime", zap.String("executable", dev))
		return NewLocation(dev, false, nil), nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("Development runtime unusable", zap.String("executable", dev), zap.Error(err))
	}

	bundled := l.layout.BundledExecutable(root)
	if err := checkExecutable(bundled); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrNoRuntime
		}
		return Location{}, &ResolutionError{
			Root:       root,
			Candidates: []string{dev, bundled},
			Err:        err,
		}
	}

	env := map[string]string{
		l.layout.PathVariable: l.layout.LibraryPath(bundled),
	}
	l.logger.Info("Using embedded runtime",
		zap.String("executable", bundled),
		zap.String(l.layout.PathVariable, env[l.layout.PathVariable]),
	)
	return NewLocation(bundled, true, env), nil
}

// checkExecutable returns nil when path names an existing regular file.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
