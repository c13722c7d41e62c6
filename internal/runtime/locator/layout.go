package locator

import "path/filepath"

// Layout describes where runtimes live relative to the install root.
// The development depth is fixed: a build running from
// <checkout>/<tauri>/target/<profile>/ reaches <checkout>/src-python.
type Layout struct {
	// DevRoot is the virtual environment directory relative to the install root.
	DevRoot string
	// DevBinDir is the interpreter directory inside the virtual environment.
	DevBinDir string
	// BundledDir is the embedded distribution directory beside the binary.
	BundledDir string
	// Executable is the interpreter file name in both locations.
	Executable string
	// LibraryDir is the package directory relative to the embedded interpreter.
	LibraryDir string
	// PathVariable is the module search path variable set for embedded runtimes.
	PathVariable string
}

// DevExecutable returns candidate A for the given install root.
func (l Layout) DevExecutable(root string) string {
	return filepath.Join(root, filepath.FromSlash(l.DevRoot), l.DevBinDir, l.Executable)
}

// BundledExecutable returns candidate B for the given install root.
func (l Layout) BundledExecutable(root string) string {
	return filepath.Join(root, filepath.FromSlash(l.BundledDir), l.Executable)
}

// LibraryPath returns the package directory for an embedded interpreter.
func (l Layout) LibraryPath(executable string) string {
	return filepath.Join(filepath.Dir(executable), filepath.FromSlash(l.LibraryDir))
}

func baseLayout() Layout {
	return Layout{
		DevRoot:      "../../../src-python/.venv",
		BundledDir:   "python",
		LibraryDir:   "Lib/site-packages",
		PathVariable: "PYTHONPATH",
	}
}
