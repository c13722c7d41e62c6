//go:build !windows

package locator

// DefaultLayout returns the layout of a Unix install.
func DefaultLayout() Layout {
	l := baseLayout()
	l.DevBinDir = "bin"
	l.Executable = "python"
	return l
}
