//go:build windows

package locator

// DefaultLayout returns the layout of a Windows install.
func DefaultLayout() Layout {
	l := baseLayout()
	l.DevBinDir = "Scripts"
	l.Executable = "python.exe"
	return l
}
