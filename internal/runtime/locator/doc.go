// Package locator resolves the backend runtime the shell launches.
//
// Two install layouts are recognised, relative to the directory holding the
// running executable:
//
//	<root>/../../../src-python/.venv/{Scripts,bin}/python[.exe]   development
//	<root>/python/python[.exe]                                    bundled
//
// The development virtualenv wins whenever it exists. The bundled
// distribution additionally gets PYTHONPATH pointed at its own
// Lib/site-packages so it never depends on a system-wide installation.
// Nothing but filesystem presence decides between the two.
package locator
