// Package resolve finds executables by logical name.
//
// A lookup consults a caller-supplied list of preferred directories before
// the ambient system search path. The first regular file that the current
// user may execute wins. Not finding a program is an ordinary result, not an
// error.
//
// Because the preferred directories usually come from configuration, and the
// system path comes from the environment, callers running with elevated
// privileges should disable the system path fallback (pass a nil list) when
// the configuration is writable by a less privileged user.
package resolve
