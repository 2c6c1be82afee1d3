// Package execs provides utilities for executing external commands, as defined
// by configuration.
//
// Commands are kept in structured form ([Command]) from the moment they are
// parsed, so quoting is interpreted exactly once. The [Executor] runs a
// command as a child process, inheriting standard output and, optionally,
// standard error.
package execs
