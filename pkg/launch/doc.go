// Package launch runs profiles: ordered lists of launch requests that are
// resolved to commands and executed one after the other.
//
// A [Runner] never stops at the first problem. A request that cannot be
// resolved is skipped, and a command that cannot be started or exits
// unsuccessfully is recorded as failed, but in both cases the remaining
// requests are still launched. Only a missing profile, an invalid
// configuration, or cancellation of the context end a run early.
//
// Each request is resolved in order of precedence:
//
//  1. An override configured for the request name, used verbatim.
//  2. The explicit path of the request, followed by its options.
//  3. A search of the configured directories and, unless disabled, $PATH.
//
// Progress is reported through [Observer]s, which are called synchronously
// on the goroutine running the profile, so their output is ordered correctly
// with respect to the output of the launched commands. [Printer] is an
// [Observer] that writes the usual one-line diagnostics.
package launch
