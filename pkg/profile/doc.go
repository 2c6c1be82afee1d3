// Package profile defines launch requests and the profiles that group them.
//
// A [Profile] is an ordered list of [LaunchRequest]s. Each request names a
// logical program, and optionally carries extra arguments, an explicit
// executable path, and a CEL condition that decides whether the request is
// launched at all.
package profile
