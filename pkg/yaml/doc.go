// Package yaml wraps [github.com/goccy/go-yaml] with the decoding, encoding
// and error reporting conventions used for pstart configuration files.
//
// Errors produced while decoding or validating a document carry the position
// of the offending node, and render a short excerpt of the source around it.
package yaml
