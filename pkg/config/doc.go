// Package config loads pstart configuration files.
//
// Loading happens in three steps: the raw YAML document is validated against
// the JSON schema, decoded into a [configs.Config], and finally the decoded
// config is validated, which tokenizes command strings and compiles
// conditions. Errors from the first two steps point at the offending source
// line.
package config
