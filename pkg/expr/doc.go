// Package expr provides CEL (Common Expression Language) functionality for
// evaluating launch conditions.
//
// Condition expressions have access to variables:
//   - `os` (string): The operating system, e.g. "linux"
//   - `arch` (string): The architecture, e.g. "amd64"
//   - `env` (map<string, string>): The environment of the launcher
//   - `profile` (string): The name of the running profile
//   - `name` (string): The logical name of the launch request
//
// And to functions:
//   - `pathExists(string) bool`: Whether a file or directory exists
//   - `onPath(string) bool`: Whether a program resolves with the configured
//     search directories
package expr
