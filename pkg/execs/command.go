package execs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

var (
	// ErrCommandExecution is returned when a command exits unsuccessfully.
	ErrCommandExecution = errors.New("run")

	// ErrSpawn is returned when a command could not be started.
	ErrSpawn = errors.New("spawn")

	// ErrEmptyCommand is returned when a command is empty.
	ErrEmptyCommand = errors.New("empty command")

	// ErrParse is returned when a command line cannot be tokenized.
	ErrParse = errors.New("parse command line")
)

// Command is a program and its argument vector.
type Command struct {
	// Program is the executable to run. A bare name is looked up in $PATH by
	// the operating system when the command is started.
	Program string `json:"program" jsonschema:"title=Program"`
	// Args contains the command line arguments, not including the program.
	Args []string `json:"args,omitempty" jsonschema:"title=Arguments" yaml:"args,flow,omitempty"`
}

// NewCommand creates a new [Command].
func NewCommand(program string, args ...string) Command {
	return Command{
		Program: program,
		Args:    args,
	}
}

// shellOperators are the characters shellwords stops parsing at.
const shellOperators = ";&|<>"

// Parse splits a full command line into a [Command] using shell-style
// tokenization. Quotes and backslash escapes behave as they would in a POSIX
// shell. Environment variables and backticks are not expanded, and shell
// operators such as `;`, `|` or `>` are kept as literal text.
func Parse(line string) (Command, error) {
	words, err := ParseArgs(line)
	if err != nil {
		return Command{}, err
	}

	if len(words) == 0 {
		return Command{}, ErrEmptyCommand
	}

	var args []string
	if len(words) > 1 {
		args = words[1:]
	}

	return NewCommand(words[0], args...), nil
}

// ParseArgs splits an argument string using shell-style tokenization.
// An empty or blank string yields no arguments.
func ParseArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	p := shellwords.NewParser()
	p.ParseEnv = false
	p.ParseBacktick = false

	words, err := p.Parse(escapeOperators(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrParse, s, err)
	}

	return words, nil
}

// escapeOperators backslash-escapes every unquoted shell operator in s, so
// that `out>scan.txt` or `?a=1&b=2` stay part of the surrounding word.
func escapeOperators(s string) string {
	var (
		b            strings.Builder
		escaped      bool
		singleQuoted bool
		doubleQuoted bool
	)

	b.Grow(len(s))

	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && !singleQuoted:
			escaped = true
		case r == '\'' && !doubleQuoted:
			singleQuoted = !singleQuoted
		case r == '"' && !singleQuoted:
			doubleQuoted = !doubleQuoted
		case strings.ContainsRune(shellOperators, r) && !singleQuoted && !doubleQuoted:
			b.WriteRune('\\')
		}

		b.WriteRune(r)
	}

	return b.String()
}

// WithArgs returns a copy of the command with args appended.
func (c Command) WithArgs(args ...string) Command {
	all := make([]string, 0, len(c.Args)+len(args))
	all = append(all, c.Args...)
	all = append(all, args...)

	return Command{Program: c.Program, Args: all}
}

// Argv returns the program followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Program}, c.Args...)
}

// String renders the command as a shell-quoted line that [Parse] would
// tokenize back into the same command.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, word := range c.Argv() {
		parts = append(parts, quote(word))
	}

	return strings.Join(parts, " ")
}

func quote(word string) string {
	if word == "" {
		return "''"
	}

	if !strings.ContainsAny(word, " \t\n\"'\\$`;&|<>()*?[]#~") {
		return word
	}

	return "'" + strings.ReplaceAll(word, "'", `'\''`) + "'"
}
