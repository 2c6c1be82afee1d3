package execs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/pstart/pkg/log"
)

// Result represents the result of a command execution.
type Result struct {
	// ExitCode is the exit status of the child. It is -1 if the child was
	// terminated by a signal.
	ExitCode int
	Duration time.Duration
}

// Executor runs commands as child processes, one at a time.
type Executor struct {
	tracer trace.Tracer
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	dir    string
	env    []string
}

// ExecutorOpt configures an [Executor].
type ExecutorOpt func(*Executor)

// WithStdin sets the standard input of launched commands.
// A nil reader connects the null device.
func WithStdin(r io.Reader) ExecutorOpt {
	return func(e *Executor) {
		e.stdin = r
	}
}

// WithStdout sets the standard output of launched commands.
// A nil writer discards output.
func WithStdout(w io.Writer) ExecutorOpt {
	return func(e *Executor) {
		e.stdout = w
	}
}

// WithStderr sets the standard error of launched commands.
// A nil writer discards output.
func WithStderr(w io.Writer) ExecutorOpt {
	return func(e *Executor) {
		e.stderr = w
	}
}

// WithDir sets the working directory of launched commands.
func WithDir(dir string) ExecutorOpt {
	return func(e *Executor) {
		e.dir = dir
	}
}

// WithEnv sets the environment of launched commands, in "KEY=value" form.
// By default the environment of the current process is inherited.
func WithEnv(env ...string) ExecutorOpt {
	return func(e *Executor) {
		e.env = env
	}
}

// NewExecutor creates a new [Executor]. By default, launched commands share
// the standard streams of the current process.
func NewExecutor(opts ...ExecutorOpt) *Executor {
	e := &Executor{
		tracer: otel.Tracer("executor"),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Exec starts the command and waits for it to exit.
//
// A command that starts but exits unsuccessfully returns both a [Result] and
// an error wrapping [ErrCommandExecution]. A command that cannot be started
// returns a nil [Result] and an error wrapping [ErrSpawn].
func (e *Executor) Exec(ctx context.Context, c Command) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "exec", trace.WithAttributes(
		attribute.String("command", c.String()),
	))
	defer span.End()

	if c.Program == "" {
		return nil, ErrEmptyCommand
	}

	logger := log.WithContext(ctx).With(
		slog.String("command", c.String()),
	)

	//nolint:gosec // G204: Subprocess launched with a potential tainted input or cmd arguments.
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Dir = e.dir
	cmd.Env = e.env
	cmd.Stdin = e.stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err == nil {
		logger.DebugContext(ctx, "command executed successfully",
			slog.Duration("duration", duration),
		)
		span.SetAttributes(attribute.Int("exit_code", 0))

		return &Result{Duration: duration}, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result := &Result{
			ExitCode: exitErr.ExitCode(),
			Duration: duration,
		}
		span.SetAttributes(attribute.Int("exit_code", result.ExitCode))
		logger.DebugContext(ctx, "command failed",
			slog.Duration("duration", duration),
			slog.Int("exit_code", result.ExitCode),
		)

		return result, fmt.Errorf("%w: %w", ErrCommandExecution, err)
	}

	logger.DebugContext(ctx, "command could not be started", slog.Any("error", err))

	return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
}
