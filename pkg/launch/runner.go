package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/pstart/api/v1beta1/configs"
	"github.com/macropower/pstart/pkg/execs"
	"github.com/macropower/pstart/pkg/log"
	"github.com/macropower/pstart/pkg/profile"
	"github.com/macropower/pstart/pkg/resolve"
)

var (
	// ErrProfileNotFound is returned when the requested profile is not configured.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNoConfig is returned by [NewRunner] when no configuration is given.
	ErrNoConfig = errors.New("no configuration")
)

// Executor runs a command to completion.
type Executor interface {
	Exec(ctx context.Context, c execs.Command) (*execs.Result, error)
}

// ConfirmFunc is called before each command is started. Returning false skips
// the command. Returning an error ends the run.
type ConfirmFunc func(ctx context.Context, c execs.Command) (bool, error)

// Runner launches the profiles of a configuration.
type Runner struct {
	tracer    trace.Tracer
	executor  Executor
	cfg       *configs.Config
	resolver  *resolve.Resolver
	confirm   ConfirmFunc
	stdout    io.Writer
	stderr    io.Writer
	policy    FailurePolicy
	observers []Observer
	// Discard the standard error of launched commands.
	suppressStderr bool
}

// RunnerOpt configures a [Runner].
type RunnerOpt func(*Runner)

// WithExecutor sets the [Executor] used to run commands. It takes precedence
// over [WithStdout], [WithStderr] and [WithSuppressStderr].
func WithExecutor(e Executor) RunnerOpt {
	return func(r *Runner) {
		r.executor = e
	}
}

// WithResolver sets the [resolve.Resolver] used to search for programs.
// Defaults to [configs.Config.Resolver].
func WithResolver(res *resolve.Resolver) RunnerOpt {
	return func(r *Runner) {
		r.resolver = res
	}
}

// WithStdout sets where the standard output of launched commands goes.
// Defaults to [os.Stdout].
func WithStdout(w io.Writer) RunnerOpt {
	return func(r *Runner) {
		r.stdout = w
	}
}

// WithStderr sets where the standard error of launched commands goes when it
// is not suppressed. Defaults to [os.Stderr].
func WithStderr(w io.Writer) RunnerOpt {
	return func(r *Runner) {
		r.stderr = w
	}
}

// WithSuppressStderr discards the standard error of launched commands.
// Defaults to true.
func WithSuppressStderr(suppress bool) RunnerOpt {
	return func(r *Runner) {
		r.suppressStderr = suppress
	}
}

// WithFailurePolicy sets the [FailurePolicy]. Defaults to [PolicyNonZero].
func WithFailurePolicy(p FailurePolicy) RunnerOpt {
	return func(r *Runner) {
		r.policy = p
	}
}

// WithObserver adds observers that receive every [Event].
func WithObserver(obs ...Observer) RunnerOpt {
	return func(r *Runner) {
		r.observers = append(r.observers, obs...)
	}
}

// WithConfirm sets a function that confirms each command before it starts.
func WithConfirm(fn ConfirmFunc) RunnerOpt {
	return func(r *Runner) {
		r.confirm = fn
	}
}

// NewRunner creates a new [Runner] for cfg. The configuration is validated,
// and must not be modified while the runner is in use.
func NewRunner(cfg *configs.Config, opts ...RunnerOpt) (*Runner, error) {
	if cfg == nil {
		return nil, ErrNoConfig
	}

	err := cfg.Validate()
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped with ErrInvalidConfig.
	}

	r := &Runner{
		tracer:         otel.Tracer("launch-runner"),
		cfg:            cfg,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		policy:         PolicyNonZero,
		suppressStderr: true,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.resolver == nil {
		r.resolver = cfg.Resolver()
	}

	if r.executor == nil {
		var stderr io.Writer
		if !r.suppressStderr {
			stderr = r.stderr
		}

		r.executor = execs.NewExecutor(
			execs.WithStdout(r.stdout),
			execs.WithStderr(stderr),
		)
	}

	return r, nil
}

// Run launches every request of the named profile in order. See [Runner.RunProfile].
func (r *Runner) Run(ctx context.Context, name string) (*Report, error) {
	p, ok := r.cfg.Profile(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}

	return r.RunProfile(ctx, name, p)
}

// RunProfile launches every request of p in order, waiting for each command
// to exit before starting the next.
//
// Failures of individual requests are recorded in the returned [Report] and
// do not stop the run; see [Report.Err]. If ctx is canceled, the remaining
// requests are skipped with [ReasonCanceled] and the context error is
// returned together with the report.
func (r *Runner) RunProfile(ctx context.Context, name string, p profile.Profile) (*Report, error) {
	ctx, span := r.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("profile", name),
		attribute.Int("requests", len(p)),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(slog.String("profile", name))
	logger.DebugContext(ctx, "run profile", slog.Int("requests", len(p)))

	report := &Report{Profile: name}

	for i, req := range p {
		err := ctx.Err()
		if err == nil {
			var out Outcome

			out, err = r.launch(ctx, name, i, req)
			report.Outcomes = append(report.Outcomes, out)

			if err == nil {
				continue
			}

			i++
		}

		for j := i; j < len(p); j++ {
			out := Outcome{Index: j, Request: p[j], Status: StatusSkipped, Reason: ReasonCanceled, Err: err}
			report.Outcomes = append(report.Outcomes, out)
			r.emit(ctx, EventSkip(out))
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return report, err
	}

	logger.DebugContext(ctx, "profile complete", slog.String("summary", report.Summary()))

	if err := report.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
	}

	return report, nil
}

// launch resolves and runs a single request. It returns an error only when
// the run must end.
func (r *Runner) launch(ctx context.Context, profileName string, index int, req *profile.LaunchRequest) (Outcome, error) {
	out := Outcome{Index: index, Request: req}

	logger := log.WithContext(ctx).With(
		slog.String("profile", profileName),
		slog.String("name", req.Name),
	)

	enabled, err := req.Enabled(profileName)
	if err != nil {
		return r.skip(ctx, out, ReasonInvalid, err), nil
	}
	if !enabled {
		logger.DebugContext(ctx, "condition not met", slog.String("when", req.When))

		return r.skip(ctx, out, ReasonCondition, nil), nil
	}

	res, err := r.Resolve(req)
	if err != nil {
		return r.skip(ctx, out, ReasonNotFound, err), nil
	}

	out.Command = res.Command
	out.Source = res.Source

	if r.confirm != nil {
		ok, err := r.confirm(ctx, res.Command)
		if err != nil {
			return r.skip(ctx, out, ReasonCanceled, err), fmt.Errorf("confirm %q: %w", req.Name, err)
		}
		if !ok {
			return r.skip(ctx, out, ReasonDeclined, nil), nil
		}
	}

	r.emit(ctx, EventStart(out))

	logger.DebugContext(ctx, "launch",
		slog.String("command", res.Command.String()),
		slog.String("source", string(res.Source)),
	)

	result, err := r.executor.Exec(ctx, res.Command)
	if result != nil {
		out.ExitCode = result.ExitCode
		out.Duration = result.Duration
	}

	switch {
	case err == nil:
		out.Status = StatusOK
	case errors.Is(err, execs.ErrCommandExecution) && result != nil:
		out.Status = StatusOK
		if r.policy.Failed(result.ExitCode) {
			out.Status = StatusFailed
			out.Err = err
		}
	default:
		out.Status = StatusFailed
		out.ExitCode = -1
		out.Err = err

		logger.WarnContext(ctx, "could not start command", slog.Any("error", err))
	}

	r.emit(ctx, EventEnd(out))

	return out, nil
}

func (r *Runner) skip(ctx context.Context, out Outcome, reason Reason, err error) Outcome {
	out.Status = StatusSkipped
	out.Reason = reason
	out.Err = err

	r.emit(ctx, EventSkip(out))

	return out
}

func (r *Runner) emit(ctx context.Context, evt Event) {
	log.WithContext(ctx).DebugContext(ctx, "emit event",
		slog.String("event", fmt.Sprintf("%T", evt)),
	)

	for _, obs := range r.observers {
		obs.Observe(ctx, evt)
	}
}
