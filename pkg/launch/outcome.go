package launch

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/macropower/pstart/pkg/execs"
	"github.com/macropower/pstart/pkg/profile"
)

var (
	// ErrLaunchFailed is returned by [Report.Err] when a request failed or
	// could not be resolved.
	ErrLaunchFailed = errors.New("launch failed")

	// ErrInvalidFailurePolicy is returned by [ParseFailurePolicy].
	ErrInvalidFailurePolicy = errors.New("invalid failure policy")
)

// Status is the final state of a launch request.
type Status int

const (
	// StatusOK indicates the command ran and was not classified as a failure.
	StatusOK Status = iota
	// StatusFailed indicates the command could not be started, or exited
	// with a status the [FailurePolicy] classifies as a failure.
	StatusFailed
	// StatusSkipped indicates the command was never started. See [Reason].
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}

	return fmt.Sprintf("Status(%d)", int(s))
}

// Reason explains why a request was skipped.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonNotFound  Reason = "not-found"
	ReasonInvalid   Reason = "invalid"
	ReasonCondition Reason = "condition"
	ReasonDeclined  Reason = "declined"
	ReasonCanceled  Reason = "canceled"
)

// FailurePolicy decides which exit codes are reported as failures.
type FailurePolicy string

const (
	// PolicyNonZero treats every non-zero exit code as a failure.
	PolicyNonZero FailurePolicy = "nonzero"
	// PolicyExitOne only treats exit code 1 as a failure.
	PolicyExitOne FailurePolicy = "exit-one"
)

// FailurePolicies contains all valid failure policies.
var FailurePolicies = []FailurePolicy{PolicyNonZero, PolicyExitOne}

// ParseFailurePolicy parses s into a [FailurePolicy].
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	p := FailurePolicy(s)
	if !slices.Contains(FailurePolicies, p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFailurePolicy, s)
	}

	return p, nil
}

// Failed reports whether exitCode is a failure under the policy.
func (p FailurePolicy) Failed(exitCode int) bool {
	if p == PolicyExitOne {
		return exitCode == 1
	}

	return exitCode != 0
}

func (p FailurePolicy) String() string {
	return string(p)
}

// Outcome is the result of a single launch request.
type Outcome struct {
	Err     error
	Request *profile.LaunchRequest
	// Command is empty if the request was skipped before resolution.
	Command execs.Command
	Source  Source
	Reason  Reason
	// Index is the position of the request within its profile.
	Index    int
	Status   Status
	ExitCode int
	Duration time.Duration
}

// Name returns the name of the request.
func (o Outcome) Name() string {
	if o.Request == nil {
		return ""
	}

	return o.Request.Name
}

// Problem reports whether the outcome should make the run unsuccessful:
// the request failed, could not be resolved, or had an invalid condition.
func (o Outcome) Problem() bool {
	if o.Status == StatusFailed {
		return true
	}

	return o.Status == StatusSkipped && (o.Reason == ReasonNotFound || o.Reason == ReasonInvalid)
}

func (o Outcome) String() string {
	s := fmt.Sprintf("%s: %s", o.Name(), o.Status)
	if o.Reason != ReasonNone {
		s += " (" + string(o.Reason) + ")"
	}

	return s
}

// Report contains the outcomes of a run, in profile order.
type Report struct {
	Profile  string
	Outcomes []Outcome
}

// OK returns the outcomes of commands that ran successfully.
func (r *Report) OK() []Outcome {
	return r.filter(func(o Outcome) bool { return o.Status == StatusOK })
}

// Failed returns the outcomes of commands that failed.
func (r *Report) Failed() []Outcome {
	return r.filter(func(o Outcome) bool { return o.Status == StatusFailed })
}

// Skipped returns the outcomes of requests that were not launched.
func (r *Report) Skipped() []Outcome {
	return r.filter(func(o Outcome) bool { return o.Status == StatusSkipped })
}

// Summary returns a one-line summary of the run.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s: %d ok, %d failed, %d skipped",
		r.Profile, len(r.OK()), len(r.Failed()), len(r.Skipped()))
}

// Err returns an error wrapping [ErrLaunchFailed] naming every request that
// failed or could not be resolved, or nil.
func (r *Report) Err() error {
	var names []string

	for _, o := range r.Outcomes {
		if o.Problem() {
			names = append(names, o.Name())
		}
	}

	if len(names) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrLaunchFailed, strings.Join(names, ", "))
}

func (r *Report) filter(keep func(Outcome) bool) []Outcome {
	var out []Outcome

	for _, o := range r.Outcomes {
		if keep(o) {
			out = append(out, o)
		}
	}

	return out
}
