package profile

import (
	"errors"
	"fmt"

	"github.com/macropower/pstart/pkg/execs"
	"github.com/macropower/pstart/pkg/expr"
)

// ErrEmptyName is returned when a launch request has no name.
var ErrEmptyName = errors.New("name is required")

// LaunchRequest is one entry in a profile.
type LaunchRequest struct {
	condition *expr.LazyProgram

	// Name is the logical program identifier. It is matched against the
	// configured overrides, and otherwise used as the executable name to search for.
	Name string `json:"name" jsonschema:"title=Name,minLength=1"`
	// Options contains extra command line arguments, split with shell quoting
	// rules. They are ignored when the name has an override.
	Options string `json:"options,omitempty" jsonschema:"title=Options"`
	// Path is an explicit executable path that is used instead of searching.
	Path string `json:"path,omitempty" jsonschema:"title=Path"`
	// When is a CEL expression that must evaluate to true for the request to
	// be launched. The expression has access to:
	//   - `os` (string): The operating system, e.g. "linux"
	//   - `arch` (string): The architecture, e.g. "amd64"
	//   - `env` (map<string, string>): The environment of the launcher
	//   - `profile` (string): The name of the running profile
	//   - `name` (string): The name of this launch request
	//   - `pathExists(string)` (bool): Whether a path exists
	//   - `onPath(string)` (bool): Whether a program can be found in the search directories
	//
	// If no When expression is provided, the request is always launched.
	When string `json:"when,omitempty" jsonschema:"title=When"`

	args []string
}

// RequestOpt is a functional option for configuring a [LaunchRequest].
type RequestOpt func(*LaunchRequest)

// NewRequest creates a new [LaunchRequest] for name.
// It is not usable until [LaunchRequest.Build] has been called.
func NewRequest(name string, opts ...RequestOpt) *LaunchRequest {
	r := &LaunchRequest{Name: name}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithOptions sets the extra argument string.
func WithOptions(options string) RequestOpt {
	return func(r *LaunchRequest) {
		r.Options = options
	}
}

// WithPath sets the explicit executable path.
func WithPath(path string) RequestOpt {
	return func(r *LaunchRequest) {
		r.Path = path
	}
}

// WithWhen sets the launch condition.
func WithWhen(when string) RequestOpt {
	return func(r *LaunchRequest) {
		r.When = when
	}
}

// Build validates the request, splits its options, and compiles its
// condition against env. It must be called before [LaunchRequest.Args] or
// [LaunchRequest.Enabled].
func (r *LaunchRequest) Build(env *expr.Environment) error {
	if r.Name == "" {
		return ErrEmptyName
	}

	args, err := execs.ParseArgs(r.Options)
	if err != nil {
		return fmt.Errorf("options: %w", err)
	}

	r.args = args

	if r.When == "" {
		r.condition = nil

		return nil
	}

	r.condition = expr.NewLazyProgram(r.When, env)

	_, err = r.condition.Get()
	if err != nil {
		return fmt.Errorf("when: %w", err)
	}

	return nil
}

// Args returns the tokenized options.
func (r *LaunchRequest) Args() []string {
	return r.args
}

// Enabled evaluates the request's condition for the given profile.
// A request without a condition is always enabled.
func (r *LaunchRequest) Enabled(profileName string) (bool, error) {
	if r.condition == nil {
		return true, nil
	}

	ok, err := r.condition.Eval(expr.Vars(profileName, r.Name))
	if err != nil {
		return false, fmt.Errorf("when %q: %w", r.When, err)
	}

	return ok, nil
}

func (r *LaunchRequest) String() string {
	if r.Options == "" {
		return r.Name
	}

	return r.Name + " " + r.Options
}
