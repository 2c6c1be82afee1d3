package launch

import (
	"errors"
	"fmt"

	"github.com/macropower/pstart/pkg/execs"
	"github.com/macropower/pstart/pkg/profile"
)

// ErrNotFound is returned when a launch request cannot be resolved.
var ErrNotFound = errors.New("executable not found")

// Source identifies how a command was resolved.
type Source string

const (
	SourceOverride Source = "override"
	SourcePath     Source = "path"
	SourceSearch   Source = "search"
)

// Resolution is a launch request resolved to a concrete command.
type Resolution struct {
	Command execs.Command
	Source  Source
}

// Resolve resolves req to a command. An override for the request name wins
// and is used as-is. Otherwise the explicit path, or the result of searching
// for the name, is combined with the request's options.
func (r *Runner) Resolve(req *profile.LaunchRequest) (Resolution, error) {
	if cmd, ok := r.cfg.Override(req.Name); ok {
		return Resolution{Command: cmd, Source: SourceOverride}, nil
	}

	if req.Path != "" {
		return Resolution{
			Command: execs.NewCommand(req.Path, req.Args()...),
			Source:  SourcePath,
		}, nil
	}

	path, ok := r.resolver.Resolve(req.Name)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrNotFound, req.Name)
	}

	return Resolution{
		Command: execs.NewCommand(path, req.Args()...),
		Source:  SourceSearch,
	}, nil
}
