package profile

import (
	"fmt"
	"strings"

	"github.com/macropower/pstart/pkg/expr"
)

// Profile is an ordered list of launch requests. Order is significant: later
// requests may rely on side effects of earlier ones.
type Profile []*LaunchRequest

// New creates a new [Profile] from requests.
func New(requests ...*LaunchRequest) Profile {
	return Profile(requests)
}

// Build builds every request in the profile. See [LaunchRequest.Build].
func (p Profile) Build(env *expr.Environment) error {
	for i, r := range p {
		if r == nil {
			return fmt.Errorf("[%d]: %w", i, ErrEmptyName)
		}

		err := r.Build(env)
		if err != nil {
			return fmt.Errorf("[%d] %q: %w", i, r.Name, err)
		}
	}

	return nil
}

// Names returns the logical names of the requests, in order.
func (p Profile) Names() []string {
	names := make([]string, 0, len(p))
	for _, r := range p {
		names = append(names, r.Name)
	}

	return names
}

func (p Profile) String() string {
	return strings.Join(p.Names(), ", ")
}
