package launch

import (
	"context"
)

// Event represents an event emitted while running a profile.
type Event any

type (
	// EventStart indicates that a resolved command is about to be started.
	// The Outcome is not final: only the request, command and source are set.
	EventStart Outcome

	// EventSkip indicates that a request was not launched. See [Outcome.Reason].
	EventSkip Outcome

	// EventEnd indicates that a command has exited, or could not be started.
	EventEnd Outcome
)

// Observer receives [Event]s. Observers are called synchronously, in the
// order they were registered, before the runner continues.
type Observer interface {
	Observe(ctx context.Context, evt Event)
}

// ObserverFunc adapts a function to the [Observer] interface.
type ObserverFunc func(ctx context.Context, evt Event)

func (f ObserverFunc) Observe(ctx context.Context, evt Event) {
	f(ctx, evt)
}
