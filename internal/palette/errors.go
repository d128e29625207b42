package palette

import "errors"

var (
	// ErrProviderTimeout is reported when a provider exceeds its budget.
	// It never reaches the caller of Dispatch; the provider simply
	// contributes nothing to that dispatch.
	ErrProviderTimeout = errors.New("search provider timed out")

	// ErrSuperseded is returned by a dispatch that was overtaken by a newer
	// dispatch on the same session.
	ErrSuperseded = errors.New("dispatch superseded")

	// ErrSessionClosed is returned when using a closed session.
	ErrSessionClosed = errors.New("palette session closed")

	// ErrInvalidAction is returned when registering an action without an ID.
	ErrInvalidAction = errors.New("invalid action")

	// ErrNotExecutable is returned when selecting an item whose dock has no
	// way to run it.
	ErrNotExecutable = errors.New("item has no action")

	// ErrNotDrilledIn is returned by Back outside a drill-down.
	ErrNotDrilledIn = errors.New("not drilled in")
)
