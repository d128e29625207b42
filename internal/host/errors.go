package host

import "errors"

var (
	// ErrNoRoute is returned when a deep link has no dock to handle it.
	ErrNoRoute = errors.New("no route for link")
	// ErrCapabilityDenied is returned by services a dock did not declare
	// while the host runs with strict capabilities.
	ErrCapabilityDenied = errors.New("capability not declared")
	// ErrDetached is returned to a dock that calls the host after it has
	// been detached for unloading.
	ErrDetached = errors.New("dock detached")
	// ErrNoBinding is returned when no key binding matches a chord.
	ErrNoBinding = errors.New("no key binding")
	// ErrNoFocus is returned when an operation needs a focused dock.
	ErrNoFocus = errors.New("no focused dock")
)
