package lifecycle

import "errors"

var (
	// ErrDuplicateIdentifier is returned when loading an identifier that is
	// already loaded and has not reached Unloaded.
	ErrDuplicateIdentifier = errors.New("duplicate dock identifier")

	// ErrIncompatibleVersion is returned when a dock needs a newer SDK than
	// the host implements. The dock's setup is never invoked.
	ErrIncompatibleVersion = errors.New("incompatible dock version")

	// ErrHookFailure is returned when setup or the first view fails.
	ErrHookFailure = errors.New("dock hook failed")

	// ErrNotFound is returned for identifiers that are not loaded.
	ErrNotFound = errors.New("dock not loaded")

	// ErrInvalidTransition is returned when the current state does not allow
	// the requested transition.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)
