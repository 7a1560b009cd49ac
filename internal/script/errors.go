package script

import "errors"

// Errors returned by the runtime.
var (
	// ErrClosed is returned when a closed runtime is used.
	ErrClosed = errors.New("script runtime is closed")
)
