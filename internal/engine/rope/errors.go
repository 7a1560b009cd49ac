package rope

import "errors"

// Errors returned by rope operations.
var (
	// ErrIndexOutOfRange indicates an index or range outside the rope.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNilRope indicates a nil rope was passed where one is required.
	ErrNilRope = errors.New("nil rope")
)
