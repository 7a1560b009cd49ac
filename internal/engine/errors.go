package engine

import "errors"

// Errors returned by engine operations. Errors of the document, history
// and segment packages are passed through wrapped and can be matched with
// errors.Is.
var (
	// ErrSnapshotNotFound indicates a snapshot was not found.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrReadOnly indicates an operation was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")

	// ErrInvalidUTF8 indicates content that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("content is not valid UTF-8")
)
