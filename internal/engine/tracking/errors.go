package tracking

import "errors"

// Errors returned by tracking operations.
var (
	// ErrDifferentProvider is returned when two versions of unrelated
	// documents are compared.
	ErrDifferentProvider = errors.New("versions belong to different documents")

	// ErrSnapshotNotFound is returned when a named snapshot does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
