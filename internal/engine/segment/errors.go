package segment

import "errors"

// Errors returned by collection operations.
var (
	// ErrIterationActive is returned when a collection is modified while
	// All is iterating over it.
	ErrIterationActive = errors.New("collection is being iterated")

	// ErrForeignSegment is returned when a segment is passed to a
	// collection it does not belong to.
	ErrForeignSegment = errors.New("segment belongs to another collection")

	// ErrSegmentInUse is returned by Add for a segment that is already in
	// a collection.
	ErrSegmentInUse = errors.New("segment is already in a collection")

	// ErrInvalidSegment is returned for negative offsets or lengths.
	ErrInvalidSegment = errors.New("invalid segment offset or length")
)
