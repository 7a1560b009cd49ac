package document

import "errors"

// Errors returned by document operations.
var (
	// ErrOffsetOutOfRange is returned for offsets outside [0, Len()].
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrLineOutOfRange is returned for line numbers outside [1, LineCount()].
	ErrLineOutOfRange = errors.New("line number out of range")

	// ErrNestedChange is returned when the document is modified from inside
	// a Changing or Changed handler, or from a listener.
	ErrNestedChange = errors.New("cannot change document within another document change")

	// ErrNoUpdate is returned by EndUpdate without a matching BeginUpdate.
	ErrNoUpdate = errors.New("no update is active")

	// ErrDeletedLine is returned when a deleted line handle is used.
	ErrDeletedLine = errors.New("line was deleted")

	// ErrInvalidReplaceMode is returned for an unknown ReplaceMode.
	ErrInvalidReplaceMode = errors.New("invalid replace mode")
)
