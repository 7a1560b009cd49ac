package history

import "errors"

// Errors returned by undo stack operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrGroupOpen is returned by Undo and Redo while an undo group is open.
	ErrGroupOpen = errors.New("undo group is open")

	// ErrNoOpenGroup is returned by EndGroup without a matching StartGroup.
	ErrNoOpenGroup = errors.New("no open undo group")

	// ErrChangeDuringPlayback is returned when a document is modified while
	// an undo or redo is being replayed, other than by the replay itself.
	ErrChangeDuringPlayback = errors.New("document changed during undo/redo playback")

	// ErrInvalidSizeLimit is returned for a negative size limit.
	ErrInvalidSizeLimit = errors.New("invalid undo size limit")
)
