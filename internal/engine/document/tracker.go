package document

import "github.com/dshills/textcore/internal/engine/change"

// LineTracker follows structural changes of the line tree, for example to
// keep per-line state such as highlighting in sync.
//
// The callbacks run while the document is being modified. Line offsets and
// numbers may be inconsistent with the text until ChangeComplete, and the
// tracker must not modify the document.
type LineTracker interface {
	// BeforeRemoveLine is called before line is removed.
	BeforeRemoveLine(line *Line)

	// SetLineLength is called before the total length of line changes.
	SetLineLength(line *Line, newTotalLength int)

	// LineInserted is called after newLine was inserted behind
	// insertionPos.
	LineInserted(insertionPos, newLine *Line)

	// RebuildDocument is called after all lines were recreated.
	RebuildDocument()

	// ChangeComplete is called when the line tree matches the text again.
	ChangeComplete(ev *change.Event)
}
