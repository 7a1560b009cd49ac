// Package history provides undo and redo for documents.
//
// An UndoStack listens to the changes of one document. The document hands
// every change to PushChange before applying it; the stack stores it as an
// Operation. Undo and Redo replay operations through the Document interface
// inside an update bracket.
//
//	stack := history.NewUndoStack(doc, history.WithSizeLimit(500))
//
//	stack.StartGroup("find and replace")
//	// ... multiple edits ...
//	stack.EndGroup()
//
//	stack.Undo() // reverts all edits of the group
//
// # Continued Groups
//
// StartContinuedGroup merges the group with the previous undo step unless
// an undo or redo happened in between. Editors use it to coalesce typing.
//
// # Playback
//
// While an operation is replayed, the document may only perform the change
// the operation asks for. Any other change is refused with
// ErrChangeDuringPlayback and aborted by the document.
//
// # Original File
//
// MarkAsOriginalFile remembers the current state, for example after a
// save. IsOriginalFile reports whether undo and redo have led back to it.
package history
