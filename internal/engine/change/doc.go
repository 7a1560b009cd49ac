// Package change defines the mutation event shared by every structure that
// follows a document: the line index, anchors, segment collections,
// versions and the undo stack.
//
// An Event describes one logical edit: text was removed at Offset and other
// text was inserted at the same place. Its Map translates offsets from the
// old text into the new text, taking a MovementType into account for
// offsets at the edit point.
//
//	ev := change.NewEvent(10, "old", "new text", nil)
//	newPos := ev.NewOffset(42, change.Default)
//
// Consumers implement Listener and register with a Source.
package change
