// Package document implements the text document model: a rope of
// characters, a line tree, anchors, versions and undo.
//
// # Lines
//
// Lines are kept in a red-black tree augmented with the number of lines
// and the total text length of each subtree, so that lookups by number or
// by offset take O(log n). Line delimiters are \n, \r and \r\n; a line
// handle includes its delimiter in TotalLength but not in Length. Edits
// that split or join a \r\n pair are handled.
//
// # Anchors
//
// An Anchor marks a position that follows edits. Anchors live in a second
// tree storing the distance between neighbouring anchors, so an edit only
// touches the anchors next to it. The tree refers to anchors weakly: an
// anchor the application no longer references is dropped by the garbage
// collector and removed from the tree on the next edit.
//
//	a, _ := doc.CreateAnchor(10)
//	_ = doc.Insert(0, "xx")
//	a.Offset() // 12
//
// # Changes
//
// Every modification goes through ReplaceWithMap. It produces a
// change.Event that is recorded in the undo stack and the version chain,
// applied to rope, lines and anchors, and finally handed to Changed
// handlers and change.Listeners. Handlers must not modify the document
// while a change is in progress; such changes fail with ErrNestedChange.
package document
