// Package engine provides the thread-safe facade over a textcore document.
//
// The engine is built on several sub-packages:
//
//   - rope: persistent balanced rope holding the text
//   - rbtree: red-black balancing shared by the augmented trees
//   - document: the document with its line tree and anchor tree
//   - segment: interval trees of text segments that follow edits
//   - change: change events and offset maps
//   - history: undo stack with groups
//   - tracking: versions and named snapshots
//
// # Thread Safety
//
// All Engine methods are safe for concurrent use. Reads share a read-write
// mutex, writes hold it exclusively. The document itself has a single
// writer; Update and View give callbacks access to it under the lock.
//
// # Basic Usage
//
//	e := engine.New(engine.WithContent("Hello, World!"))
//
//	_ = e.Replace(7, 5, "Go")   // "Hello, Go!"
//	_ = e.Undo()                // "Hello, World!"
//
//	a, _ := e.CreateAnchor(7, engine.MoveDefault, false)
//	_, _ = e.Insert(0, ">> ")
//	e.AnchorOffset(a)           // 10
//
// # Offsets
//
// Offsets count characters (Unicode code points) from the start of the
// text. Line numbers and columns are 1-based.
//
// # Snapshots
//
// Snapshot returns an immutable copy of the text that can be read while
// the engine keeps changing. CreateSnapshot stores one under a name and
// an id; ChangesSince lists the edits made after it.
package engine
