// Package tracking records the history of a document as a chain of
// versions and keeps named snapshots of its text.
//
// # Versions
//
// A Provider belongs to one document. Every change the document makes is
// appended to the provider, which advances its current Version. Any two
// versions of the same document can be compared and the changes between
// them retrieved, in either direction:
//
//	before := doc.Version()
//	doc.Insert(0, "hello")
//	events, _ := before.ChangesTo(doc.Version())
//	pos, _ := before.MoveOffsetTo(doc.Version(), 10, change.Default)
//
// Versions are only linked forward. An old version keeps the events after
// it alive; once nobody holds it, the garbage collector reclaims them.
//
// # Snapshots
//
// A Snapshot is an immutable copy of the text taken in O(1) through rope
// structural sharing. SnapshotManager stores snapshots under uuid ids and
// optional names:
//
//	id := snapshots.Create("before-reload", text, doc.Version())
//	snap, _ := snapshots.Get(id)
//
// # Thread Safety
//
// Provider.AppendChange must only be called by the document's writer.
// Versions, snapshots and SnapshotManager may be used from any goroutine.
package tracking
