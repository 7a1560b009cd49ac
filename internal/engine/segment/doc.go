// Package segment provides Collection, an interval index of text segments
// that follows document edits.
//
// Segments are stored in a red-black tree ordered by start offset. Like
// anchors, each node stores the distance to the start of its predecessor
// instead of an absolute offset, so an edit only touches the nodes next to
// it. Each node also caches the largest segment end in its subtree,
// relative to its own start, which lets FindOverlapping skip subtrees that
// end before the query window.
//
//	c := segment.NewCollection[string]()
//	_ = c.Add(segment.New(10, 5, "warning"))
//	c.Connect(doc)
//	for _, s := range c.FindOverlapping(0, 12) {
//	    fmt.Println(s.Value, s.StartOffset(), s.EndOffset())
//	}
//
// # Edits
//
// Segments are half-open ranges [start, end). An insertion at the start of
// a segment moves it, an insertion at its end extends it. Removing text
// that covers a whole segment deletes the segment; partially covered
// segments shrink.
package segment
