package segment

import (
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/dshills/textcore/internal/engine/change"
	"github.com/dshills/textcore/internal/engine/invariant"
	"github.com/dshills/textcore/internal/engine/rbtree"
)

// Collection holds segments ordered by start offset.
//
// A Collection has no internal locking; it must be used from the goroutine
// that modifies the document it is connected to.
type Collection[T any] struct {
	tree        rbtree.Tree[Segment[T], *Segment[T]]
	count       int
	iterating   atomic.Int32
	unsubscribe func()
}

// NewCollection creates an empty collection.
func NewCollection[T any]() *Collection[T] {
	c := &Collection[T]{}
	c.tree.Init(c.update)
	return c
}

// Len returns the number of segments.
func (c *Collection[T]) Len() int { return c.count }

// Contains reports whether s is in c.
func (c *Collection[T]) Contains(s *Segment[T]) bool {
	return s != nil && s.owner == c
}

// Add inserts s at its current offsets.
func (c *Collection[T]) Add(s *Segment[T]) error {
	switch {
	case s.owner != nil:
		return ErrSegmentInUse
	case c.iterating.Load() > 0:
		return ErrIterationActive
	}
	s.deleted = false
	c.add(s)
	return nil
}

// Remove takes s out of c. The segment keeps its offsets and can be added
// again.
func (c *Collection[T]) Remove(s *Segment[T]) error {
	switch {
	case s.owner != c:
		return fmt.Errorf("remove %s: %w", s, ErrForeignSegment)
	case c.iterating.Load() > 0:
		return ErrIterationActive
	}
	c.remove(s)
	return nil
}

// Clear removes all segments.
func (c *Collection[T]) Clear() error {
	if c.iterating.Load() > 0 {
		return ErrIterationActive
	}
	var all []*Segment[T]
	c.tree.All(func(s *Segment[T]) bool {
		all = append(all, s)
		return true
	})
	for _, s := range all {
		start := s.StartOffset()
		s.links = rbtree.Links[Segment[T]]{}
		s.owner = nil
		s.nodeLength = start
	}
	c.tree.Root = nil
	c.count = 0
	return nil
}

// add links s, whose nodeLength holds its absolute start.
func (c *Collection[T]) add(s *Segment[T]) {
	start := s.nodeLength
	s.owner = c
	s.distanceToMaxEnd = s.segmentLength
	switch {
	case c.tree.Root == nil:
		s.totalNodeLength = start
		c.tree.InsertFirst(s)
	case start >= c.tree.Root.totalNodeLength:
		s.nodeLength = start - c.tree.Root.totalNodeLength
		s.totalNodeLength = s.nodeLength
		c.tree.InsertAsRight(c.tree.Last(), s)
	default:
		n, rel := c.findNode(start)
		s.nodeLength = rel
		s.totalNodeLength = rel
		n.nodeLength -= rel
		c.tree.InsertBefore(n, s)
		c.update(n)
	}
	c.count++
	invariant.Check(c.CheckProperties)
}

func (c *Collection[T]) remove(s *Segment[T]) {
	start := s.StartOffset()
	succ := c.tree.Successor(s)
	c.tree.Remove(s)
	if succ != nil {
		succ.nodeLength += s.nodeLength
		c.update(succ)
	}
	s.owner = nil
	s.nodeLength = start
	c.count--
	invariant.Check(c.CheckProperties)
}

// findNode returns the first node starting after offset and offset
// relative to the start of its predecessor.
func (c *Collection[T]) findNode(offset int) (*Segment[T], int) {
	n := c.tree.Root
	for n != nil {
		if l := n.links.Left; l != nil {
			if offset < l.totalNodeLength {
				n = l
				continue
			}
			offset -= l.totalNodeLength
		}
		if offset < n.nodeLength {
			return n, offset
		}
		offset -= n.nodeLength
		n = n.links.Right
	}
	return nil, offset
}

func (c *Collection[T]) update(n *Segment[T]) {
	total := n.nodeLength
	maxEnd := n.segmentLength
	if l := n.links.Left; l != nil {
		total += l.totalNodeLength
		// Translate from l's start to n's start.
		d := l.distanceToMaxEnd - n.nodeLength
		if l.links.Right != nil {
			d -= l.links.Right.totalNodeLength
		}
		maxEnd = max(maxEnd, d)
	}
	if r := n.links.Right; r != nil {
		total += r.totalNodeLength
		d := r.distanceToMaxEnd + r.nodeLength
		if r.links.Left != nil {
			d += r.links.Left.totalNodeLength
		}
		maxEnd = max(maxEnd, d)
	}
	if total != n.totalNodeLength || maxEnd != n.distanceToMaxEnd {
		n.totalNodeLength = total
		n.distanceToMaxEnd = maxEnd
		if n.links.Parent != nil {
			c.update(n.links.Parent)
		}
	}
}

// startOf returns the absolute start of n given the start of the node
// preceding n's subtree.
func startOf[T any](n *Segment[T], base int) int {
	start := base + n.nodeLength
	if n.links.Left != nil {
		start += n.links.Left.totalNodeLength
	}
	return start
}

// FindOverlapping returns the segments s with
// s.StartOffset() < offset+length and offset < s.EndOffset(), ordered by
// start offset.
func (c *Collection[T]) FindOverlapping(offset, length int) []*Segment[T] {
	var out []*Segment[T]
	if c.tree.Root != nil {
		c.searchOverlapping(c.tree.Root, 0, offset, offset+length, &out)
	}
	return out
}

func (c *Collection[T]) searchOverlapping(n *Segment[T], base, lo, hi int, out *[]*Segment[T]) {
	start := startOf(n, base)
	if start+n.distanceToMaxEnd <= lo {
		// Nothing in this subtree ends after lo.
		return
	}
	if n.links.Left != nil {
		c.searchOverlapping(n.links.Left, base, lo, hi, out)
	}
	if start >= hi {
		return
	}
	if lo < start+n.segmentLength {
		*out = append(*out, n)
	}
	if n.links.Right != nil {
		c.searchOverlapping(n.links.Right, start, lo, hi, out)
	}
}

// FindContaining returns the segments with
// StartOffset() <= offset <= EndOffset(), ordered by start offset.
func (c *Collection[T]) FindContaining(offset int) []*Segment[T] {
	var out []*Segment[T]
	if c.tree.Root != nil {
		c.searchContaining(c.tree.Root, 0, offset, &out)
	}
	return out
}

func (c *Collection[T]) searchContaining(n *Segment[T], base, offset int, out *[]*Segment[T]) {
	start := startOf(n, base)
	if start+n.distanceToMaxEnd < offset {
		return
	}
	if n.links.Left != nil {
		c.searchContaining(n.links.Left, base, offset, out)
	}
	if start > offset {
		return
	}
	if offset <= start+n.segmentLength {
		*out = append(*out, n)
	}
	if n.links.Right != nil {
		c.searchContaining(n.links.Right, start, offset, out)
	}
}

// FindFirstStartingAfter returns the first segment starting at or after
// offset, or nil.
func (c *Collection[T]) FindFirstStartingAfter(offset int) *Segment[T] {
	var found *Segment[T]
	n, base := c.tree.Root, 0
	for n != nil {
		start := startOf(n, base)
		if start >= offset {
			found = n
			n = n.links.Left
		} else {
			base = start
			n = n.links.Right
		}
	}
	return found
}

// Next returns the segment following s, or nil.
func (c *Collection[T]) Next(s *Segment[T]) *Segment[T] {
	if s.owner != c {
		return nil
	}
	return c.tree.Successor(s)
}

// Previous returns the segment preceding s, or nil.
func (c *Collection[T]) Previous(s *Segment[T]) *Segment[T] {
	if s.owner != c {
		return nil
	}
	return c.tree.Predecessor(s)
}

// All iterates over the segments in start order. Add, Remove and setters
// fail with ErrIterationActive while the iteration runs.
func (c *Collection[T]) All() iter.Seq[*Segment[T]] {
	return func(yield func(*Segment[T]) bool) {
		c.iterating.Add(1)
		defer c.iterating.Add(-1)
		for s := c.tree.First(); s != nil; s = c.tree.Successor(s) {
			if !yield(s) {
				return
			}
		}
	}
}

// Connect makes c follow the changes of src until Disconnect is called.
func (c *Collection[T]) Connect(src change.Source) {
	c.Disconnect()
	c.unsubscribe = src.Subscribe(c)
}

// Disconnect stops following the connected source.
func (c *Collection[T]) Disconnect() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// DocumentChanged implements change.Listener.
func (c *Collection[T]) DocumentChanged(ev *change.Event) {
	c.UpdateOffsets(ev)
}

// UpdateOffsets moves, resizes and deletes segments for ev. It panics when
// called while All is iterating.
func (c *Collection[T]) UpdateOffsets(ev *change.Event) {
	if c.iterating.Load() > 0 {
		panic(ErrIterationActive)
	}
	var deleted []*Segment[T]
	for _, e := range ev.Entries() {
		if e.RemovalLength > 0 {
			deleted = c.removeText(e.Offset, e.RemovalLength, deleted)
		}
		if e.InsertionLength > 0 {
			c.insertText(e.Offset, e.InsertionLength)
		}
	}
	invariant.Check(c.CheckProperties)
	for _, s := range deleted {
		for _, fn := range s.onDeleted {
			fn(s)
		}
	}
}

func (c *Collection[T]) insertText(offset, length int) {
	for _, s := range c.FindContaining(offset) {
		if s.StartOffset() < offset {
			s.segmentLength += length
			c.update(s)
		}
	}
	if n := c.FindFirstStartingAfter(offset); n != nil {
		n.nodeLength += length
		c.update(n)
	}
}

func (c *Collection[T]) removeText(offset, length int, deleted []*Segment[T]) []*Segment[T] {
	end := offset + length
	for _, s := range c.FindOverlapping(offset, length) {
		start, segEnd := s.StartOffset(), s.EndOffset()
		switch {
		case start >= offset && segEnd <= end:
			c.remove(s)
			s.deleted = true
			deleted = append(deleted, s)
		case start < offset && segEnd <= end:
			s.segmentLength = offset - start
			c.update(s)
		case start < offset:
			s.segmentLength -= length
			c.update(s)
		default:
			// Overlaps the end of the removed range: keep the part after
			// it. Placed at end here, the shift below moves it to offset.
			c.remove(s)
			s.nodeLength = end
			s.segmentLength = segEnd - end
			c.add(s)
		}
	}
	if n := c.FindFirstStartingAfter(offset + 1); n != nil {
		n.nodeLength -= length
		c.update(n)
	}
	return deleted
}

// CheckProperties validates colouring, augmented data and ownership.
func (c *Collection[T]) CheckProperties() error {
	n := 0
	err := c.tree.CheckColors(func(s *Segment[T]) error {
		n++
		if s.owner != c {
			return invariant.Violation("segment owned by another collection")
		}
		if s.nodeLength < 0 || s.segmentLength < 0 {
			return invariant.Violation("negative segment data %d+%d", s.nodeLength, s.segmentLength)
		}
		total, maxEnd := s.totalNodeLength, s.distanceToMaxEnd
		s.totalNodeLength, s.distanceToMaxEnd = -1, -1
		// Recompute without propagating: the parent is checked on its own.
		parent := s.links.Parent
		s.links.Parent = nil
		c.update(s)
		s.links.Parent = parent
		if s.totalNodeLength != total || s.distanceToMaxEnd != maxEnd {
			got := [2]int{s.totalNodeLength, s.distanceToMaxEnd}
			s.totalNodeLength, s.distanceToMaxEnd = total, maxEnd
			return invariant.Violation("segment augmentation %v, want %v", [2]int{total, maxEnd}, got)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if n != c.count {
		return invariant.Violation("segment count %d, tree holds %d", c.count, n)
	}
	return nil
}
