package segment

import (
	"fmt"

	"github.com/dshills/textcore/internal/engine/rbtree"
)

// Segment is a range of text carrying a value. While the segment is in a
// Collection its offsets follow the edits the collection is told about.
type Segment[T any] struct {
	Value T

	links rbtree.Links[Segment[T]]

	// In a collection, nodeLength is the distance from the start of the
	// previous segment. Outside, it is the absolute start offset.
	nodeLength    int
	segmentLength int

	// Augmented data.
	totalNodeLength  int
	distanceToMaxEnd int

	owner     *Collection[T]
	deleted   bool
	onDeleted []func(*Segment[T])
}

// New creates a segment covering [start, start+length).
func New[T any](start, length int, value T) *Segment[T] {
	return &Segment[T]{Value: value, nodeLength: max(start, 0), segmentLength: max(length, 0)}
}

// Links implements rbtree.Node.
func (s *Segment[T]) Links() *rbtree.Links[Segment[T]] { return &s.links }

// Collection returns the collection holding the segment, or nil.
func (s *Segment[T]) Collection() *Collection[T] { return s.owner }

// StartOffset returns the offset of the first character.
func (s *Segment[T]) StartOffset() int {
	if s.owner == nil {
		return s.nodeLength
	}
	off := s.nodeLength
	if s.links.Left != nil {
		off += s.links.Left.totalNodeLength
	}
	for n := s; n.links.Parent != nil; n = n.links.Parent {
		p := n.links.Parent
		if n == p.links.Right {
			if p.links.Left != nil {
				off += p.links.Left.totalNodeLength
			}
			off += p.nodeLength
		}
	}
	return off
}

// Length returns the number of characters covered.
func (s *Segment[T]) Length() int { return s.segmentLength }

// EndOffset returns the offset just past the last character.
func (s *Segment[T]) EndOffset() int { return s.StartOffset() + s.segmentLength }

// IsDeleted reports whether an edit removed all text of the segment and
// with it the segment from its collection.
func (s *Segment[T]) IsDeleted() bool { return s.deleted }

// OnDeleted registers fn to be called when an edit deletes the segment.
func (s *Segment[T]) OnDeleted(fn func(*Segment[T])) {
	s.onDeleted = append(s.onDeleted, fn)
}

// SetStartOffset moves the segment, keeping its length.
func (s *Segment[T]) SetStartOffset(start int) error {
	if start < 0 {
		return fmt.Errorf("start %d: %w", start, ErrInvalidSegment)
	}
	c := s.owner
	if c == nil {
		s.nodeLength = start
		return nil
	}
	if c.iterating.Load() > 0 {
		return ErrIterationActive
	}
	c.remove(s)
	s.nodeLength = start
	c.add(s)
	return nil
}

// SetLength changes the length, keeping the start.
func (s *Segment[T]) SetLength(length int) error {
	if length < 0 {
		return fmt.Errorf("length %d: %w", length, ErrInvalidSegment)
	}
	if c := s.owner; c != nil {
		if c.iterating.Load() > 0 {
			return ErrIterationActive
		}
		s.segmentLength = length
		c.update(s)
		return nil
	}
	s.segmentLength = length
	return nil
}

// SetEndOffset changes the length so that the segment ends at end.
func (s *Segment[T]) SetEndOffset(end int) error {
	start := s.StartOffset()
	if end < start {
		return fmt.Errorf("end %d before start %d: %w", end, start, ErrInvalidSegment)
	}
	return s.SetLength(end - start)
}

func (s *Segment[T]) String() string {
	return fmt.Sprintf("[Segment %d+%d %v]", s.StartOffset(), s.segmentLength, s.Value)
}
