package document

import (
	"fmt"

	"github.com/dshills/textcore/internal/engine/invariant"
	"github.com/dshills/textcore/internal/engine/rbtree"
)

// Line is a line of a document, including its delimiter. A Line is a node
// of the document's line tree: the handle stays valid while the line exists
// and reports -1 for Number and Offset once the line was merged away.
type Line struct {
	links rbtree.Links[Line]

	// Augmented data: number of lines and sum of total lengths in the
	// subtree rooted here.
	subtreeCount       int
	subtreeTotalLength int

	totalLength     int
	delimiterLength int
	deleted         bool
	doc             *Document
}

// Links implements rbtree.Node.
func (l *Line) Links() *rbtree.Links[Line] { return &l.links }

// Number returns the 1-based line number, or -1 for a deleted line.
func (l *Line) Number() int {
	if l.deleted {
		return -1
	}
	n := 1
	if l.links.Left != nil {
		n += l.links.Left.subtreeCount
	}
	for node := l; node.links.Parent != nil; node = node.links.Parent {
		p := node.links.Parent
		if node == p.links.Right {
			if p.links.Left != nil {
				n += p.links.Left.subtreeCount
			}
			n++
		}
	}
	return n
}

// Offset returns the offset of the first character, or -1 for a deleted
// line.
func (l *Line) Offset() int {
	if l.deleted {
		return -1
	}
	off := 0
	if l.links.Left != nil {
		off += l.links.Left.subtreeTotalLength
	}
	for node := l; node.links.Parent != nil; node = node.links.Parent {
		p := node.links.Parent
		if node == p.links.Right {
			if p.links.Left != nil {
				off += p.links.Left.subtreeTotalLength
			}
			off += p.totalLength
		}
	}
	return off
}

// Length returns the length of the line without its delimiter.
func (l *Line) Length() int { return l.totalLength - l.delimiterLength }

// TotalLength returns the length of the line including its delimiter.
func (l *Line) TotalLength() int { return l.totalLength }

// DelimiterLength returns 0 for the last line and 1 or 2 otherwise.
func (l *Line) DelimiterLength() int { return l.delimiterLength }

// EndOffset returns the offset just past the line content, before the
// delimiter.
func (l *Line) EndOffset() int {
	if l.deleted {
		return -1
	}
	return l.Offset() + l.Length()
}

// IsDeleted reports whether the line was removed from the document.
func (l *Line) IsDeleted() bool { return l.deleted }

// Next returns the following line, or nil for the last or a deleted line.
func (l *Line) Next() *Line {
	if l.deleted {
		return nil
	}
	return l.doc.lines.Successor(l)
}

// Previous returns the preceding line, or nil for the first or a deleted
// line.
func (l *Line) Previous() *Line {
	if l.deleted {
		return nil
	}
	return l.doc.lines.Predecessor(l)
}

func (l *Line) String() string {
	if l.deleted {
		return "[Line deleted]"
	}
	return fmt.Sprintf("[Line %d offset=%d length=%d delimiter=%d]",
		l.Number(), l.Offset(), l.Length(), l.delimiterLength)
}

// lineTree indexes lines by number and by offset.
type lineTree struct {
	rbtree.Tree[Line, *Line]
}

func newLineTree(doc *Document) *lineTree {
	t := &lineTree{}
	t.Init(updateLine)
	t.InsertFirst(&Line{doc: doc})
	return t
}

func updateLine(l *Line) {
	count, total := 1, l.totalLength
	if l.links.Left != nil {
		count += l.links.Left.subtreeCount
		total += l.links.Left.subtreeTotalLength
	}
	if l.links.Right != nil {
		count += l.links.Right.subtreeCount
		total += l.links.Right.subtreeTotalLength
	}
	if count != l.subtreeCount || total != l.subtreeTotalLength {
		l.subtreeCount = count
		l.subtreeTotalLength = total
		if l.links.Parent != nil {
			updateLine(l.links.Parent)
		}
	}
}

func (t *lineTree) count() int {
	return t.Root.subtreeCount
}

func (t *lineTree) totalLength() int {
	return t.Root.subtreeTotalLength
}

// byIndex returns the line with the 0-based index, which must be valid.
func (t *lineTree) byIndex(index int) *Line {
	n := t.Root
	for {
		if n.links.Left != nil && index < n.links.Left.subtreeCount {
			n = n.links.Left
			continue
		}
		if n.links.Left != nil {
			index -= n.links.Left.subtreeCount
		}
		if index == 0 {
			return n
		}
		index--
		n = n.links.Right
	}
}

// byOffset returns the line containing offset. The end offset of the
// document belongs to the last line.
func (t *lineTree) byOffset(offset int) *Line {
	if offset == t.Root.subtreeTotalLength {
		return t.Last()
	}
	n := t.Root
	for {
		if n.links.Left != nil && offset < n.links.Left.subtreeTotalLength {
			n = n.links.Left
			continue
		}
		if n.links.Left != nil {
			offset -= n.links.Left.subtreeTotalLength
		}
		offset -= n.totalLength
		if offset < 0 {
			return n
		}
		n = n.links.Right
	}
}

func (t *lineTree) insertLineAfter(line *Line, totalLength int) *Line {
	newLine := &Line{totalLength: totalLength, doc: line.doc}
	newLine.subtreeCount = 1
	newLine.subtreeTotalLength = totalLength
	t.InsertAfter(line, newLine)
	return newLine
}

func (t *lineTree) removeLine(line *Line) {
	t.Remove(line)
	line.deleted = true
}

// rebuild replaces the tree contents with lines in O(n).
func (t *lineTree) rebuild(lines []*Line) {
	for _, l := range lines {
		l.deleted = false
		l.subtreeCount = 0
		l.subtreeTotalLength = 0
	}
	t.Build(lines)
}

func (t *lineTree) checkProperties() error {
	if t.Root == nil {
		return invariant.Violation("line tree is empty")
	}
	return t.CheckColors(func(l *Line) error {
		count, total := 1, l.totalLength
		if l.links.Left != nil {
			count += l.links.Left.subtreeCount
			total += l.links.Left.subtreeTotalLength
		}
		if l.links.Right != nil {
			count += l.links.Right.subtreeCount
			total += l.links.Right.subtreeTotalLength
		}
		if count != l.subtreeCount || total != l.subtreeTotalLength {
			return invariant.Violation("line augmentation (%d, %d) != (%d, %d)",
				l.subtreeCount, l.subtreeTotalLength, count, total)
		}
		if l.deleted {
			return invariant.Violation("deleted line in tree")
		}
		if l.delimiterLength < 0 || l.delimiterLength > 2 || l.delimiterLength > l.totalLength {
			return invariant.Violation("bad delimiter length %d", l.delimiterLength)
		}
		return nil
	})
}
