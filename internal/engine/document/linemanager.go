package document

import (
	"slices"

	"github.com/dshills/textcore/internal/engine/change"
	"github.com/dshills/textcore/internal/engine/rbtree"
)

// lineManager keeps the line tree in sync with the rope. insert and remove
// run after the rope was updated and patch only the affected lines.
type lineManager struct {
	doc      *Document
	tree     *lineTree
	trackers []LineTracker
}

func (m *lineManager) charAt(offset int) rune {
	c, _ := m.doc.rope.At(offset)
	return c
}

// rebuild recreates all lines from the rope. The first line handle is kept.
func (m *lineManager) rebuild() {
	first := m.tree.First()
	var old []*Line
	for l := m.tree.Successor(first); l != nil; l = m.tree.Successor(l) {
		old = append(old, l)
	}
	for _, l := range old {
		l.deleted = true
		l.links = rbtree.Links[Line]{}
	}

	r := m.doc.rope
	lines := make([]*Line, 0, 1)
	line := first
	lastEnd := 0
	for pos, n := nextNewlineInRope(r, 0); pos >= 0; pos, n = nextNewlineInRope(r, lastEnd) {
		line.totalLength = pos + n - lastEnd
		line.delimiterLength = n
		lastEnd = pos + n
		lines = append(lines, line)
		line = &Line{doc: m.doc}
	}
	line.totalLength = r.Len() - lastEnd
	line.delimiterLength = 0
	lines = append(lines, line)

	m.tree.rebuild(lines)
	for _, t := range m.trackers {
		t.RebuildDocument()
	}
}

// remove updates the lines after length characters at offset were removed
// from the rope.
func (m *lineManager) remove(offset, length int) {
	if length == 0 {
		return
	}
	start := m.tree.byOffset(offset)
	startOffset := start.Offset()
	if offset > startOffset+start.Length() {
		// Removal starts between \r and \n: drop the \r half from this line.
		m.setLineLength(start, start.totalLength-1)
		if length == 1 {
			// Only the \n went; a "\n" line after the \r joins start.
			if next := m.tree.Successor(start); next != nil {
				m.setLineLength(next, next.totalLength)
			}
			return
		}
		m.remove(offset, length-1)
		return
	}
	if offset+length < startOffset+start.totalLength {
		m.setLineLength(start, start.totalLength-length)
		return
	}

	// The delimiter of start was removed; merge with the line that contains
	// the end of the removal, dropping everything in between.
	removedInStart := startOffset + start.totalLength - offset
	end := m.tree.byOffset(offset + length)
	if end == start {
		// Removal runs to the end of the document.
		m.setLineLength(start, start.totalLength-length)
		return
	}
	endOffset := end.Offset()
	leftInEnd := endOffset + end.totalLength - (offset + length)
	next := m.tree.Successor(start)
	for {
		victim := next
		next = m.tree.Successor(next)
		m.removeLine(victim)
		if victim == end {
			break
		}
	}
	m.setLineLength(start, start.totalLength-removedInStart+leftInEnd)
}

// insert updates the lines after text was inserted into the rope at offset.
func (m *lineManager) insert(offset int, text []rune) {
	line := m.tree.byOffset(offset)
	lineOffset := line.Offset()
	if offset > lineOffset+line.Length() {
		// Inserting between \r and \n: split the delimiter.
		m.setLineLength(line, line.totalLength-1)
		line = m.insertLineAfter(line, 1)
		line = m.setLineLength(line, 1)
	}

	pos, n := nextNewline(text, 0)
	if pos < 0 {
		m.setLineLength(line, line.totalLength+len(text))
		return
	}
	lastEnd := 0
	for pos >= 0 {
		breakOffset := offset + pos + n
		lineOffset = line.Offset()
		lengthAfter := lineOffset + line.totalLength - (offset + lastEnd)
		line = m.setLineLength(line, breakOffset-lineOffset)
		newLine := m.insertLineAfter(line, lengthAfter)
		line = m.setLineLength(newLine, lengthAfter)
		lastEnd = pos + n
		pos, n = nextNewline(text, lastEnd)
	}
	if lastEnd != len(text) {
		m.setLineLength(line, line.totalLength+len(text)-lastEnd)
	}
}

func (m *lineManager) insertLineAfter(line *Line, totalLength int) *Line {
	newLine := m.tree.insertLineAfter(line, totalLength)
	for _, t := range m.trackers {
		t.LineInserted(line, newLine)
	}
	return newLine
}

func (m *lineManager) removeLine(line *Line) {
	for _, t := range m.trackers {
		t.BeforeRemoveLine(line)
	}
	m.tree.removeLine(line)
}

// setLineLength changes the total length of line and recomputes its
// delimiter from the rope. A line consisting of a single \n that follows a
// \r is joined with the previous line; the surviving line is returned.
func (m *lineManager) setLineLength(line *Line, newTotalLength int) *Line {
	if newTotalLength != line.totalLength {
		for _, t := range m.trackers {
			t.SetLineLength(line, newTotalLength)
		}
		line.totalLength = newTotalLength
		updateLine(line)
	}

	if newTotalLength == 0 {
		line.delimiterLength = 0
		return line
	}
	lineOffset := line.Offset()
	switch m.charAt(lineOffset + newTotalLength - 1) {
	case '\r':
		line.delimiterLength = 1
	case '\n':
		switch {
		case newTotalLength >= 2 && m.charAt(lineOffset+newTotalLength-2) == '\r':
			line.delimiterLength = 2
		case newTotalLength == 1 && lineOffset > 0 && m.charAt(lineOffset-1) == '\r':
			prev := m.tree.Predecessor(line)
			m.removeLine(line)
			return m.setLineLength(prev, prev.totalLength+1)
		default:
			line.delimiterLength = 1
		}
	default:
		line.delimiterLength = 0
	}
	return line
}

func (m *lineManager) changeComplete(ev *change.Event) {
	for _, t := range m.trackers {
		t.ChangeComplete(ev)
	}
}

func (m *lineManager) addTracker(t LineTracker) {
	m.trackers = append(m.trackers, t)
}

func (m *lineManager) removeTracker(t LineTracker) bool {
	i := slices.Index(m.trackers, t)
	if i < 0 {
		return false
	}
	m.trackers = slices.Delete(m.trackers, i, i+1)
	return true
}
