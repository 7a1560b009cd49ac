package document

import (
	"fmt"

	"github.com/dshills/textcore/internal/engine/change"
)

// Anchor marks a position in a document and moves with the text around it.
//
// The document holds anchors weakly: an anchor that is no longer referenced
// anywhere else is reclaimed by the garbage collector and silently dropped
// from the anchor tree.
type Anchor struct {
	doc              *Document
	node             *anchorNode
	movement         change.MovementType
	survivesDeletion bool
	onDeleted        []func(*Anchor)
}

// Document returns the document the anchor belongs to.
func (a *Anchor) Document() *Document { return a.doc }

// Offset returns the current offset, or -1 once the anchor was deleted.
func (a *Anchor) Offset() int {
	n := a.node
	if n == nil {
		return -1
	}
	off := n.length
	if n.links.Left != nil {
		off += n.links.Left.totalLength
	}
	for ; n.links.Parent != nil; n = n.links.Parent {
		p := n.links.Parent
		if n == p.links.Right {
			if p.links.Left != nil {
				off += p.links.Left.totalLength
			}
			off += p.length
		}
	}
	return off
}

// IsDeleted reports whether the text containing the anchor was removed.
func (a *Anchor) IsDeleted() bool { return a.node == nil }

// Line returns the 1-based line number, or -1 once deleted.
func (a *Anchor) Line() int {
	off := a.Offset()
	if off < 0 {
		return -1
	}
	return a.doc.lines.byOffset(off).Number()
}

// Column returns the 1-based column, or -1 once deleted.
func (a *Anchor) Column() int {
	off := a.Offset()
	if off < 0 {
		return -1
	}
	return off - a.doc.lines.byOffset(off).Offset() + 1
}

// Location returns line and column, or the zero Location once deleted.
func (a *Anchor) Location() Location {
	off := a.Offset()
	if off < 0 {
		return Location{}
	}
	loc, _ := a.doc.Location(off)
	return loc
}

// MovementType returns how the anchor moves when text is inserted at it.
func (a *Anchor) MovementType() change.MovementType { return a.movement }

// SetMovementType changes how the anchor moves when text is inserted at it.
func (a *Anchor) SetMovementType(m change.MovementType) { a.movement = m }

// SurvivesDeletion reports whether the anchor moves to the start of a
// removed range containing it instead of being deleted.
func (a *Anchor) SurvivesDeletion() bool { return a.survivesDeletion }

// SetSurvivesDeletion changes the deletion policy of the anchor.
func (a *Anchor) SetSurvivesDeletion(v bool) { a.survivesDeletion = v }

// OnDeleted registers fn to be called when the anchor is deleted. The
// callback runs after the document finished updating its indexes.
func (a *Anchor) OnDeleted(fn func(*Anchor)) {
	a.onDeleted = append(a.onDeleted, fn)
}

func (a *Anchor) markDeleted(events *delayedEvents) {
	a.node = nil
	if len(a.onDeleted) == 0 {
		return
	}
	events.add(func() {
		for _, fn := range a.onDeleted {
			fn(a)
		}
	})
}

func (a *Anchor) String() string {
	if a.node == nil {
		return "[Anchor deleted]"
	}
	return fmt.Sprintf("[Anchor offset=%d movement=%s]", a.Offset(), a.movement)
}
