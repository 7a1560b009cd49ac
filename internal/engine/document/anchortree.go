package document

import (
	"weak"

	"github.com/dshills/textcore/internal/engine/change"
	"github.com/dshills/textcore/internal/engine/invariant"
	"github.com/dshills/textcore/internal/engine/rbtree"
)

// anchorNode stores the distance from the previous node; summing lengths
// in order up to a node gives its anchor's offset.
type anchorNode struct {
	links       rbtree.Links[anchorNode]
	length      int
	totalLength int
	target      weak.Pointer[Anchor]
	marked      bool
	// removed is set once the node is unlinked; it is never queued again.
	removed bool
}

func (n *anchorNode) Links() *rbtree.Links[anchorNode] { return &n.links }

func (n *anchorNode) anchor() *Anchor { return n.target.Value() }

// anchorTree holds the anchors of a document. Nodes whose anchor was
// garbage collected are marked when a traversal sees them and removed in
// deleteMarkedNodes at the end of each public operation.
type anchorTree struct {
	rbtree.Tree[anchorNode, *anchorNode]
	doc      *Document
	toDelete []*anchorNode
}

func newAnchorTree(doc *Document) *anchorTree {
	t := &anchorTree{doc: doc}
	t.Init(t.update)
	return t
}

func (t *anchorTree) update(n *anchorNode) {
	if !n.removed && n.anchor() == nil {
		t.markForDelete(n)
	}
	total := n.length
	if n.links.Left != nil {
		total += n.links.Left.totalLength
	}
	if n.links.Right != nil {
		total += n.links.Right.totalLength
	}
	if total != n.totalLength {
		n.totalLength = total
		if n.links.Parent != nil {
			t.update(n.links.Parent)
		}
	}
}

func (t *anchorTree) markForDelete(n *anchorNode) {
	if !n.marked && !n.removed {
		n.marked = true
		t.toDelete = append(t.toDelete, n)
	}
}

// totalLength is the offset of the last anchor.
func (t *anchorTree) totalLength() int {
	if t.Root == nil {
		return 0
	}
	return t.Root.totalLength
}

// count returns the number of nodes, including ones whose anchor is gone.
func (t *anchorTree) count() int {
	n := 0
	t.All(func(*anchorNode) bool { n++; return true })
	return n
}

func (t *anchorTree) createAnchor(offset int, movement change.MovementType, survives bool) *Anchor {
	a := &Anchor{doc: t.doc, movement: movement, survivesDeletion: survives}
	node := &anchorNode{target: weak.Make(a)}
	a.node = node

	switch {
	case t.Root == nil:
		node.length, node.totalLength = offset, offset
		t.InsertFirst(node)
	case offset >= t.Root.totalLength:
		node.length = offset - t.Root.totalLength
		node.totalLength = node.length
		t.InsertAsRight(t.Last(), node)
	default:
		n, rel := t.findNode(offset)
		// Split n: the new node takes the first rel characters of its gap.
		node.length, node.totalLength = rel, rel
		n.length -= rel
		t.InsertBefore(n, node)
	}
	t.deleteMarkedNodes()
	return a
}

// findNode returns the node whose gap contains offset, and offset relative
// to the start of that gap. Dead nodes passed on the way are marked.
func (t *anchorTree) findNode(offset int) (*anchorNode, int) {
	n := t.Root
	for n != nil {
		if n.links.Left != nil {
			if offset < n.links.Left.totalLength {
				n = n.links.Left
				continue
			}
			offset -= n.links.Left.totalLength
		}
		if n.anchor() == nil {
			t.markForDelete(n)
		}
		if offset < n.length {
			return n, offset
		}
		offset -= n.length
		n = n.links.Right
	}
	return nil, offset
}

// firstAtOffset walks back from n over nodes with zero length and returns
// the first node of the run of anchors sharing n's offset.
func (t *anchorTree) firstAtOffset(n *anchorNode) *anchorNode {
	for n != nil && n.length == 0 {
		n = t.Predecessor(n)
	}
	if n == nil {
		return t.First()
	}
	return n
}

func (t *anchorTree) insertText(offset, length int, defaultBefore bool) {
	if length == 0 || t.Root == nil || offset > t.Root.totalLength {
		return
	}
	if offset == t.Root.totalLength {
		t.performInsertText(t.firstAtOffset(t.Last()), nil, length, defaultBefore)
	} else {
		end, rel := t.findNode(offset)
		if rel > 0 {
			// No anchor sits exactly at offset.
			end.length += length
			t.update(end)
		} else {
			t.performInsertText(t.firstAtOffset(t.Predecessor(end)), end, length, defaultBefore)
		}
	}
	t.deleteMarkedNodes()
}

// performInsertText reorders the anchors of the node range [begin, end),
// which all share one offset, so that anchors staying in front of the
// insertion come first, and adds length in front of the first anchor moving
// behind it. Anchors move between nodes; nodes keep their place.
func (t *anchorTree) performInsertText(begin, end *anchorNode, length int, defaultBefore bool) {
	var before []*anchorNode
	for n := begin; n != end; n = t.Successor(n) {
		a := n.anchor()
		switch {
		case a == nil:
			t.markForDelete(n)
		case defaultBefore && a.movement != change.AfterInsertion,
			!defaultBefore && a.movement == change.BeforeInsertion:
			before = append(before, n)
		}
	}
	n := begin
	for _, b := range before {
		t.swapAnchors(b, n)
		n = t.Successor(n)
	}
	if n != nil {
		n.length += length
		t.update(n)
	}
}

func (t *anchorTree) swapAnchors(n1, n2 *anchorNode) {
	if n1 == n2 {
		return
	}
	a1, a2 := n1.anchor(), n2.anchor()
	if a1 == nil && a2 == nil {
		return
	}
	n1.target, n2.target = n2.target, n1.target
	switch {
	case a1 == nil:
		n1.marked = false
		t.markForDelete(n2)
		a2.node = n1
	case a2 == nil:
		n2.marked = false
		t.markForDelete(n1)
		a1.node = n2
	default:
		a1.node = n2
		a2.node = n1
	}
}

// handleTextChange moves, collapses or deletes anchors for one map entry.
func (t *anchorTree) handleTextChange(e change.MapEntry, events *delayedEvents) {
	if e.RemovalLength == 0 {
		// Pure insertions may split anchors sharing the offset, which the
		// removal path below cannot do.
		t.insertText(e.Offset, e.InsertionLength, e.DefaultMovementIsBeforeInsertion)
		return
	}
	if t.Root == nil || e.Offset >= t.Root.totalLength {
		return
	}

	node, rel := t.findNode(e.Offset)
	remaining := e.RemovalLength
	var firstSurvivor *anchorNode
	for node != nil && rel+remaining > node.length {
		a := node.anchor()
		if a != nil && (a.survivesDeletion || e.RemovalNeverCausesAnchorDeletion) {
			// Collapse the survivor to the start of the removed range.
			if firstSurvivor == nil {
				firstSurvivor = node
			}
			remaining -= node.length - rel
			node.length = rel
			rel = 0
			t.update(node)
			node = t.Successor(node)
			continue
		}
		next := t.Successor(node)
		remaining -= node.length
		node.removed = true
		t.Remove(node)
		if a != nil {
			a.markDeleted(events)
		}
		node = next
	}
	// node is the first anchor behind the removed range, if any. The
	// survivors are the nodes in [firstSurvivor, node).
	if node != nil {
		node.length -= remaining
	}
	if e.InsertionLength > 0 {
		if firstSurvivor != nil {
			t.performInsertText(firstSurvivor, node, e.InsertionLength, e.DefaultMovementIsBeforeInsertion)
		} else if node != nil {
			node.length += e.InsertionLength
		}
	}
	if node != nil {
		t.update(node)
	}
	t.deleteMarkedNodes()
}

// deleteMarkedNodes folds the gap of every marked node into its successor
// and unlinks it.
func (t *anchorTree) deleteMarkedNodes() {
	for len(t.toDelete) > 0 {
		last := len(t.toDelete) - 1
		n := t.toDelete[last]
		t.toDelete = t.toDelete[:last]
		if !n.marked || n.removed {
			continue
		}
		if n.anchor() != nil {
			// Revived by a swap after it was marked.
			n.marked = false
			continue
		}
		s := t.Successor(n)
		n.removed = true
		t.Remove(n)
		if s != nil {
			s.length += n.length
			t.update(s)
		}
	}
	invariant.Check(t.checkProperties)
}

// collect marks every node whose anchor was garbage collected and removes
// them. It returns the number of nodes removed.
func (t *anchorTree) collect() int {
	before := t.count()
	t.All(func(n *anchorNode) bool {
		if n.anchor() == nil {
			t.markForDelete(n)
		}
		return true
	})
	t.deleteMarkedNodes()
	return before - t.count()
}

func (t *anchorTree) checkProperties() error {
	return t.CheckColors(func(n *anchorNode) error {
		total := n.length
		if n.links.Left != nil {
			total += n.links.Left.totalLength
		}
		if n.links.Right != nil {
			total += n.links.Right.totalLength
		}
		if total != n.totalLength {
			return invariant.Violation("anchor total length %d != %d", n.totalLength, total)
		}
		if n.length < 0 {
			return invariant.Violation("negative anchor gap %d", n.length)
		}
		if a := n.anchor(); a != nil && a.node != n {
			return invariant.Violation("anchor points to a different node")
		}
		return nil
	})
}
