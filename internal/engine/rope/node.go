package rope

import (
	"sync/atomic"

	"github.com/dshills/textcore/internal/engine/invariant"
)

// NodeSize is the number of elements a leaf node can hold.
const NodeSize = 256

// node is either a leaf (height == 0) holding up to NodeSize elements in
// contents, or a concat node (height > 0) joining two subtrees.
//
// A node marked shared may be reachable from several ropes and is never
// mutated again; writers clone it first. Unshared nodes belong to exactly one
// rope and are modified in place.
type node[T any] struct {
	left, right *node[T]
	shared      atomic.Bool
	length      int
	height      uint8
	contents    []T // len == NodeSize for leaves; nil for concat nodes and the empty node
}

// newEmptyNode returns the shared, zero-length leaf used for empty ropes.
func newEmptyNode[T any]() *node[T] {
	n := &node[T]{}
	n.shared.Store(true)
	return n
}

func (n *node[T]) balance() int {
	return int(n.right.height) - int(n.left.height)
}

// clone creates an unshared shallow copy. Leaves get their own buffer;
// concat nodes keep pointing at the (shared) children.
func (n *node[T]) clone() *node[T] {
	if n.height == 0 {
		contents := make([]T, NodeSize)
		copy(contents, n.contents[:n.length])
		return &node[T]{length: n.length, contents: contents}
	}
	return &node[T]{left: n.left, right: n.right, length: n.length, height: n.height}
}

func (n *node[T]) cloneIfShared() *node[T] {
	if n.shared.Load() {
		return n.clone()
	}
	return n
}

// publish marks the whole subtree as shared. The node's own flag is set
// last so that publish does not return before every descendant is marked,
// even if it races with another publish of the same subtree.
func (n *node[T]) publish() {
	if n.shared.Load() {
		return
	}
	if n.left != nil {
		n.left.publish()
	}
	if n.right != nil {
		n.right.publish()
	}
	n.shared.Store(true)
}

// createFromSlice builds a perfectly balanced subtree holding a copy of items.
func createFromSlice[T any](items []T) *node[T] {
	if len(items) == 0 {
		return newEmptyNode[T]()
	}
	n := createNodes[T](len(items))
	return n.storeElements(0, items)
}

func createNodes[T any](totalLength int) *node[T] {
	leafCount := (totalLength + NodeSize - 1) / NodeSize
	return createNodesWithLeaves[T](leafCount, totalLength)
}

func createNodesWithLeaves[T any](leafCount, totalLength int) *node[T] {
	result := &node[T]{length: totalLength}
	if leafCount == 1 {
		result.contents = make([]T, NodeSize)
		return result
	}
	rightSide := leafCount / 2
	leftSide := leafCount - rightSide
	leftLength := leftSide * NodeSize
	result.left = createNodesWithLeaves[T](leftSide, leftLength)
	result.right = createNodesWithLeaves[T](rightSide, totalLength-leftLength)
	result.height = 1 + max(result.left.height, result.right.height)
	return result
}

// rebalance restores the AVL property after one of the children changed.
// It must only be called on unshared nodes.
func (n *node[T]) rebalance() {
	if n.left == nil {
		return
	}
	// Rotations may merge small leaves, which changes heights again, so
	// loop until balanced.
	for n.balance() > 1 || n.balance() < -1 {
		if n.balance() > 1 {
			if n.right.balance() < 0 {
				n.right = n.right.cloneIfShared()
				n.right.rotateRight()
			}
			n.rotateLeft()
			n.left.rebalance()
		} else {
			if n.left.balance() > 0 {
				n.left = n.left.cloneIfShared()
				n.left.rotateLeft()
			}
			n.rotateRight()
			n.right.rebalance()
		}
	}
	n.height = 1 + max(n.left.height, n.right.height)
}

// rotateLeft turns (A, (B, C)) into ((A, B), C).
func (n *node[T]) rotateLeft() {
	a, b, c := n.left, n.right.left, n.right.right
	pivot := n.right
	if pivot.shared.Load() {
		pivot = &node[T]{}
	}
	pivot.left, pivot.right = a, b
	pivot.length = a.length + b.length
	pivot.height = 1 + max(a.height, b.height)
	n.left = pivot
	n.right = c
	pivot.mergeIfPossible()
}

// rotateRight turns ((A, B), C) into (A, (B, C)).
func (n *node[T]) rotateRight() {
	a, b, c := n.left.left, n.left.right, n.right
	pivot := n.left
	if pivot.shared.Load() {
		pivot = &node[T]{}
	}
	pivot.left, pivot.right = b, c
	pivot.length = b.length + c.length
	pivot.height = 1 + max(b.height, c.height)
	n.right = pivot
	n.left = a
	pivot.mergeIfPossible()
}

// mergeIfPossible converts a concat node whose content fits into a single
// leaf back into a leaf.
func (n *node[T]) mergeIfPossible() {
	if n.length > NodeSize {
		return
	}
	leftLength := n.left.length
	if n.left.shared.Load() {
		n.contents = make([]T, NodeSize)
		n.left.copyTo(0, n.contents[:leftLength])
	} else {
		// An unshared node this short is a leaf; take over its buffer.
		n.contents = n.left.contents
	}
	n.right.copyTo(0, n.contents[leftLength:leftLength+n.right.length])
	n.left, n.right = nil, nil
	n.height = 0
}

// storeElements overwrites len(items) elements starting at index.
func (n *node[T]) storeElements(index int, items []T) *node[T] {
	result := n.cloneIfShared()
	if result.height == 0 {
		copy(result.contents[index:], items)
		return result
	}
	leftLength := result.left.length
	switch {
	case index+len(items) <= leftLength:
		result.left = result.left.storeElements(index, items)
	case index >= leftLength:
		result.right = result.right.storeElements(index-leftLength, items)
	default:
		inLeft := leftLength - index
		result.left = result.left.storeElements(index, items[:inLeft])
		result.right = result.right.storeElements(0, items[inLeft:])
	}
	result.rebalance()
	return result
}

// copyTo copies len(dst) elements starting at index into dst.
func (n *node[T]) copyTo(index int, dst []T) {
	count := len(dst)
	if count == 0 {
		return
	}
	if n.height == 0 {
		copy(dst, n.contents[index:index+count])
		return
	}
	leftLength := n.left.length
	switch {
	case index+count <= leftLength:
		n.left.copyTo(index, dst)
	case index >= leftLength:
		n.right.copyTo(index-leftLength, dst)
	default:
		inLeft := leftLength - index
		n.left.copyTo(index, dst[:inLeft])
		n.right.copyTo(0, dst[inLeft:])
	}
}

func (n *node[T]) setElement(offset int, value T) *node[T] {
	result := n.cloneIfShared()
	if result.height == 0 {
		result.contents[offset] = value
		return result
	}
	if offset < result.left.length {
		result.left = result.left.setElement(offset, value)
	} else {
		result.right = result.right.setElement(offset-result.left.length, value)
	}
	result.rebalance()
	return result
}

func concatNodes[T any](left, right *node[T]) *node[T] {
	if left.length == 0 {
		return right
	}
	if right.length == 0 {
		return left
	}
	if left.length+right.length <= NodeSize {
		// Both sides are too short to be concat nodes.
		left = left.cloneIfShared()
		right.copyTo(0, left.contents[left.length:left.length+right.length])
		left.length += right.length
		return left
	}
	c := &node[T]{left: left, right: right, length: left.length + right.length}
	c.rebalance()
	return c
}

// splitAfter cuts an unshared leaf at offset and returns the tail as a new leaf.
func (n *node[T]) splitAfter(offset int) *node[T] {
	tail := &node[T]{contents: make([]T, NodeSize), length: n.length - offset}
	copy(tail.contents, n.contents[offset:n.length])
	clear(n.contents[offset:n.length])
	n.length = offset
	return tail
}

// insertNode inserts a published subtree at offset.
func (n *node[T]) insertNode(offset int, inserted *node[T]) *node[T] {
	if offset == 0 {
		return concatNodes(inserted, n)
	}
	if offset == n.length {
		return concatNodes(n, inserted)
	}
	result := n.cloneIfShared()
	if result.height == 0 {
		tail := result.splitAfter(offset)
		return concatNodes(concatNodes(result, inserted), tail)
	}
	if offset < result.left.length {
		result.left = result.left.insertNode(offset, inserted)
	} else {
		result.right = result.right.insertNode(offset-result.left.length, inserted)
	}
	result.length += inserted.length
	result.rebalance()
	return result
}

func (n *node[T]) insertItems(offset int, items []T) *node[T] {
	count := len(items)
	if n.length+count < NodeSize {
		// Fits into a single leaf; n cannot be a concat node here.
		result := n.cloneIfShared()
		copy(result.contents[offset+count:], result.contents[offset:result.length])
		copy(result.contents[offset:], items)
		result.length += count
		return result
	}
	if n.height == 0 {
		return n.insertNode(offset, createFromSlice(items))
	}
	result := n.cloneIfShared()
	if offset < result.left.length {
		result.left = result.left.insertItems(offset, items)
	} else {
		result.right = result.right.insertItems(offset-result.left.length, items)
	}
	result.length += count
	result.rebalance()
	return result
}

func (n *node[T]) removeRange(index, count int) *node[T] {
	if index == 0 && count == n.length {
		return newEmptyNode[T]()
	}
	end := index + count
	result := n.cloneIfShared()
	if result.height == 0 {
		copy(result.contents[index:], result.contents[end:result.length])
		clear(result.contents[result.length-count : result.length])
		result.length -= count
		return result
	}
	leftLength := result.left.length
	switch {
	case end <= leftLength:
		result.left = result.left.removeRange(index, count)
	case index >= leftLength:
		result.right = result.right.removeRange(index-leftLength, count)
	default:
		inLeft := leftLength - index
		result.left = result.left.removeRange(index, inLeft)
		result.right = result.right.removeRange(0, count-inLeft)
	}
	// Drop children that became empty.
	if result.left.length == 0 {
		return result.right
	}
	if result.right.length == 0 {
		return result.left
	}
	result.length -= count
	result.mergeIfPossible()
	result.rebalance()
	return result
}

// walk calls fn for the elements of every leaf overlapping
// [start, start+count), passing the absolute index of the first element.
// It stops early when fn returns false and reports whether it completed.
func (n *node[T]) walk(start, count, base int, fn func(items []T, index int) bool) bool {
	if count <= 0 {
		return true
	}
	if n.height == 0 {
		return fn(n.contents[start:start+count], base+start)
	}
	leftLength := n.left.length
	if start < leftLength {
		inLeft := min(count, leftLength-start)
		if !n.left.walk(start, inLeft, base, fn) {
			return false
		}
		count -= inLeft
		start = leftLength
	}
	if count > 0 {
		return n.right.walk(start-leftLength, count, base+leftLength, fn)
	}
	return true
}

// walkBackward is walk in reverse element order; fn receives leaf slices
// from the end of the range towards its start.
func (n *node[T]) walkBackward(start, count, base int, fn func(items []T, index int) bool) bool {
	if count <= 0 {
		return true
	}
	if n.height == 0 {
		return fn(n.contents[start:start+count], base+start)
	}
	leftLength := n.left.length
	end := start + count
	if end > leftLength {
		from := max(start, leftLength)
		if !n.right.walkBackward(from-leftLength, end-from, base+leftLength, fn) {
			return false
		}
		end = from
	}
	if end > start {
		return n.left.walkBackward(start, end-start, base, fn)
	}
	return true
}

func (n *node[T]) checkInvariants() error {
	if n.height == 0 {
		if n.left != nil || n.right != nil {
			return invariant.Violation("leaf has children")
		}
		if n.length < 0 || n.length > NodeSize {
			return invariant.Violation("leaf length %d outside [0, %d]", n.length, NodeSize)
		}
		if n.contents == nil && n.length != 0 {
			return invariant.Violation("leaf of length %d has no buffer", n.length)
		}
		if n.contents != nil && len(n.contents) != NodeSize {
			return invariant.Violation("leaf buffer has size %d", len(n.contents))
		}
		return nil
	}
	if n.left == nil || n.right == nil {
		return invariant.Violation("concat node missing a child")
	}
	if n.contents != nil {
		return invariant.Violation("concat node holds contents")
	}
	if n.length != n.left.length+n.right.length {
		return invariant.Violation("concat length %d != %d + %d", n.length, n.left.length, n.right.length)
	}
	if n.height != 1+max(n.left.height, n.right.height) {
		return invariant.Violation("concat height %d, children %d/%d", n.height, n.left.height, n.right.height)
	}
	if b := n.balance(); b > 1 || b < -1 {
		return invariant.Violation("concat node unbalanced (balance %d)", b)
	}
	if n.length <= NodeSize {
		return invariant.Violation("concat node of length %d should be a leaf", n.length)
	}
	if n.shared.Load() && (!n.left.shared.Load() || !n.right.shared.Load()) {
		return invariant.Violation("shared node has unshared child")
	}
	if err := n.left.checkInvariants(); err != nil {
		return err
	}
	return n.right.checkInvariants()
}
