package rope

import (
	"fmt"
	"sync/atomic"

	"github.com/dshills/textcore/internal/engine/invariant"
)

// Rope is a persistent sequence of elements stored in a balanced tree of
// fixed-size leaves.
//
// A Rope value is a mutable handle: Insert, RemoveRange and friends replace
// its root. Nodes are shared between ropes after Clone, GetRange, InsertRope
// or Concat; writes clone shared nodes along the modified path only, so
// other ropes never observe the change.
//
// A single Rope must not be written concurrently with any other access to it.
// Reads on a rope are lock-free and may run concurrently with reads of the
// same rope and with reads or writes of other ropes that share its nodes.
type Rope[T any] struct {
	root  *node[T]
	cache atomic.Pointer[leafCache[T]]
}

// leafCache remembers the leaf used by the last At call.
type leafCache[T any] struct {
	leaf  *node[T]
	start int
}

// New creates an empty rope.
func New[T any]() *Rope[T] {
	return &Rope[T]{root: newEmptyNode[T]()}
}

// FromSlice creates a rope holding a copy of items.
func FromSlice[T any](items []T) *Rope[T] {
	r := &Rope[T]{root: createFromSlice(items)}
	r.changed()
	return r
}

func fromNode[T any](root *node[T]) *Rope[T] {
	return &Rope[T]{root: root}
}

// Len returns the number of elements.
func (r *Rope[T]) Len() int {
	return r.root.length
}

// IsEmpty returns true if the rope has no elements.
func (r *Rope[T]) IsEmpty() bool {
	return r.root.length == 0
}

// Height returns the height of the tree; 0 for a rope stored in a single leaf.
func (r *Rope[T]) Height() int {
	return int(r.root.height)
}

// At returns the element at index.
// Returns the zero value and false if index is out of range.
func (r *Rope[T]) At(index int) (T, bool) {
	var zero T
	if uint(index) >= uint(r.root.length) {
		return zero, false
	}
	if c := r.cache.Load(); c != nil && index >= c.start && index < c.start+c.leaf.length {
		return c.leaf.contents[index-c.start], true
	}

	n, start := r.root, 0
	for n.height != 0 {
		if index-start < n.left.length {
			n = n.left
		} else {
			start += n.left.length
			n = n.right
		}
	}
	r.cache.Store(&leafCache[T]{leaf: n, start: start})
	return n.contents[index-start], true
}

// Set replaces the element at index.
func (r *Rope[T]) Set(index int, value T) error {
	if uint(index) >= uint(r.root.length) {
		return fmt.Errorf("set at %d of %d: %w", index, r.root.length, ErrIndexOutOfRange)
	}
	r.root = r.root.setElement(index, value)
	r.changed()
	return nil
}

// Insert inserts items at index.
func (r *Rope[T]) Insert(index int, items ...T) error {
	if index < 0 || index > r.root.length {
		return fmt.Errorf("insert at %d of %d: %w", index, r.root.length, ErrIndexOutOfRange)
	}
	if len(items) == 0 {
		return nil
	}
	r.root = r.root.insertItems(index, items)
	r.changed()
	return nil
}

// InsertRope inserts the contents of other at index. The nodes of other are
// published and shared, not copied.
func (r *Rope[T]) InsertRope(index int, other *Rope[T]) error {
	if other == nil {
		return fmt.Errorf("insert rope: %w", ErrNilRope)
	}
	if index < 0 || index > r.root.length {
		return fmt.Errorf("insert rope at %d of %d: %w", index, r.root.length, ErrIndexOutOfRange)
	}
	if other.root.length == 0 {
		return nil
	}
	other.root.publish()
	r.root = r.root.insertNode(index, other.root)
	r.changed()
	return nil
}

// Append adds items at the end.
func (r *Rope[T]) Append(items ...T) {
	if len(items) == 0 {
		return
	}
	r.root = r.root.insertItems(r.root.length, items)
	r.changed()
}

// AppendRope adds the contents of other at the end.
func (r *Rope[T]) AppendRope(other *Rope[T]) error {
	return r.InsertRope(r.root.length, other)
}

// RemoveRange removes count elements starting at index.
func (r *Rope[T]) RemoveRange(index, count int) error {
	if err := r.checkRange(index, count); err != nil {
		return fmt.Errorf("remove range: %w", err)
	}
	if count == 0 {
		return nil
	}
	r.root = r.root.removeRange(index, count)
	r.changed()
	return nil
}

// SetRange overwrites len(items) elements starting at index.
func (r *Rope[T]) SetRange(index int, items []T) error {
	if err := r.checkRange(index, len(items)); err != nil {
		return fmt.Errorf("set range: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	r.root = r.root.storeElements(index, items)
	r.changed()
	return nil
}

// Clear removes all elements.
func (r *Rope[T]) Clear() {
	r.root = newEmptyNode[T]()
	r.changed()
}

// Clone returns a rope with the same contents in O(1). Both ropes share all
// nodes; later writes to either rope clone what they touch.
//
// Clone publishes the tree, which is safe to do while other goroutines read
// this rope.
func (r *Rope[T]) Clone() *Rope[T] {
	r.root.publish()
	return fromNode(r.root)
}

// GetRange returns a rope holding count elements starting at index. The
// result shares nodes with r.
func (r *Rope[T]) GetRange(index, count int) (*Rope[T], error) {
	if err := r.checkRange(index, count); err != nil {
		return nil, fmt.Errorf("get range: %w", err)
	}
	result := r.Clone()
	end := index + count
	if err := result.RemoveRange(end, result.Len()-end); err != nil {
		return nil, err
	}
	if err := result.RemoveRange(0, index); err != nil {
		return nil, err
	}
	return result, nil
}

// Slice returns a copy of count elements starting at start.
func (r *Rope[T]) Slice(start, count int) ([]T, error) {
	if err := r.checkRange(start, count); err != nil {
		return nil, fmt.Errorf("slice: %w", err)
	}
	out := make([]T, count)
	r.root.copyTo(start, out)
	return out, nil
}

// CopyTo copies len(dst) elements starting at index into dst.
func (r *Rope[T]) CopyTo(index int, dst []T) error {
	if err := r.checkRange(index, len(dst)); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	r.root.copyTo(index, dst)
	return nil
}

// ToSlice returns all elements as a new slice.
func (r *Rope[T]) ToSlice() []T {
	out := make([]T, r.root.length)
	r.root.copyTo(0, out)
	return out
}

// Concat joins ropes into a new rope. The arguments are published and keep
// sharing their nodes with the result.
func Concat[T any](ropes ...*Rope[T]) *Rope[T] {
	root := newEmptyNode[T]()
	for _, other := range ropes {
		if other == nil {
			continue
		}
		other.root.publish()
		root = concatNodes(root, other.root)
	}
	result := fromNode(root)
	result.changed()
	return result
}

// CheckInvariants validates the tree structure: cached lengths and heights,
// AVL balance, leaf sizes and the shared-flag closure.
func (r *Rope[T]) CheckInvariants() error {
	return r.root.checkInvariants()
}

func (r *Rope[T]) checkRange(index, count int) error {
	if index < 0 || count < 0 || index > r.root.length-count {
		return fmt.Errorf("range [%d, %d+%d) of %d: %w", index, index, count, r.root.length, ErrIndexOutOfRange)
	}
	return nil
}

// changed drops cached lookups and, in debug builds, re-validates the tree.
func (r *Rope[T]) changed() {
	r.cache.Store(nil)
	invariant.Check(r.CheckInvariants)
}
