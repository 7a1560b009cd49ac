package rope

import "iter"

// All returns an iterator over index/element pairs in order.
// The rope must not be modified while iterating.
func (r *Rope[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		r.root.walk(0, r.root.length, 0, func(items []T, index int) bool {
			for i, item := range items {
				if !yield(index+i, item) {
					return false
				}
			}
			return true
		})
	}
}

// Range returns an iterator over the elements in [start, start+count).
// An invalid range yields nothing.
func (r *Rope[T]) Range(start, count int) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if r.checkRange(start, count) != nil {
			return
		}
		r.root.walk(start, count, 0, func(items []T, index int) bool {
			for i, item := range items {
				if !yield(index+i, item) {
					return false
				}
			}
			return true
		})
	}
}

// Leaves returns an iterator over the leaf buffers in order, each paired with
// the index of its first element. The slices alias rope storage and must not
// be modified or retained.
func (r *Rope[T]) Leaves() iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		r.root.walk(0, r.root.length, 0, func(items []T, index int) bool {
			return yield(index, items)
		})
	}
}

// IndexOf returns the index of the first occurrence of item in
// [start, start+count), or -1.
func IndexOf[T comparable](r *Rope[T], item T, start, count int) int {
	if r.checkRange(start, count) != nil {
		return -1
	}
	found := -1
	r.root.walk(start, count, 0, func(items []T, index int) bool {
		for i, v := range items {
			if v == item {
				found = index + i
				return false
			}
		}
		return true
	})
	return found
}

// IndexOfAny returns the index of the first element in [start, start+count)
// that equals any of anyOf, or -1.
func IndexOfAny[T comparable](r *Rope[T], anyOf []T, start, count int) int {
	if r.checkRange(start, count) != nil || len(anyOf) == 0 {
		return -1
	}
	found := -1
	r.root.walk(start, count, 0, func(items []T, index int) bool {
		for i, v := range items {
			for _, want := range anyOf {
				if v == want {
					found = index + i
					return false
				}
			}
		}
		return true
	})
	return found
}

// LastIndexOf returns the index of the last occurrence of item in
// [start, start+count), or -1.
func LastIndexOf[T comparable](r *Rope[T], item T, start, count int) int {
	if r.checkRange(start, count) != nil {
		return -1
	}
	found := -1
	r.root.walkBackward(start, count, 0, func(items []T, index int) bool {
		for i := len(items) - 1; i >= 0; i-- {
			if items[i] == item {
				found = index + i
				return false
			}
		}
		return true
	})
	return found
}
