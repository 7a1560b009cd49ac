// Package rope provides a persistent rope for efficient storage of large,
// frequently edited sequences such as document text.
//
// A rope is a binary tree whose leaves hold up to NodeSize elements and whose
// concat nodes cache the length and height of their subtree. The tree is kept
// AVL-balanced; after every rotation a concat node whose content fits into one
// leaf is merged back into a leaf, so edits never fragment the rope into many
// tiny nodes.
//
// Key features:
//   - O(log n) element access, O(log n + m) insert, remove and slice
//   - Structural sharing: Clone, GetRange and Concat are cheap and never copy
//     element data; writes clone only the shared nodes on their path
//   - Lock-free reads that may run concurrently with writes on other ropes
//     derived from the same snapshot
//
// Basic usage:
//
//	r := rope.FromString("hello world")
//	_ = r.Insert(5, []rune(",")...)    // "hello, world"
//	snap := r.Clone()                  // O(1) snapshot
//	_ = r.RemoveRange(0, 7)            // "world"
//	text := rope.String(snap)          // "hello, world"
package rope
