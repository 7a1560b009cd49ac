// Package rbtree is the red-black balancing core shared by the augmented
// trees of the engine: the line tree, the anchor tree and the segment tree.
//
// The tree is intrusive. A node type embeds Links and exposes them through
// a Links method; the tree never allocates nodes. Augmented data is kept up
// to date by an update function the owner passes to Init. It is called
// whenever the children of a node change and must recompute the node's
// aggregate from its children, propagating to the parent when the aggregate
// changed.
//
//	type item struct {
//	    links rbtree.Links[item]
//	    size  int
//	    total int
//	}
//
//	func (it *item) Links() *rbtree.Links[item] { return &it.links }
//
//	var t rbtree.Tree[item, *item]
//	t.Init(func(n *item) { ... })
//
// Nodes keep their identity through every operation: removing a node with
// two children relinks its in-order successor into its place instead of
// moving payloads between nodes, so handles held by callers stay valid.
package rbtree
