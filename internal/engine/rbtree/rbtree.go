package rbtree

import "github.com/dshills/textcore/internal/engine/invariant"

// Links holds the tree pointers and colour of a node.
type Links[N any] struct {
	Left, Right, Parent *N
	Red                 bool
}

// Node is the constraint for node types: a pointer to N with access to its
// Links.
type Node[N any] interface {
	*N
	Links() *Links[N]
}

// Tree is an intrusive red-black tree. The zero value is an empty tree
// without an update function; call Init before use.
type Tree[N any, P Node[N]] struct {
	Root   *N
	update func(*N)
}

// Init sets the function that recomputes augmented data.
func (t *Tree[N, P]) Init(update func(*N)) {
	t.update = update
}

func links[N any, P Node[N]](n *N) *Links[N] {
	return P(n).Links()
}

func (t *Tree[N, P]) l(n *N) *Links[N] {
	return links[N, P](n)
}

func (t *Tree[N, P]) touch(n *N) {
	if n != nil && t.update != nil {
		t.update(n)
	}
}

// LeftMost returns the first node of the subtree rooted at n.
func (t *Tree[N, P]) LeftMost(n *N) *N {
	for t.l(n).Left != nil {
		n = t.l(n).Left
	}
	return n
}

// RightMost returns the last node of the subtree rooted at n.
func (t *Tree[N, P]) RightMost(n *N) *N {
	for t.l(n).Right != nil {
		n = t.l(n).Right
	}
	return n
}

// First returns the first node of the tree, or nil.
func (t *Tree[N, P]) First() *N {
	if t.Root == nil {
		return nil
	}
	return t.LeftMost(t.Root)
}

// Last returns the last node of the tree, or nil.
func (t *Tree[N, P]) Last() *N {
	if t.Root == nil {
		return nil
	}
	return t.RightMost(t.Root)
}

// Successor returns the in-order successor of n, or nil.
func (t *Tree[N, P]) Successor(n *N) *N {
	if r := t.l(n).Right; r != nil {
		return t.LeftMost(r)
	}
	for {
		p := t.l(n).Parent
		if p == nil {
			return nil
		}
		if t.l(p).Left == n {
			return p
		}
		n = p
	}
}

// Predecessor returns the in-order predecessor of n, or nil.
func (t *Tree[N, P]) Predecessor(n *N) *N {
	if lf := t.l(n).Left; lf != nil {
		return t.RightMost(lf)
	}
	for {
		p := t.l(n).Parent
		if p == nil {
			return nil
		}
		if t.l(p).Right == n {
			return p
		}
		n = p
	}
}

// InsertFirst makes newNode the root of an empty tree.
func (t *Tree[N, P]) InsertFirst(newNode *N) {
	*t.l(newNode) = Links[N]{}
	t.Root = newNode
	t.touch(newNode)
}

// InsertAsLeft links newNode as the left child of parent, which must not
// have one.
func (t *Tree[N, P]) InsertAsLeft(parent, newNode *N) {
	nl := t.l(newNode)
	*nl = Links[N]{Parent: parent, Red: true}
	t.l(parent).Left = newNode
	t.touch(newNode)
	t.touch(parent)
	t.fixAfterInsert(newNode)
}

// InsertAsRight links newNode as the right child of parent, which must not
// have one.
func (t *Tree[N, P]) InsertAsRight(parent, newNode *N) {
	nl := t.l(newNode)
	*nl = Links[N]{Parent: parent, Red: true}
	t.l(parent).Right = newNode
	t.touch(newNode)
	t.touch(parent)
	t.fixAfterInsert(newNode)
}

// InsertBefore links newNode directly in front of node.
func (t *Tree[N, P]) InsertBefore(node, newNode *N) {
	if lf := t.l(node).Left; lf != nil {
		t.InsertAsRight(t.RightMost(lf), newNode)
	} else {
		t.InsertAsLeft(node, newNode)
	}
}

// InsertAfter links newNode directly behind node.
func (t *Tree[N, P]) InsertAfter(node, newNode *N) {
	if r := t.l(node).Right; r != nil {
		t.InsertAsLeft(t.LeftMost(r), newNode)
	} else {
		t.InsertAsRight(node, newNode)
	}
}

// Append links newNode behind the last node.
func (t *Tree[N, P]) Append(newNode *N) {
	if t.Root == nil {
		t.InsertFirst(newNode)
		return
	}
	t.InsertAsRight(t.RightMost(t.Root), newNode)
}

func (t *Tree[N, P]) fixAfterInsert(n *N) {
	for {
		parent := t.l(n).Parent
		if parent == nil {
			t.l(n).Red = false
			return
		}
		if !t.l(parent).Red {
			return
		}
		// Parent is red, so it is not the root.
		grand := t.l(parent).Parent
		uncle := t.sibling(parent, grand)
		if uncle != nil && t.l(uncle).Red {
			t.l(parent).Red = false
			t.l(uncle).Red = false
			t.l(grand).Red = true
			n = grand
			continue
		}
		if n == t.l(parent).Right && parent == t.l(grand).Left {
			t.rotateLeft(parent)
			n = t.l(n).Left
		} else if n == t.l(parent).Left && parent == t.l(grand).Right {
			t.rotateRight(parent)
			n = t.l(n).Right
		}
		parent = t.l(n).Parent
		grand = t.l(parent).Parent
		t.l(parent).Red = false
		t.l(grand).Red = true
		if n == t.l(parent).Left && parent == t.l(grand).Left {
			t.rotateRight(grand)
		} else {
			t.rotateLeft(grand)
		}
		return
	}
}

// Remove unlinks n. The links of n are cleared afterwards.
func (t *Tree[N, P]) Remove(n *N) {
	nl := t.l(n)
	if nl.Left != nil && nl.Right != nil {
		// Relink the in-order successor into n's place.
		succ := t.LeftMost(nl.Right)
		t.Remove(succ)
		nl = t.l(n)
		t.replace(n, succ)
		sl := t.l(succ)
		sl.Left = nl.Left
		if sl.Left != nil {
			t.l(sl.Left).Parent = succ
		}
		sl.Right = nl.Right
		if sl.Right != nil {
			t.l(sl.Right).Parent = succ
		}
		sl.Red = nl.Red
		*nl = Links[N]{}
		t.touch(succ)
		t.touch(sl.Parent)
		return
	}

	parent := nl.Parent
	child := nl.Left
	if child == nil {
		child = nl.Right
	}
	wasRed := nl.Red
	t.replace(n, child)
	*nl = Links[N]{}
	t.touch(parent)
	if !wasRed {
		if child != nil && t.l(child).Red {
			t.l(child).Red = false
		} else {
			t.fixAfterRemove(child, parent)
		}
	}
}

func (t *Tree[N, P]) fixAfterRemove(n, parent *N) {
	for parent != nil {
		sib := t.sibling(n, parent)
		if t.l(sib).Red {
			t.l(parent).Red = true
			t.l(sib).Red = false
			if n == t.l(parent).Left {
				t.rotateLeft(parent)
			} else {
				t.rotateRight(parent)
			}
			sib = t.sibling(n, parent)
		}
		sl := t.l(sib)
		if !t.l(parent).Red && !sl.Red && !t.isRed(sl.Left) && !t.isRed(sl.Right) {
			sl.Red = true
			n = parent
			parent = t.l(parent).Parent
			continue
		}
		if t.l(parent).Red && !sl.Red && !t.isRed(sl.Left) && !t.isRed(sl.Right) {
			sl.Red = true
			t.l(parent).Red = false
			return
		}
		if n == t.l(parent).Left && !sl.Red && t.isRed(sl.Left) && !t.isRed(sl.Right) {
			sl.Red = true
			t.l(sl.Left).Red = false
			t.rotateRight(sib)
		} else if n == t.l(parent).Right && !sl.Red && t.isRed(sl.Right) && !t.isRed(sl.Left) {
			sl.Red = true
			t.l(sl.Right).Red = false
			t.rotateLeft(sib)
		}
		sib = t.sibling(n, parent)
		sl = t.l(sib)
		sl.Red = t.l(parent).Red
		t.l(parent).Red = false
		if n == t.l(parent).Left {
			if sl.Right != nil {
				t.l(sl.Right).Red = false
			}
			t.rotateLeft(parent)
		} else {
			if sl.Left != nil {
				t.l(sl.Left).Red = false
			}
			t.rotateRight(parent)
		}
		return
	}
}

func (t *Tree[N, P]) isRed(n *N) bool {
	return n != nil && t.l(n).Red
}

func (t *Tree[N, P]) sibling(n, parent *N) *N {
	if n == t.l(parent).Left {
		return t.l(parent).Right
	}
	return t.l(parent).Left
}

func (t *Tree[N, P]) replace(old, n *N) {
	ol := t.l(old)
	if ol.Parent == nil {
		t.Root = n
	} else if t.l(ol.Parent).Left == old {
		t.l(ol.Parent).Left = n
	} else {
		t.l(ol.Parent).Right = n
	}
	if n != nil {
		t.l(n).Parent = ol.Parent
	}
	ol.Parent = nil
}

func (t *Tree[N, P]) rotateLeft(p *N) {
	pl := t.l(p)
	q := pl.Right
	ql := t.l(q)
	t.replace(p, q)
	pl.Right = ql.Left
	if pl.Right != nil {
		t.l(pl.Right).Parent = p
	}
	ql.Left = p
	pl.Parent = q
	t.touch(p)
	t.touch(q)
}

func (t *Tree[N, P]) rotateRight(p *N) {
	pl := t.l(p)
	q := pl.Left
	ql := t.l(q)
	t.replace(p, q)
	pl.Left = ql.Right
	if pl.Left != nil {
		t.l(pl.Left).Parent = p
	}
	ql.Right = p
	pl.Parent = q
	t.touch(p)
	t.touch(q)
}

// Build replaces the tree with a perfectly balanced tree of nodes, in
// order, in O(n). Nodes of the deepest level are coloured red so that the
// red-black properties hold without a fixup pass.
func (t *Tree[N, P]) Build(nodes []*N) {
	for _, n := range nodes {
		*t.l(n) = Links[N]{}
	}
	t.Root = t.build(nodes, treeHeight(len(nodes)))
	if t.Root != nil {
		t.l(t.Root).Red = false
	}
}

func (t *Tree[N, P]) build(nodes []*N, height int) *N {
	if len(nodes) == 0 {
		return nil
	}
	mid := len(nodes) / 2
	n := nodes[mid]
	nl := t.l(n)
	nl.Left = t.build(nodes[:mid], height-1)
	nl.Right = t.build(nodes[mid+1:], height-1)
	if nl.Left != nil {
		t.l(nl.Left).Parent = n
	}
	if nl.Right != nil {
		t.l(nl.Right).Parent = n
	}
	nl.Red = height == 1
	t.touch(n)
	return n
}

func treeHeight(size int) int {
	h := 0
	for ; size > 0; size /= 2 {
		h++
	}
	return h
}

// All calls fn for every node in order until fn returns false.
func (t *Tree[N, P]) All(fn func(*N) bool) {
	for n := t.First(); n != nil; n = t.Successor(n) {
		if !fn(n) {
			return
		}
	}
}

// CheckColors validates the red-black properties and parent links. check,
// if not nil, is called for every node to validate augmented data.
func (t *Tree[N, P]) CheckColors(check func(*N) error) error {
	if t.Root == nil {
		return nil
	}
	if t.l(t.Root).Parent != nil {
		return invariant.Violation("root has a parent")
	}
	if t.l(t.Root).Red {
		return invariant.Violation("root is red")
	}
	_, err := t.checkNode(t.Root, check)
	return err
}

func (t *Tree[N, P]) checkNode(n *N, check func(*N) error) (int, error) {
	if n == nil {
		return 1, nil
	}
	nl := t.l(n)
	for _, c := range []*N{nl.Left, nl.Right} {
		if c == nil {
			continue
		}
		if t.l(c).Parent != n {
			return 0, invariant.Violation("broken parent link")
		}
		if nl.Red && t.l(c).Red {
			return 0, invariant.Violation("red node with red child")
		}
	}
	if check != nil {
		if err := check(n); err != nil {
			return 0, err
		}
	}
	lh, err := t.checkNode(nl.Left, check)
	if err != nil {
		return 0, err
	}
	rh, err := t.checkNode(nl.Right, check)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, invariant.Violation("black height %d != %d", lh, rh)
	}
	if !nl.Red {
		lh++
	}
	return lh, nil
}
