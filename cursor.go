package sylva

import "sort"

// cursorFrame records one level of a TreeCursor's descent: the node at
// that level and which of its children the cursor went into.
type cursorFrame struct {
	node Node
	idx  int
}

// TreeCursor walks a tree without the per-step root descents that
// Node.Parent costs. A cursor is positioned on exactly one node at all
// times; movement methods report whether they moved. Cursors are not
// safe for concurrent use, but any number of cursors may walk the same
// tree.
type TreeCursor struct {
	tree   *Tree
	stack  []cursorFrame
	cur    Node
	curIdx int // index of cur within its parent, -1 at the root
}

func newTreeCursor(t *Tree) *TreeCursor {
	return &TreeCursor{tree: t, cur: t.RootNode(), curIdx: -1}
}

// CurrentNode returns the node the cursor is on.
func (c *TreeCursor) CurrentNode() Node { return c.cur }

// CurrentFieldName returns the field name of the current node within
// its parent, or "".
func (c *TreeCursor) CurrentFieldName() string {
	if len(c.stack) == 0 {
		return ""
	}
	parent := c.stack[len(c.stack)-1].node
	return parent.FieldNameForChild(c.curIdx)
}

// Depth returns how many ancestors the current node has within this
// cursor's walk.
func (c *TreeCursor) Depth() int { return len(c.stack) }

// Reset repositions the cursor on the root.
func (c *TreeCursor) Reset() {
	c.stack = c.stack[:0]
	c.cur = c.tree.RootNode()
	c.curIdx = -1
}

// GotoFirstChild moves to the current node's first child.
func (c *TreeCursor) GotoFirstChild() bool {
	child := c.cur.Child(0)
	if child.IsZero() {
		return false
	}
	c.stack = append(c.stack, cursorFrame{node: c.cur, idx: c.curIdx})
	c.cur = child
	c.curIdx = 0
	return true
}

// GotoNextSibling moves to the current node's next sibling.
func (c *TreeCursor) GotoNextSibling() bool {
	if len(c.stack) == 0 {
		return false
	}
	parent := c.stack[len(c.stack)-1].node
	sib := parent.Child(c.curIdx + 1)
	if sib.IsZero() {
		return false
	}
	c.cur = sib
	c.curIdx++
	return true
}

// GotoParent moves to the current node's parent.
func (c *TreeCursor) GotoParent() bool {
	if len(c.stack) == 0 {
		return false
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.cur = top.node
	c.curIdx = top.idx
	return true
}

// GotoFirstChildForByte moves to the first child whose span ends after
// the byte offset, returning its index, or -1 without moving when no
// child qualifies. Child spans are ordered, so the child is found by
// binary search over their cumulative extents.
func (c *TreeCursor) GotoFirstChildForByte(b uint32) int {
	kids := c.cur.sub.children
	if len(kids) == 0 {
		return -1
	}
	positions := childPositions(c.cur.sub, c.cur.paddedStart)
	i := sort.Search(len(kids), func(i int) bool {
		return positions[i].advance(kids[i].total()).bytes > b
	})
	if i == len(kids) {
		return -1
	}
	c.stack = append(c.stack, cursorFrame{node: c.cur, idx: c.curIdx})
	c.cur = Node{tree: c.tree, sub: kids[i], paddedStart: positions[i]}
	c.curIdx = i
	return i
}

// SeekToByte descends from the current node to the smallest descendant
// containing the byte offset.
func (c *TreeCursor) SeekToByte(b uint32) Node {
	for {
		moved := false
		n := c.cur
		for i := 0; i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child.StartByte() <= b && b < child.EndByte() {
				c.stack = append(c.stack, cursorFrame{node: c.cur, idx: c.curIdx})
				c.cur = child
				c.curIdx = i
				moved = true
				break
			}
		}
		if !moved {
			return c.cur
		}
	}
}
