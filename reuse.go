package sylva

// reuseFrame is one level of the reuse cursor's descent into the old
// tree: a node, its absolute padded start, and the index of the child
// the cursor is currently inside (meaningful on all but the top frame).
type reuseFrame struct {
	node  *subtree
	start position
	idx   int
}

// reuseCursor walks the previous tree left to right during an
// incremental parse, offering subtrees that start at the parser's
// current position as splice candidates.
type reuseCursor struct {
	frames []reuseFrame
}

func newReuseCursor(root *subtree) *reuseCursor {
	return &reuseCursor{frames: []reuseFrame{{node: root}}}
}

func (c *reuseCursor) exhausted() bool { return len(c.frames) == 0 }

func (c *reuseCursor) top() *reuseFrame {
	return &c.frames[len(c.frames)-1]
}

// candidateAt advances the cursor past everything ending at or before
// posBytes and returns the node starting exactly there, descending
// through nodes that merely contain the position. It returns nil when
// the old tree has no node boundary at posBytes.
func (c *reuseCursor) candidateAt(posBytes uint32) (*subtree, position) {
	for {
		if c.exhausted() {
			return nil, position{}
		}
		fr := c.top()
		end := fr.start.advance(fr.node.total())
		if end.bytes <= posBytes {
			c.skip()
			continue
		}
		if fr.start.bytes == posBytes {
			return fr.node, fr.start
		}
		if fr.start.bytes > posBytes {
			return nil, position{}
		}
		// The position falls inside this node.
		if !c.descend() {
			return nil, position{}
		}
	}
}

// descend moves to the current node's first child.
func (c *reuseCursor) descend() bool {
	fr := c.top()
	if len(fr.node.children) == 0 {
		return false
	}
	fr.idx = 0
	c.frames = append(c.frames, reuseFrame{node: fr.node.children[0], start: fr.start})
	return true
}

// skip moves past the current node, to its next sibling or an
// ancestor's next sibling.
func (c *reuseCursor) skip() {
	for {
		fr := c.top()
		c.frames = c.frames[:len(c.frames)-1]
		if c.exhausted() {
			return
		}
		parent := c.top()
		next := parent.idx + 1
		if next < len(parent.node.children) {
			start := fr.start.advance(fr.node.total())
			parent.idx = next
			c.frames = append(c.frames, reuseFrame{node: parent.node.children[next], start: start})
			return
		}
	}
}

// peekNextLeaf returns the first leaf after the current node, without
// moving the cursor. The parser checks it before splicing: that leaf
// was the lookahead for the current node's closing reductions, so an
// invalidated one means those reductions may no longer hold.
func (c *reuseCursor) peekNextLeaf() *subtree {
	saved := make([]reuseFrame, len(c.frames))
	copy(saved, c.frames)
	c.skip()
	var leaf *subtree
	if !c.exhausted() {
		n := c.top().node
		for len(n.children) > 0 {
			n = n.children[0]
		}
		leaf = n
	}
	c.frames = saved
	return leaf
}
