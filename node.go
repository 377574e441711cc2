package sylva

import (
	"strings"

	"github.com/sylva-dev/sylva/internal/grammar"
)

// Node is a lightweight handle on one tree node: the tree, the
// internal subtree, and the node's absolute position, computed during
// navigation. Nodes are values; the zero Node is "no node" (IsZero
// reports true) and is what navigation returns when it runs off the
// tree.
type Node struct {
	tree        *Tree
	sub         *subtree
	paddedStart position
}

// IsZero reports whether n is the "no node" value.
func (n Node) IsZero() bool { return n.sub == nil }

// Tree returns the tree this node belongs to.
func (n Node) Tree() *Tree { return n.tree }

func (n Node) isRoot() bool { return n.sub == n.tree.root }

func (n Node) contentStart() position {
	if n.isRoot() {
		return n.paddedStart
	}
	return n.paddedStart.advance(n.sub.padding)
}

func (n Node) contentEnd() position {
	return n.paddedStart.advance(n.sub.total())
}

// Kind returns the node's kind name. ERROR nodes report "ERROR".
func (n Node) Kind() string {
	return n.tree.lang.g.SymbolName(n.sub.kind)
}

// KindID returns the numeric kind id, usable with Language.KindName.
func (n Node) KindID() uint16 { return uint16(n.sub.kind) }

// IsNamed reports whether the node is a named node (a visible rule or
// a named token) rather than an anonymous literal.
func (n Node) IsNamed() bool { return n.sub.named() }

// IsExtra reports whether the node came from an extra token (such as a
// comment) that can appear anywhere.
func (n Node) IsExtra() bool { return n.sub.extra() }

// IsError reports whether this node is an ERROR node.
func (n Node) IsError() bool { return n.sub.isError() }

// IsMissing reports whether this node is a zero-width token fabricated
// by error recovery.
func (n Node) IsMissing() bool { return n.sub.missing() }

// HasError reports whether this node's subtree contains any ERROR or
// MISSING node, including the node itself.
func (n Node) HasError() bool { return n.sub.hasError() || n.sub.isError() }

// StartByte returns the node's start offset. The root starts at 0
// regardless of leading skipped content.
func (n Node) StartByte() uint32 { return n.contentStart().bytes }

// EndByte returns the node's end offset (exclusive).
func (n Node) EndByte() uint32 { return n.contentEnd().bytes }

// StartPoint returns the node's start in row/column coordinates.
func (n Node) StartPoint() Point { return n.contentStart().point }

// EndPoint returns the node's end in row/column coordinates.
func (n Node) EndPoint() Point { return n.contentEnd().point }

// Range returns the node's full span.
func (n Node) Range() Range {
	s, e := n.contentStart(), n.contentEnd()
	return Range{StartByte: s.bytes, EndByte: e.bytes, StartPoint: s.point, EndPoint: e.point}
}

// Text returns the node's source text. The result aliases the tree's
// source buffer.
func (n Node) Text() []byte {
	src := n.tree.source
	s, e := int(n.StartByte()), int(n.EndByte())
	if s > len(src) {
		s = len(src)
	}
	if e > len(src) {
		e = len(src)
	}
	return src[s:e]
}

// ChildCount returns the number of children, named and anonymous.
func (n Node) ChildCount() int { return len(n.sub.children) }

// Child returns the i'th child, or the zero Node when out of range.
func (n Node) Child(i int) Node {
	if i < 0 || i >= len(n.sub.children) {
		return Node{}
	}
	pos := n.paddedStart
	for j := 0; j < i; j++ {
		pos = pos.advance(n.sub.children[j].total())
	}
	return Node{tree: n.tree, sub: n.sub.children[i], paddedStart: pos}
}

// NamedChildCount returns the number of named children.
func (n Node) NamedChildCount() int {
	count := 0
	for _, c := range n.sub.children {
		if c.named() {
			count++
		}
	}
	return count
}

// NamedChild returns the i'th named child, or the zero Node.
func (n Node) NamedChild(i int) Node {
	pos := n.paddedStart
	for _, c := range n.sub.children {
		if c.named() {
			if i == 0 {
				return Node{tree: n.tree, sub: c, paddedStart: pos}
			}
			i--
		}
		pos = pos.advance(c.total())
	}
	return Node{}
}

// FieldNameForChild returns the field name of the i'th child, or "".
func (n Node) FieldNameForChild(i int) string {
	if n.sub.fields == nil || i < 0 || i >= len(n.sub.fields) {
		return ""
	}
	return n.tree.lang.g.FieldName(n.sub.fields[i])
}

// ChildByFieldName returns the first child carrying the named field.
func (n Node) ChildByFieldName(name string) Node {
	id, ok := n.tree.lang.g.FieldIDForName(name)
	if !ok {
		return Node{}
	}
	return n.childByFieldID(id)
}

// ChildByFieldID returns the first child carrying the field id.
func (n Node) ChildByFieldID(id uint16) Node {
	return n.childByFieldID(grammar.FieldID(id))
}

func (n Node) childByFieldID(id grammar.FieldID) Node {
	if n.sub.fields == nil || id == 0 {
		return Node{}
	}
	pos := n.paddedStart
	for i, c := range n.sub.children {
		if n.sub.fields[i] == id {
			return Node{tree: n.tree, sub: c, paddedStart: pos}
		}
		pos = pos.advance(c.total())
	}
	return Node{}
}

// Parent returns the node's parent, found by descending from the root.
// The root's parent is the zero Node.
func (n Node) Parent() Node {
	if n.isRoot() {
		return Node{}
	}
	return n.tree.RootNode().findParent(n)
}

func (n Node) findParent(target Node) Node {
	for i := 0; i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.sub == target.sub && c.paddedStart == target.paddedStart {
			return n
		}
		end := c.paddedStart.advance(c.sub.total())
		if c.paddedStart.bytes <= target.paddedStart.bytes && target.paddedStart.bytes <= end.bytes {
			if r := c.findParent(target); !r.IsZero() {
				return r
			}
		}
	}
	return Node{}
}

// NextSibling returns the node immediately after this one under the
// same parent, or the zero Node.
func (n Node) NextSibling() Node {
	p := n.Parent()
	if p.IsZero() {
		return Node{}
	}
	for i := 0; i < p.ChildCount(); i++ {
		if c := p.Child(i); c.sub == n.sub && c.paddedStart == n.paddedStart {
			return p.Child(i + 1)
		}
	}
	return Node{}
}

// PrevSibling returns the node immediately before this one under the
// same parent, or the zero Node.
func (n Node) PrevSibling() Node {
	p := n.Parent()
	if p.IsZero() {
		return Node{}
	}
	for i := 0; i < p.ChildCount(); i++ {
		if c := p.Child(i); c.sub == n.sub && c.paddedStart == n.paddedStart {
			if i == 0 {
				return Node{}
			}
			return p.Child(i - 1)
		}
	}
	return Node{}
}

// NextNamedSibling returns the next named sibling, or the zero Node.
func (n Node) NextNamedSibling() Node {
	for s := n.NextSibling(); !s.IsZero(); s = s.NextSibling() {
		if s.IsNamed() {
			return s
		}
	}
	return Node{}
}

// PrevNamedSibling returns the previous named sibling, or the zero Node.
func (n Node) PrevNamedSibling() Node {
	for s := n.PrevSibling(); !s.IsZero(); s = s.PrevSibling() {
		if s.IsNamed() {
			return s
		}
	}
	return Node{}
}

// DescendantForByteRange returns the smallest node spanning
// [start, end), anonymous nodes included.
func (n Node) DescendantForByteRange(start, end uint32) Node {
	return n.descendantForByteRange(start, end, false)
}

// NamedDescendantForByteRange returns the smallest named node spanning
// [start, end).
func (n Node) NamedDescendantForByteRange(start, end uint32) Node {
	return n.descendantForByteRange(start, end, true)
}

func (n Node) descendantForByteRange(start, end uint32, namedOnly bool) Node {
	best := Node{}
	cur := n
	for {
		if !namedOnly || cur.IsNamed() {
			best = cur
		}
		advanced := false
		for i := 0; i < cur.ChildCount(); i++ {
			c := cur.Child(i)
			if c.StartByte() <= start && end <= c.EndByte() {
				cur = c
				advanced = true
				break
			}
		}
		if !advanced {
			return best
		}
	}
}

// String renders the node as an s-expression of named nodes, the
// conventional debugging form: (kind (child ...) ...), with field
// names as prefixes and MISSING tokens called out.
func (n Node) String() string {
	var b strings.Builder
	n.writeSexp(&b)
	return b.String()
}

func (n Node) writeSexp(b *strings.Builder) {
	if n.IsMissing() {
		b.WriteString("(MISSING ")
		b.WriteString(n.Kind())
		b.WriteByte(')')
		return
	}
	b.WriteByte('(')
	b.WriteString(n.Kind())
	pos := n.paddedStart
	for i, c := range n.sub.children {
		child := Node{tree: n.tree, sub: c, paddedStart: pos}
		pos = pos.advance(c.total())
		if !c.named() && !c.missing() {
			continue
		}
		b.WriteByte(' ')
		if f := n.FieldNameForChild(i); f != "" {
			b.WriteString(f)
			b.WriteString(": ")
		}
		child.writeSexp(b)
	}
	b.WriteByte(')')
}
