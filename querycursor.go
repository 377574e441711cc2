package sylva

import (
	"math"
	"sort"
	"strings"
)

// QueryCapture binds one capture name to one matched node.
type QueryCapture struct {
	Name string
	Node Node
}

// QueryMatch is one successful pattern match: the index of the pattern
// within the query and the captures it bound, in pattern order.
type QueryMatch struct {
	PatternIndex int
	Captures     []QueryCapture
}

// NodesForCapture returns the nodes bound to one capture name, in
// match order.
func (m *QueryMatch) NodesForCapture(name string) []Node {
	var out []Node
	for _, c := range m.Captures {
		if c.Name == name {
			out = append(out, c.Node)
		}
	}
	return out
}

// QueryCursor is a lazy, single-pass iterator over a query's matches
// on one tree. Matches are produced in ascending order of start byte,
// then pattern index. A cursor is not restartable and not safe for
// concurrent use.
type QueryCursor struct {
	q         *Query
	tree      *Tree
	startByte uint32
	endByte   uint32

	dfs []Node // pre-order work stack

	buffered   []QueryMatch // matches at bufStart, pending reorder
	bufStart   uint32
	ready      []QueryMatch
	readyIndex int
	done       bool
}

// Matches runs the query over the whole tree.
func (q *Query) Matches(tree *Tree) *QueryCursor {
	return q.MatchesInRange(tree, 0, math.MaxUint32)
}

// MatchesInRange runs the query over nodes intersecting
// [startByte, endByte).
func (q *Query) MatchesInRange(tree *Tree, startByte, endByte uint32) *QueryCursor {
	return &QueryCursor{
		q:         q,
		tree:      tree,
		startByte: startByte,
		endByte:   endByte,
		dfs:       []Node{tree.RootNode()},
	}
}

// Next returns the next match. The second result is false when the
// sequence is exhausted.
func (c *QueryCursor) Next() (QueryMatch, bool) {
	for {
		if c.readyIndex < len(c.ready) {
			m := c.ready[c.readyIndex]
			c.readyIndex++
			return m, true
		}
		if c.done {
			return QueryMatch{}, false
		}
		c.step()
	}
}

// step visits the next node in the traversal, collecting matches into
// the reorder buffer, and flushes the buffer once the traversal has
// passed the buffered start byte.
func (c *QueryCursor) step() {
	c.ready = c.ready[:0]
	c.readyIndex = 0

	if len(c.dfs) == 0 {
		c.flush()
		c.done = true
		return
	}
	n := c.dfs[len(c.dfs)-1]
	c.dfs = c.dfs[:len(c.dfs)-1]

	if n.EndByte() <= c.startByte || n.StartByte() >= c.endByte {
		return
	}

	if len(c.buffered) > 0 && n.StartByte() > c.bufStart {
		c.flush()
	}

	for i := n.ChildCount() - 1; i >= 0; i-- {
		c.dfs = append(c.dfs, n.Child(i))
	}

	for pi, pat := range c.q.patterns {
		m := matcher{tree: c.tree}
		if !m.matchNode(pat.root, n) {
			continue
		}
		if !c.q.predicatesPass(pat, m.caps) {
			continue
		}
		caps := make([]QueryCapture, len(m.caps))
		copy(caps, m.caps)
		if len(c.buffered) == 0 {
			c.bufStart = n.StartByte()
		}
		c.buffered = append(c.buffered, QueryMatch{PatternIndex: pi, Captures: caps})
	}
}

// flush moves buffered matches (all sharing one start byte) into the
// ready list, ordered by pattern index.
func (c *QueryCursor) flush() {
	if len(c.buffered) == 0 {
		return
	}
	sort.SliceStable(c.buffered, func(i, j int) bool {
		return c.buffered[i].PatternIndex < c.buffered[j].PatternIndex
	})
	c.ready = append(c.ready, c.buffered...)
	c.buffered = c.buffered[:0]
}

// matcher holds the capture trail for one structural match attempt.
// Captures are appended as the pattern descends and truncated when a
// branch backtracks.
type matcher struct {
	tree *Tree
	caps []QueryCapture
}

// matchNode matches a pattern against a node, including the pattern's
// children and captures, but not its field (fields constrain a node's
// position within its parent, checked by matchChildren).
func (m *matcher) matchNode(p *patternNode, n Node) bool {
	mark := len(m.caps)
	if !m.matchShape(p, n) {
		m.caps = m.caps[:mark]
		return false
	}
	return true
}

func (m *matcher) matchShape(p *patternNode, n Node) bool {
	if len(p.alternatives) > 0 {
		mark := len(m.caps)
		for _, alt := range p.alternatives {
			if m.matchNode(alt, n) {
				m.capture(p, n)
				return true
			}
			m.caps = m.caps[:mark]
		}
		return false
	}
	switch {
	case p.isLiteral:
		if n.IsNamed() || n.Kind() != p.literal {
			return false
		}
	case p.kind == "_":
		if !p.anyKind && !n.IsNamed() {
			return false
		}
	default:
		if !n.IsNamed() || n.Kind() != p.kind {
			return false
		}
	}
	m.capture(p, n)
	return m.matchChildren(p.children, n)
}

func (m *matcher) capture(p *patternNode, n Node) {
	for _, name := range p.captures {
		m.caps = append(m.caps, QueryCapture{Name: name, Node: n})
	}
}

// matchChildren matches the pattern's child list against an in-order
// subsequence of the node's children. Unmatched node children may be
// skipped, except that an anchored pattern must match before the next
// named child. Quantified patterns match greedily with backtracking.
func (m *matcher) matchChildren(pats []*patternNode, n Node) bool {
	if len(pats) == 0 {
		return true
	}
	var rec func(pi, ci int) bool
	rec = func(pi, ci int) bool {
		if pi == len(pats) {
			return true
		}
		p := pats[pi]
		min, max := quantBounds(p.quant)
		var attempt func(count, ci int) bool
		attempt = func(count, ci int) bool {
			if count < max {
				for j := ci; j < n.ChildCount(); j++ {
					child := n.Child(j)
					mark := len(m.caps)
					if m.matchChildAt(p, n, j, child) {
						if attempt(count+1, j+1) {
							return true
						}
						m.caps = m.caps[:mark]
					}
					if p.anchored && count == 0 && child.IsNamed() {
						break
					}
				}
			}
			if count >= min {
				return rec(pi+1, ci)
			}
			return false
		}
		return attempt(0, ci)
	}
	return rec(0, 0)
}

// matchChildAt matches one pattern occurrence against child j,
// including its field constraint, rolling back captures on failure.
func (m *matcher) matchChildAt(p *patternNode, parent Node, j int, child Node) bool {
	mark := len(m.caps)
	if p.field != "" && parent.FieldNameForChild(j) != p.field {
		return false
	}
	if !m.matchNode(p, child) {
		m.caps = m.caps[:mark]
		return false
	}
	return true
}

func quantBounds(q quantifier) (int, int) {
	switch q {
	case quantOpt:
		return 0, 1
	case quantStar:
		return 0, math.MaxInt32
	case quantPlus:
		return 1, math.MaxInt32
	default:
		return 1, 1
	}
}

// predicatesPass evaluates a pattern's predicates against the bound
// captures, after structural matching has fully succeeded.
func (q *Query) predicatesPass(p *pattern, caps []QueryCapture) bool {
	for i := range p.preds {
		if !q.evalPredicate(&p.preds[i], caps) {
			return false
		}
	}
	return true
}

func (q *Query) evalPredicate(pr *predicate, caps []QueryCapture) bool {
	texts := func(name string) []string {
		var out []string
		for _, c := range caps {
			if c.Name == name {
				out = append(out, string(c.Node.Text()))
			}
		}
		return out
	}
	left := texts(pr.args[0].capture)

	switch pr.name {
	case "eq?", "not-eq?":
		eq := true
		if pr.args[1].isStr {
			for _, t := range left {
				if t != pr.args[1].literal {
					eq = false
					break
				}
			}
		} else {
			right := texts(pr.args[1].capture)
			for _, a := range left {
				for _, b := range right {
					if a != b {
						eq = false
					}
				}
			}
		}
		if pr.name == "eq?" {
			return eq
		}
		return !eq

	case "match?":
		for _, t := range left {
			if !pr.regex.MatchString(t) {
				return false
			}
		}
		return true

	case "not-match?":
		for _, t := range left {
			if pr.regex.MatchString(t) {
				return false
			}
		}
		return true

	case "contains?":
		for _, t := range left {
			if !strings.Contains(t, pr.args[1].literal) {
				return false
			}
		}
		return true

	case "not-contains?":
		for _, t := range left {
			if strings.Contains(t, pr.args[1].literal) {
				return false
			}
		}
		return true

	case "any-contains?":
		for _, t := range left {
			if strings.Contains(t, pr.args[1].literal) {
				return true
			}
		}
		return false

	case "any-not-contains?":
		for _, t := range left {
			if !strings.Contains(t, pr.args[1].literal) {
				return true
			}
		}
		return false

	case "any-of?", "not-any-of?":
		for _, t := range left {
			found := false
			for _, a := range pr.args[1:] {
				if t == a.literal {
					found = true
					break
				}
			}
			if found == (pr.name == "not-any-of?") {
				return false
			}
		}
		return true
	}
	return true
}
