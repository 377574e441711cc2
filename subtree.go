package sylva

import (
	"github.com/sylva-dev/sylva/internal/grammar"
)

// subtree is the internal, immutable node representation. Positions are
// stored as relative extents: padding is the skipped content (usually
// whitespace) before the node, size is the node's own extent. Absolute
// positions are computed during navigation, so a subtree keeps its
// identity when content before it is edited.
//
// A subtree is never mutated after construction; trees built from
// edits and reparses share subtree pointers for everything outside the
// changed region.
type subtree struct {
	kind   grammar.Symbol
	prodID uint16 // 1-based production id, 0 for leaves
	flags  uint8

	padding length
	size    length

	// parseState is the automaton state this node began in; incremental
	// reuse splices a subtree only when the current state matches.
	parseState grammar.StateID

	children []*subtree

	// fields holds the resolved field id per child, nil when no child
	// carries a field. Populated at reduce time from the production's
	// slot table, so spliced hidden children keep their own fields.
	fields []grammar.FieldID
}

const (
	flagNamed uint8 = 1 << iota
	flagExtra
	flagMissing
	flagHasError // an ERROR or MISSING node somewhere in this subtree
	flagChanged  // invalidated by an edit since the last reparse
)

func (s *subtree) named() bool    { return s.flags&flagNamed != 0 }
func (s *subtree) extra() bool    { return s.flags&flagExtra != 0 }
func (s *subtree) missing() bool  { return s.flags&flagMissing != 0 }
func (s *subtree) hasError() bool { return s.flags&flagHasError != 0 }
func (s *subtree) changed() bool  { return s.flags&flagChanged != 0 }
func (s *subtree) isError() bool  { return s.kind == grammar.SymbolError }

// total is the node's full extent including its padding.
func (s *subtree) total() length {
	return s.padding.add(s.size)
}

// newLeaf builds a terminal subtree.
func newLeaf(kind grammar.Symbol, named bool, padding, size length, state grammar.StateID) *subtree {
	s := &subtree{kind: kind, padding: padding, size: size, parseState: state}
	if named {
		s.flags |= flagNamed
	}
	return s
}

// newMissingLeaf builds a zero-width leaf inserted by error recovery.
func newMissingLeaf(kind grammar.Symbol, named bool, state grammar.StateID) *subtree {
	s := newLeaf(kind, named, length{}, length{}, state)
	s.flags |= flagMissing | flagHasError
	return s
}

// newErrorLeaf wraps one unrecognized or discarded token.
func newErrorLeaf(named bool, padding, size length, state grammar.StateID) *subtree {
	s := newLeaf(grammar.SymbolError, named, padding, size, state)
	s.flags |= flagHasError
	return s
}

// newInterior builds a nonterminal subtree from already-spliced
// children. Padding and size are derived from the children: the first
// child's padding becomes the node's padding, everything else is size.
func newInterior(kind grammar.Symbol, prodID uint16, named bool, children []*subtree, state grammar.StateID) *subtree {
	s := &subtree{kind: kind, prodID: prodID, children: children, parseState: state}
	if named {
		s.flags |= flagNamed
	}
	for i, c := range children {
		if i == 0 {
			s.padding = c.padding
			s.size = c.size
			s.parseState = c.parseState
		} else {
			s.size = s.size.add(c.total())
		}
		if c.hasError() || c.isError() || c.missing() {
			s.flags |= flagHasError
		}
	}
	return s
}

// newErrorNode wraps discarded material in an ERROR subtree.
func newErrorNode(children []*subtree, state grammar.StateID) *subtree {
	s := newInterior(grammar.SymbolError, 0, true, children, state)
	s.flags |= flagHasError
	return s
}

// visibleChildCount is the number of children, which are always visible
// after splicing at construction time.
func (s *subtree) visibleChildCount() int { return len(s.children) }

// childPosition returns the padded start of child i given the parent's
// padded start.
func childPositions(s *subtree, paddedStart position) []position {
	out := make([]position, len(s.children))
	pos := paddedStart
	for i, c := range s.children {
		out[i] = pos
		pos = pos.advance(c.total())
	}
	return out
}

// editState carries one edit in absolute coordinates through the
// copy-on-write application in applyEdit, plus the single-absorption
// flag: exactly one leaf (the first one whose span reaches the edit
// start) claims the replacement text, so extents sum to the new source
// length with no double counting at node boundaries.
type editState struct {
	start    position
	oldEnd   position
	newEnd   position
	absorbed bool
}

// applyEdit produces a copy-on-write version of s with the edit folded
// into its extents. paddedStart is the node's absolute padded start in
// the pre-edit coordinate space. Subtrees strictly before the edit, or
// starting strictly after its old end, are returned unchanged (shared);
// everything touching the edited span is cloned, resized, and marked
// changed so the next reparse will not reuse it.
func applyEdit(s *subtree, paddedStart position, e *editState) *subtree {
	contentStart := paddedStart.advance(s.padding)
	contentEnd := contentStart.advance(s.size)

	if contentEnd.bytes < e.start.bytes {
		return s // entirely before the edit
	}
	if contentEnd.bytes == e.start.bytes && e.absorbed {
		return s // ends at the edit boundary, already claimed
	}
	if paddedStart.bytes > e.oldEnd.bytes {
		return s // entirely after; shifts implicitly through predecessors
	}
	if paddedStart.bytes == e.oldEnd.bytes && e.start.bytes == e.oldEnd.bytes && e.absorbed {
		return s // pure insertion at our boundary, claimed by predecessor
	}

	clone := *s
	clone.flags |= flagChanged

	if len(s.children) == 0 {
		var newPadded, newContent, newEnd position
		if !e.absorbed {
			// First span to reach the edit start: claim the new text.
			e.absorbed = true
			newPadded = paddedStart
			newContent = collapse(contentStart, e, contentStart.bytes <= e.start.bytes)
			newEnd = collapse(contentEnd, e, false)
		} else {
			newPadded = collapse(paddedStart, e, false)
			newContent = collapse(contentStart, e, false)
			newEnd = collapse(contentEnd, e, false)
		}
		if newContent.bytes > newEnd.bytes {
			newContent = newEnd
		}
		if newPadded.bytes > newContent.bytes {
			newPadded = newContent
		}
		clone.padding = extentBetween(newPadded, newContent)
		clone.size = extentBetween(newContent, newEnd)
		return &clone
	}

	children := make([]*subtree, len(s.children))
	positions := childPositions(s, paddedStart)
	for i, c := range s.children {
		children[i] = applyEdit(c, positions[i], e)
	}
	clone.children = children
	clone.padding = length{}
	clone.size = length{}
	for i, c := range children {
		if i == 0 {
			clone.padding = c.padding
			clone.size = c.size
		} else {
			clone.size = clone.size.add(c.total())
		}
	}
	return &clone
}

// collapse maps a pre-edit position into post-edit coordinates. When
// keepBefore is set, positions at or before the edit start stay put
// (the absorber's own start); otherwise a position at or inside the
// replaced span lands on the new end, and later positions shift by the
// edit's extent change.
func collapse(p position, e *editState, keepBefore bool) position {
	switch {
	case p.bytes < e.start.bytes || (keepBefore && p.bytes == e.start.bytes):
		return p
	case p.bytes <= e.oldEnd.bytes:
		return e.newEnd
	default:
		return e.newEnd.advance(extentBetween(e.oldEnd, p))
	}
}
