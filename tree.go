package sylva

import "sort"

// Tree is an immutable parse tree. Editing and reparsing produce new
// Trees that share unchanged subtrees with their predecessors, so
// holding several generations of a document's trees is cheap.
type Tree struct {
	lang   *Language
	root   *subtree
	source []byte
}

// Language returns the language this tree was parsed with.
func (t *Tree) Language() *Language { return t.lang }

// RootNode returns the root of the tree. The root always spans the
// entire source, including any leading or trailing skipped content.
func (t *Tree) RootNode() Node {
	return Node{tree: t, sub: t.root, paddedStart: position{}}
}

// Source returns the source bytes this tree was parsed from. For a
// tree produced by WithEdit the bytes are the pre-edit text; node
// ranges refer to the post-edit document until the tree is reparsed.
func (t *Tree) Source() []byte { return t.source }

// WithEdit returns a new tree with the edit folded into node
// positions. The original is untouched. Nodes overlapping the edited
// span are marked internally so a subsequent incremental parse will
// re-examine them; everything else is shared. Apply edits in document
// order of submission, each in the coordinate space produced by the
// previous one.
func (t *Tree) WithEdit(e Edit) (*Tree, error) {
	total := t.root.total()
	if e.StartByte > e.OldEndByte || e.OldEndByte > total.bytes || e.NewEndByte < e.StartByte {
		return nil, ErrInvalidEditRange
	}
	es := &editState{
		start:  position{bytes: e.StartByte, point: e.StartPoint},
		oldEnd: position{bytes: e.OldEndByte, point: e.OldEndPoint},
		newEnd: position{bytes: e.NewEndByte, point: e.NewEndPoint},
	}
	root := applyEdit(t.root, position{}, es)
	// Restore the root's full extent: the recompute from children loses
	// trailing skipped content, and an edit past every leaf (append at
	// end of input) is absorbed by nobody. The root starts at offset 0,
	// so its extent converts to an absolute position directly.
	oldEnd := position{bytes: total.bytes, point: Point{Row: total.rows, Column: total.cols}}
	wantEnd := collapse(oldEnd, es, false)
	if have := root.total(); have.bytes < wantEnd.bytes {
		clone := *root
		clone.flags |= flagChanged
		gap := extentBetween(position{bytes: have.bytes, point: Point{Row: have.rows, Column: have.cols}}, wantEnd)
		clone.size = clone.size.add(gap)
		root = &clone
	}
	return &Tree{lang: t.lang, root: root, source: t.source}, nil
}

// ChangedRanges returns the regions of other whose syntactic structure
// differs from t, typically called with the reparsed tree after edits.
// A region is unchanged when its subtree is shared by pointer, or when
// a leaf was rebuilt with the same kind at the same position, so a
// no-op edit yields no ranges. Ranges are sorted and non-overlapping.
func (t *Tree) ChangedRanges(other *Tree) []Range {
	old := &treeDiffIndex{
		shared: map[*subtree]bool{},
		leaves: map[leafSig]bool{},
	}
	old.index(t.root, position{})
	var out []Range
	old.collectChanged(other.root, position{}, &out)
	return mergeRanges(out)
}

// leafSig identifies a leaf by kind and byte span, independent of its
// subtree pointer.
type leafSig struct {
	start, end uint32
	kind       uint16
}

type treeDiffIndex struct {
	shared map[*subtree]bool
	leaves map[leafSig]bool
}

func (d *treeDiffIndex) index(s *subtree, paddedStart position) {
	d.shared[s] = true
	if len(s.children) == 0 {
		d.leaves[sigOf(s, paddedStart)] = true
		return
	}
	for i, pos := range childPositions(s, paddedStart) {
		d.index(s.children[i], pos)
	}
}

func sigOf(s *subtree, paddedStart position) leafSig {
	start := paddedStart.advance(s.padding)
	return leafSig{
		start: start.bytes,
		end:   start.advance(s.size).bytes,
		kind:  uint16(s.kind),
	}
}

func (d *treeDiffIndex) collectChanged(s *subtree, paddedStart position, out *[]Range) {
	if d.shared[s] {
		return
	}
	if len(s.children) == 0 {
		if d.leaves[sigOf(s, paddedStart)] {
			return
		}
		start := paddedStart.advance(s.padding)
		end := start.advance(s.size)
		if end.bytes > start.bytes {
			*out = append(*out, Range{
				StartByte:  start.bytes,
				EndByte:    end.bytes,
				StartPoint: start.point,
				EndPoint:   end.point,
			})
		}
		return
	}
	for i, pos := range childPositions(s, paddedStart) {
		d.collectChanged(s.children[i], pos, out)
	}
}

func mergeRanges(rs []Range) []Range {
	if len(rs) == 0 {
		return nil
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].StartByte < rs[j].StartByte })
	out := rs[:1]
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.StartByte <= last.EndByte {
			if r.EndByte > last.EndByte {
				last.EndByte = r.EndByte
				last.EndPoint = r.EndPoint
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Walk returns a cursor positioned on the root node.
func (t *Tree) Walk() *TreeCursor {
	return newTreeCursor(t)
}
