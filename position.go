package sylva

import "fmt"

// Point is a position in source text. Row is a zero-based line number;
// Column counts UTF-16 code units from the start of the line, so hosts
// whose native strings are UTF-16 can address positions without
// re-measuring the source.
type Point struct {
	Row    uint32
	Column uint32
}

// String returns "row:column".
func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Column)
}

// Before reports whether p is strictly before other.
func (p Point) Before(other Point) bool {
	return p.Row < other.Row || (p.Row == other.Row && p.Column < other.Column)
}

// Range is a span of source text in both byte and point coordinates.
// EndByte is exclusive.
type Range struct {
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

// String returns "[start - end)" in byte coordinates.
func (r Range) String() string {
	return fmt.Sprintf("[%d - %d)", r.StartByte, r.EndByte)
}

// length is a relative extent: a byte count plus the rows/columns it
// spans. Subtrees store lengths rather than absolute positions, which
// is what lets an unshifted subtree be shared by pointer after an edit
// earlier in the file.
type length struct {
	bytes uint32
	rows  uint32
	cols  uint32 // UTF-16 columns on the last row (or total, if rows == 0)
}

// add composes two consecutive extents.
func (a length) add(b length) length {
	out := length{bytes: a.bytes + b.bytes}
	if b.rows == 0 {
		out.rows = a.rows
		out.cols = a.cols + b.cols
	} else {
		out.rows = a.rows + b.rows
		out.cols = b.cols
	}
	return out
}

// position is an absolute location: byte offset plus point.
type position struct {
	bytes uint32
	point Point
}

// advance moves a position forward by an extent.
func (p position) advance(l length) position {
	out := position{bytes: p.bytes + l.bytes}
	if l.rows == 0 {
		out.point = Point{Row: p.point.Row, Column: p.point.Column + l.cols}
	} else {
		out.point = Point{Row: p.point.Row + l.rows, Column: l.cols}
	}
	return out
}

// extentBetween returns the extent from a to b. Positions where b
// precedes a clamp to a zero extent.
func extentBetween(a, b position) length {
	if b.bytes <= a.bytes {
		return length{}
	}
	l := length{bytes: b.bytes - a.bytes}
	if b.point.Row == a.point.Row {
		l.cols = b.point.Column - a.point.Column
	} else {
		l.rows = b.point.Row - a.point.Row
		l.cols = b.point.Column
	}
	return l
}

// minPos returns the earlier of two positions by byte offset.
func minPos(a, b position) position {
	if a.bytes <= b.bytes {
		return a
	}
	return b
}
