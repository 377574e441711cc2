package sylva

import (
	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Edit describes one text replacement: the bytes in
// [StartByte, OldEndByte) were replaced by new content ending at
// NewEndByte. Point fields mirror the byte fields in row/column
// coordinates. A sequence of edits is interpreted in submission order,
// each against the source produced by the previous ones.
type Edit struct {
	StartByte   uint32
	OldEndByte  uint32
	NewEndByte  uint32
	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// NewEdit builds an Edit for replacing source[start:oldEnd] with
// newText, computing all three point fields by measuring the source.
// It does not validate bounds; Tree.WithEdit does.
func NewEdit(source []byte, start, oldEnd uint32, newText []byte) Edit {
	startPoint := measure(source[:min(int(start), len(source))])
	oldEndPoint := measure(source[:min(int(oldEnd), len(source))])
	newEndPoint := advancePoint(startPoint, newText)
	return Edit{
		StartByte:   start,
		OldEndByte:  oldEnd,
		NewEndByte:  start + uint32(len(newText)),
		StartPoint:  startPoint,
		OldEndPoint: oldEndPoint,
		NewEndPoint: newEndPoint,
	}
}

// EditsForChange derives the edit sequence transforming old into new
// from a character-level diff, so hosts that only track document
// snapshots can still reparse incrementally. The returned edits are in
// submission order: each applies to the document produced by the ones
// before it.
func EditsForChange(old, new []byte) []Edit {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(old), string(new), false)
	diffs = dmp.DiffCleanupEfficiency(diffs)

	var edits []Edit
	// pos tracks our offset in the evolving document; point likewise.
	pos := uint32(0)
	point := Point{}
	for _, d := range diffs {
		text := []byte(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += uint32(len(text))
			point = advancePoint(point, text)
		case diffmatchpatch.DiffDelete:
			edits = append(edits, Edit{
				StartByte:   pos,
				OldEndByte:  pos + uint32(len(text)),
				NewEndByte:  pos,
				StartPoint:  point,
				OldEndPoint: advancePoint(point, text),
				NewEndPoint: point,
			})
		case diffmatchpatch.DiffInsert:
			end := advancePoint(point, text)
			edits = append(edits, Edit{
				StartByte:   pos,
				OldEndByte:  pos,
				NewEndByte:  pos + uint32(len(text)),
				StartPoint:  point,
				OldEndPoint: point,
				NewEndPoint: end,
			})
			pos += uint32(len(text))
			point = end
		}
	}
	return edits
}

// measure returns the point just past the given prefix.
func measure(prefix []byte) Point {
	return advancePoint(Point{}, prefix)
}

// advancePoint moves a point across text, counting columns in UTF-16
// code units.
func advancePoint(p Point, text []byte) Point {
	for _, r := range string(text) {
		if r == '\n' {
			p.Row++
			p.Column = 0
			continue
		}
		p.Column += utf16Width(r)
	}
	return p
}

// utf16Width is the number of UTF-16 code units a rune occupies.
func utf16Width(r rune) uint32 {
	if r > 0xFFFF {
		return 2
	}
	return 1
}
