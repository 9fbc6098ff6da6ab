package fixqdf

import "math/bits"

// xrefEntryType distinguishes the two shapes an xrefEntry can take. Object
// number 0 is implicit and is never represented by a stored entry: entry i
// always describes object number i+1.
type xrefEntryType int

const (
	xrefUncompressed xrefEntryType = 1
	xrefCompressed   xrefEntryType = 2
)

// xrefEntry is one row of the cross-reference table.
type xrefEntry struct {
	Type xrefEntryType

	// Offset is meaningful for xrefUncompressed: the byte position of the
	// entry's "N 0 obj" line in the rewritten output.
	Offset int64

	// ObjStmID and Index are meaningful for xrefCompressed: the object
	// number of the containing object stream, and this object's
	// zero-based position within it.
	ObjStmID int
	Index    int
}

// xrefTable is an append-only, ordered sequence of xrefEntry, growing
// monotonically as objects are discovered and never reordered.
type xrefTable struct {
	entries []xrefEntry
}

// push records a newly discovered object as uncompressed, at the offset of
// its own header line. Object-stream members are pushed the same way when
// their header line is seen, then immediately replaced by
// replaceLastCompressed once it is known which stream contains them.
func (t *xrefTable) push(offset int64) {
	t.entries = append(t.entries, xrefEntry{Type: xrefUncompressed, Offset: offset})
}

func (t *xrefTable) replaceLastCompressed(objStmID, index int) {
	t.entries[len(t.entries)-1] = xrefEntry{Type: xrefCompressed, ObjStmID: objStmID, Index: index}
}

func (t *xrefTable) last() xrefEntry {
	return t.entries[len(t.entries)-1]
}

func (t *xrefTable) entriesSlice() []xrefEntry {
	return t.entries
}

// len is the number of objects tracked, not counting the implicit object 0.
func (t *xrefTable) len() int {
	return len(t.entries)
}

// size is the trailer /Size value: object count plus the implicit object 0.
func (t *xrefTable) size() int {
	return 1 + len(t.entries)
}

func (t *xrefTable) maxOffset() int64 {
	var max int64
	for _, e := range t.entries {
		if e.Type == xrefUncompressed && e.Offset > max {
			max = e.Offset
		}
	}
	return max
}

func (t *xrefTable) maxIndex() int {
	max := 1
	for _, e := range t.entries {
		if e.Type == xrefCompressed && e.Index > max {
			max = e.Index
		}
	}
	return max
}

// byteWidth is the minimum number of bytes needed to hold v, big-endian,
// with no leading zero byte required — i.e. ceil(bitlen(v)/8). Widths are
// computed from the actual maximum value seen, never hard-coded, per the
// XRef stream's /W array.
func byteWidth(v int64) int {
	if v < 0 {
		v = 0
	}
	return (bits.Len64(uint64(v)) + 7) / 8
}

// fieldWidths computes the (f1, f2) byte widths for the /W array: f1 wide
// enough for the largest uncompressed offset, f2 wide enough for the
// largest compressed-object index but never zero, so that a file with no
// object streams still gets a usable (if oversized by one byte) field.
func (t *xrefTable) fieldWidths() (f1, f2 int) {
	return byteWidth(t.maxOffset()), byteWidth(int64(t.maxIndex()))
}
