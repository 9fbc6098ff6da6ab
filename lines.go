package fixqdf

import "bytes"

// lineSource yields successive lines from a byte buffer read entirely into
// memory. QDF output is canonical: '\n' is the sole line delimiter, there
// is no CR folding, and the final line need not be newline-terminated.
type lineSource struct {
	data []byte
	pos  int
}

func newLineSource(data []byte) *lineSource {
	return &lineSource{data: data}
}

// next returns the next line, including its trailing "\n" for every line
// but possibly the last, and reports whether a line was returned at all.
func (ls *lineSource) next() (string, bool) {
	if ls.pos >= len(ls.data) {
		return "", false
	}
	rest := ls.data[ls.pos:]
	if idx := bytes.IndexByte(rest, '\n'); idx >= 0 {
		ls.pos += idx + 1
		return string(rest[:idx+1]), true
	}
	ls.pos = len(ls.data)
	return string(rest), true
}

// offsetAccountant tracks the running output byte position across the
// single forward pass. offset is the position immediately past the current
// line; lastOffset is the position at which the current line began.
//
// Most lines pass through to the output unchanged, so advance's default of
// crediting a line's input length as its output length is correct without
// further action; state handling calls adjust whenever the line actually
// written differs in length from the line read (a rewritten /Length
// placeholder, a rebuilt object-stream dictionary).
type offsetAccountant struct {
	offset     int64
	lastOffset int64
}

func (a *offsetAccountant) advance(n int64) {
	a.lastOffset = a.offset
	a.offset += n
}

func (a *offsetAccountant) adjust(delta int64) {
	a.offset += delta
}
