package fixqdf

import (
	"fmt"
	"io"
	"strings"
)

// objectStreamContext accumulates one /Type /ObjStm object's rewritten
// body between the dictionary's detection and its endstream\n. It is
// created fresh per object stream and discarded once flushed, rather than
// having its fields reset in place, so a subsequent object stream always
// starts from a clean zero value.
//
// The "%% Object stream: object N" marker comments that introduce each
// contained object are QDF tooling annotations, not PDF content: they are
// dropped from the rewritten stream body the same as the dictionary lines
// that named the old /Length, /N and /First, and contribute to
// discardedBytes rather than kept.
type objectStreamContext struct {
	id  int // object number of the containing object stream itself
	idx int // running count of contained objects seen so far

	kept           []string // content lines that make up the rewritten stream body
	keptBytes      int64    // sum of len(l) for l in kept
	discardedBytes int64    // bytes of original dict/marker lines dropped

	// offsetsInStream holds each contained object's byte position in the
	// rewritten body's content-only numbering, i.e. the running total of
	// keptBytes at the moment its marker was seen. Relative offsets in the
	// emitted header are measured against the first entry.
	offsetsInStream []int64
	extends         string // "N 0 R" from a preserved /Extends, if any
}

func newObjectStreamContext(id int) *objectStreamContext {
	return &objectStreamContext{id: id}
}

// discardDictLine drops one of the original dictionary's lines (/Length,
// /N, /First, /Type, ...), remembering /Extends if this is it.
func (o *objectStreamContext) discardDictLine(line string) {
	o.discardedBytes += int64(len(line))
	if m := reExtends.FindStringSubmatch(line); m != nil {
		o.extends = m[1]
	}
}

// discard drops a line contributing no bytes to the rewritten body: the
// preamble before the first marker, or a marker comment itself.
func (o *objectStreamContext) discard(line string) {
	o.discardedBytes += int64(len(line))
}

// beginMember records where, in the content-only numbering, the object
// about to start will land.
func (o *objectStreamContext) beginMember() {
	o.offsetsInStream = append(o.offsetsInStream, o.keptBytes)
}

func (o *objectStreamContext) keep(line string) {
	o.kept = append(o.kept, line)
	o.keptBytes += int64(len(line))
}

// flush writes the rewritten dictionary, header, and buffered body to w,
// and returns the net byte correction to apply to the running output
// offset: the dictionary and header bytes added, minus the discarded
// dictionary and marker bytes removed.
func (o *objectStreamContext) flush(w io.Writer) (int64, error) {
	first := o.offsetsInStream[0]
	onum := o.id

	var headers strings.Builder
	for _, off := range o.offsetsInStream {
		onum++
		fmt.Fprintf(&headers, "%d %d\n", onum, off-first)
	}
	headerBytes := int64(headers.Len())

	var dict strings.Builder
	dict.WriteString("  /Type /ObjStm\n")
	fmt.Fprintf(&dict, "  /Length %d\n", o.keptBytes+headerBytes)
	fmt.Fprintf(&dict, "  /N %d\n", len(o.offsetsInStream))
	fmt.Fprintf(&dict, "  /First %d\n", first+headerBytes)
	if o.extends != "" {
		fmt.Fprintf(&dict, "  /Extends %s\n", o.extends)
	}
	dict.WriteString(">>\n")
	dictBytes := int64(dict.Len())

	for _, s := range [...]string{dict.String(), "stream\n", headers.String()} {
		if _, err := io.WriteString(w, s); err != nil {
			return 0, err
		}
	}
	for _, line := range o.kept {
		if _, err := io.WriteString(w, line); err != nil {
			return 0, err
		}
	}

	return headerBytes + dictBytes + int64(len("stream\n")) - o.discardedBytes, nil
}
