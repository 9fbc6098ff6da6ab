package fixqdf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// fixState is the driver's current line-classification mode. Exactly one
// context struct is meaningful at a time (ostm below), which is why it is
// carried as a nilable pointer rather than an always-present field.
type fixState int

const (
	stTop fixState = iota
	stInObj
	stInStream
	stAfterStream
	stInLength
	stInOstreamDict
	stInOstreamMember
	stInXRefStreamDict
	stAtXref
	stInTrailer
	stDone
)

// Fixer drives the single forward pass described in the package doc
// comment. It is used once, via Process, and discarded.
type Fixer struct {
	filename string
	out      io.Writer

	acc    offsetAccountant
	state  fixState
	lineNo int

	lastObj int // most recently assigned object number; next must be lastObj+1
	xref    xrefTable

	curObjOffset int64 // last_offset of the "N 0 obj" line currently open

	streamStart  int64 // for a plain (non-ObjStm) stream
	streamLength int64

	ostm *objectStreamContext

	xrefIsStream bool
	xrefOffset   int64 // byte position the eventual startxref line will name

	// Precomputed once, on entering stInXRefStreamDict.
	xF1, xF2, xEntrySize, xSize int
}

func newFixer(filename string, out io.Writer) *Fixer {
	return &Fixer{filename: filename, out: out, state: stTop}
}

// Process reads a QDF-mode PDF from input and writes the repaired file to
// out. filename is used only to prefix diagnostic messages.
func Process(filename string, input []byte, out io.Writer) error {
	f := newFixer(filename, out)
	return f.run(input)
}

func (f *Fixer) run(data []byte) error {
	ls := newLineSource(data)
	for {
		line, ok := ls.next()
		if !ok {
			break
		}
		f.lineNo++
		f.acc.advance(int64(len(line)))
		if err := f.dispatch(line); err != nil {
			return err
		}
		if f.state == stDone {
			break
		}
	}
	return nil
}

func (f *Fixer) dispatch(line string) error {
	switch f.state {
	case stTop:
		return f.stepTop(line)
	case stInObj:
		return f.stepInObj(line)
	case stInStream:
		return f.stepInStream(line)
	case stAfterStream:
		return f.stepAfterStream(line)
	case stInLength:
		return f.stepInLength(line)
	case stInOstreamDict:
		return f.stepInOstreamDict(line)
	case stInOstreamMember:
		return f.stepInOstreamMember(line)
	case stInXRefStreamDict:
		return f.stepInXRefStreamDict(line)
	case stAtXref:
		return f.stepAtXref(line)
	case stInTrailer:
		return f.stepInTrailer(line)
	default:
		return nil
	}
}

// checkObjID enforces that objects, whether top-level or inside an object
// stream, are numbered consecutively from 1 with a single shared counter.
func (f *Fixer) checkObjID(n int) error {
	expected := f.lastObj + 1
	if n != expected {
		return &SequenceError{Filename: f.filename, Line: f.lineNo, Expected: expected}
	}
	f.lastObj = expected
	return nil
}

func (f *Fixer) passthrough(line string) error {
	_, err := io.WriteString(f.out, line)
	return err
}

// suppressLine discards a consumed line entirely: it was already credited
// to the offset by run's default advance, so that credit is withdrawn.
func (f *Fixer) suppressLine(line string) {
	f.acc.adjust(-int64(len(line)))
}

// replaceLine writes replacement in place of the consumed line orig.
func (f *Fixer) replaceLine(orig, replacement string) error {
	if _, err := io.WriteString(f.out, replacement); err != nil {
		return err
	}
	f.acc.adjust(int64(len(replacement)) - int64(len(orig)))
	return nil
}

// insertRaw writes block, which has no corresponding single consumed line
// (a freshly synthesized section such as a rebuilt xref table).
func (f *Fixer) insertRaw(block string) error {
	if _, err := io.WriteString(f.out, block); err != nil {
		return err
	}
	f.acc.adjust(int64(len(block)))
	return nil
}

func (f *Fixer) stepTop(line string) error {
	if m := reObjHeader.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return err
		}
		if err := f.checkObjID(n); err != nil {
			return err
		}
		f.curObjOffset = f.acc.lastOffset
		f.xref.push(f.curObjOffset)
		if err := f.passthrough(line); err != nil {
			return err
		}
		f.state = stInObj
		return nil
	}
	if line == "xref\n" {
		if err := f.passthrough(line); err != nil {
			return err
		}
		f.xrefOffset = f.acc.lastOffset
		if err := f.insertRaw(f.buildClassicXrefBlock()); err != nil {
			return err
		}
		f.state = stAtXref
		return nil
	}
	return f.passthrough(line)
}

func (f *Fixer) stepInObj(line string) error {
	switch {
	case line == "endobj\n":
		if err := f.passthrough(line); err != nil {
			return err
		}
		f.state = stTop
		return nil
	case line == "stream\n":
		if err := f.passthrough(line); err != nil {
			return err
		}
		f.streamStart = f.acc.offset
		f.state = stInStream
		return nil
	case strings.Contains(line, "/Type /ObjStm"):
		f.ostm = newObjectStreamContext(f.lastObj)
		f.ostm.discardDictLine(line)
		f.state = stInOstreamDict
		return nil
	case strings.Contains(line, "/Type /XRef"):
		f.xrefIsStream = true
		f.xF1, f.xF2 = f.xref.fieldWidths()
		f.xEntrySize = 1 + f.xF1 + f.xF2
		f.xSize = f.xref.size()
		f.xrefOffset = f.curObjOffset
		if err := f.passthrough(line); err != nil {
			return err
		}
		f.state = stInXRefStreamDict
		return nil
	default:
		return f.passthrough(line)
	}
}

func (f *Fixer) stepInStream(line string) error {
	if line == "endstream\n" {
		f.streamLength = f.acc.lastOffset - f.streamStart
		if err := f.passthrough(line); err != nil {
			return err
		}
		f.state = stAfterStream
		return nil
	}
	return f.passthrough(line)
}

func (f *Fixer) stepAfterStream(line string) error {
	if line == "%QDF: ignore_newline\n" {
		if f.streamLength > 0 {
			f.streamLength--
		}
		return f.passthrough(line)
	}
	if m := reObjHeader.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return err
		}
		if err := f.checkObjID(n); err != nil {
			return err
		}
		f.xref.push(f.acc.lastOffset)
		if err := f.passthrough(line); err != nil {
			return err
		}
		f.state = stInLength
		return nil
	}
	return f.passthrough(line)
}

func (f *Fixer) stepInLength(line string) error {
	if !reInteger.MatchString(line) {
		return &LengthParseError{Filename: f.filename, Line: f.lineNo}
	}
	replacement := fmt.Sprintf("%d\n", f.streamLength)
	if err := f.replaceLine(line, replacement); err != nil {
		return err
	}
	f.state = stTop
	return nil
}

func (f *Fixer) stepInOstreamDict(line string) error {
	if line == "stream\n" {
		f.ostm.discardDictLine(line)
		f.state = stInOstreamMember
		return nil
	}
	f.ostm.discardDictLine(line)
	return nil
}

func (f *Fixer) stepInOstreamMember(line string) error {
	if m := reOstreamObj.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return err
		}
		if err := f.checkObjID(n); err != nil {
			return err
		}
		f.xref.push(f.acc.lastOffset)
		f.xref.replaceLastCompressed(f.ostm.id, f.ostm.idx)
		f.ostm.idx++
		f.ostm.beginMember()
		f.ostm.discard(line)
		return nil
	}
	if line == "endstream\n" {
		delta, err := f.ostm.flush(f.out)
		if err != nil {
			return err
		}
		f.acc.adjust(delta)
		if err := f.passthrough(line); err != nil {
			return err
		}
		f.ostm = nil
		f.state = stInObj
		return nil
	}
	if len(f.ostm.offsetsInStream) == 0 {
		f.ostm.discard(line)
		return nil
	}
	f.ostm.keep(line)
	return nil
}

func (f *Fixer) stepInXRefStreamDict(line string) error {
	switch {
	case strings.Contains(line, "/Length"):
		return f.replaceLine(line, fmt.Sprintf("  /Length %d\n", f.xSize*f.xEntrySize))
	case strings.Contains(line, "/W "):
		return f.replaceLine(line, fmt.Sprintf("  /W [ 1 %d %d ]\n", f.xF1, f.xF2))
	case reSizeLine.MatchString(line) || strings.Contains(line, "/Size"):
		return f.replaceLine(line, fmt.Sprintf("  /Size %d\n", f.xSize))
	case line == "stream\n":
		if err := f.passthrough(line); err != nil {
			return err
		}
		return f.emitXRefStreamBody()
	default:
		return f.passthrough(line)
	}
}

func (f *Fixer) emitXRefStreamBody() error {
	var buf bytes.Buffer
	bw := newBinaryWriter(&buf)

	write := func(t xrefEntryType, a, b int64) error {
		if err := bw.writeUint(uint64(t), 1); err != nil {
			return err
		}
		if err := bw.writeUint(uint64(a), f.xF1); err != nil {
			return err
		}
		return bw.writeUint(uint64(b), f.xF2)
	}

	if err := write(0, 0, 0); err != nil {
		return err
	}
	for _, e := range f.xref.entriesSlice() {
		switch e.Type {
		case xrefUncompressed:
			if err := write(xrefUncompressed, e.Offset, 0); err != nil {
				return err
			}
		case xrefCompressed:
			if err := write(xrefCompressed, int64(e.ObjStmID), int64(e.Index)); err != nil {
				return err
			}
		}
	}

	if err := f.insertRaw(buf.String()); err != nil {
		return err
	}
	tail := fmt.Sprintf("\nendstream\nendobj\n\nstartxref\n%d\n%%%%EOF\n", f.xrefOffset)
	if err := f.insertRaw(tail); err != nil {
		return err
	}
	f.state = stDone
	return nil
}

func (f *Fixer) buildClassicXrefBlock() string {
	var b strings.Builder
	fmt.Fprintf(&b, "0 %d\n", f.xref.size())
	b.WriteString("0000000000 65535 f \n")
	for _, e := range f.xref.entriesSlice() {
		if e.Type == xrefUncompressed {
			fmt.Fprintf(&b, "%010d 00000 n \n", e.Offset)
		}
	}
	return b.String()
}

func (f *Fixer) stepAtXref(line string) error {
	if strings.HasPrefix(line, "trailer") {
		if err := f.passthrough(line); err != nil {
			return err
		}
		f.state = stInTrailer
		return nil
	}
	f.suppressLine(line)
	return nil
}

func (f *Fixer) stepInTrailer(line string) error {
	if reSizeLine.MatchString(line) {
		return f.replaceLine(line, fmt.Sprintf("  /Size %d\n", f.xref.size()))
	}
	if strings.TrimRight(line, "\n") == ">>" {
		if err := f.passthrough(line); err != nil {
			return err
		}
		block := fmt.Sprintf("startxref\n%d\n%%%%EOF\n", f.xrefOffset)
		if err := f.insertRaw(block); err != nil {
			return err
		}
		f.state = stDone
		return nil
	}
	return f.passthrough(line)
}
