package fixqdf

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// run is a test helper returning the Fixer itself so cases can inspect its
// unexported xref table directly, not just the emitted bytes.
func run(t *testing.T, filename, input string) (*Fixer, string) {
	t.Helper()
	var buf bytes.Buffer
	f := newFixer(filename, &buf)
	if err := f.run([]byte(input)); err != nil {
		t.Fatalf("run: %v", err)
	}
	return f, buf.String()
}

// TestLengthRepair is scenario S1: a stream's /Length placeholder object
// is rewritten to the true byte count between stream\n and endstream\n.
func TestLengthRepair(t *testing.T) {
	input := "1 0 obj\n<<>>\nendobj\n" +
		"2 0 obj\n<<>>\nendobj\n" +
		"3 0 obj\n<<>>\nstream\nHELLO\nendstream\nendobj\n" +
		"4 0 obj\n0\nendobj\n"

	_, out := run(t, "s1.qdf", input)

	if !strings.Contains(out, "4 0 obj\n6\nendobj\n") {
		t.Fatalf("expected rewritten length object with value 6, got:\n%s", out)
	}
}

// TestIgnoreNewlineMarker is scenario S2: the %QDF: ignore_newline marker
// after endstream decrements the recorded length by one.
func TestIgnoreNewlineMarker(t *testing.T) {
	input := "1 0 obj\n<<>>\nendobj\n" +
		"2 0 obj\n<<>>\nendobj\n" +
		"3 0 obj\n<<>>\nstream\nHELLO\nendstream\n%QDF: ignore_newline\nendobj\n" +
		"4 0 obj\n0\nendobj\n"

	_, out := run(t, "s2.qdf", input)

	if !strings.Contains(out, "4 0 obj\n5\nendobj\n") {
		t.Fatalf("expected rewritten length object with value 5, got:\n%s", out)
	}
}

// TestClassicXrefRewrite is scenario S3: a malformed classic xref section
// and trailer are replaced with correct offsets, entry count and /Size.
func TestClassicXrefRewrite(t *testing.T) {
	input := "1 0 obj\n<<>>\nendobj\n" +
		"2 0 obj\n<<>>\nendobj\n" +
		"xref\n0 1\n0000000000 65535 f \n" +
		"trailer\n<<\n  /Size 99\n>>\n"

	want := "1 0 obj\n<<>>\nendobj\n" +
		"2 0 obj\n<<>>\nendobj\n" +
		"xref\n0 3\n0000000000 65535 f \n" +
		"0000000000 00000 n \n" +
		"0000000020 00000 n \n" +
		"trailer\n<<\n  /Size 3\n>>\n" +
		"startxref\n40\n%%EOF\n"

	_, out := run(t, "s3.qdf", input)

	if out != want {
		t.Fatalf("output mismatch:\n got: %q\nwant: %q", out, want)
	}
}

// TestObjectStreamRewrite is scenario S4: an object stream's dictionary
// and per-member header are rebuilt from the actual rewritten content, and
// its members get compressed xref entries.
func TestObjectStreamRewrite(t *testing.T) {
	input := "1 0 obj\n<<>>\nendobj\n" +
		"2 0 obj\n<<>>\nendobj\n" +
		"3 0 obj\n<<>>\nendobj\n" +
		"4 0 obj\n<<>>\nendobj\n" +
		"5 0 obj\n<<\n  /Type /ObjStm\n  /N 2\n  /First 99\n  /Length 999\n>>\nstream\n" +
		"%% Object stream: object 6\n" +
		"abcdefghi\n" +
		"%% Object stream: object 7\n" +
		"0123456789012345\n" +
		"endstream\nendobj\n" +
		"8 0 obj\n<<>>\nendobj\n"

	f, out := run(t, "s4.qdf", input)

	if !strings.Contains(out, "  /N 2\n") {
		t.Fatalf("expected /N 2 in rewritten dictionary, got:\n%s", out)
	}
	if !strings.Contains(out, "  /First 9\n") {
		t.Fatalf("expected /First 9 in rewritten dictionary, got:\n%s", out)
	}
	if !strings.Contains(out, "6 0\n7 10\n") {
		t.Fatalf("expected header block \"6 0\\n7 10\\n\", got:\n%s", out)
	}

	entries := f.xref.entriesSlice()
	if len(entries) != 8 {
		t.Fatalf("len(entries) = %d, want 8", len(entries))
	}
	member6, member7 := entries[5], entries[6]
	if diff := cmp.Diff(xrefEntry{Type: xrefCompressed, ObjStmID: 5, Index: 0}, member6); diff != "" {
		t.Errorf("object 6 entry mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(xrefEntry{Type: xrefCompressed, ObjStmID: 5, Index: 1}, member7); diff != "" {
		t.Errorf("object 7 entry mismatch (-want +got):\n%s", diff)
	}

	// Object 8 follows the object stream: its recorded xref offset must land
	// exactly on its own "8 0 obj" header in the rewritten output, which only
	// holds if the object stream's flush() correctly accounts for every byte
	// it wrote (dictionary, "stream\n", header block, and body).
	obj8 := entries[7]
	wantOffset := int64(strings.Index(out, "8 0 obj\n"))
	if wantOffset < 0 {
		t.Fatalf("output does not contain \"8 0 obj\\n\":\n%s", out)
	}
	if diff := cmp.Diff(xrefEntry{Type: xrefUncompressed, Offset: wantOffset}, obj8); diff != "" {
		t.Errorf("object 8 entry mismatch (-want +got):\n%s", diff)
	}
}

// TestXRefStreamEmission is scenario S5: a /Type /XRef object gets a
// /W and /Size agreeing with the xref table, and a packed binary body of
// Size entries that starts with an all-zero null entry.
func TestXRefStreamEmission(t *testing.T) {
	input := "1 0 obj\n<<>>\nendobj\n" +
		"2 0 obj\n<<>>\nendobj\n" +
		"3 0 obj\n<<\n  /Type /XRef\n  /W [ 1 1 1 ]\n  /Size 99\n  /Length 999\n>>\nstream\n"

	f, out := run(t, "s5.qdf", input)

	f1, f2 := f.xref.fieldWidths()
	wantW := "  /W [ 1 " + strconv.Itoa(f1) + " " + strconv.Itoa(f2) + " ]\n"
	if !strings.Contains(out, wantW) {
		t.Fatalf("expected %q in output, got:\n%s", wantW, out)
	}
	wantSize := "  /Size " + strconv.Itoa(f.xref.size()) + "\n"
	if !strings.Contains(out, wantSize) {
		t.Fatalf("expected %q in output, got:\n%s", wantSize, out)
	}

	entrySize := 1 + f1 + f2
	streamIdx := strings.Index(out, "stream\n")
	body := out[streamIdx+len("stream\n"):]
	endIdx := strings.Index(body, "\nendstream")
	if endIdx < 0 {
		t.Fatalf("no endstream found in output:\n%s", out)
	}
	packed := body[:endIdx]
	if len(packed) != f.xref.size()*entrySize {
		t.Fatalf("packed body length = %d, want %d", len(packed), f.xref.size()*entrySize)
	}

	// The object 0 null entry is (type=0, offset=0, generation=0): all zero
	// bytes, never the PDF convention's 65535 generation, since that would
	// truncate to a nonzero byte under a narrow /W field and corrupt the
	// stream.
	wantNull := make([]byte, entrySize)
	gotNull := []byte(packed[:entrySize])
	if diff := cmp.Diff(wantNull, gotNull); diff != "" {
		t.Errorf("null entry mismatch (-want +got):\n%s", diff)
	}
}

// TestSequenceError is scenario S6: skipping an object number aborts with
// a fatal, precisely worded diagnostic.
func TestSequenceError(t *testing.T) {
	input := "1 0 obj\n<<>>\nendobj\n" +
		"2 0 obj\n<<>>\nendobj\n" +
		"4 0 obj\n<<>>\nendobj\n"

	f := newFixer("s6.qdf", &bytes.Buffer{})
	err := f.run([]byte(input))
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	want := "s6.qdf:7: expected object 3"
	if err.Error() != want {
		t.Fatalf("err = %q, want %q", err.Error(), want)
	}
}

func TestDeterminism(t *testing.T) {
	input := "1 0 obj\n<<>>\nendobj\n" +
		"2 0 obj\n<<>>\nendobj\n" +
		"xref\n0 1\n0000000000 65535 f \n" +
		"trailer\n<<\n  /Size 99\n>>\n"

	_, out1 := run(t, "det.qdf", input)
	_, out2 := run(t, "det.qdf", input)
	if out1 != out2 {
		t.Fatalf("two runs on the same input diverged")
	}
}
