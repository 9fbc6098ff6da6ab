package fixqdf

import "fmt"

// SequenceError reports an "N 0 obj" (or object-stream member) header whose
// object number is not the next one expected. QDF objects, top-level or
// contained in an object stream, share a single global counter.
type SequenceError struct {
	Filename string
	Line     int
	Expected int
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%s:%d: expected object %d", e.Filename, e.Line, e.Expected)
}

// LengthParseError reports that the line following a length-placeholder
// object header was not a bare integer.
type LengthParseError struct {
	Filename string
	Line     int
}

func (e *LengthParseError) Error() string {
	return fmt.Sprintf("%s:%d: expected integer", e.Filename, e.Line)
}
