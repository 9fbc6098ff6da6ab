// Package fixqdf repairs a PDF file that has been emitted in QDF mode — a
// deliberately simple, line-oriented, human-editable PDF dialect — so that
// the file becomes a valid, self-consistent PDF again.
//
// A QDF file places every object on a predictable line, expands stream
// contents, and marks byte-sensitive boundaries with sentinel comments, so
// that a human or a script can edit it directly with a text editor. Editing
// a QDF file perturbs the very offsets and lengths a PDF reader relies on:
// stream /Length values no longer match their contents, and the
// cross-reference table no longer points at the right bytes. Process
// restores both in a single forward pass over the file's lines, without
// building a general PDF object model and without interpreting the file's
// content beyond what QDF's line grammar requires.
package fixqdf
