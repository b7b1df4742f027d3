/*
Package span implements the file-anchored source location model shared
by the lexer, parser, semantic analyzer, and diagnostic engine.

A Span is a value-copy {line, start, end} triple: a 1-based line
number and a half-open byte-column range [start, end) into that line.
Spans are cheap to copy and compare, and are attached to every token
and every AST/IR node so that diagnostics can point back at the exact
source text that produced them.
*/
package span

import "github.com/eloc-dev/eloc/internal/source"

// Span is a source location within a single line of a single file.
// Start and End are byte offsets into that line, not the whole file;
// the invariant Start <= End always holds.
type Span struct {
	Line  int
	Start int
	End   int
}

// Merge extends self over a compound construct by keeping self's line
// and start and taking other's end. This is used while parsing to grow
// a span as more of a grammar production is consumed, e.g. merging the
// span of a binary operator's left operand with the span left after
// parsing its right operand.
func (s Span) Merge(other Span) Span {
	return Span{Line: s.Line, Start: s.Start, End: other.End}
}

// Len reports the half-open span's width in bytes.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// File identifies the source file a span is anchored to: its name and
// full text, as read once at the start of compilation, plus the
// Line lookup the diagnostic engine uses to recover an offending
// source line. It is an alias for source.File so that the lexer's
// source.File and the diagnostic engine's span.FileSpan.File are
// always the same value, never two drifting copies.
type File = source.File

// FileSpan is a Span additionally anchored to the file it came from,
// letting the diagnostic engine recover the offending source line
// without threading the file through every call site.
type FileSpan struct {
	File  File
	Line  int
	Start int
	End   int
}

// In anchors a bare Span to a file, producing a FileSpan.
func (s Span) In(f File) FileSpan {
	return FileSpan{File: f, Line: s.Line, Start: s.Start, End: s.End}
}

// Span discards the file anchor, recovering the bare Span.
func (fs FileSpan) Span() Span {
	return Span{Line: fs.Line, Start: fs.Start, End: fs.End}
}

// Empty returns a zero-width span at the start of the given file
// (line 1, column 0).
func Empty(f File) FileSpan {
	return FileSpan{File: f, Line: 1, Start: 0, End: 0}
}
