/*
Package diag implements the span-anchored, coloured, caret-pointed
diagnostic engine shared by the parser and semantic analyzer (the
lexer raises no diagnostics; an unknown character becomes a token that
the parser reports as unexpected).

Every diagnostic pairs a stable Code with a human Kind/Message and a
FileSpan; the Engine renders all of them the same way, so the parser's
"unexpected token" and the analyzer's "doesn't return a value" look
identical in shape.
*/
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/eloc-dev/eloc/internal/span"
)

// Kind groups a diagnostic by which pipeline stage raised it. It is
// the text shown before the colon in the rendered header, e.g.
// "Parse Error: unexpected token while parsing: ...".
type Kind string

const (
	KindParseError     Kind = "Parse Error"
	KindTypeCheck      Kind = "Type Check Error"
	KindControlFlow    Kind = "Control-flow Analysis Error"
)

// Code is a stable machine-readable identifier for a diagnostic,
// independent of the human-readable Message. Not required by the
// rendering contract, but cheap to carry and useful to tooling.
// Report does not render it.
type Code string

const (
	CodeUnexpectedToken        Code = "E_UNEXPECTED_TOKEN"
	CodeExpectedStatement      Code = "E_EXPECTED_STATEMENT"
	CodeInvalidCharacterLit    Code = "E_INVALID_CHAR_LITERAL"
	CodeTypeMismatch           Code = "E_TYPE_MISMATCH"
	CodeInvalidType            Code = "E_INVALID_TYPE"
	CodeInvalidExpression      Code = "E_INVALID_EXPRESSION"
	CodeInvalidCast            Code = "E_INVALID_CAST"
	CodeUnresolvedName         Code = "E_UNRESOLVED_NAME"
	CodeUnresolvedField        Code = "E_UNRESOLVED_FIELD"
	CodeVariableRedefinition   Code = "E_VARIABLE_REDEFINITION"
	CodeNameRedefinition       Code = "E_NAME_REDEFINITION"
	CodeUnmatchedArguments     Code = "E_UNMATCHED_ARGUMENTS"
	CodeAssignImmutable        Code = "E_ASSIGN_IMMUTABLE"
	CodeIndexNonIndexable      Code = "E_INDEX_NON_INDEXABLE"
	CodeCallNonFunction        Code = "E_CALL_NON_FUNCTION"
	CodeNonAggregateFieldAcc   Code = "E_NON_AGGREGATE_FIELD_ACCESS"
	CodeNonTupleMemberAccess   Code = "E_NON_TUPLE_MEMBER_ACCESS"
	CodeInvalidTupleMember     Code = "E_INVALID_TUPLE_MEMBER"
	CodeUnknownEnumVariant     Code = "E_UNKNOWN_ENUM_VARIANT"
	CodeMisplacedReturn        Code = "E_MISPLACED_RETURN"
	CodeReturnValueOnVoidFn    Code = "E_RETURN_VALUE_ON_VOID_FN"
	CodeMismatchedReturnType   Code = "E_MISMATCHED_RETURN_TYPE"
	CodeNoReturn               Code = "E_NO_RETURN"
)

// Error is a single diagnostic: what stage raised it, its stable
// code, the message shown in the header, the span it points at, an
// optional sub-message for the caret line (defaults to "here"), and
// an optional Help continuation line.
type Error struct {
	Kind       Kind
	Code       Code
	Message    string
	Span       span.FileSpan
	SubMessage string
	Help       string
}

// Error implements the standard error interface so that *Error can be
// returned and inspected with errors.As by callers that don't care
// about rendering.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Engine renders Errors as multi-line reports. ANSI SGR codes are
// always emitted to Out; NoColor suppresses them — Out and NoColor let
// a caller redirect reports or run them through a non-terminal sink
// without hard-coding stderr.
type Engine struct {
	Out     io.Writer
	NoColor bool
}

// NewEngine returns an Engine that writes always-coloured reports to
// stderr.
func NewEngine() *Engine {
	return &Engine{Out: os.Stderr}
}

func (e *Engine) colorer(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	if e.NoColor {
		c.DisableColor()
	}
	return c
}

// Report renders one diagnostic to e.Out as a caret-underline report:
//
//	header   KIND: message
//	corner   ╭─[file:line:col]
//	source   the offending line, prefixed by its line number
//	caret    underline over [span.start, span.end) with a centred ┬
//	sub      the sub-message (default "here"), optionally "Help: ..."
//	corner   closing corner
func (e *Engine) Report(err *Error) {
	red := e.colorer(color.FgRed, color.Bold)
	cyan := e.colorer(color.FgCyan, color.Bold)
	blue := e.colorer(color.FgBlue, color.Bold)
	green := e.colorer(color.FgGreen, color.Bold)

	fs := err.Span
	line := fs.File.Line(fs.Line)
	spanLen := fs.End - fs.Start
	if spanLen < 0 {
		spanLen = 0
	}

	lineDigits := len(fmt.Sprintf("%d", fs.Line))
	indentN := lineDigits + 2
	indent := strings.Repeat(" ", indentN)

	fmt.Fprintf(e.Out, "%s: %s\n", red.Sprint(string(err.Kind)), err.Message)
	fmt.Fprintf(e.Out, "%s%s[%s:%s:%s%s\n",
		indent, cyan.Sprint("╭─"),
		blue.Sprint(fs.File.Name),
		green.Sprint(fmt.Sprintf("%d", fs.Line)),
		green.Sprint(fmt.Sprintf("%d", fs.Start)),
		cyan.Sprint("]"))
	fmt.Fprintf(e.Out, "%s%s\n", indent, cyan.Sprint("│"))
	fmt.Fprintf(e.Out, " %d %s %s\n", fs.Line, cyan.Sprint("│"), line)

	left := spanLen / 2
	right := spanLen - left
	if right > 0 {
		right--
	}
	fmt.Fprintf(e.Out, "%s%s%s%s%s%s\n",
		indent, cyan.Sprint("·"),
		strings.Repeat(" ", fs.Start),
		green.Sprint("╰"+strings.Repeat("─", left)+"┬"+strings.Repeat("─", right)),
		green.Sprint("╯"), "")

	sub := err.SubMessage
	if sub == "" {
		sub = "here"
	}
	connector := "╰─"
	if err.Help != "" {
		connector = "├─"
	}
	fmt.Fprintf(e.Out, "%s%s%s%s %s\n",
		indent, cyan.Sprint("·"),
		strings.Repeat(" ", fs.Start+spanLen/2+1),
		green.Sprint(connector), sub)

	if err.Help != "" {
		fmt.Fprintf(e.Out, "%s%s%s%s: %s\n",
			indent, cyan.Sprint("·"),
			strings.Repeat(" ", fs.Start+spanLen/2+1),
			green.Sprint("╰─ Help"), err.Help)
	}

	fmt.Fprintf(e.Out, "%s\n", cyan.Sprint(strings.Repeat("─", indentN)+"╯"))
}

// ReportAll renders a slice of diagnostics in order, so multiple
// top-level errors are reported in the order they occur.
func (e *Engine) ReportAll(errs []*Error) {
	for _, err := range errs {
		e.Report(err)
	}
}
