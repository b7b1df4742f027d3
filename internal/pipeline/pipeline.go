/*
Package pipeline wires the lexer, parser, and semantic analyzer into
the single front-end entry point every driver (the `eloc` CLI and its
REPL) calls: lex and parse a source.File into an ast.Program, then
check it into a typed ir.Program, collecting every diag.Error raised
along the way instead of stopping at the first one.
*/
package pipeline

import (
	"github.com/eloc-dev/eloc/internal/diag"
	"github.com/eloc-dev/eloc/internal/ir"
	"github.com/eloc-dev/eloc/internal/lexer"
	"github.com/eloc-dev/eloc/internal/parser"
	"github.com/eloc-dev/eloc/internal/sema"
	"github.com/eloc-dev/eloc/internal/source"
)

// Result bundles everything a driver needs to report on one source
// file: the checked program (never nil; it holds only the top-level
// items that parsed and checked cleanly, possibly none) and
// every diagnostic raised by the parser or the analyzer, in the order
// they were found.
type Result struct {
	Program *ir.Program
	Errors  []*diag.Error
}

// Run lexes, parses, and semantically checks file, never panicking on
// malformed input: a parse failure on one top-level item doesn't
// prevent later items from being parsed and checked.
func Run(file source.File) Result {
	p := parser.New(file, lexer.New(file))
	prog := p.Parse()

	checker := sema.New(file)
	ir := checker.Check(prog)

	errs := make([]*diag.Error, 0, len(p.Errors)+len(checker.Errors))
	errs = append(errs, p.Errors...)
	errs = append(errs, checker.Errors...)

	return Result{Program: ir, Errors: errs}
}

// Ok reports whether r has no diagnostics to show.
func (r Result) Ok() bool { return len(r.Errors) == 0 }
