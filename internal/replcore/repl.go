/*
Package replcore implements the interactive Read-Eval-Print Loop for
inspecting the front end: it lexes, parses, and semantically checks
one line of input at a time against a persistent namespace, and prints
either the resulting typed IR or the rendered diagnostic. It never
invokes a backend — there is nothing past the typed IR to show.
*/
package replcore

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/eloc-dev/eloc/internal/diag"
	"github.com/eloc-dev/eloc/internal/ir"
	"github.com/eloc-dev/eloc/internal/lexer"
	"github.com/eloc-dev/eloc/internal/parser"
	"github.com/eloc-dev/eloc/internal/sema"
	"github.com/eloc-dev/eloc/internal/source"
)

// Color definitions for REPL output: visual feedback distinguishing
// banner chrome from checked results and diagnostics.
var (
	blueColor   = color.New(color.FgBlue)
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	greenColor  = color.New(color.FgGreen)
	cyanColor   = color.New(color.FgCyan)
)

// Repl is an interactive front-end session: its banner chrome plus a
// namespace checker that persists across lines, so a struct or
// function declared on one line is resolvable on the next.
type Repl struct {
	Banner  string
	Version string
	Author  string
	Line    string
	License string
	Prompt  string

	checker *sema.Checker
	file    source.File
}

// New creates a Repl ready to Start, with its own persistent checker.
func New(banner, version, author, line, license, prompt string) *Repl {
	file := source.New("<repl>", "")
	return &Repl{
		Banner: banner, Version: version, Author: author,
		Line: line, License: license, Prompt: prompt,
		checker: sema.New(file),
		file:    file,
	}
}

// PrintBannerInfo displays the welcome banner and usage instructions.
func (r *Repl) PrintBannerInfo(writer io.Writer) {
	blueColor.Fprintf(writer, "%s\n", r.Line)
	greenColor.Fprintf(writer, "%s\n", r.Banner)
	blueColor.Fprintf(writer, "%s\n", r.Line)
	yellowColor.Fprintln(writer, "Version: "+r.Version+" | Author: "+r.Author+" | License: "+r.License)
	blueColor.Fprintf(writer, "%s\n", r.Line)
	cyanColor.Fprintf(writer, "%s\n", "Welcome to the eloc front-end REPL.")
	cyanColor.Fprintf(writer, "%s\n", "Type a top-level item (fn, struct, const, ...) and press enter.")
	cyanColor.Fprintf(writer, "%s\n", "Type '.exit' to quit.")
	cyanColor.Fprintf(writer, "%s\n", "Use up/down arrows to navigate command history.")
	blueColor.Fprintf(writer, "%s\n", r.Line)
}

// Start begins the REPL main loop: print the banner, then read, check,
// and print one line at a time until '.exit' or EOF.
func (r *Repl) Start(writer io.Writer) {
	r.PrintBannerInfo(writer)

	rl, err := readline.New(r.Prompt)
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	engine := &diag.Engine{Out: writer}

	for {
		line, err := rl.Readline()
		if err != nil {
			writer.Write([]byte("Good Bye!\n"))
			break
		}

		line = strings.Trim(line, " \n\t\r")
		if line == "" {
			continue
		}
		if line == ".exit" {
			writer.Write([]byte("Good Bye!\n"))
			break
		}

		rl.SaveHistory(line)
		r.executeWithRecovery(writer, engine, line)
	}
}

// executeWithRecovery lexes, parses, and checks one line with panic
// recovery, so a bug in the front end doesn't kill the session —
// unlike a single build/run invocation, the REPL keeps going after an
// error so the user can correct their input and retry.
func (r *Repl) executeWithRecovery(writer io.Writer, engine *diag.Engine, line string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			redColor.Fprintf(writer, "[INTERNAL ERROR] %v\n", recovered)
		}
	}()

	lineFile := source.New(r.file.Name, line)
	p := parser.New(lineFile, lexer.New(lineFile))
	node, ok, err := p.ParseOne()
	if err != nil {
		if de, isDiag := err.(*diag.Error); isDiag {
			engine.Report(de)
		} else {
			redColor.Fprintf(writer, "%s\n", err)
		}
		return
	}
	if !ok {
		return
	}

	checked, checkErr := r.checker.CheckOne(node)
	if checkErr != nil {
		engine.Report(checkErr)
		return
	}

	yellowColor.Fprintf(writer, "%s\n", ir.Print(&ir.Program{Filename: r.file.Name, Nodes: []ir.Statement{checked}}))
}
