package ir

import (
	"fmt"
	"strings"
)

const printIndentSize = 2

// Printer walks a checked Program and renders an indented tree, one
// line per node, in the shape of a debug dump rather than source
// text. It is the typed-IR analogue of a syntax-tree pretty-printer:
// every line shows the node's Go-level kind, its computed type where
// one exists, and its String() rendering.
type Printer struct {
	indent int
	buf    strings.Builder
}

func (p *Printer) writeIndent() {
	p.buf.WriteString(strings.Repeat(" ", p.indent))
}

func (p *Printer) line(format string, args ...any) {
	p.writeIndent()
	p.buf.WriteString(fmt.Sprintf(format, args...))
	p.buf.WriteByte('\n')
}

// Print renders prog and returns the accumulated text.
func Print(prog *Program) string {
	p := &Printer{}
	p.printProgram(prog)
	return p.buf.String()
}

func (p *Printer) printProgram(prog *Program) {
	p.line("Program %s", prog.Filename)
	p.indent += printIndentSize
	for _, stmt := range prog.Nodes {
		p.printStatement(stmt)
	}
	p.indent -= printIndentSize
}

func (p *Printer) printBlock(b Block) {
	p.indent += printIndentSize
	for _, stmt := range b {
		p.printStatement(stmt)
	}
	p.indent -= printIndentSize
}

func (p *Printer) printStatement(s Statement) {
	d := s.Data
	switch d.Kind {
	case StmtVariable:
		p.line("Variable %s : %s = %s", d.Binding, d.Typing, d.Assignment)
	case StmtConstant:
		p.line("Constant %s : %s = %s", d.Binding, d.Typing, d.Assignment)
	case StmtReturn:
		if d.Value == nil {
			p.line("Return")
		} else {
			p.line("Return %s", d.Value)
		}
	case StmtIf:
		p.line("If %s", d.Condition)
		p.printBlock(d.BlockTrue)
		if len(d.BlockFalse) > 0 {
			p.line("Else")
			p.printBlock(d.BlockFalse)
		}
	case StmtWhile:
		p.line("While %s", d.Condition)
		p.printBlock(d.Block)
	case StmtFn:
		p.printFunctionHead("Fn", d.Function.Head)
		p.printBlock(d.Function.Block)
	case StmtExternFn:
		p.printFunctionHead("ExternFn", d.Head)
	case StmtStruct:
		p.line("Struct %s", d.StructDecl.Name)
		p.indent += printIndentSize
		for name, typ := range d.StructDecl.Fields {
			p.line("%s : %s", name, typ)
		}
		p.indent -= printIndentSize
	case StmtEnum:
		p.line("Enum %s { %s }", d.EnumDecl.Name, strings.Join(d.EnumDecl.Variants, ", "))
	case StmtExpression:
		p.line("ExpressionStatement %s", d.Expr)
	default:
		p.line("<unknown statement>")
	}
}

func (p *Printer) printFunctionHead(label string, head FunctionHead) {
	args := make([]string, len(head.Arguments))
	for i, a := range head.Arguments {
		args[i] = fmt.Sprintf("%s: %s", a.Name, a.Typing)
	}
	variadic := ""
	if head.Variadic {
		variadic = ", ..."
	}
	p.line("%s %s(%s%s) : %s", label, head.Name, strings.Join(args, ", "), variadic, head.Ret)
}
