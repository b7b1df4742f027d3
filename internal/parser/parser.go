/*
Package parser implements a hand-written Pratt/precedence-climbing
recursive-descent parser: it turns a stream of lexer.Lexems into an
ast.Program, reporting diag.Errors for every malformed top-level item
without aborting the whole file.
*/
package parser

import (
	"fmt"

	"github.com/eloc-dev/eloc/internal/ast"
	"github.com/eloc-dev/eloc/internal/diag"
	"github.com/eloc-dev/eloc/internal/lexer"
	"github.com/eloc-dev/eloc/internal/span"
)

// precedence is the binding power used by parseExpr's recursive
// climbing. Any token that isn't a recognised operator resolves to
// precedence 0, which is always below the starting limit of 1, so
// parseExpr simply stops instead of erroring.
type precedence int

func binopPrecedence(tok lexer.Token) precedence {
	if tok.Kind != lexer.KindOp {
		return 0
	}
	switch tok.Text {
	case "=":
		return 1
	case "==", "!=":
		return 2
	case "<=", ">=", "<", ">":
		return 3
	case "&&", "||":
		return 4
	case "&", "|", "^":
		return 5
	case "+", "-":
		return 6
	case "*", "/", "%":
		return 7
	case "<<", ">>":
		return 8
	default:
		return 0
	}
}

func unopPrecedence(tok lexer.Token) precedence {
	if tok.Kind != lexer.KindOp {
		return 0
	}
	switch tok.Text {
	case "!", "-", "~", "&", "*":
		return 9
	default:
		return 0
	}
}

// eof is the DebugName-style label used in "expected X but got EOF"
// diagnostics.
const eof = "EOF"

// Parser drives a lexer.Lexer with one lexem of lookahead, building
// an ast.Program and accumulating a diag.Error per malformed
// top-level item rather than stopping at the first one.
type Parser struct {
	file    span.File
	lexer   *lexer.Lexer
	lookhd  *lexer.Lexem
	current span.Span
	Errors  []*diag.Error
}

// New builds a Parser over file, pulling lexems from lx on demand.
func New(file span.File, lx *lexer.Lexer) *Parser {
	return &Parser{file: file, lexer: lx}
}

func (p *Parser) fileSpan(s span.Span) span.FileSpan { return s.In(p.file) }

func (p *Parser) errorf(s span.Span, code diag.Code, format string, args ...any) *diag.Error {
	return &diag.Error{
		Kind:    diag.KindParseError,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    p.fileSpan(s),
	}
}

func (p *Parser) unexpected(s span.Span, got, expected string) *diag.Error {
	return p.errorf(s, diag.CodeUnexpectedToken,
		"unexpected token while parsing: expected %s but got %s", expected, got)
}

func (p *Parser) peek() (lexer.Lexem, bool) {
	if p.lookhd == nil {
		lx, ok := p.lexer.Next()
		if !ok {
			return lexer.Lexem{}, false
		}
		p.lookhd = &lx
	}
	return *p.lookhd, true
}

// next consumes and returns the next lexem, updating the parser's
// "last consumed" span used to merge compound spans.
func (p *Parser) next() (lexer.Lexem, bool) {
	lx, ok := p.peek()
	if !ok {
		return lexer.Lexem{}, false
	}
	p.lookhd = nil
	p.current = lx.Span
	return lx, true
}

// testToken consumes and returns the next lexem if it matches want.
// When lazy, leading Newlines are skipped first.
func (p *Parser) testToken(want lexer.Token, lazy bool) (lexer.Lexem, bool) {
	lx, ok := p.peek()
	if !ok {
		return lexer.Lexem{}, false
	}
	if lx.Token == want {
		p.next()
		return lx, true
	}
	if lazy && lx.Token.Kind == lexer.KindNewline {
		p.next()
		return p.testToken(want, lazy)
	}
	return lexer.Lexem{}, false
}

// expectToken consumes the next lexem, skipping leading newlines,
// and errors if it isn't want.
func (p *Parser) expectToken(want lexer.Token, debugName string) error {
	lx, ok := p.next()
	if !ok {
		return p.unexpected(p.current, eof, debugName)
	}
	if lx.Token.Kind == lexer.KindNewline {
		return p.expectToken(want, debugName)
	}
	if lx.Token != want {
		return p.unexpected(lx.Span, lx.Token.DebugName(), debugName)
	}
	return nil
}

func (p *Parser) expectIdentifier() (string, span.Span, error) {
	lx, ok := p.peek()
	if !ok {
		return "", span.Span{}, p.unexpected(p.current, eof, "identifier")
	}
	if lx.Token.Kind == lexer.KindNewline {
		p.next()
		return p.expectIdentifier()
	}
	if lx.Token.Kind != lexer.KindIdentifier {
		return "", span.Span{}, p.unexpected(lx.Span, lx.Token.DebugName(), "identifier")
	}
	p.next()
	return lx.Token.Text, lx.Span, nil
}

func (p *Parser) expectNumeric() (lexer.Token, span.Span, error) {
	lx, ok := p.next()
	if !ok {
		return lexer.Token{}, span.Span{}, p.unexpected(p.current, eof, "numeric")
	}
	if lx.Token.Kind == lexer.KindNewline {
		return p.expectNumeric()
	}
	if lx.Token.Kind != lexer.KindNumeric {
		return lexer.Token{}, span.Span{}, p.unexpected(lx.Span, lx.Token.DebugName(), "numeric")
	}
	return lx.Token, lx.Span, nil
}

// expectEnd requires a newline, ';', or a following '}' (which is
// left unconsumed) to terminate a statement.
func (p *Parser) expectEnd() error {
	lx, ok := p.peek()
	if !ok {
		return nil
	}
	switch {
	case lx.Token.Kind == lexer.KindNewline || lx.Token == (lexer.Token{Kind: lexer.KindDelimiter, Text: ";"}):
		p.next()
		return nil
	case lx.Token == (lexer.Token{Kind: lexer.KindDelimiter, Text: "}"}):
		return nil
	default:
		return p.unexpected(lx.Span, lx.Token.DebugName(), "end of statement")
	}
}

func (p *Parser) testEnd() bool {
	lx, ok := p.peek()
	if !ok {
		return true
	}
	if lx.Token.Kind == lexer.KindNewline {
		return true
	}
	if lx.Token == (lexer.Token{Kind: lexer.KindDelimiter, Text: ";"}) {
		return true
	}
	if lx.Token == (lexer.Token{Kind: lexer.KindDelimiter, Text: "}"}) {
		return true
	}
	return false
}

func delim(text string) lexer.Token { return lexer.Token{Kind: lexer.KindDelimiter, Text: text} }
func op(text string) lexer.Token    { return lexer.Token{Kind: lexer.KindOp, Text: text} }
func kw(k lexer.Keyword) lexer.Token { return lexer.Token{Kind: lexer.KindKeyword, Keyword: k} }

// --- Types -----------------------------------------------------------------

func (p *Parser) parseType() (ast.Typ, error) {
	lx, ok := p.next()
	if !ok {
		return nil, p.unexpected(p.current, eof, "type")
	}
	switch {
	case lx.Token.Kind == lexer.KindNewline:
		return p.parseType()
	case lx.Token.Kind == lexer.KindIdentifier:
		name := lx.Token.Text
		start := lx.Span
		if _, ok := p.testToken(op("<"), false); ok {
			generic, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if err := p.expectToken(op(">"), "\">\""); err != nil {
				return nil, err
			}
			return &ast.NamedType{SpanVal: start.Merge(p.current), Name: name, Generic: generic}, nil
		}
		return &ast.NamedType{SpanVal: start, Name: name}, nil
	case lx.Token == op("*"):
		mutable := false
		if _, ok := p.testToken(kw(lexer.KeywordMut), false); ok {
			mutable = true
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ast.PointerType{SpanVal: lx.Span.Merge(p.current), Mutable: mutable, Elem: elem}, nil
	case lx.Token == delim("{"):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expectToken(delim(";"), "\";\""); err != nil {
			return nil, err
		}
		numTok, numSpan, err := p.expectNumeric()
		if err != nil {
			return nil, err
		}
		amount, err := parseInt(numTok)
		if err != nil {
			return nil, p.errorf(numSpan, diag.CodeInvalidExpression, "%s", err.Error())
		}
		if err := p.expectToken(delim("}"), "\"}\""); err != nil {
			return nil, err
		}
		return &ast.ArrayType{SpanVal: lx.Span.Merge(p.current), Elem: elem, Amount: int(amount)}, nil
	case lx.Token == delim("("):
		var types []ast.Typ
		if first, err := p.parseType(); err == nil {
			types = append(types, first)
		}
		for {
			if _, ok := p.testToken(delim(","), false); !ok {
				break
			}
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		if err := p.expectToken(delim(")"), "\")\""); err != nil {
			return nil, err
		}
		return &ast.TupleType{SpanVal: lx.Span.Merge(p.current), Types: types}, nil
	default:
		return nil, p.unexpected(lx.Span, lx.Token.DebugName(), "type")
	}
}

func parseInt(tok lexer.Token) (int64, error) {
	return parseRadix(tok.Text, tok.Radix)
}

func (p *Parser) parseTypedField() (ast.TypedField, error) {
	name, _, err := p.expectIdentifier()
	if err != nil {
		return ast.TypedField{}, err
	}
	if err := p.expectToken(delim(":"), "\":\""); err != nil {
		return ast.TypedField{}, err
	}
	typ, err := p.parseType()
	if err != nil {
		return ast.TypedField{}, err
	}
	return ast.TypedField{Name: name, Typing: typ}, nil
}

func (p *Parser) parseField() (ast.Field, error) {
	name, _, err := p.expectIdentifier()
	if err != nil {
		return ast.Field{}, err
	}
	if err := p.expectToken(delim(":"), "\":\""); err != nil {
		return ast.Field{}, err
	}
	value, err := p.parseExpr(1, true)
	if err != nil {
		return ast.Field{}, err
	}
	return ast.Field{Name: name, Value: value}, nil
}

func (p *Parser) parseTypedFields() ([]ast.TypedField, error) {
	var fields []ast.TypedField
	if first, err := p.parseTypedField(); err == nil {
		fields = append(fields, first)
	}
	for {
		if _, ok := p.testToken(delim(","), false); !ok {
			break
		}
		for lx, ok := p.peek(); ok && lx.Token.Kind == lexer.KindNewline; lx, ok = p.peek() {
			p.next()
		}
		if lx, ok := p.peek(); ok && (lx.Token == delim("}") || lx.Token == delim(")")) {
			break // trailing comma
		}
		f, err := p.parseTypedField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// parseFnDeclArgs parses a function declaration's argument list,
// allowing a trailing "..." variadic marker for extern-fn C FFI
// compatibility.
func (p *Parser) parseFnDeclArgs() ([]ast.TypedField, bool, error) {
	var fields []ast.TypedField
	if _, ok := p.testToken(lexer.Token{Kind: lexer.KindVariadic}, true); ok {
		return fields, true, nil
	}
	if first, err := p.parseTypedField(); err == nil {
		fields = append(fields, first)
	}
	for {
		if _, ok := p.testToken(delim(","), false); !ok {
			break
		}
		if lx, ok := p.peek(); ok && lx.Token.Kind == lexer.KindVariadic {
			p.next()
			return fields, true, nil
		}
		f, err := p.parseTypedField()
		if err != nil {
			return nil, false, err
		}
		fields = append(fields, f)
	}
	return fields, false, nil
}

func (p *Parser) parseFields() ([]ast.Field, error) {
	var fields []ast.Field
	if first, err := p.parseField(); err == nil {
		fields = append(fields, first)
	}
	for {
		if _, ok := p.testToken(delim(","), false); !ok {
			break
		}
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (p *Parser) parseExpressionList(termination lexer.Token) ([]ast.Expr, error) {
	var exprs []ast.Expr
	if lx, ok := p.peek(); ok && lx.Token == delim(")") {
		return exprs, nil
	}
	first, err := p.parseExpr(1, true)
	if err != nil {
		return nil, err
	}
	exprs = append(exprs, first)
	for {
		if _, ok := p.testToken(delim(","), false); !ok {
			break
		}
		if lx, ok := p.peek(); ok && lx.Token == termination {
			break
		}
		e, err := p.parseExpr(1, true)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func (p *Parser) parseEnumVariants() ([]string, error) {
	var variants []string
	if first, _, err := p.expectIdentifier(); err == nil {
		variants = append(variants, first)
	}
	for {
		if _, ok := p.testToken(delim(","), false); !ok {
			break
		}
		v, _, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}

// --- Expressions -------------------------------------------------------

func (p *Parser) parseNumber() (ast.Expr, error) {
	tok, start, err := p.expectNumeric()
	if err != nil {
		return nil, err
	}
	if lx, ok := p.peek(); ok && lx.Token == delim(".") {
		p.next()
		frac, _, err := p.expectNumeric()
		if err != nil {
			return nil, err
		}
		value, ferr := floatFromParts(tok, frac)
		if ferr != nil {
			return nil, p.errorf(start, diag.CodeInvalidExpression, "%s", ferr.Error())
		}
		return &ast.FloatLiteralExpr{SpanVal: start.Merge(p.current), Value: value}, nil
	}
	intValue, ierr := parseInt(tok)
	if ierr != nil {
		return nil, p.errorf(start, diag.CodeInvalidExpression, "%s", ierr.Error())
	}
	return &ast.IntegerLiteralExpr{SpanVal: start, Value: intValue, Radix: tok.Radix, Text: tok.Text}, nil
}

func (p *Parser) parseIdentifierExpr() (ast.Expr, error) {
	name, sp, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	return &ast.IdentifierExpr{SpanVal: sp, Name: name}, nil
}

func (p *Parser) parsePrimary(structAllowed bool) (ast.Expr, error) {
	lx, ok := p.peek()
	if !ok {
		return nil, p.unexpected(p.current, eof, "primary expression")
	}
	switch {
	case lx.Token.Kind == lexer.KindNewline:
		p.next()
		return p.parsePrimary(structAllowed)
	case lx.Token.Kind == lexer.KindNumeric:
		return p.parseNumber()
	case lx.Token.Kind == lexer.KindIdentifier:
		ident, err := p.parseIdentifierExpr()
		if err != nil {
			return nil, err
		}
		if _, ok := p.testToken(delim("("), false); ok {
			args, err := p.parseExpressionList(delim(")"))
			if err != nil {
				return nil, err
			}
			if err := p.expectToken(delim(")"), "\")\""); err != nil {
				return nil, err
			}
			return &ast.FunctionCallExpr{
				SpanVal:   ast.Span(ident).Merge(p.current),
				Function:  ident,
				Arguments: args,
			}, nil
		}
		if nx, ok := p.peek(); ok && nx.Token == delim("{") && structAllowed {
			p.next()
			start := ast.Span(ident)
			fields, err := p.parseFields()
			if err != nil {
				return nil, err
			}
			if err := p.expectToken(delim("}"), "\"}\""); err != nil {
				return nil, err
			}
			name := ident.(*ast.IdentifierExpr).Name
			return &ast.StructInitExpr{SpanVal: start.Merge(p.current), Name: name, Fields: fields}, nil
		}
		return ident, nil
	case lx.Token == delim("("):
		p.next()
		initSpan := p.current
		first, err := p.parseExpr(1, true)
		if err != nil {
			return nil, err
		}
		if _, ok := p.testToken(delim(","), false); ok {
			tail, err := p.parseExpressionList(delim(")"))
			if err != nil {
				return nil, err
			}
			if err := p.expectToken(delim(")"), "\")\""); err != nil {
				return nil, err
			}
			exprs := append([]ast.Expr{first}, tail...)
			return &ast.TupleExpr{SpanVal: initSpan.Merge(p.current), Exprs: exprs}, nil
		}
		if err := p.expectToken(delim(")"), "\")\""); err != nil {
			return nil, err
		}
		return first, nil
	case lx.Token == delim("{"):
		p.next()
		initSpan := p.current
		exprs, err := p.parseExpressionList(delim("}"))
		if err != nil {
			return nil, err
		}
		if err := p.expectToken(delim("}"), "\"}\""); err != nil {
			return nil, err
		}
		return &ast.ArrayExpr{SpanVal: initSpan.Merge(p.current), Exprs: exprs, Amount: len(exprs)}, nil
	case lx.Token.Kind == lexer.KindCharLiteral:
		runes := []rune(lx.Token.Text)
		if len(runes) != 1 {
			return nil, &diag.Error{
				Kind: diag.KindParseError, Code: diag.CodeInvalidCharacterLit,
				Message:    "invalid token found while parsing",
				Span:       p.fileSpan(lx.Span),
				SubMessage: "invalid character literal",
				Help:       "if you meant to use str/string, use ' or \" instead of `",
			}
		}
		p.next()
		return &ast.CharacterLiteralExpr{SpanVal: p.current, Value: runes[0]}, nil
	case lx.Token.Kind == lexer.KindStrLiteral:
		p.next()
		return &ast.StrLiteralExpr{SpanVal: p.current, Value: lx.Token.Text}, nil
	case lx.Token.Kind == lexer.KindString:
		p.next()
		return &ast.StringLiteralExpr{SpanVal: p.current, Value: lx.Token.Text}, nil
	case lx.Token == kw(lexer.KeywordTrue):
		p.next()
		return &ast.BooleanLiteralExpr{SpanVal: p.current, Value: true}, nil
	case lx.Token == kw(lexer.KeywordFalse):
		p.next()
		return &ast.BooleanLiteralExpr{SpanVal: p.current, Value: false}, nil
	case lx.Token.Kind == lexer.KindOp:
		if uop, ok := ast.UnaryOpFromText(lx.Token.Text); ok {
			prec := unopPrecedence(lx.Token)
			p.next()
			operand, err := p.parseExpr(prec, true)
			if err != nil {
				return nil, err
			}
			return &ast.UnaryExpr{SpanVal: lx.Span.Merge(p.current), Operator: uop, Operand: operand}, nil
		}
		return nil, p.unexpected(lx.Span, lx.Token.DebugName(), "primary expression")
	default:
		return nil, p.unexpected(lx.Span, lx.Token.DebugName(), "primary expression")
	}
}

func (p *Parser) parseExpr(limit precedence, structAllowed bool) (ast.Expr, error) {
	left, err := p.parsePrimary(structAllowed)
	if err != nil {
		return nil, err
	}
	for {
		lx, ok := p.peek()
		if !ok {
			break
		}
		nextLimit := binopPrecedence(lx.Token)

		if _, ok := p.testToken(kw(lexer.KeywordAs), false); ok {
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			left = &ast.CastExpr{SpanVal: ast.Span(left).Merge(p.current), Origin: left, Typing: typ}
			continue
		}

		if _, ok := p.testToken(delim("."), false); ok {
			if nx, ok := p.peek(); ok && nx.Token.Kind == lexer.KindNumeric && nx.Token.Radix == 10 {
				p.next()
				field, err := parseRadix(nx.Token.Text, 10)
				if err != nil {
					return nil, p.errorf(nx.Span, diag.CodeInvalidExpression, "%s", err.Error())
				}
				left = &ast.TupleAccessExpr{SpanVal: ast.Span(left).Merge(p.current), Origin: left, Field: int(field)}
				continue
			}
			field, _, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			left = &ast.FieldAccessExpr{SpanVal: ast.Span(left).Merge(p.current), Origin: left, Field: field}
			continue
		}

		if limit > nextLimit {
			break
		}

		binLx, ok := p.next()
		if !ok || binLx.Token.Kind != lexer.KindOp {
			break
		}
		binop, _ := ast.BinaryOpFromText(binLx.Token.Text)
		right, err := p.parseExpr(nextLimit, true)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			SpanVal:  ast.Span(left).Merge(p.current),
			Operator: binop,
			Left:     left,
			Right:    right,
		}
	}
	return left, nil
}

// --- Statements ----------------------------------------------------------

func (p *Parser) parseAssignment() (string, ast.Expr, error) {
	name, _, err := p.expectIdentifier()
	if err != nil {
		return "", nil, err
	}
	if err := p.expectToken(op("="), "\"=\""); err != nil {
		return "", nil, err
	}
	expr, err := p.parseExpr(1, true)
	if err != nil {
		return "", nil, err
	}
	return name, expr, nil
}

func (p *Parser) parseLetStmt() (ast.Stmt, error) {
	name, expr, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.LetStmt{Binding: name, Assignment: expr}, nil
}

func (p *Parser) parseVarStmt() (ast.Stmt, error) {
	name, expr, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.VarStmt{Binding: name, Assignment: expr}, nil
}

func (p *Parser) parseConstStmt() (ast.Stmt, error) {
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(delim(":"), "\":\""); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(op("="), "\"=\""); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(1, true)
	if err != nil {
		return nil, err
	}
	return &ast.ConstStmt{Binding: name, Assignment: expr, Typing: typ}, nil
}

func (p *Parser) parseStmts() (ast.Block, error) {
	var nodes []ast.Node
	for {
		node, ok, err := p.parseNode(true)
		if err != nil {
			return ast.Block{}, err
		}
		if !ok {
			break
		}
		nodes = append(nodes, node)
	}
	return ast.Block{Content: nodes}, nil
}

func (p *Parser) parseBlock(lazy, insideBlock bool) (ast.Block, error) {
	if arrowLx, ok := p.testToken(op("=>"), lazy); ok {
		node, ok, err := p.parseNode(insideBlock)
		if err != nil {
			return ast.Block{}, err
		}
		if !ok {
			return ast.Block{}, p.errorf(arrowLx.Span, diag.CodeExpectedStatement, "expected statement")
		}
		return ast.Block{Content: []ast.Node{node}}, nil
	}
	if err := p.expectToken(delim("{"), "\"{\""); err != nil {
		return ast.Block{}, err
	}
	block, err := p.parseStmts()
	if err != nil {
		return ast.Block{}, err
	}
	if err := p.expectToken(delim("}"), "\"}\""); err != nil {
		return ast.Block{}, err
	}
	return block, nil
}

func (p *Parser) parseFnStmt() (ast.Stmt, error) {
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(delim("("), "\"(\""); err != nil {
		return nil, err
	}
	args, err := p.parseTypedFields()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(delim(")"), "\")\""); err != nil {
		return nil, err
	}
	var ret ast.Typ
	if _, ok := p.testToken(delim(":"), false); ok {
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectToken(delim("{"), "\"{\""); err != nil {
		return nil, err
	}
	block, err := p.parseStmts()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(delim("}"), "\"}\""); err != nil {
		return nil, err
	}
	return &ast.FnStmt{Name: name, Block: block, Ret: ret, Arguments: args}, nil
}

func (p *Parser) parseExternFnStmt() (ast.Stmt, error) {
	if err := p.expectToken(kw(lexer.KeywordFn), "keyword \"fn\""); err != nil {
		return nil, err
	}
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(delim("("), "\"(\""); err != nil {
		return nil, err
	}
	args, variadic, err := p.parseFnDeclArgs()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(delim(")"), "\")\""); err != nil {
		return nil, err
	}
	var ret ast.Typ
	if _, ok := p.testToken(delim(":"), false); ok {
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	return &ast.ExternFnStmt{Name: name, Ret: ret, Arguments: args, Variadic: variadic}, nil
}

func (p *Parser) parseStructStmt() (ast.Stmt, error) {
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(delim("{"), "\"{\""); err != nil {
		return nil, err
	}
	fields, err := p.parseTypedFields()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(delim("}"), "\"}\""); err != nil {
		return nil, err
	}
	return &ast.StructStmt{Name: name, Fields: fields}, nil
}

func (p *Parser) parseEnumStmt() (ast.Stmt, error) {
	name, _, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(delim("{"), "\"{\""); err != nil {
		return nil, err
	}
	variants, err := p.parseEnumVariants()
	if err != nil {
		return nil, err
	}
	if err := p.expectToken(delim("}"), "\"}\""); err != nil {
		return nil, err
	}
	return &ast.EnumStmt{Name: name, Variants: variants}, nil
}

func (p *Parser) parseIfStmt() (ast.Stmt, error) {
	cond, err := p.parseExpr(1, false)
	if err != nil {
		return nil, err
	}
	blockTrue, err := p.parseBlock(true, true)
	if err != nil {
		return nil, err
	}
	var blockFalse *ast.Block
	if _, ok := p.testToken(kw(lexer.KeywordElse), true); ok {
		if elseIfLx, ok := p.testToken(kw(lexer.KeywordIf), true); ok {
			stmt, err := p.parseIfStmt()
			if err != nil {
				return nil, err
			}
			blockFalse = &ast.Block{Content: []ast.Node{{Span: elseIfLx.Span, Stmt: stmt}}}
		} else {
			if err := p.expectToken(delim("{"), "\"{\""); err != nil {
				return nil, err
			}
			blk, err := p.parseStmts()
			if err != nil {
				return nil, err
			}
			if err := p.expectToken(delim("}"), "\"}\""); err != nil {
				return nil, err
			}
			blockFalse = &blk
		}
	}
	return &ast.IfStmt{Condition: cond, BlockTrue: blockTrue, BlockFalse: blockFalse}, nil
}

func (p *Parser) parseWhileStmt() (ast.Stmt, error) {
	cond, err := p.parseExpr(1, false)
	if err != nil {
		return nil, err
	}
	block, err := p.parseBlock(true, true)
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Condition: cond, Block: block}, nil
}

func (p *Parser) parseReturnStmt() (ast.Stmt, error) {
	if p.testEnd() {
		return &ast.ReturnStmt{}, nil
	}
	expr, err := p.parseExpr(1, true)
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Expr: expr}, nil
}

func (p *Parser) parseStmt(insideBlock bool) (ast.Stmt, error) {
	lx, ok := p.next()
	if !ok || lx.Token.Kind != lexer.KindKeyword {
		return nil, p.unexpected(lx.Span, lx.Token.DebugName(), "valid statement")
	}
	var result ast.Stmt
	var err error
	switch lx.Token.Keyword {
	case lexer.KeywordStruct:
		result, err = p.parseStructStmt()
	case lexer.KeywordFn:
		result, err = p.parseFnStmt()
	case lexer.KeywordExtern:
		result, err = p.parseExternFnStmt()
	case lexer.KeywordEnum:
		result, err = p.parseEnumStmt()
	case lexer.KeywordConst:
		result, err = p.parseConstStmt()
	case lexer.KeywordVar:
		if !insideBlock {
			return nil, p.unexpected(lx.Span, lx.Token.DebugName(), "valid statement")
		}
		result, err = p.parseVarStmt()
	case lexer.KeywordLet:
		if !insideBlock {
			return nil, p.unexpected(lx.Span, lx.Token.DebugName(), "valid statement")
		}
		result, err = p.parseLetStmt()
	case lexer.KeywordIf:
		if !insideBlock {
			return nil, p.unexpected(lx.Span, lx.Token.DebugName(), "valid statement")
		}
		result, err = p.parseIfStmt()
	case lexer.KeywordWhile:
		if !insideBlock {
			return nil, p.unexpected(lx.Span, lx.Token.DebugName(), "valid statement")
		}
		result, err = p.parseWhileStmt()
	case lexer.KeywordReturn:
		if !insideBlock {
			return nil, p.unexpected(lx.Span, lx.Token.DebugName(), "valid statement")
		}
		result, err = p.parseReturnStmt()
	case lexer.KeywordElse:
		return nil, p.unexpected(lx.Span, "else keyword", "valid statement")
	default:
		return nil, p.unexpected(lx.Span, lx.Token.DebugName(), "valid statement")
	}
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return result, nil
}

// parseNode parses one top-level-or-block item. ok is false with a
// nil error at the natural end of input (top level) or at a closing
// '}' (inside a block).
func (p *Parser) parseNode(insideBlock bool) (ast.Node, bool, error) {
	lx, ok := p.peek()
	if !ok {
		return ast.Node{}, false, nil
	}
	switch {
	case lx.Token.Kind == lexer.KindNewline:
		p.next()
		return p.parseNode(insideBlock)
	case insideBlock && lx.Token == delim("}"):
		return ast.Node{}, false, nil
	case lx.Token.Kind == lexer.KindKeyword && lx.Token.Keyword != lexer.KeywordTrue && lx.Token.Keyword != lexer.KeywordFalse:
		stmt, err := p.parseStmt(insideBlock)
		if err != nil {
			return ast.Node{}, false, err
		}
		return ast.Node{Span: lx.Span, Stmt: stmt}, true, nil
	default:
		sp := lx.Span
		expr, err := p.parseExpr(1, true)
		if err != nil {
			return ast.Node{}, false, err
		}
		node := ast.Node{Span: sp, Stmt: &ast.ExpressionStmt{Expr: expr}}
		if err := p.expectEnd(); err != nil {
			return ast.Node{}, false, err
		}
		return node, true, nil
	}
}

// synchronize discards lexems up to and including the next newline or
// ';' (or to end of input), so a single malformed item doesn't prevent
// the rest of the file from being parsed. Brace nesting is not
// tracked: inside a multi-line item it stops at the first line end.
func (p *Parser) synchronize() {
	for {
		lx, ok := p.peek()
		if !ok {
			return
		}
		p.next()
		if lx.Token.Kind == lexer.KindNewline || lx.Token == delim(";") {
			return
		}
	}
}

// ParseOne parses a single top-level item without looping, for
// drivers (the REPL) that check one line of input at a time instead
// of a whole file. ok is false with a nil error at end of input.
func (p *Parser) ParseOne() (ast.Node, bool, error) {
	return p.parseNode(false)
}

// Parse parses the whole file into a Program. Parse errors are
// recorded on p.Errors and the offending top-level item is skipped,
// so a single error never prevents later items in the file from
// being reported.
func (p *Parser) Parse() *ast.Program {
	var nodes []ast.Node
	for {
		node, ok, err := p.parseNode(false)
		if err != nil {
			if de, isDiag := err.(*diag.Error); isDiag {
				p.Errors = append(p.Errors, de)
			}
			p.synchronize()
			continue
		}
		if !ok {
			break
		}
		nodes = append(nodes, node)
	}
	return &ast.Program{Filename: p.file.Name, Nodes: nodes}
}
