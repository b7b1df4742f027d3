package lexer

import (
	"strings"

	"github.com/eloc-dev/eloc/internal/source"
	"github.com/eloc-dev/eloc/internal/span"
)

// Lexem pairs a Token with the Span it occupies in the source line it
// was lexed from.
type Lexem struct {
	Token Token
	Span  span.Span
}

// Lexer is a single-pass scanner over a source.File's byte stream. It
// is not itself an iterator in the Go sense (there is no convenient
// zero-cost lazy-sequence abstraction in Go the way Rust's Iterator
// trait gives the original elo-lexer); callers drive it one Lexem at
// a time via Next, which is exactly what the parser's lookahead needs.
type Lexer struct {
	file source.File
	pos  int // byte offset into file.Text
	span span.Span
}

// New creates a Lexer over the given file, starting at line 1, column
// 0, matching FileSpan's zero value in the original.
func New(file source.File) *Lexer {
	return &Lexer{file: file, span: span.Span{Line: 1, Start: 0, End: 0}}
}

func (l *Lexer) peekByte() (byte, bool) {
	if l.pos >= len(l.file.Text) {
		return 0, false
	}
	return l.file.Text[l.pos], true
}

func (l *Lexer) peekByteAt(offset int) (byte, bool) {
	if l.pos+offset >= len(l.file.Text) {
		return 0, false
	}
	return l.file.Text[l.pos+offset], true
}

func (l *Lexer) advanceByte() (byte, bool) {
	b, ok := l.peekByte()
	if !ok {
		return 0, false
	}
	l.pos++
	return b, true
}

func (l *Lexer) advanceSpan(n int) {
	l.span.Start = l.span.End
	l.span.End += n
}

func (l *Lexer) advanceLine() {
	l.span.Line++
	l.span.Start = 0
	l.span.End = 0
}

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\r', '\t', '\x0b', '\x0c':
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '[', ']', '{', '}', '.', ',', ';', ':':
		return true
	}
	return false
}

func isOpChar(b byte) bool {
	switch b {
	case '+', '-', '/', '*', '%', '!', '>', '<', '&', '|', '^', '~', '=':
		return true
	}
	return false
}

var twoCharOps = map[string]bool{
	"+=": true, "-=": true, "/=": true, "*=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "~=": true, ">=": true,
	"<=": true, "!=": true, "==": true, "&&": true, "||": true,
	">>": true, "<<": true,
}

func isNumericFirst(b byte) bool { return b >= '0' && b <= '9' }
func isNumeric(b byte) bool      { return (b >= '0' && b <= '9') || b == '_' }
func isNumericBinary(b byte) bool { return b == '0' || b == '1' || b == '_' }
func isNumericOctal(b byte) bool  { return (b >= '0' && b <= '7') || b == '_' }
func isNumericHex(b byte) bool {
	return (b >= '0' && b <= '9') || b == '_' || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
func isIdentifierFirst(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}
func isIdentifier(b byte) bool {
	return isIdentifierFirst(b) || (b >= '0' && b <= '9')
}

// consumeWhile consumes bytes while match holds, returning them as a
// string (optionally seeded with a first byte already consumed by the
// caller).
func (l *Lexer) consumeWhile(first []byte, match func(byte) bool) string {
	var buf strings.Builder
	buf.Write(first)
	for {
		b, ok := l.peekByte()
		if !ok || !match(b) {
			break
		}
		buf.WriteByte(b)
		l.pos++
	}
	return buf.String()
}

func (l *Lexer) lexNumeric(first byte) Token {
	if first == '0' {
		if c, ok := l.peekByte(); ok {
			switch c {
			case 'b':
				l.pos++
				l.advanceSpan(2)
				digits := l.consumeWhile(nil, isNumericBinary)
				l.span.End += len(digits)
				return Token{Kind: KindNumeric, Text: digits, Radix: 2}
			case 'o':
				l.pos++
				l.advanceSpan(2)
				digits := l.consumeWhile(nil, isNumericOctal)
				l.span.End += len(digits)
				return Token{Kind: KindNumeric, Text: digits, Radix: 8}
			case 'x':
				l.pos++
				l.advanceSpan(2)
				digits := l.consumeWhile(nil, isNumericHex)
				l.span.End += len(digits)
				return Token{Kind: KindNumeric, Text: digits, Radix: 16}
			}
		}
		l.advanceSpan(1)
		return Token{Kind: KindNumeric, Text: "0", Radix: 10}
	}
	digits := l.consumeWhile([]byte{first}, isNumeric)
	l.advanceSpan(len(digits))
	return Token{Kind: KindNumeric, Text: digits, Radix: 10}
}

func (l *Lexer) lexWord(first byte) Token {
	word := l.consumeWhile([]byte{first}, isIdentifier)
	l.advanceSpan(len(word))
	if kw, ok := LookupKeyword(word); ok {
		return Token{Kind: KindKeyword, Keyword: kw}
	}
	return Token{Kind: KindIdentifier, Text: word}
}

func (l *Lexer) lexOp(first byte) Token {
	l.advanceSpan(1)
	if b, ok := l.peekByte(); ok {
		pair := string([]byte{first, b})
		if twoCharOps[pair] {
			l.pos++
			l.span.End++
			return Token{Kind: KindOp, Text: pair}
		}
	}
	return Token{Kind: KindOp, Text: string(first)}
}

// consumeDelimited scans the body of a quoted literal up to (but not
// including) the closing quote byte, counting embedded newlines. An
// unterminated literal runs to end-of-input; the caller's token then
// carries whatever was collected, and the parser is left to fail on
// the next expected token.
func (l *Lexer) consumeDelimited(quote byte) (string, int) {
	var buf strings.Builder
	lines := 0
	for {
		b, ok := l.peekByte()
		if !ok {
			break
		}
		if b == '\n' {
			lines++
		}
		if b == quote {
			break
		}
		buf.WriteByte(b)
		l.pos++
	}
	return buf.String(), lines
}

func (l *Lexer) lexQuoted(quote byte, kind Kind) Token {
	body, lines := l.consumeDelimited(quote)
	if _, ok := l.peekByte(); ok {
		l.pos++ // consume the closing quote
	}
	l.advanceSpan(len(body))
	l.span.End += 2 // opening + closing quote
	l.span.Line += lines
	return Token{Kind: kind, Text: body}
}

// Next returns the next Lexem in the stream, or ok=false at
// end-of-input. It skips whitespace and line comments silently.
func (l *Lexer) Next() (Lexem, bool) {
	b, ok := l.advanceByte()
	if !ok {
		return Lexem{}, false
	}

	switch {
	case b == '/' && peekIs(l, '/'):
		l.pos++
		l.consumeWhile(nil, func(c byte) bool { return c != '\n' })
		if _, ok := l.peekByte(); ok {
			l.pos++ // consume the newline itself
		}
		l.advanceLine()
		return l.Next()
	case b == '\n':
		l.advanceLine()
		return Lexem{Token: Token{Kind: KindNewline}, Span: l.span}, true
	case isWhitespace(b):
		l.advanceSpan(1)
		return l.Next()
	case isIdentifierFirst(b):
		tok := l.lexWord(b)
		return Lexem{Token: tok, Span: l.span}, true
	case isNumericFirst(b):
		tok := l.lexNumeric(b)
		return Lexem{Token: tok, Span: l.span}, true
	case isOpChar(b):
		tok := l.lexOp(b)
		return Lexem{Token: tok, Span: l.span}, true
	case isDelimiter(b):
		return l.lexDelimiter(b), true
	case b == '"':
		tok := l.lexQuoted('"', KindString)
		return Lexem{Token: tok, Span: l.span}, true
	case b == '\'':
		tok := l.lexQuoted('\'', KindStrLiteral)
		return Lexem{Token: tok, Span: l.span}, true
	case b == '`':
		tok := l.lexQuoted('`', KindCharLiteral)
		return Lexem{Token: tok, Span: l.span}, true
	default:
		l.advanceSpan(1)
		return Lexem{Token: Token{Kind: KindUnknown, Text: string(b)}, Span: l.span}, true
	}
}

func peekIs(l *Lexer, want byte) bool {
	b, ok := l.peekByte()
	return ok && b == want
}

// lexDelimiter also recognises ".." / "..." so that the variadic
// marker (three consecutive dots) is produced as a single token. A
// lone '.' is a delimiter; '..' is currently unused and is emitted as
// a single '.' followed by another.
func (l *Lexer) lexDelimiter(b byte) Lexem {
	if b == '.' && peekIs(l, '.') {
		if third, ok := l.peekByteAt(1); ok && third == '.' {
			l.pos += 2 // second and third dot
			l.advanceSpan(3)
			return Lexem{Token: Token{Kind: KindVariadic}, Span: l.span}
		}
	}
	l.advanceSpan(1)
	return Lexem{Token: Token{Kind: KindDelimiter, Text: string(b)}, Span: l.span}
}

// All drains the lexer into a slice, used by tests.
func (l *Lexer) All() []Lexem {
	var out []Lexem
	for {
		lx, ok := l.Next()
		if !ok {
			return out
		}
		out = append(out, lx)
	}
}

// File exposes the lexer's underlying source file, e.g. so a Parser
// constructed around a Lexer can build FileSpans without threading the
// file through separately.
func (l *Lexer) File() source.File {
	return l.file
}
