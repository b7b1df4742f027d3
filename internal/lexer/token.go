/*
Package lexer implements a hand-written character scanner: a
single-pass automaton over a UTF-8 byte stream that produces a lazy
sequence of Lexems (a Token paired with its Span).
*/
package lexer

import "fmt"

// Keyword enumerates the language's reserved words. "return" and "ret"
// both map to KeywordReturn.
type Keyword int

const (
	KeywordVar Keyword = iota
	KeywordLet
	KeywordConst
	KeywordFn
	KeywordStruct
	KeywordEnum
	KeywordIf
	KeywordElse
	KeywordWhile
	KeywordReturn
	KeywordExtern
	KeywordTrue
	KeywordFalse
	KeywordMut
	KeywordAs
)

var keywordText = map[Keyword]string{
	KeywordVar:    "var",
	KeywordLet:    "let",
	KeywordConst:  "const",
	KeywordFn:     "fn",
	KeywordStruct: "struct",
	KeywordEnum:   "enum",
	KeywordIf:     "if",
	KeywordElse:   "else",
	KeywordWhile:  "while",
	KeywordReturn: "return",
	KeywordExtern: "extern",
	KeywordTrue:   "true",
	KeywordFalse:  "false",
	KeywordMut:    "mut",
	KeywordAs:     "as",
}

// reservedWords maps every source spelling (including the "ret" alias
// for return) to its Keyword.
var reservedWords = map[string]Keyword{
	"var": KeywordVar, "let": KeywordLet, "const": KeywordConst,
	"fn": KeywordFn, "struct": KeywordStruct, "enum": KeywordEnum,
	"if": KeywordIf, "else": KeywordElse, "while": KeywordWhile,
	"return": KeywordReturn, "ret": KeywordReturn, "extern": KeywordExtern,
	"true": KeywordTrue, "false": KeywordFalse, "mut": KeywordMut, "as": KeywordAs,
}

// LookupKeyword reports whether s is a reserved word, and if so which.
func LookupKeyword(s string) (Keyword, bool) {
	kw, ok := reservedWords[s]
	return kw, ok
}

func (k Keyword) String() string {
	return keywordText[k]
}

// Kind tags which production of the Token grammar a Token belongs to.
type Kind int

const (
	KindEOF Kind = iota
	KindKeyword
	KindIdentifier
	KindNumeric
	KindNewline
	KindOp
	KindDelimiter
	KindString       // "..."
	KindStrLiteral   // '...'
	KindCharLiteral  // `...`
	KindVariadic     // ...
	KindUnknown
)

// Token is a tagged variant covering every lexeme kind the language
// defines. Only the fields relevant to Kind are meaningful:
//
//   - KindKeyword:    Keyword
//   - KindIdentifier: Text (the identifier name)
//   - KindNumeric:    Text (digits without base prefix), Radix
//   - KindOp:         Text (one or two operator characters, e.g. "==")
//   - KindDelimiter:  Text (a single delimiter character)
//   - KindString, KindStrLiteral, KindCharLiteral: Text (raw contents)
//   - KindUnknown:    Text (the single unrecognised character)
type Token struct {
	Kind    Kind
	Text    string
	Radix   int
	Keyword Keyword
}

// String renders the token the way its source spelling would look, so
// re-lexing a re-serialised stream yields the same tokens modulo
// whitespace.
func (t Token) String() string {
	switch t.Kind {
	case KindEOF:
		return "<eof>"
	case KindKeyword:
		return t.Keyword.String()
	case KindIdentifier, KindNumeric, KindOp, KindDelimiter, KindUnknown:
		return t.Text
	case KindNewline:
		return "\n"
	case KindStrLiteral:
		return fmt.Sprintf("'%s'", t.Text)
	case KindCharLiteral:
		return fmt.Sprintf("`%s`", t.Text)
	case KindString:
		return fmt.Sprintf("\"%s\"", t.Text)
	case KindVariadic:
		return "..."
	default:
		return "<invalid token>"
	}
}

// DebugName returns a short human description used in "expected X but
// got Y" diagnostics.
func (t Token) DebugName() string {
	switch t.Kind {
	case KindEOF:
		return "EOF"
	case KindKeyword:
		return fmt.Sprintf("keyword %q", t.Keyword.String())
	case KindIdentifier:
		return fmt.Sprintf("identifier %q", t.Text)
	case KindNumeric:
		return fmt.Sprintf("numeric %q", t.Text)
	case KindNewline:
		return "newline"
	case KindOp:
		return fmt.Sprintf("operator %q", t.Text)
	case KindDelimiter:
		return fmt.Sprintf("delimiter %q", t.Text)
	case KindString:
		return "string literal"
	case KindStrLiteral:
		return "single-quoted literal"
	case KindCharLiteral:
		return "character literal"
	case KindVariadic:
		return "\"...\""
	case KindUnknown:
		return fmt.Sprintf("unknown character %q", t.Text)
	default:
		return "<invalid>"
	}
}
