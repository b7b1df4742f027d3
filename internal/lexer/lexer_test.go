package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eloc-dev/eloc/internal/source"
)

func tokens(t *testing.T, src string) []Token {
	t.Helper()
	lx := New(source.New("test", src))
	lexems := lx.All()
	out := make([]Token, len(lexems))
	for i, l := range lexems {
		out[i] = l.Token
	}
	return out
}

func TestIntegers(t *testing.T) {
	toks := tokens(t, "69 420 1_000_000 0b01101 0xFf 0o07")
	require.Equal(t, []Token{
		{Kind: KindNumeric, Text: "69", Radix: 10},
		{Kind: KindNumeric, Text: "420", Radix: 10},
		{Kind: KindNumeric, Text: "1_000_000", Radix: 10},
		{Kind: KindNumeric, Text: "01101", Radix: 2},
		{Kind: KindNumeric, Text: "Ff", Radix: 16},
		{Kind: KindNumeric, Text: "07", Radix: 8},
	}, toks)
}

func TestFloatsLexAsDotDelimitedNumerics(t *testing.T) {
	toks := tokens(t, "6.9 4.20")
	require.Equal(t, []Token{
		{Kind: KindNumeric, Text: "6", Radix: 10},
		{Kind: KindDelimiter, Text: "."},
		{Kind: KindNumeric, Text: "9", Radix: 10},
		{Kind: KindNumeric, Text: "4", Radix: 10},
		{Kind: KindDelimiter, Text: "."},
		{Kind: KindNumeric, Text: "20", Radix: 10},
	}, toks)
}

func TestStrings(t *testing.T) {
	toks := tokens(t, `"hello world" 'hello world'`)
	require.Equal(t, []Token{
		{Kind: KindString, Text: "hello world"},
		{Kind: KindStrLiteral, Text: "hello world"},
	}, toks)
}

func TestCharLiteral(t *testing.T) {
	toks := tokens(t, "`a`")
	require.Equal(t, []Token{
		{Kind: KindCharLiteral, Text: "a"},
	}, toks)
}

func TestLineCommentsProduceNoTokens(t *testing.T) {
	toks := tokens(t, "// This is a comment\n// Hello World\n")
	require.Empty(t, toks)
}

func TestDotDoesNotStartANumber(t *testing.T) {
	toks := tokens(t, "1.abc abc.1")
	require.Equal(t, []Token{
		{Kind: KindNumeric, Text: "1", Radix: 10},
		{Kind: KindDelimiter, Text: "."},
		{Kind: KindIdentifier, Text: "abc"},
		{Kind: KindIdentifier, Text: "abc"},
		{Kind: KindDelimiter, Text: "."},
		{Kind: KindNumeric, Text: "1", Radix: 10},
	}, toks)
}

func TestWhitespaceAndVerticalTabsAreSkipped(t *testing.T) {
	toks := tokens(t, "\t\n\x0C\x0B69 \x0C 420 foo \x0B bar     \t\n\x0C\x0B")
	require.Equal(t, []Token{
		{Kind: KindNewline},
		{Kind: KindNumeric, Text: "69", Radix: 10},
		{Kind: KindNumeric, Text: "420", Radix: 10},
		{Kind: KindIdentifier, Text: "foo"},
		{Kind: KindIdentifier, Text: "bar"},
		{Kind: KindNewline},
	}, toks)
}

func TestKeywordsAndReturnAlias(t *testing.T) {
	toks := tokens(t, "fn let var const struct enum if else while return ret extern true false mut as")
	want := []Keyword{
		KeywordFn, KeywordLet, KeywordVar, KeywordConst, KeywordStruct, KeywordEnum,
		KeywordIf, KeywordElse, KeywordWhile, KeywordReturn, KeywordReturn,
		KeywordExtern, KeywordTrue, KeywordFalse, KeywordMut, KeywordAs,
	}
	require.Len(t, toks, len(want))
	for i, k := range want {
		require.Equal(t, KindKeyword, toks[i].Kind)
		require.Equal(t, k, toks[i].Keyword)
	}
}

func TestVariadicMarker(t *testing.T) {
	toks := tokens(t, "fn(a, ...)")
	require.Equal(t, KindVariadic, toks[len(toks)-2].Kind)
}

func TestTwoCharOperators(t *testing.T) {
	toks := tokens(t, "+= == != >= <= && ||")
	require.Equal(t, []Token{
		{Kind: KindOp, Text: "+="},
		{Kind: KindOp, Text: "=="},
		{Kind: KindOp, Text: "!="},
		{Kind: KindOp, Text: ">="},
		{Kind: KindOp, Text: "<="},
		{Kind: KindOp, Text: "&&"},
		{Kind: KindOp, Text: "||"},
	}, toks)
}

func TestUnknownCharacterFallsBackToUnknownKind(t *testing.T) {
	toks := tokens(t, "@")
	require.Equal(t, []Token{{Kind: KindUnknown, Text: "@"}}, toks)
}

func TestSpanTracksLineAndColumns(t *testing.T) {
	lx := New(source.New("test", "abc def"))
	first, ok := lx.Next()
	require.True(t, ok)
	require.Equal(t, 1, first.Span.Line)
	require.Equal(t, 0, first.Span.Start)
	require.Equal(t, 3, first.Span.End)

	second, ok := lx.Next()
	require.True(t, ok)
	require.Equal(t, 4, second.Span.Start)
	require.Equal(t, 7, second.Span.End)
}
