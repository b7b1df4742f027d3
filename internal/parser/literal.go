package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eloc-dev/eloc/internal/lexer"
)

// parseRadix converts a numeric token's raw digit text (with '_'
// separators already left in by the lexer) into an int64, honouring
// its radix. A prefix with no digits after it (e.g. "0x") reaches here
// as an empty digit string, which is reported as an error.
func parseRadix(text string, radix int) (int64, error) {
	clean := strings.ReplaceAll(text, "_", "")
	if clean == "" {
		return 0, fmt.Errorf("empty numeric literal")
	}
	return strconv.ParseInt(clean, radix, 64)
}

// floatFromParts combines a "6" "9" pair of numeric tokens (already
// split across the delimiting '.') into the float64 they spell, e.g.
// "6" "9" -> 6.9. Both parts are read as decimal digits; the radix of
// either token is ignored.
func floatFromParts(whole, frac lexer.Token) (float64, error) {
	text := strings.ReplaceAll(whole.Text+"."+frac.Text, "_", "")
	return strconv.ParseFloat(text, 64)
}
