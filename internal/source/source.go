/*
Package source holds the input file that the lexer, parser, and
diagnostic engine all borrow immutably for the lifetime of a single
compilation.
*/
package source

// File is a single source file: its name as given on the command line
// and the full text that was read from it. The lexer scans File.Text
// byte by byte; the diagnostic engine re-reads File.Text to recover
// the offending source line when rendering a report.
type File struct {
	Name string
	Text string
}

// New wraps a filename and its already-read contents into a File.
func New(name, text string) File {
	return File{Name: name, Text: text}
}

// Line returns the 1-indexed source line, or "" if line is out of
// range. Diagnostics and the lexer's span bookkeeping both use
// 1-based line numbers, so callers should not subtract one.
func (f File) Line(line int) string {
	if line < 1 {
		return ""
	}
	lines := f.lines()
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func (f File) lines() []string {
	var lines []string
	start := 0
	for i := 0; i < len(f.Text); i++ {
		if f.Text[i] == '\n' {
			end := i
			if end > start && f.Text[end-1] == '\r' {
				end--
			}
			lines = append(lines, f.Text[start:end])
			start = i + 1
		}
	}
	lines = append(lines, trimTrailingCR(f.Text[start:]))
	return lines
}

func trimTrailingCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}
