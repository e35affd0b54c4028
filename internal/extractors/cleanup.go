package extractors

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	trailingSpace = regexp.MustCompile(`[ \t\x{00A0}]+\n`)
	extraBlank    = regexp.MustCompile(`\n{3,}`)
)

// cleanText turns extractor output into the final document text: valid
// UTF-8, \n line endings, no control characters other than \n and \t,
// no trailing spaces, at most one blank line in a row.
func cleanText(raw string) string {
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, "\uFFFD")
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	raw = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\f' || r == '\v':
			return '\n'
		case r < 0x20 || r == 0x7F || r == '\uFEFF':
			return -1
		}
		return r
	}, raw)

	raw = trailingSpace.ReplaceAllString(raw+"\n", "\n")
	raw = extraBlank.ReplaceAllString(raw, "\n\n")
	return strings.TrimSpace(raw)
}
