package domain

import (
	"strings"
	"unicode/utf8"
)

// SourceText is the immutable document text every highlight, comment and
// annotation position refers to. Offsets are counted in Unicode code points,
// never bytes, so they survive a round trip through JSON clients.
type SourceText struct {
	text  string
	runes []rune
}

// NewSourceText wraps s, replacing invalid UTF-8 sequences with U+FFFD so
// rune offsets are well defined.
func NewSourceText(s string) *SourceText {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return &SourceText{text: s, runes: []rune(s)}
}

// String returns the full text
func (d *SourceText) String() string {
	return d.text
}

// Len returns the length in code points
func (d *SourceText) Len() int {
	return len(d.runes)
}

// Slice returns text[start:end] and whether the range was in bounds
func (d *SourceText) Slice(start, end int) (string, bool) {
	if start < 0 || end < start || end > len(d.runes) {
		return "", false
	}
	return string(d.runes[start:end]), true
}

// Matches reports whether text[start:end] equals s exactly
func (d *SourceText) Matches(start, end int, s string) bool {
	got, ok := d.Slice(start, end)
	return ok && got == s
}

// Index returns the code point offset of the first occurrence of sub, or -1
func (d *SourceText) Index(sub string) int {
	if sub == "" {
		return -1
	}
	i := strings.Index(d.text, sub)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(d.text[:i])
}

// IndexAll returns the code point offsets of every occurrence of sub in
// ascending order. Overlapping occurrences are included.
func (d *SourceText) IndexAll(sub string) []int {
	if sub == "" {
		return nil
	}
	var out []int
	byteFrom, runeFrom := 0, 0
	for byteFrom < len(d.text) {
		i := strings.Index(d.text[byteFrom:], sub)
		if i < 0 {
			break
		}
		at := runeFrom + utf8.RuneCountInString(d.text[byteFrom:byteFrom+i])
		out = append(out, at)
		_, size := utf8.DecodeRuneInString(d.text[byteFrom+i:])
		byteFrom += i + size
		runeFrom = at + 1
	}
	return out
}

// Clamp bounds start and end to [0, Len()] and keeps start <= end
func (d *SourceText) Clamp(start, end int) (int, int) {
	n := len(d.runes)
	start = clampInt(start, 0, n)
	end = clampInt(end, 0, n)
	if end < start {
		end = start
	}
	return start, end
}

// ClampPosition bounds a single offset to [0, Len()]
func (d *SourceText) ClampPosition(pos int) int {
	return clampInt(pos, 0, len(d.runes))
}

// ByteOffset converts a code point offset into a byte offset in String()
func (d *SourceText) ByteOffset(pos int) int {
	pos = d.ClampPosition(pos)
	return len(string(d.runes[:pos]))
}

// Head returns at most n leading code points
func (d *SourceText) Head(n int) string {
	if n >= len(d.runes) {
		return d.text
	}
	if n <= 0 {
		return ""
	}
	return string(d.runes[:n])
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
