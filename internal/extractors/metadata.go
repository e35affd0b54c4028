package extractors

import (
	"strings"
	"unicode/utf8"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// measure fills word, character, and paragraph counts for cleaned text.
// Characters are runes, matching the offsets used everywhere else.
func measure(text string, pages int) domain.DocumentMetadata {
	return domain.DocumentMetadata{
		Pages:          pages,
		WordCount:      len(strings.Fields(text)),
		CharacterCount: utf8.RuneCountInString(text),
		ParagraphCount: countParagraphs(text),
	}
}

// countParagraphs counts non-empty blocks separated by blank lines
func countParagraphs(text string) int {
	n := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			n++
		}
	}
	return n
}

// build assembles the extraction result from raw extractor output
func build(raw string, pages int) *domain.ExtractedDocument {
	text := cleanText(raw)
	return &domain.ExtractedDocument{
		Text:      text,
		Metadata:  measure(text, pages),
		Structure: domain.DocumentStructure{Sections: Outline(text)},
	}
}
