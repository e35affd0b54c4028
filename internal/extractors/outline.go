package extractors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

var (
	allCaps       = regexp.MustCompile(`^[A-Z0-9\s.,&'()-]+$`)
	divisionWord  = regexp.MustCompile(`(?i)^(ARTICLE|SECTION|CHAPTER|PART|SCHEDULE|EXHIBIT|APPENDIX|ANNEX)\s+\S`)
	dottedNumber  = regexp.MustCompile(`^\d+(\.\d+)+\.?(\s|$)`)
	numberedTitle = regexp.MustCompile(`^\d+\.\s+[A-Z]`)
	romanNumeral  = regexp.MustCompile(`^[IVXLC]+\.\s+\S`)
	letterItem    = regexp.MustCompile(`^[A-Z]\.\s+\S`)
	titleCase     = regexp.MustCompile(`^[A-Z][a-z]+(\s+[A-Z][a-z]+)*$`)
)

// maxHeadingRunes excludes body paragraphs that happen to match a pattern
const maxHeadingRunes = 100

// headingLevel classifies a trimmed line as a heading of level 1-4, or 0.
func headingLevel(line string) int {
	n := utf8.RuneCountInString(line)
	if n == 0 || n > maxHeadingRunes {
		return 0
	}

	switch {
	case divisionWord.MatchString(line):
		return 1
	case n > 3 && allCaps.MatchString(line) && strings.IndexFunc(line, unicode.IsLetter) >= 0:
		return 1
	case dottedNumber.MatchString(line):
		// 1.2 -> 2, 1.2.3 -> 3
		number := strings.TrimSuffix(strings.Fields(line)[0], ".")
		return min(strings.Count(number, ".")+1, 4)
	case numberedTitle.MatchString(line):
		return 2
	case romanNumeral.MatchString(line):
		return 2
	case letterItem.MatchString(line):
		return 3
	case titleCase.MatchString(line):
		return 3
	}
	return 0
}

// Outline detects headings line by line and nests them by level. A section
// runs from its heading to the next heading of the same or a higher level.
// Positions are rune offsets into text.
func Outline(text string) []domain.DocumentSection {
	var roots []domain.DocumentSection
	// each open section is tracked by its index path from roots down
	var stack [][]int
	total := utf8.RuneCountInString(text)

	// resolve walks a path; pointers into slices go stale on append
	resolve := func(path []int) *domain.DocumentSection {
		s := &roots[path[0]]
		for _, i := range path[1:] {
			s = &s.Subsections[i]
		}
		return s
	}

	pos := 0
	for _, line := range strings.Split(text, "\n") {
		lineRunes := utf8.RuneCountInString(line)
		level := headingLevel(strings.TrimSpace(line))
		if level > 0 {
			for len(stack) > 0 && resolve(stack[len(stack)-1]).Level >= level {
				resolve(stack[len(stack)-1]).EndPosition = pos
				stack = stack[:len(stack)-1]
			}

			section := domain.DocumentSection{
				Title:         strings.TrimSpace(line),
				Level:         level,
				StartPosition: pos,
				EndPosition:   min(pos+lineRunes+1, total),
			}
			var path []int
			if len(stack) == 0 {
				roots = append(roots, section)
				path = []int{len(roots) - 1}
			} else {
				parentPath := stack[len(stack)-1]
				parent := resolve(parentPath)
				parent.Subsections = append(parent.Subsections, section)
				path = append(append([]int{}, parentPath...), len(parent.Subsections)-1)
			}
			stack = append(stack, path)
		}
		pos += lineRunes + 1
	}

	for _, path := range stack {
		resolve(path).EndPosition = total
	}
	return roots
}
