package highlights

import (
	"fmt"
	"strings"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// LocateStrategy picks which occurrence of a repeated phrase a relocated
// highlight snaps to.
type LocateStrategy string

const (
	// LocateFirst takes the first occurrence in the document
	LocateFirst LocateStrategy = "first"
	// LocateNearest takes the occurrence closest to the declared start,
	// ties going to the earlier one. Without a usable hint it behaves like LocateFirst.
	LocateNearest LocateStrategy = "nearest"
)

// DefaultStrategy is used when none is configured
const DefaultStrategy = LocateFirst

// ParseLocateStrategy parses a configured strategy name
func ParseLocateStrategy(s string) (LocateStrategy, error) {
	switch LocateStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", LocateFirst:
		return LocateFirst, nil
	case LocateNearest:
		return LocateNearest, nil
	}
	return "", fmt.Errorf("%w: unknown locate strategy %q", domain.ErrInvalidInput, s)
}

// Locate returns the code point offset of needle in doc chosen by the
// strategy, or -1 when needle does not occur.
func (s LocateStrategy) Locate(doc *domain.SourceText, needle string, hint int) int {
	if s != LocateNearest || hint < 0 {
		return doc.Index(needle)
	}

	occurrences := doc.IndexAll(needle)
	if len(occurrences) == 0 {
		return -1
	}
	best, bestDist := occurrences[0], distance(occurrences[0], hint)
	for _, at := range occurrences[1:] {
		if d := distance(at, hint); d < bestDist {
			best, bestDist = at, d
		}
	}
	return best
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
