package extractors

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextExtractor = (*PlaintextExtractor)(nil)

// PlaintextExtractor passes text files through the common cleanup. The
// offline CLI uses it for fixtures; uploads only accept PDF and DOCX.
type PlaintextExtractor struct{}

func (e *PlaintextExtractor) Extract(ctx context.Context, content []byte) (*domain.ExtractedDocument, error) {
	return build(string(content), 0), nil
}

func (e *PlaintextExtractor) SupportedTypes() []string {
	return []string{"text/plain", "text/markdown"}
}

func (e *PlaintextExtractor) Priority() int {
	return 1
}
