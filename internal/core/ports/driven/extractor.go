package driven

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// TextExtractor turns an uploaded file into plain text with basic metadata.
// Positions in every later stage are rune offsets into the returned text,
// so the text must be final: no later step may rewrite it.
type TextExtractor interface {
	// Extract reads content and returns its text, metadata, and outline
	Extract(ctx context.Context, content []byte) (*domain.ExtractedDocument, error)

	// SupportedTypes returns MIME types this extractor handles
	SupportedTypes() []string

	// Priority returns the extractor priority (higher = more specific)
	Priority() int
}

// ExtractorRegistry manages text extractors.
// When multiple extractors match a MIME type, the highest priority one is used.
type ExtractorRegistry interface {
	// Get retrieves the best-matching extractor for a MIME type.
	// Returns nil if no extractor is registered for the type.
	Get(mimeType string) TextExtractor

	// Register registers an extractor
	Register(extractor TextExtractor)

	// List returns all registered MIME types
	List() []string
}
