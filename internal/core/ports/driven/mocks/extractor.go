package mocks

import (
	"context"
	"strings"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// Ensure MockExtractor implements TextExtractor
var _ driven.TextExtractor = (*MockExtractor)(nil)

// MockExtractor returns Text for any content, or Err when set
type MockExtractor struct {
	Text  string
	Types []string
	Err   error
}

func (m *MockExtractor) Extract(ctx context.Context, content []byte) (*domain.ExtractedDocument, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.ExtractedDocument{
		Text: m.Text,
		Metadata: domain.DocumentMetadata{
			Pages:          1,
			WordCount:      len(strings.Fields(m.Text)),
			CharacterCount: len([]rune(m.Text)),
			ParagraphCount: 1,
		},
	}, nil
}

func (m *MockExtractor) SupportedTypes() []string {
	if len(m.Types) == 0 {
		return []string{domain.MimeTypePDF, domain.MimeTypeDOCX}
	}
	return m.Types
}

func (m *MockExtractor) Priority() int {
	return 50
}

// MockExtractorRegistry always hands out the same extractor
type MockExtractorRegistry struct {
	Extractor driven.TextExtractor
}

var _ driven.ExtractorRegistry = (*MockExtractorRegistry)(nil)

func (r *MockExtractorRegistry) Get(mimeType string) driven.TextExtractor {
	if r.Extractor == nil {
		return nil
	}
	for _, t := range r.Extractor.SupportedTypes() {
		if t == mimeType {
			return r.Extractor
		}
	}
	return nil
}

func (r *MockExtractorRegistry) Register(extractor driven.TextExtractor) {
	r.Extractor = extractor
}

func (r *MockExtractorRegistry) List() []string {
	if r.Extractor == nil {
		return nil
	}
	return r.Extractor.SupportedTypes()
}
