package highlights

import (
	"encoding/json"
	"fmt"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// EncodeAnalysis serialises an analysis, including its document text, for export
func EncodeAnalysis(a *domain.Analysis) ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}
	return data, nil
}

// DecodeAnalysis loads an exported analysis and verifies every highlight
// still satisfies the position invariant against the embedded text.
func DecodeAnalysis(data []byte) (*domain.Analysis, error) {
	var a domain.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: decode analysis: %v", domain.ErrInvalidInput, err)
	}
	doc := a.Source()
	for i := range a.Highlights {
		if !a.Highlights[i].Verify(doc) {
			return nil, fmt.Errorf("%w: highlight %d does not match document text", domain.ErrInvalidInput, i)
		}
	}
	return &a, nil
}
