package driven

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// AnalysisStore handles analysis persistence (PostgreSQL)
type AnalysisStore interface {
	// Complete stores the analysis, replacing any earlier analysis of the
	// same document, marks the document analyzed, and counts the analysis
	// against the owner's usage. All three happen in one transaction.
	Complete(ctx context.Context, analysis *domain.Analysis) error

	// Get retrieves an analysis by ID, including its document text
	Get(ctx context.Context, id string) (*domain.Analysis, error)

	// GetByDocument retrieves the analysis of a document
	GetByDocument(ctx context.Context, documentID string) (*domain.Analysis, error)

	// ListByUser retrieves a user's analyses, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Analysis, error)

	// Delete removes the analysis with its annotations and chat, returns the
	// document to uploaded, and gives the owner back one analysis. All in
	// one transaction.
	Delete(ctx context.Context, id string) error
}
