package driven

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// AnnotationStore handles user annotation persistence (PostgreSQL)
type AnnotationStore interface {
	// Save creates or updates an annotation
	Save(ctx context.Context, annotation *domain.Annotation) error

	// Get retrieves an annotation by ID
	Get(ctx context.Context, id string) (*domain.Annotation, error)

	// ListByAnalysis retrieves a user's annotations on an analysis, by position
	ListByAnalysis(ctx context.Context, analysisID, userID string) ([]*domain.Annotation, error)

	// Delete removes an annotation
	Delete(ctx context.Context, id string) error
}
