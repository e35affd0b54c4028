package driving

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// AnnotationService manages a user's own notes on an analysis
type AnnotationService interface {
	// Create adds an annotation; the range is validated against the analysis text
	Create(ctx context.Context, actor *domain.AuthContext, analysisID string, req domain.CreateAnnotationRequest) (*domain.Annotation, error)

	// List retrieves the actor's annotations on an analysis
	List(ctx context.Context, actor *domain.AuthContext, analysisID string) ([]*domain.Annotation, error)

	// Update edits the comment text or type of an annotation
	Update(ctx context.Context, actor *domain.AuthContext, id string, req domain.UpdateAnnotationRequest) (*domain.Annotation, error)

	// Delete removes an annotation
	Delete(ctx context.Context, actor *domain.AuthContext, id string) error
}
