package driven

import (
	"context"
	"time"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// DocumentStore handles uploaded document persistence (PostgreSQL)
type DocumentStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List retrieves documents matching the filter, newest first
	List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.Document, error)

	// Count returns the number of documents matching the filter
	Count(ctx context.Context, filter domain.DocumentFilter) (int, error)

	// Delete removes a document and its analysis, annotations, and chat
	Delete(ctx context.Context, id string) error

	// TransitionStatus moves a document to status `to` only if its current
	// status is one of `from`. It reports whether the row changed, so two
	// callers racing on the same document cannot both win.
	TransitionStatus(ctx context.Context, id string, from []domain.DocumentStatus, to domain.DocumentStatus, lastError string) (bool, error)

	// ListStale returns documents that entered processing before cutoff
	ListStale(ctx context.Context, cutoff time.Time) ([]*domain.Document, error)
}
