package driving

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// UploadRequest carries one uploaded contract file
type UploadRequest struct {
	Filename string
	MimeType string
	Content  []byte
}

// DocumentList is one page of a user's documents
type DocumentList struct {
	Documents []*domain.Document `json:"documents"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// DocumentService manages uploaded contracts
type DocumentService interface {
	// Upload validates and stores a file, creating a document in uploaded status
	Upload(ctx context.Context, actor *domain.AuthContext, req UploadRequest) (*domain.Document, error)

	// Get retrieves a document the actor may access
	Get(ctx context.Context, actor *domain.AuthContext, id string) (*domain.Document, error)

	// List retrieves the actor's documents
	List(ctx context.Context, actor *domain.AuthContext, filter domain.DocumentFilter) (*DocumentList, error)

	// Delete removes a document, its stored file, and its analysis
	Delete(ctx context.Context, actor *domain.AuthContext, id string) error
}
