package driving

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// GetAnalysisOptions selects optional parts of an analysis read
type GetAnalysisOptions struct {
	IncludeContent     bool
	IncludeAnnotations bool
	IncludeChat        bool
}

// AnalysisDetail is an analysis with the optional parts requested
type AnalysisDetail struct {
	*domain.Analysis
	Annotations  []*domain.Annotation `json:"annotations,omitempty"`
	Conversation *domain.Conversation `json:"chat,omitempty"`
}

// AnalysisService runs and serves contract analyses
type AnalysisService interface {
	// Request queues an analysis of a document. The document moves to
	// processing immediately; a second request while it is processing
	// fails with domain.ErrAnalysisInProgress.
	Request(ctx context.Context, actor *domain.AuthContext, documentID string) (*domain.AnalysisStatus, error)

	// Status reports where a document is in the pipeline
	Status(ctx context.Context, actor *domain.AuthContext, documentID string) (*domain.AnalysisStatus, error)

	// List returns the caller's analyses, newest first
	List(ctx context.Context, actor *domain.AuthContext, limit, offset int) ([]*domain.AnalysisSummary, error)

	// Get retrieves an analysis
	Get(ctx context.Context, actor *domain.AuthContext, id string, opts GetAnalysisOptions) (*AnalysisDetail, error)

	// View returns the text, highlights, annotations, and render spans of an
	// analysis from one consistent snapshot. selected restyles one highlight.
	View(ctx context.Context, actor *domain.AuthContext, id string, selected *int) (*domain.AnalysisView, error)

	// Export serialises an analysis with its document text
	Export(ctx context.Context, actor *domain.AuthContext, id string) ([]byte, error)

	// Delete removes an analysis with its annotations and chat
	Delete(ctx context.Context, actor *domain.AuthContext, id string) error

	// Process runs the pipeline for a document already in processing.
	// Called by workers.
	Process(ctx context.Context, documentID string) error

	// RecoverStale moves documents stuck in processing to error and
	// returns how many were recovered
	RecoverStale(ctx context.Context) (int, error)
}
