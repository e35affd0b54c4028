package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
)

// Ensure annotationService implements AnnotationService
var _ driving.AnnotationService = (*annotationService)(nil)

// annotationService implements the AnnotationService interface.
// Annotations are private to their author, admins included.
type annotationService struct {
	analysisStore   driven.AnalysisStore
	annotationStore driven.AnnotationStore
}

// NewAnnotationService creates a new AnnotationService
func NewAnnotationService(analysisStore driven.AnalysisStore, annotationStore driven.AnnotationStore) driving.AnnotationService {
	return &annotationService{
		analysisStore:   analysisStore,
		annotationStore: annotationStore,
	}
}

// Create adds an annotation to an analysis the actor can read
func (s *annotationService) Create(ctx context.Context, actor *domain.AuthContext, analysisID string, req domain.CreateAnnotationRequest) (*domain.Annotation, error) {
	a, err := s.readableAnalysis(ctx, actor, analysisID)
	if err != nil {
		return nil, err
	}

	annType := req.Type
	if annType == "" {
		annType = domain.AnnotationNote
	}

	now := time.Now()
	ann := &domain.Annotation{
		ID:          uuid.NewString(),
		AnalysisID:  a.ID,
		UserID:      actor.UserID,
		TextStart:   req.TextStart,
		TextEnd:     req.TextEnd,
		CommentText: strings.TrimSpace(req.CommentText),
		Type:        annType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ann.Validate(a.Source().Len()); err != nil {
		return nil, err
	}

	if err := s.annotationStore.Save(ctx, ann); err != nil {
		return nil, err
	}
	return ann, nil
}

// List retrieves the actor's annotations on an analysis, ordered by position
func (s *annotationService) List(ctx context.Context, actor *domain.AuthContext, analysisID string) ([]*domain.Annotation, error) {
	if _, err := s.readableAnalysis(ctx, actor, analysisID); err != nil {
		return nil, err
	}
	return s.annotationStore.ListByAnalysis(ctx, analysisID, actor.UserID)
}

// Update edits an annotation. The range is fixed once created.
func (s *annotationService) Update(ctx context.Context, actor *domain.AuthContext, id string, req domain.UpdateAnnotationRequest) (*domain.Annotation, error) {
	ann, err := s.ownAnnotation(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.CommentText != nil {
		ann.CommentText = strings.TrimSpace(*req.CommentText)
	}
	if req.Type != nil {
		ann.Type = *req.Type
	}

	// Validate the range against the text it was made on, since the
	// analysis may have been replaced by a newer one
	docLen := ann.TextEnd
	a, err := s.analysisStore.Get(ctx, ann.AnalysisID)
	switch {
	case err == nil:
		docLen = a.Source().Len()
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	if err := ann.Validate(docLen); err != nil {
		return nil, err
	}
	ann.UpdatedAt = time.Now()

	if err := s.annotationStore.Save(ctx, ann); err != nil {
		return nil, err
	}
	return ann, nil
}

// Delete removes one of the actor's annotations
func (s *annotationService) Delete(ctx context.Context, actor *domain.AuthContext, id string) error {
	ann, err := s.ownAnnotation(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.annotationStore.Delete(ctx, ann.ID)
}

func (s *annotationService) readableAnalysis(ctx context.Context, actor *domain.AuthContext, id string) (*domain.Analysis, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	a, err := s.analysisStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(a.UserID) {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (s *annotationService) ownAnnotation(ctx context.Context, actor *domain.AuthContext, id string) (*domain.Annotation, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	ann, err := s.annotationStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ann.UserID != actor.UserID {
		return nil, domain.ErrNotFound
	}
	return ann, nil
}
