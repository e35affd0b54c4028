package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AnnotationStore = (*AnnotationStore)(nil)

const annotationColumns = `id, analysis_id, user_id, text_start, text_end, comment_text, annotation_type, created_at, updated_at`

// AnnotationStore implements driven.AnnotationStore using PostgreSQL
type AnnotationStore struct {
	db *DB
}

// NewAnnotationStore creates a new AnnotationStore
func NewAnnotationStore(db *DB) *AnnotationStore {
	return &AnnotationStore{db: db}
}

// Save creates or updates an annotation. The range is immutable once stored.
func (s *AnnotationStore) Save(ctx context.Context, ann *domain.Annotation) error {
	query := `
		INSERT INTO annotations (` + annotationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			comment_text = EXCLUDED.comment_text,
			annotation_type = EXCLUDED.annotation_type,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		ann.ID,
		ann.AnalysisID,
		ann.UserID,
		ann.TextStart,
		ann.TextEnd,
		ann.CommentText,
		string(ann.Type),
		ann.CreatedAt,
		ann.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "check_violation":
			return domain.ErrInvalidInput
		case "foreign_key_violation":
			return domain.ErrNotFound
		}
	}
	return err
}

func scanAnnotation(row rowScanner) (*domain.Annotation, error) {
	var ann domain.Annotation
	err := row.Scan(
		&ann.ID,
		&ann.AnalysisID,
		&ann.UserID,
		&ann.TextStart,
		&ann.TextEnd,
		&ann.CommentText,
		&ann.Type,
		&ann.CreatedAt,
		&ann.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ann, nil
}

// Get retrieves an annotation by ID
func (s *AnnotationStore) Get(ctx context.Context, id string) (*domain.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations WHERE id = $1`
	return scanAnnotation(s.db.QueryRowContext(ctx, query, id))
}

// ListByAnalysis retrieves a user's annotations on an analysis, by position
func (s *AnnotationStore) ListByAnalysis(ctx context.Context, analysisID, userID string) ([]*domain.Annotation, error) {
	query := `
		SELECT ` + annotationColumns + `
		FROM annotations
		WHERE analysis_id = $1 AND user_id = $2
		ORDER BY text_start ASC, text_end DESC, created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, analysisID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	anns := []*domain.Annotation{}
	for rows.Next() {
		ann, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		anns = append(anns, ann)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return anns, nil
}

// Delete removes an annotation
func (s *AnnotationStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affectedOne(result)
}
