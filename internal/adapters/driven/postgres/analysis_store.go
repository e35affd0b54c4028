package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AnalysisStore = (*AnalysisStore)(nil)

const analysisColumns = `id, document_id, user_id, document_text, summary, key_obligations, risk_assessment,
	highlighted_sections, ai_comments, document_structure, plain_english_explanations, confidence_score,
	document_metadata, rejections, model, processing_time_ms, tokens_used, created_at, updated_at`

// AnalysisStore implements driven.AnalysisStore using PostgreSQL.
// Highlights are stored already reconciled; nothing is re-validated on read.
type AnalysisStore struct {
	db *DB
}

// NewAnalysisStore creates a new AnalysisStore
func NewAnalysisStore(db *DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

// Complete stores the analysis, flips the document to analyzed, and counts
// the usage in one transaction
func (s *AnalysisStore) Complete(ctx context.Context, a *domain.Analysis) error {
	cols, err := analysisValues(a)
	if err != nil {
		return err
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE documents SET status = $1, last_error = '', updated_at = $2
			WHERE id = $3 AND status = $4
		`, string(domain.StatusAnalyzed), a.UpdatedAt, a.DocumentID, string(domain.StatusProcessing))
		if err != nil {
			return fmt.Errorf("update document status: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotProcessing
		}

		// A re-analysis replaces the earlier result with its annotations and chat
		if _, err := tx.ExecContext(ctx, `DELETE FROM analyses WHERE document_id = $1`, a.DocumentID); err != nil {
			return fmt.Errorf("delete previous analysis: %w", err)
		}

		query := `
			INSERT INTO analyses (` + analysisColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`
		if _, err := tx.ExecContext(ctx, query, cols...); err != nil {
			return fmt.Errorf("insert analysis: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET analyses_used = analyses_used + 1 WHERE id = $1`, a.UserID); err != nil {
			return fmt.Errorf("count usage: %w", err)
		}
		return nil
	})
}

func analysisValues(a *domain.Analysis) ([]any, error) {
	obligations, err := marshalJSON(a.KeyObligations, "[]")
	if err != nil {
		return nil, err
	}
	risk, err := marshalJSON(a.RiskAssessment, "{}")
	if err != nil {
		return nil, err
	}
	highlights, err := marshalJSON(a.Highlights, "[]")
	if err != nil {
		return nil, err
	}
	comments, err := marshalJSON(a.AIComments, "[]")
	if err != nil {
		return nil, err
	}
	structure, err := marshalJSON(a.Structure, "{}")
	if err != nil {
		return nil, err
	}
	explanations, err := marshalJSON(a.Explanations, "{}")
	if err != nil {
		return nil, err
	}
	metadata, err := marshalJSON(a.Metadata, "{}")
	if err != nil {
		return nil, err
	}
	rejections, err := marshalJSON(a.Rejections, "[]")
	if err != nil {
		return nil, err
	}
	return []any{
		a.ID, a.DocumentID, a.UserID, a.DocumentText, a.Summary, obligations, risk,
		highlights, comments, structure, explanations, a.ConfidenceScore,
		metadata, rejections, a.Model, a.ProcessingMs, a.TokensUsed, a.CreatedAt, a.UpdatedAt,
	}, nil
}

func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var a domain.Analysis
	var obligations, risk, highlights, comments, structure, explanations, metadata, rejections []byte

	err := row.Scan(
		&a.ID, &a.DocumentID, &a.UserID, &a.DocumentText, &a.Summary, &obligations, &risk,
		&highlights, &comments, &structure, &explanations, &a.ConfidenceScore,
		&metadata, &rejections, &a.Model, &a.ProcessingMs, &a.TokensUsed, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	for _, col := range []struct {
		data []byte
		dst  any
	}{
		{obligations, &a.KeyObligations},
		{risk, &a.RiskAssessment},
		{highlights, &a.Highlights},
		{comments, &a.AIComments},
		{structure, &a.Structure},
		{explanations, &a.Explanations},
		{metadata, &a.Metadata},
		{rejections, &a.Rejections},
	} {
		if err := unmarshalJSON(col.data, col.dst); err != nil {
			return nil, fmt.Errorf("decode analysis %s: %w", a.ID, err)
		}
	}
	return &a, nil
}

// Get retrieves an analysis by ID
func (s *AnalysisStore) Get(ctx context.Context, id string) (*domain.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1`
	return scanAnalysis(s.db.QueryRowContext(ctx, query, id))
}

// GetByDocument retrieves the analysis of a document
func (s *AnalysisStore) GetByDocument(ctx context.Context, documentID string) (*domain.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE document_id = $1`
	return scanAnalysis(s.db.QueryRowContext(ctx, query, documentID))
}

// ListByUser retrieves a user's analyses, newest first
func (s *AnalysisStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Analysis, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analyses := []*domain.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return analyses, nil
}

// Delete removes an analysis, resets its document, and refunds the usage
func (s *AnalysisStore) Delete(ctx context.Context, id string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var documentID, userID string
		err := tx.QueryRowContext(ctx,
			`DELETE FROM analyses WHERE id = $1 RETURNING document_id, user_id`, id,
		).Scan(&documentID, &userID)
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("delete analysis: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET status = $1, last_error = '', updated_at = NOW()
			WHERE id = $2 AND status IN ($3, $4)
		`, string(domain.StatusUploaded), documentID,
			string(domain.StatusAnalyzed), string(domain.StatusError)); err != nil {
			return fmt.Errorf("reset document status: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET analyses_used = GREATEST(analyses_used - 1, 0) WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("refund usage: %w", err)
		}
		return nil
	})
}
