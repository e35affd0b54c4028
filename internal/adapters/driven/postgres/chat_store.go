package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChatStore = (*ChatStore)(nil)

// ChatStore implements driven.ChatStore using PostgreSQL. Messages keep
// insertion order through a serial column.
type ChatStore struct {
	db *DB
}

// NewChatStore creates a new ChatStore
func NewChatStore(db *DB) *ChatStore {
	return &ChatStore{db: db}
}

// querier is satisfied by *DB and *sql.Tx
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Get retrieves the conversation a user holds about an analysis
func (s *ChatStore) Get(ctx context.Context, analysisID, userID string) (*domain.Conversation, error) {
	return loadConversation(ctx, s.db, analysisID, userID)
}

// AppendExchange stores a question and its answer in one transaction
func (s *ChatStore) AppendExchange(ctx context.Context, analysisID, userID string, question, answer domain.ChatMessage) (*domain.Conversation, error) {
	var conv *domain.Conversation
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		var conversationID string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO chat_conversations (id, analysis_id, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (analysis_id, user_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
			RETURNING id
		`, uuid.NewString(), analysisID, userID, now).Scan(&conversationID)
		if err != nil {
			return fmt.Errorf("upsert conversation: %w", err)
		}

		for _, msg := range []domain.ChatMessage{question, answer} {
			if msg.ID == "" {
				msg.ID = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO chat_messages (id, conversation_id, role, content, created_at)
				VALUES ($1, $2, $3, $4, $5)
			`, msg.ID, conversationID, string(msg.Role), msg.Content, msg.CreatedAt); err != nil {
				return fmt.Errorf("insert chat message: %w", err)
			}
		}

		conv, err = loadConversation(ctx, tx, analysisID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func loadConversation(ctx context.Context, q querier, analysisID, userID string) (*domain.Conversation, error) {
	conv := &domain.Conversation{AnalysisID: analysisID, UserID: userID}
	err := q.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at
		FROM chat_conversations
		WHERE analysis_id = $1 AND user_id = $2
	`, analysisID, userID).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, role, content, created_at
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`, conv.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conv.Messages = []domain.ChatMessage{}
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conv, nil
}
