package driven

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// ChatStore handles conversation persistence (PostgreSQL)
type ChatStore interface {
	// Get retrieves the conversation a user holds about an analysis.
	// Returns domain.ErrNotFound when no message has been exchanged yet.
	Get(ctx context.Context, analysisID, userID string) (*domain.Conversation, error)

	// AppendExchange appends a user question and its answer to the
	// conversation, creating it if needed. Both messages land or neither does.
	AppendExchange(ctx context.Context, analysisID, userID string, question, answer domain.ChatMessage) (*domain.Conversation, error)
}
