package driving

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// ChatService answers follow-up questions about an analysis
type ChatService interface {
	// Send asks a question and streams the answer through onDelta in order.
	// The question and the full answer are stored together only after the
	// stream completes; a failed or cancelled stream stores nothing.
	Send(ctx context.Context, actor *domain.AuthContext, analysisID, message string, onDelta func(delta string) error) (*domain.ChatMessage, error)

	// History returns the actor's conversation about an analysis.
	// An analysis nobody has asked about yet yields an empty conversation.
	History(ctx context.Context, actor *domain.AuthContext, analysisID string) (*domain.Conversation, error)
}
