package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
	"github.com/legalese-app/legalese-core/internal/runtime"
)

const (
	// MaxChatMessageRunes bounds a single user question
	MaxChatMessageRunes = 4000

	// chatHistoryMessages is how many earlier messages are replayed to the model
	chatHistoryMessages = 20
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// chatService implements the ChatService interface
type chatService struct {
	analysisStore driven.AnalysisStore
	chatStore     driven.ChatStore
	services      *runtime.Services
	settings      domain.AnalysisSettings
	logger        *slog.Logger
}

// ChatServiceConfig holds dependencies for the chat service.
type ChatServiceConfig struct {
	AnalysisStore driven.AnalysisStore
	ChatStore     driven.ChatStore
	Services      *runtime.Services
	Settings      domain.AnalysisSettings
	Logger        *slog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(cfg ChatServiceConfig) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settings := cfg.Settings
	if settings.ChatMaxTokens == 0 {
		settings = domain.DefaultAnalysisSettings()
	}
	return &chatService{
		analysisStore: cfg.AnalysisStore,
		chatStore:     cfg.ChatStore,
		services:      cfg.Services,
		settings:      settings,
		logger:        logger,
	}
}

// Send streams an answer to message and then records the exchange
func (s *chatService) Send(ctx context.Context, actor *domain.AuthContext, analysisID, message string, onDelta func(delta string) error) (*domain.ChatMessage, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(message) > MaxChatMessageRunes {
		return nil, fmt.Errorf("%w: message longer than %d characters", domain.ErrInvalidInput, MaxChatMessageRunes)
	}

	a, err := s.analysisStore.Get(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(a.UserID) {
		return nil, domain.ErrNotFound
	}

	llm, err := s.services.RequireLLM()
	if err != nil {
		return nil, err
	}

	history, err := s.chatStore.Get(ctx, a.ID, actor.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	messages := []domain.ChatMessage{
		{Role: domain.ChatRoleSystem, Content: chatSystemPrompt(a, s.settings.ChatContextChars)},
	}
	if history != nil {
		prior := history.Messages
		if len(prior) > chatHistoryMessages {
			prior = prior[len(prior)-chatHistoryMessages:]
		}
		messages = append(messages, prior...)
	}
	messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleUser, Content: message})

	asked := time.Now()
	completion, err := llm.Stream(ctx, driven.CompletionRequest{
		Messages:    messages,
		Temperature: s.settings.ChatTemperature,
		MaxTokens:   s.settings.ChatMaxTokens,
	}, onDelta)
	if err != nil {
		s.logger.Warn("chat stream failed", "analysis_id", a.ID, "user_id", actor.UserID, "error", err)
		return nil, err
	}

	question := domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.ChatRoleUser,
		Content:   message,
		CreatedAt: asked,
	}
	answer := domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.ChatRoleAssistant,
		Content:   completion.Content,
		CreatedAt: time.Now(),
	}

	// The stream has finished; do not lose the exchange to a client disconnect
	if _, err := s.chatStore.AppendExchange(context.WithoutCancel(ctx), a.ID, actor.UserID, question, answer); err != nil {
		return nil, fmt.Errorf("failed to save chat: %w", err)
	}

	s.logger.Debug("chat answered",
		"analysis_id", a.ID,
		"user_id", actor.UserID,
		"tokens", completion.TotalTokens(),
	)
	return &answer, nil
}

// History returns the actor's conversation about an analysis
func (s *chatService) History(ctx context.Context, actor *domain.AuthContext, analysisID string) (*domain.Conversation, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	a, err := s.analysisStore.Get(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(a.UserID) {
		return nil, domain.ErrNotFound
	}

	conv, err := s.chatStore.Get(ctx, a.ID, actor.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return emptyConversation(a.ID, actor.UserID), nil
	}
	return conv, err
}
