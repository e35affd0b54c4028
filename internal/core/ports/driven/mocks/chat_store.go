package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// MockChatStore is a mock implementation of ChatStore for testing
type MockChatStore struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation // key: analysisID:userID

	// Optional error injection
	AppendErr error
}

// NewMockChatStore creates a new MockChatStore
func NewMockChatStore() *MockChatStore {
	return &MockChatStore{
		conversations: make(map[string]*domain.Conversation),
	}
}

func chatKey(analysisID, userID string) string {
	return analysisID + ":" + userID
}

func (m *MockChatStore) Get(ctx context.Context, analysisID, userID string) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[chatKey(analysisID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	cp.Messages = append([]domain.ChatMessage(nil), c.Messages...)
	return &cp, nil
}

func (m *MockChatStore) AppendExchange(ctx context.Context, analysisID, userID string, question, answer domain.ChatMessage) (*domain.Conversation, error) {
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}
	m.mu.Lock()
	key := chatKey(analysisID, userID)
	c, ok := m.conversations[key]
	now := time.Now()
	if !ok {
		c = &domain.Conversation{
			ID:         uuid.NewString(),
			AnalysisID: analysisID,
			UserID:     userID,
			CreatedAt:  now,
		}
		m.conversations[key] = c
	}
	c.Messages = append(c.Messages, question, answer)
	c.UpdatedAt = now
	m.mu.Unlock()
	return m.Get(ctx, analysisID, userID)
}

func (m *MockChatStore) deleteByAnalysis(analysisID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, c := range m.conversations {
		if c.AnalysisID == analysisID {
			delete(m.conversations, key)
		}
	}
}

// Len returns the number of stored conversations
func (m *MockChatStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conversations)
}
