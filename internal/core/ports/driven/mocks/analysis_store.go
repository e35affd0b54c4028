package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// MockAnalysisStore is a mock implementation of AnalysisStore for testing.
// When built with document, user, annotation, and chat mocks it mirrors the
// side effects the real store performs in its transactions.
type MockAnalysisStore struct {
	mu         sync.RWMutex
	analyses   map[string]*domain.Analysis
	byDocument map[string]string

	docs        *MockDocumentStore
	users       *MockUserStore
	annotations *MockAnnotationStore
	chats       *MockChatStore

	// Optional error injection
	CompleteErr error
	GetErr      error
}

// NewMockAnalysisStore creates a new MockAnalysisStore. Any argument may be nil.
func NewMockAnalysisStore(docs *MockDocumentStore, users *MockUserStore, annotations *MockAnnotationStore, chats *MockChatStore) *MockAnalysisStore {
	return &MockAnalysisStore{
		analyses:    make(map[string]*domain.Analysis),
		byDocument:  make(map[string]string),
		docs:        docs,
		users:       users,
		annotations: annotations,
		chats:       chats,
	}
}

func (m *MockAnalysisStore) Complete(ctx context.Context, analysis *domain.Analysis) error {
	if m.CompleteErr != nil {
		return m.CompleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.docs != nil {
		m.docs.mu.Lock()
		ok, err := m.docs.transitionLocked(analysis.DocumentID, []domain.DocumentStatus{domain.StatusProcessing}, domain.StatusAnalyzed, "")
		m.docs.mu.Unlock()
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotProcessing
		}
	}

	if prev, ok := m.byDocument[analysis.DocumentID]; ok {
		delete(m.analyses, prev)
	}
	a := *analysis
	m.analyses[a.ID] = &a
	m.byDocument[a.DocumentID] = a.ID
	if m.users != nil {
		m.users.adjustUsage(a.UserID, 1)
	}
	return nil
}

func (m *MockAnalysisStore) Get(ctx context.Context, id string) (*domain.Analysis, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.analyses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAnalysisStore) GetByDocument(ctx context.Context, documentID string) (*domain.Analysis, error) {
	m.mu.RLock()
	id, ok := m.byDocument[documentID]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *MockAnalysisStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Analysis
	for _, a := range m.analyses {
		if a.UserID == userID {
			cp := *a
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return page(result, limit, offset), nil
}

func (m *MockAnalysisStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.analyses, id)
	delete(m.byDocument, a.DocumentID)

	if m.annotations != nil {
		m.annotations.deleteByAnalysis(id)
	}
	if m.chats != nil {
		m.chats.deleteByAnalysis(id)
	}
	if m.docs != nil {
		m.docs.mu.Lock()
		_, _ = m.docs.transitionLocked(a.DocumentID, []domain.DocumentStatus{domain.StatusAnalyzed, domain.StatusError}, domain.StatusUploaded, "")
		m.docs.mu.Unlock()
	}
	if m.users != nil {
		m.users.adjustUsage(a.UserID, -1)
	}
	return nil
}

// Len returns the number of stored analyses
func (m *MockAnalysisStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.analyses)
}
