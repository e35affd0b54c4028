package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing.
// It hands out copies so callers observe status changes only through the store.
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document

	// Optional error injection
	SaveErr error
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d := *doc
	m.documents[doc.ID] = &d
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	d := *doc
	return &d, nil
}

func (m *MockDocumentStore) List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.Document, error) {
	filter.Normalize()
	return page(m.matching(filter), filter.Limit, filter.Offset), nil
}

func (m *MockDocumentStore) Count(ctx context.Context, filter domain.DocumentFilter) (int, error) {
	return len(m.matching(filter)), nil
}

func (m *MockDocumentStore) matching(filter domain.DocumentFilter) []*domain.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Document
	for _, doc := range m.documents {
		if filter.UserID != "" && doc.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		d := *doc
		result = append(result, &d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (m *MockDocumentStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

func (m *MockDocumentStore) TransitionStatus(ctx context.Context, id string, from []domain.DocumentStatus, to domain.DocumentStatus, lastError string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionLocked(id, from, to, lastError)
}

func (m *MockDocumentStore) transitionLocked(id string, from []domain.DocumentStatus, to domain.DocumentStatus, lastError string) (bool, error) {
	doc, ok := m.documents[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	for _, s := range from {
		if doc.Status == s {
			doc.Status = to
			doc.LastError = lastError
			doc.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (m *MockDocumentStore) ListStale(ctx context.Context, cutoff time.Time) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Document
	for _, doc := range m.documents {
		if doc.Status == domain.StatusProcessing && doc.UpdatedAt.Before(cutoff) {
			d := *doc
			result = append(result, &d)
		}
	}
	return result, nil
}

// Helper methods for testing

func (m *MockDocumentStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

// Backdate moves a document's UpdatedAt into the past
func (m *MockDocumentStore) Backdate(id string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.documents[id]; ok {
		doc.UpdatedAt = doc.UpdatedAt.Add(-d)
	}
}
