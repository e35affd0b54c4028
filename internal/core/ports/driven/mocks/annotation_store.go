package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// MockAnnotationStore is a mock implementation of AnnotationStore for testing
type MockAnnotationStore struct {
	mu          sync.RWMutex
	annotations map[string]*domain.Annotation
}

// NewMockAnnotationStore creates a new MockAnnotationStore
func NewMockAnnotationStore() *MockAnnotationStore {
	return &MockAnnotationStore{
		annotations: make(map[string]*domain.Annotation),
	}
}

func (m *MockAnnotationStore) Save(ctx context.Context, annotation *domain.Annotation) error {
	if annotation.TextEnd <= annotation.TextStart {
		// mirrors CHECK (text_start < text_end)
		return domain.ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a := *annotation
	m.annotations[a.ID] = &a
	return nil
}

func (m *MockAnnotationStore) Get(ctx context.Context, id string) (*domain.Annotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.annotations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAnnotationStore) ListByAnalysis(ctx context.Context, analysisID, userID string) ([]*domain.Annotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []*domain.Annotation{}
	for _, a := range m.annotations {
		if a.AnalysisID == analysisID && a.UserID == userID {
			cp := *a
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TextStart != result[j].TextStart {
			return result[i].TextStart < result[j].TextStart
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockAnnotationStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.annotations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.annotations, id)
	return nil
}

func (m *MockAnnotationStore) deleteByAnalysis(analysisID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.annotations {
		if a.AnalysisID == analysisID {
			delete(m.annotations, id)
		}
	}
}

// Len returns the number of stored annotations
func (m *MockAnnotationStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.annotations)
}
