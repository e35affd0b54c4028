package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// Ensure MockLLMService implements LLMService
var _ driven.LLMService = (*MockLLMService)(nil)

// MockLLMService returns canned completions and records every request
type MockLLMService struct {
	mu       sync.Mutex
	requests []driven.CompletionRequest

	// Response is returned by Complete and streamed word by word by Stream
	Response  string
	ModelName string

	// Custom behavior hooks (optional)
	CompleteFn func(req driven.CompletionRequest) (*driven.Completion, error)
	StreamErr  error
	PingErr    error
}

// NewMockLLMService creates a mock answering every request with response
func NewMockLLMService(response string) *MockLLMService {
	return &MockLLMService{Response: response, ModelName: "mock-model"}
}

func (m *MockLLMService) record(req driven.CompletionRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
}

func (m *MockLLMService) model(req driven.CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return m.ModelName
}

func (m *MockLLMService) Complete(ctx context.Context, req driven.CompletionRequest) (*driven.Completion, error) {
	m.record(req)
	if m.CompleteFn != nil {
		return m.CompleteFn(req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &driven.Completion{
		Content:          m.Response,
		Model:            m.model(req),
		PromptTokens:     100,
		CompletionTokens: 50,
		FinishReason:     "stop",
	}, nil
}

func (m *MockLLMService) Stream(ctx context.Context, req driven.CompletionRequest, onDelta func(string) error) (*driven.Completion, error) {
	m.record(req)
	var sb strings.Builder
	for i, word := range strings.SplitAfter(m.Response, " ") {
		if m.StreamErr != nil && i == 1 {
			return nil, m.StreamErr
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := onDelta(word); err != nil {
			return nil, err
		}
		sb.WriteString(word)
	}
	return &driven.Completion{Content: sb.String(), Model: m.model(req), FinishReason: "stop"}, nil
}

func (m *MockLLMService) Model() string {
	return m.ModelName
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockLLMService) Close() error {
	return nil
}

// Requests returns a copy of every request received
func (m *MockLLMService) Requests() []driven.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driven.CompletionRequest(nil), m.requests...)
}
