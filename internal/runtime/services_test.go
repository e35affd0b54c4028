package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// mockLLMService is a mock implementation for testing
type mockLLMService struct {
	pingErr error
	closed  bool
}

func (m *mockLLMService) Complete(ctx context.Context, req driven.CompletionRequest) (*driven.Completion, error) {
	return &driven.Completion{Content: "{}"}, nil
}

func (m *mockLLMService) Stream(ctx context.Context, req driven.CompletionRequest, onDelta func(string) error) (*driven.Completion, error) {
	return &driven.Completion{}, onDelta("")
}

func (m *mockLLMService) Model() string {
	return "mock-model"
}

func (m *mockLLMService) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockLLMService) Close() error {
	m.closed = true
	return nil
}

func TestNewServices(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres", "postgres")
	services := NewServices(config)

	if services.Config() != config {
		t.Error("expected config to be stored")
	}
	if services.LLMService() != nil {
		t.Error("expected nil LLM service initially")
	}
}

func TestServices_RequireLLM(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("postgres", "postgres"))

	if _, err := services.RequireLLM(); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}

	services.SetLLMService(&mockLLMService{})
	svc, err := services.RequireLLM()
	if err != nil || svc == nil {
		t.Errorf("expected service, got %v, %v", svc, err)
	}
}

func TestServices_LLMService(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres", "postgres")
	services := NewServices(config)

	mock := &mockLLMService{}
	services.SetLLMService(mock)

	if services.LLMService() == nil {
		t.Error("expected non-nil LLM service after set")
	}
	if !config.LLMAvailable() {
		t.Error("expected LLM to be available")
	}
	if config.LLMModel() != "mock-model" {
		t.Errorf("expected model mock-model, got %s", config.LLMModel())
	}

	services.SetLLMService(nil)
	if services.LLMService() != nil {
		t.Error("expected nil LLM service after clearing")
	}
	if config.LLMAvailable() {
		t.Error("expected LLM to be unavailable")
	}
	if !mock.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_ValidateAndSetLLM(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("postgres", "postgres"))
	ctx := context.Background()

	t.Run("successful validation", func(t *testing.T) {
		mock := &mockLLMService{}
		if err := services.ValidateAndSetLLM(ctx, mock); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if services.LLMService() == nil {
			t.Error("expected LLM service to be set")
		}
	})

	t.Run("failed validation", func(t *testing.T) {
		mock := &mockLLMService{pingErr: errors.New("connection failed")}
		if err := services.ValidateAndSetLLM(ctx, mock); err == nil {
			t.Error("expected error")
		}
		if !mock.closed {
			t.Error("expected failed service to be closed")
		}
	})

	t.Run("nil service", func(t *testing.T) {
		if err := services.ValidateAndSetLLM(ctx, nil); err != nil {
			t.Errorf("unexpected error for nil service: %v", err)
		}
		if services.LLMService() != nil {
			t.Error("expected service to be cleared")
		}
	})
}

func TestServices_ReplaceService_ClosesOld(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("postgres", "postgres"))

	old := &mockLLMService{}
	replacement := &mockLLMService{}

	services.SetLLMService(old)
	services.SetLLMService(replacement)

	if !old.closed {
		t.Error("expected old service to be closed when replaced")
	}
	if replacement.closed {
		t.Error("expected new service to remain open")
	}

	_ = services.Close()
	if !replacement.closed {
		t.Error("expected Close to close the current service")
	}
}
