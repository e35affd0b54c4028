package ai

import (
	"errors"
	"testing"

	"golang.org/x/time/rate"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

func TestFactory_CreateLLMService_NotConfigured(t *testing.T) {
	factory := NewFactory()

	for name, settings := range map[string]*domain.LLMSettings{
		"nil":                nil,
		"empty":              {},
		"openai without key": {Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini"},
	} {
		svc, err := factory.CreateLLMService(settings)
		if err != nil {
			t.Errorf("%s: expected no error, got %v", name, err)
		}
		if svc != nil {
			t.Errorf("%s: expected nil service", name)
		}
	}
}

func TestFactory_CreateLLMService_OpenAI(t *testing.T) {
	svc, err := NewFactory().CreateLLMService(&domain.LLMSettings{
		Provider:      domain.AIProviderOpenAI,
		APIKey:        "sk-test",
		Model:         "gpt-4o",
		RatePerSecond: 2,
		Burst:         4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	llm := svc.(*OpenAILLM)
	if llm.Model() != "gpt-4o" {
		t.Errorf("Model() = %q, want gpt-4o", llm.Model())
	}
	if llm.baseURL != defaultOpenAIBaseURL {
		t.Errorf("baseURL = %q, want default", llm.baseURL)
	}
	if llm.limiter == nil || llm.limiter.Limit() != rate.Limit(2) || llm.limiter.Burst() != 4 {
		t.Errorf("unexpected limiter %+v", llm.limiter)
	}
}

func TestFactory_CreateLLMService_Ollama(t *testing.T) {
	svc, err := NewFactory().CreateLLMService(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	llm := svc.(*OpenAILLM)
	if llm.baseURL != defaultOllamaBaseURL {
		t.Errorf("baseURL = %q, want %q", llm.baseURL, defaultOllamaBaseURL)
	}
	if llm.apiKey != "" {
		t.Error("expected no API key for ollama")
	}
	if llm.limiter != nil {
		t.Error("expected no limiter when rate is zero")
	}
}

func TestFactory_CreateLLMService_OllamaRequiresModel(t *testing.T) {
	_, err := NewFactory().CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOllama})
	if err == nil {
		t.Error("expected error for ollama without model")
	}
}

func TestFactory_CreateLLMService_InvalidProvider(t *testing.T) {
	_, err := NewFactory().CreateLLMService(&domain.LLMSettings{
		Provider: "anthropic",
		APIKey:   "key",
	})
	if !errors.Is(err, domain.ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestNewLimiter(t *testing.T) {
	if newLimiter(0, 5) != nil {
		t.Error("expected nil limiter for zero rate")
	}
	if l := newLimiter(1, 0); l.Burst() != 1 {
		t.Errorf("Burst() = %d, want 1", l.Burst())
	}
}
