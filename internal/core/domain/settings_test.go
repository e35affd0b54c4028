package domain

import (
	"testing"
	"time"
)

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	if !AIProviderOpenAI.RequiresAPIKey() {
		t.Error("expected openai to require an API key")
	}
	if AIProviderOllama.RequiresAPIKey() {
		t.Error("expected ollama not to require an API key")
	}
}

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		want     bool
	}{
		{AIProviderOpenAI, true},
		{AIProviderOllama, true},
		{"anthropic", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			if got := tt.provider.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		want     bool
	}{
		{"empty", LLMSettings{}, false},
		{"openai without key", LLMSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", LLMSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"}, true},
		{"ollama without key", LLMSettings{Provider: AIProviderOllama}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultAnalysisSettings(t *testing.T) {
	s := DefaultAnalysisSettings()

	if s.Temperature != 0.1 {
		t.Errorf("expected Temperature 0.1, got %v", s.Temperature)
	}
	if s.MaxOutputTokens != 16384 {
		t.Errorf("expected MaxOutputTokens 16384, got %d", s.MaxOutputTokens)
	}
	if s.MaxInputTokens != 120000 {
		t.Errorf("expected MaxInputTokens 120000, got %d", s.MaxInputTokens)
	}
	if s.LargeDocumentWords != 8000 {
		t.Errorf("expected LargeDocumentWords 8000, got %d", s.LargeDocumentWords)
	}
	if s.Timeout != 5*time.Minute {
		t.Errorf("expected Timeout 5m, got %v", s.Timeout)
	}
	if s.LocateStrategy != "first" {
		t.Errorf("expected LocateStrategy first, got %s", s.LocateStrategy)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens("abcdefgh"); got != 2 {
		t.Errorf("EstimateTokens() = %d, want 2", got)
	}
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("EstimateTokens() = %d, want 0", got)
	}
}
