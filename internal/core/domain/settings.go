package domain

import "time"

// AIProvider identifies the chat-completion provider
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	// AIProviderOllama speaks the OpenAI-compatible API without a key
	AIProviderOllama AIProvider = "ollama"
)

// LLMSettings configures the model used for analysis and chat
type LLMSettings struct {
	Provider AIProvider `json:"provider"`
	APIKey   string     `json:"-"`
	BaseURL  string     `json:"base_url,omitempty"`

	// Model handles ordinary documents and chat
	Model string `json:"model"`

	// LargeModel handles documents at or above AnalysisSettings.LargeDocumentWords
	LargeModel string `json:"large_model,omitempty"`

	// RatePerSecond and Burst size the outgoing request limiter.
	// A zero rate disables it.
	RatePerSecond float64 `json:"rate_per_second,omitempty"`
	Burst         int     `json:"burst,omitempty"`
}

// IsConfigured checks if the LLM settings are usable
func (l *LLMSettings) IsConfigured() bool {
	if l.Provider == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RequiresAPIKey returns true if the provider needs an API key
func (p AIProvider) RequiresAPIKey() bool {
	return p != AIProviderOllama
}

// IsValid checks if the provider is known
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// AnalysisSettings tunes the analysis pipeline
type AnalysisSettings struct {
	// Temperature for the structured analysis request
	Temperature float64 `json:"temperature"`

	// MaxOutputTokens caps the model response
	MaxOutputTokens int `json:"max_output_tokens"`

	// MaxInputTokens rejects documents whose estimated size exceeds the context window
	MaxInputTokens int `json:"max_input_tokens"`

	// LargeDocumentWords switches to the large model
	LargeDocumentWords int `json:"large_document_words"`

	// Timeout bounds a single model call
	Timeout time.Duration `json:"timeout"`

	// StaleAfter is how long a document may stay in processing before recovery
	StaleAfter time.Duration `json:"stale_after"`

	// LocateStrategy picks among repeated occurrences when relocating highlights
	LocateStrategy string `json:"locate_strategy"`

	// ChatTemperature and ChatMaxTokens apply to follow-up chat
	ChatTemperature float64 `json:"chat_temperature"`
	ChatMaxTokens   int     `json:"chat_max_tokens"`

	// ChatContextChars is how much document text the chat prompt includes
	ChatContextChars int `json:"chat_context_chars"`
}

// DefaultAnalysisSettings returns the production defaults
func DefaultAnalysisSettings() AnalysisSettings {
	return AnalysisSettings{
		Temperature:        0.1,
		MaxOutputTokens:    16384,
		MaxInputTokens:     120000,
		LargeDocumentWords: 8000,
		Timeout:            5 * time.Minute,
		StaleAfter:         15 * time.Minute,
		LocateStrategy:     "first",
		ChatTemperature:    0.3,
		ChatMaxTokens:      1000,
		ChatContextChars:   8000,
	}
}

// EstimateTokens approximates the token count of text at four bytes per token
func EstimateTokens(text string) int {
	return len(text) / 4
}
