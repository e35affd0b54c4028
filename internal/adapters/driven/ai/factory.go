package ai

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateLLMService creates an LLM service from settings. Every service it
// returns shares one limiter sized by RatePerSecond and Burst.
func (f *Factory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	limiter := newLimiter(settings.RatePerSecond, settings.Burst)

	var (
		llm *OpenAILLM
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		llm, err = NewOpenAILLM(settings.APIKey, settings.Model, settings.BaseURL, limiter)
	case domain.AIProviderOllama:
		llm, err = NewOllamaLLM(settings.BaseURL, settings.Model, limiter)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// newLimiter returns nil when perSecond is not positive
func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
