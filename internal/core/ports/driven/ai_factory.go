package driven

import "github.com/legalese-app/legalese-core/internal/core/domain"

// AIServiceFactory creates AI services from settings
type AIServiceFactory interface {
	// CreateLLMService creates an LLM service from settings.
	// Returns nil, nil if settings are not configured.
	CreateLLMService(settings *domain.LLMSettings) (LLMService, error)
}
