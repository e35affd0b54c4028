package domain

import "sync"

// RuntimeConfig tracks which backends and services are available at runtime.
// Backends are fixed at startup; the LLM flag follows the runtime service registry.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	SessionBackend string // "redis" or "postgres"
	QueueBackend   string // "redis" or "postgres"

	llmAvailable bool
	llmModel     string
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(sessionBackend, queueBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		SessionBackend: sessionBackend,
		QueueBackend:   queueBackend,
	}
}

// LLMAvailable returns whether an LLM service is configured
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmAvailable
}

// LLMModel returns the default model of the configured LLM service
func (c *RuntimeConfig) LLMModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmModel
}

// SetLLM records whether an LLM service is available and which model it uses
func (c *RuntimeConfig) SetLLM(available bool, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmAvailable = available
	c.llmModel = model
	if !available {
		c.llmModel = ""
	}
}

// CanAnalyze returns true if analyses and chat can run
func (c *RuntimeConfig) CanAnalyze() bool {
	return c.LLMAvailable()
}
