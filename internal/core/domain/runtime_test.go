package domain

import (
	"sync"
	"testing"
)

func TestNewRuntimeConfig(t *testing.T) {
	cfg := NewRuntimeConfig("redis", "postgres")

	if cfg.SessionBackend != "redis" {
		t.Errorf("expected SessionBackend redis, got %s", cfg.SessionBackend)
	}
	if cfg.QueueBackend != "postgres" {
		t.Errorf("expected QueueBackend postgres, got %s", cfg.QueueBackend)
	}
	if cfg.LLMAvailable() {
		t.Error("expected LLM to be unavailable initially")
	}
	if cfg.CanAnalyze() {
		t.Error("expected CanAnalyze false without an LLM")
	}
}

func TestRuntimeConfig_SetLLM(t *testing.T) {
	cfg := NewRuntimeConfig("redis", "redis")

	cfg.SetLLM(true, "gpt-4o-mini")
	if !cfg.CanAnalyze() {
		t.Error("expected CanAnalyze true")
	}
	if cfg.LLMModel() != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %s", cfg.LLMModel())
	}

	cfg.SetLLM(false, "gpt-4o-mini")
	if cfg.LLMAvailable() {
		t.Error("expected LLM unavailable")
	}
	if cfg.LLMModel() != "" {
		t.Errorf("expected model cleared, got %s", cfg.LLMModel())
	}
}

func TestRuntimeConfig_ThreadSafety(t *testing.T) {
	cfg := NewRuntimeConfig("redis", "redis")
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			cfg.SetLLM(i%2 == 0, "m")
		}(i)
		go func() {
			defer wg.Done()
			_ = cfg.CanAnalyze()
			_ = cfg.LLMModel()
		}()
	}
	wg.Wait()
}
