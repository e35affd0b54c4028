package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

var envKeys = []string{
	FileEnv, "RUN_MODE", "PORT", "DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME", "REDIS_URL", "JWT_SECRET",
	"LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "OPENAI_LARGE_MODEL",
	"LLM_RATE_PER_SEC", "LLM_BURST", "ANALYSIS_TIMEOUT", "ANALYSIS_STALE_AFTER", "LOCATE_STRATEGY",
	"STORAGE_ENDPOINT", "STORAGE_ACCESS_KEY", "STORAGE_SECRET_KEY", "STORAGE_BUCKET",
	"STORAGE_USE_SSL", "STORAGE_REGION", "WORKER_CONCURRENCY", "WORKER_DEQUEUE_TIMEOUT",
	"SCHEDULER_ENABLED", "SCHEDULER_INTERVAL", "TASK_RETENTION", "LOG_LEVEL", "LOG_FORMAT",
	"CORS_ORIGINS", "PDFTOTEXT_PATH",
}

// clearEnv blanks every key Load reads; getEnv treats empty as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "all", cfg.RunMode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.True(t, cfg.Worker.SchedulerEnabled)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, domain.DefaultAnalysisSettings(), cfg.AnalysisSettings())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "legalese.toml")
	content := `
run_mode = "worker"
port = 9000

[database]
url = "postgres://file/db"
conn_max_lifetime = "10m"

[llm]
api_key = "sk-file"
model = "gpt-file"

[analysis]
timeout = "90s"
locate_strategy = "nearest"

[worker]
concurrency = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(FileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "worker", cfg.RunMode)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "postgres://file/db", cfg.Database.URL)
	assert.Equal(t, 10*time.Minute, cfg.Database.ConnMaxLifetime.Std())
	// unset keys keep their defaults
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 8, cfg.Worker.Concurrency)

	analysis := cfg.AnalysisSettings()
	assert.Equal(t, 90*time.Second, analysis.Timeout)
	assert.Equal(t, "nearest", analysis.LocateStrategy)

	llm := cfg.LLMSettings()
	assert.Equal(t, "sk-file", llm.APIKey)
	assert.Equal(t, "gpt-file", llm.Model)
	assert.Equal(t, domain.AIProviderOpenAI, llm.Provider)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "legalese.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 9000\n[log]\nlevel = \"warn\"\n"), 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ANALYSIS_TIMEOUT", "120")
	t.Setenv("STORAGE_USE_SSL", "yes")
	t.Setenv("LLM_RATE_PER_SEC", "0.5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Minute, cfg.Analysis.Timeout.Std())
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, 0.5, cfg.LLM.RatePerSecond)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoad_InvalidEnvValuesKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("ANALYSIS_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, domain.DefaultAnalysisSettings().Timeout, cfg.Analysis.Timeout.Std())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "unknown mode", env: map[string]string{"RUN_MODE": "batch"}},
		{name: "bad port", env: map[string]string{"PORT": "70000"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "malformed file", file: "port = ["},
		{name: "bad duration in file", file: "[analysis]\ntimeout = \"forever\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "legalese.toml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
				t.Setenv(FileEnv, path)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "text"

	logger := cfg.NewLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	_, isText := logger.Handler().(*slog.TextHandler)
	assert.True(t, isText)

	cfg.Log.Format = "json"
	_, isJSON := cfg.NewLogger().Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)
}

func TestDuration_MarshalText(t *testing.T) {
	b, err := Duration(90 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(b))
}
