package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
)

// newTestSettings returns a service with an empty environment.
func newTestSettings(store *memory.ConfigStore, env map[string]string) *SettingsService {
	service := NewSettingsService(store, nil)
	service.getenv = func(key string) string { return env[key] }
	return service
}

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults, *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("embedding.batch_size", 8)
	_ = store.Set("embedding.retry_delay_ms", 250)
	_ = store.Set("embedding.batch_delay_ms", 0)
	_ = store.Set("embedding.timeout_seconds", 5)
	_ = store.Set("chunking.chunk_size", 800)
	_ = store.Set("index.top_k", 5)
	_ = store.Set("scheduler.enabled", false)
	_ = store.Set("scheduler.index_build_interval_minutes", 2)
	_ = store.Set("review.max_interval_days", 14)

	settings, err := newTestSettings(store, nil).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, 8, settings.Embedding.BatchSize)
	assert.Equal(t, 250*time.Millisecond, settings.Embedding.RetryDelay)
	assert.Zero(t, settings.Embedding.BatchDelay, "an explicit 0 disables pacing")
	assert.Equal(t, 5*time.Second, settings.Embedding.Timeout)
	assert.Equal(t, 800, settings.Chunking.ChunkSize)
	assert.Equal(t, 5, settings.Index.TopK)
	assert.False(t, settings.Scheduler.Enabled)
	assert.Equal(t, 2*time.Minute, settings.Scheduler.IndexBuildInterval)
	assert.Equal(t, 14, settings.Review.MaxIntervalDays)
}

func TestSettingsService_Get_InvalidProviderReturnsDefault(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "invalid_provider")

	settings, err := newTestSettings(store, nil).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings().Embedding.Provider, settings.Embedding.Provider)
}

func TestSettingsService_Get_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name       string
		stored     map[string]any
		env        map[string]string
		wantEmbKey string
		wantLLMKey string
		wantDir    string
	}{
		{
			name:       "openai keys from env",
			stored:     map[string]any{"embedding.provider": "openai", "llm.provider": "openai"},
			env:        map[string]string{"OPENAI_API_KEY": "sk-env"},
			wantEmbKey: "sk-env",
			wantLLMKey: "sk-env",
		},
		{
			name:       "anthropic llm key",
			stored:     map[string]any{"llm.provider": "anthropic"},
			env:        map[string]string{"ANTHROPIC_API_KEY": "sk-ant", "OPENAI_API_KEY": "sk-openai"},
			wantLLMKey: "sk-ant",
		},
		{
			name:       "stored key wins",
			stored:     map[string]any{"llm.provider": "openai", "llm.api_key": "sk-file"},
			env:        map[string]string{"OPENAI_API_KEY": "sk-env"},
			wantLLMKey: "sk-file",
		},
		{
			name:    "data dir",
			stored:  map[string]any{"data_dir": "/from/file"},
			env:     map[string]string{"RECALL_DATA_DIR": "/from/env"},
			wantDir: "/from/env",
		},
		{
			name:   "ollama ignores keys",
			stored: map[string]any{"embedding.provider": "ollama", "llm.provider": "ollama"},
			env:    map[string]string{"OPENAI_API_KEY": "sk-env"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.stored {
				_ = store.Set(k, v)
			}

			settings, err := newTestSettings(store, tt.env).Get()

			require.NoError(t, err)
			assert.Equal(t, tt.wantEmbKey, settings.Embedding.APIKey)
			assert.Equal(t, tt.wantLLMKey, settings.LLM.APIKey)
			assert.Equal(t, tt.wantDir, settings.DataDir)
		})
	}
}

func TestSettingsService_Save(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Embedding.Provider = domain.AIProviderOpenAI
	settings.Embedding.Model = "text-embedding-3-small"
	settings.Embedding.APIKey = "sk-test-key"
	settings.Embedding.BatchDelay = 0
	settings.LLM.Provider = domain.AIProviderAnthropic
	settings.LLM.Model = "claude-3-5-sonnet-latest"
	settings.LLM.APIKey = "sk-ant-test"
	settings.Chunking.Overlap = 50
	settings.Index.MaxChunks = 30

	require.NoError(t, service.Save(&settings))

	retrieved, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *retrieved)
}

func TestSettingsService_Save_EmptyAPIKeyNotWritten(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, nil)

	settings := domain.DefaultAppSettings()
	settings.LLM.Provider = domain.AIProviderOllama
	require.NoError(t, service.Save(&settings))

	_, exists := store.Get("llm.api_key")
	assert.False(t, exists)
	_, exists = store.Get("embedding.api_key")
	assert.False(t, exists)
}

// failingConfigStore fails Set for one key, or all keys when failOn is empty.
type failingConfigStore struct {
	*memory.ConfigStore
	failOn string
}

func (f *failingConfigStore) Set(key string, value any) error {
	if f.failOn == "" || key == f.failOn {
		return assert.AnError
	}
	return f.ConfigStore.Set(key, value)
}

func TestSettingsService_Save_Errors(t *testing.T) {
	for _, key := range []string{"embedding.provider", "chunking.chunk_size", "review.max_interval_days", "llm.api_key"} {
		t.Run(key, func(t *testing.T) {
			store := &failingConfigStore{ConfigStore: memory.NewConfigStore(), failOn: key}
			service := NewSettingsService(store, nil)

			settings := domain.DefaultAppSettings()
			settings.LLM.APIKey = "sk-test"
			err := service.Save(&settings)

			require.Error(t, err)
			assert.ErrorIs(t, err, assert.AnError)
		})
	}
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("ollama gets local base url and default model", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := newTestSettings(store, nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
		assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	})

	t.Run("ollama keeps existing base url", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("embedding.base_url", "http://gpu-box:11434")
		service := newTestSettings(store, nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "all-minilm", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "http://gpu-box:11434", settings.Embedding.BaseURL)
		assert.Equal(t, "all-minilm", settings.Embedding.Model)
	})

	t.Run("openai clears base url", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("embedding.base_url", "http://localhost:11434")
		service := newTestSettings(store, nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
		assert.Equal(t, "sk-test", settings.Embedding.APIKey)
		assert.Empty(t, settings.Embedding.BaseURL)
	})

	t.Run("openai key from env is enough", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), map[string]string{"OPENAI_API_KEY": "sk-env"})

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
	})

	errorCases := []struct {
		name     string
		provider domain.AIProvider
		apiKey   string
	}{
		{"missing api key", domain.AIProviderOpenAI, ""},
		{"invalid provider", domain.AIProvider("nope"), "k"},
		{"anthropic has no embeddings", domain.AIProviderAnthropic, "k"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			service := newTestSettings(memory.NewConfigStore(), nil)

			err := service.SetEmbeddingProvider(tc.provider, "", tc.apiKey)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	tests := []struct {
		name      string
		provider  domain.AIProvider
		apiKey    string
		env       map[string]string
		wantModel string
		wantURL   string
		wantErr   bool
	}{
		{name: "ollama", provider: domain.AIProviderOllama, wantModel: "llama3.2", wantURL: "http://localhost:11434"},
		{name: "openai", provider: domain.AIProviderOpenAI, apiKey: "sk", wantModel: "gpt-4o-mini"},
		{name: "anthropic", provider: domain.AIProviderAnthropic, apiKey: "sk", wantModel: "claude-3-haiku-20240307"},
		{name: "anthropic env key", provider: domain.AIProviderAnthropic, env: map[string]string{"ANTHROPIC_API_KEY": "sk"}, wantModel: "claude-3-haiku-20240307"},
		{name: "missing key", provider: domain.AIProviderAnthropic, wantErr: true},
		{name: "invalid", provider: domain.AIProvider("nope"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestSettings(memory.NewConfigStore(), tt.env)

			err := service.SetLLMProvider(tt.provider, "", tt.apiKey)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)

			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.LLM.Provider)
			assert.Equal(t, tt.wantModel, settings.LLM.Model)
			assert.Equal(t, tt.wantURL, settings.LLM.BaseURL)
		})
	}
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		stored  map[string]any
		wantErr bool
	}{
		{name: "defaults", stored: nil},
		{name: "overlap equals chunk size", stored: map[string]any{"chunking.chunk_size": 100, "chunking.overlap": 100}, wantErr: true},
		{name: "negative overlap", stored: map[string]any{"chunking.overlap": -1}, wantErr: true},
		{name: "negative max chunks", stored: map[string]any{"chunking.max_chunks": -5}, wantErr: true},
		{name: "openai embedding without key", stored: map[string]any{"embedding.provider": "openai"}, wantErr: true},
		{name: "anthropic llm without key", stored: map[string]any{"llm.provider": "anthropic"}, wantErr: true},
		{name: "ollama everywhere", stored: map[string]any{"embedding.provider": "ollama", "llm.provider": "ollama"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.stored {
				_ = store.Set(k, v)
			}

			err := newTestSettings(store, nil).Validate()

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

type stubValidator struct {
	embeddingErr error
	llmErr       error
	embedding    *domain.EmbeddingSettings
	llm          *domain.LLMSettings
}

func (v *stubValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	v.embedding = cfg
	return v.embeddingErr
}

func (v *stubValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	v.llm = cfg
	return v.llmErr
}

func TestSettingsService_ValidateProviders(t *testing.T) {
	t.Run("nil validator", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		assert.NoError(t, service.ValidateEmbeddingConfig())
		assert.NoError(t, service.ValidateLLMConfig())
	})

	t.Run("passes current settings", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("embedding.provider", "ollama")
		_ = store.Set("llm.provider", "ollama")
		validator := &stubValidator{llmErr: assert.AnError}
		service := NewSettingsService(store, validator)
		service.getenv = func(string) string { return "" }

		assert.NoError(t, service.ValidateEmbeddingConfig())
		assert.ErrorIs(t, service.ValidateLLMConfig(), assert.AnError)
		require.NotNil(t, validator.embedding)
		assert.Equal(t, domain.AIProviderOllama, validator.embedding.Provider)
		require.NotNil(t, validator.llm)
		assert.Equal(t, domain.AIProviderOllama, validator.llm.Provider)
	})
}
