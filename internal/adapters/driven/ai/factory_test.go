package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// ollamaServer answers /api/tags so pings succeed.
func ollamaServer(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestInitResult_Close(t *testing.T) {
	result := &InitResult{}
	result.Close()
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		errContains string
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{
			name:     "ollama",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
		},
		{
			name:     "openai",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"},
		},
		{
			name:     "openai without key is unconfigured",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantNil:  true,
		},
		{
			name:        "anthropic has no embeddings",
			settings:    &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantNil:     true,
			errContains: "anthropic does not support embeddings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
			} else {
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantModel string
	}{
		{"ollama", &domain.LLMSettings{Provider: domain.AIProviderOllama}, "llama3.2"},
		{"openai", &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o"}, "gpt-4o"},
		{"anthropic", &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}, "claude-3-haiku-20240307"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)

			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			_, aware := svc.(driven.PromptStoreAware)
			assert.True(t, aware)
		})
	}

	svc, err := CreateLLMService(&domain.LLMSettings{})
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestValidateConfig(t *testing.T) {
	url := ollamaServer(t)

	assert.NoError(t, ValidateEmbeddingConfig(nil))
	assert.NoError(t, ValidateEmbeddingConfig(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: url}))
	assert.Error(t, ValidateEmbeddingConfig(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: url + "/down"}))

	assert.NoError(t, ValidateLLMConfig(&domain.LLMSettings{}))
	assert.NoError(t, ValidateLLMConfig(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: url}))
	assert.Error(t, ValidateLLMConfig(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: url + "/down"}))
}

func TestInit(t *testing.T) {
	url := ollamaServer(t)

	t.Run("nil settings", func(t *testing.T) {
		result := Init(context.Background(), nil, nil)
		assert.Nil(t, result.EmbeddingService)
		assert.Nil(t, result.LLMService)
		assert.Empty(t, result.Warnings)
	})

	t.Run("reachable providers", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.Provider = domain.AIProviderOllama
		settings.Embedding.BaseURL = url
		settings.LLM.Provider = domain.AIProviderOllama
		settings.LLM.BaseURL = url

		result := Init(context.Background(), &settings, nil)
		defer result.Close()

		assert.NotNil(t, result.EmbeddingService)
		assert.NotNil(t, result.LLMService)
		assert.Empty(t, result.Warnings)
	})

	t.Run("unreachable providers degrade with warnings", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.Provider = domain.AIProviderOllama
		settings.Embedding.BaseURL = url + "/down"
		settings.LLM.Provider = domain.AIProviderOllama
		settings.LLM.BaseURL = url + "/down"

		result := Init(context.Background(), &settings, nil)

		assert.Nil(t, result.EmbeddingService)
		assert.Nil(t, result.LLMService)
		require.Len(t, result.Warnings, 2)
		assert.Contains(t, result.Warnings[0], "embedding service unavailable")
		assert.Contains(t, result.Warnings[1], "LLM service unavailable")
	})

	t.Run("no providers configured", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		result := Init(context.Background(), &settings, nil)
		assert.Nil(t, result.EmbeddingService)
		assert.Nil(t, result.LLMService)
		assert.Empty(t, result.Warnings)
	})
}
