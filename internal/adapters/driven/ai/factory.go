// Package ai builds the embedding and LLM adapters selected by settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/recall/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/recall/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/recall/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/recall/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/recall/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult holds the providers that were created and reachable.
// A nil service means the features that need it are disabled.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init creates and pings both providers. Failures become warnings and the
// corresponding service stays nil. The prompt store is injected into LLMs
// that accept one.
func Init(ctx context.Context, settings *domain.AppSettings, prompts driven.PromptStore) *InitResult {
	result := &InitResult{}
	if settings == nil {
		return result
	}

	embedder, err := createAndValidate(ctx, CreateEmbeddingService, &settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%v: %v. Run 'recall config set-key' or check embedding.* settings", domain.ErrEmbeddingUnavailable, err))
	}
	result.EmbeddingService = embedder

	llm, err := createAndValidate(ctx, CreateLLMService, &settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%v: %v. Run 'recall config set-key' or check llm.* settings", domain.ErrLLMUnavailable, err))
	}
	if llm != nil && prompts != nil {
		if aware, ok := llm.(driven.PromptStoreAware); ok {
			aware.SetPromptStore(prompts)
		}
	}
	result.LLMService = llm

	return result
}

// pinger is the shared surface of both provider kinds.
type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

func createAndValidate[S any, T pinger](ctx context.Context, create func(S) (T, error), settings S) (T, error) {
	var zero T
	svc, err := create(settings)
	if err != nil {
		return zero, err
	}
	if any(svc) == nil {
		return zero, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return zero, fmt.Errorf("service unreachable (%w)", err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
// Unconfigured settings are not an error.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := createAndValidate(context.Background(), CreateEmbeddingService, settings)
	if svc != nil {
		_ = svc.Close()
	}
	return err
}

// ValidateLLMConfig creates an LLM service and pings it.
// Unconfigured settings are not an error.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := createAndValidate(context.Background(), CreateLLMService, settings)
	if svc != nil {
		_ = svc.Close()
	}
	return err
}

// CreateEmbeddingService creates the embedding service named by settings.
// Returns nil when no provider is configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		if settings != nil && settings.Provider == domain.AIProviderAnthropic {
			return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")
		}
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by settings.
// Returns nil when no provider is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
