// Command recall turns documents into spaced-repetition study material.
//
// Settings live in ~/.recall/config.toml. A .env file in the working
// directory is loaded first, so OPENAI_API_KEY, ANTHROPIC_API_KEY and
// RECALL_DATA_DIR can be kept there.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/recall/internal/adapters/driven/ai"
	"github.com/custodia-labs/recall/internal/adapters/driven/config/file"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recall/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/recall/internal/adapters/driving/cli"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/services"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/normalisers"
	"github.com/custodia-labs/recall/internal/normalisers/docx"
	"github.com/custodia-labs/recall/internal/normalisers/html"
	"github.com/custodia-labs/recall/internal/normalisers/markdown"
	"github.com/custodia-labs/recall/internal/normalisers/pdf"
	"github.com/custodia-labs/recall/internal/normalisers/plaintext"
	"github.com/custodia-labs/recall/internal/observability"
	"github.com/custodia-labs/recall/internal/postprocessors"
)

// Populated by ldflags: -X main.version=v1.0.0
var version = "dev"

// providerTimeout bounds the provider pings at startup.
const providerTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cleanup, err := wire()
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	err = cli.Execute()
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

// wire builds the adapters and services and installs them in the CLI.
// Missing AI providers leave the dependent features disabled.
func wire() (func(), error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	dataDir := settings.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall", "data")
	}

	prompts, err := file.NewPromptStore("", services.DefaultPrompts())
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	providers := ai.Init(ctx, settings, prompts)
	cancel()

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		providers.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	cleanup := func() {
		providers.Close()
		if err := store.Close(); err != nil {
			logger.Warn("closing database: %v", err)
		}
	}

	indexes, err := flat.New(filepath.Join(dataDir, "indexes"))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("opening index store: %w", err)
	}

	chunker, err := postprocessors.NewDefaultChunker(settings.Chunking)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("chunking settings: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	normaliserRegistry := normalisers.NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		pdf.New(),
	)

	docStore := store.DocumentStore()
	questionStore := store.QuestionStore()

	cache, err := newEmbeddingCache(providers.EmbeddingService, settings.Embedding, metrics)
	if err != nil {
		cleanup()
		return nil, err
	}
	search := services.NewIndexService(docStore, indexes, cache, settings.Index, metrics)

	retry := services.DefaultRetryPolicy()

	reviewService := services.NewReviewService(questionStore,
		services.WithMaxIntervalDays(settings.Review.MaxIntervalDays),
		services.WithReviewMetrics(metrics),
	)

	documentService := services.NewDocumentService(services.DocumentServiceConfig{
		DocumentStore: docStore,
		QuestionStore: questionStore,
		Normalisers:   normaliserRegistry,
		Chunker:       chunker,
		Indexer:       search,
		LLM:           providers.LLMService,
		Metrics:       metrics,
		Retry:         retry,
		Chunking:      settings.Chunking,
	})

	questionService := services.NewQuestionService(services.QuestionServiceConfig{
		DocumentStore: docStore,
		QuestionStore: questionStore,
		Review:        reviewService,
		LLM:           providers.LLMService,
		Prompts:       prompts,
		Metrics:       metrics,
		Retry:         retry,
	})

	chatService := services.NewChatService(services.ChatServiceConfig{
		DocumentStore: docStore,
		Search:        search,
		LLM:           providers.LLMService,
		Prompts:       prompts,
		Metrics:       metrics,
		Retry:         retry,
	})

	sessionService := services.NewSessionService(store.SessionStore())

	planService := services.NewPlanService(services.PlanServiceConfig{
		Plans:         store.PlanStore(),
		DocumentStore: docStore,
		LLM:           providers.LLMService,
		Prompts:       prompts,
		Metrics:       metrics,
		Retry:         retry,
	})

	textService := services.NewTextService(services.TextServiceConfig{
		LLM:     providers.LLMService,
		Prompts: prompts,
		Metrics: metrics,
		Retry:   retry,
	})

	scheduler := services.NewScheduler(settings.Scheduler, store.SchedulerStore(), docStore, search)

	cli.SetServices(cli.Services{
		Document:  documentService,
		Search:    search,
		Question:  questionService,
		Review:    reviewService,
		Chat:      chatService,
		Session:   sessionService,
		Plan:      planService,
		Text:      textService,
		Settings:  settingsService,
		Config:    configStore,
		Scheduler: scheduler,
		Metrics:   observability.Handler(registry),
		Supports:  normaliserRegistry.Supports,
		Warnings:  providers.Warnings,
	})

	return cleanup, nil
}

// newEmbeddingCache fronts provider with the embedding cache.
// A missing provider yields a nil cache, which leaves search and index
// builds reporting the embedder as unavailable.
func newEmbeddingCache(
	provider driven.EmbeddingService,
	settings domain.EmbeddingSettings,
	metrics driven.Metrics,
) (*services.EmbeddingCache, error) {
	cache, err := services.NewEmbeddingCache(provider, settings, metrics)
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		logger.Debug("embedding cache disabled: %v", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return cache, nil
}
