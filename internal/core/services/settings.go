package services

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir = "data_dir"

	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyEmbedMaxAttempts = "embedding.max_attempts"
	keyEmbedRetryDelay  = "embedding.retry_delay_ms"
	keyEmbedBatchDelay  = "embedding.batch_delay_ms"
	keyEmbedWorkers     = "embedding.workers"
	keyEmbedTimeout     = "embedding.timeout_seconds"
	keyEmbedCacheSize   = "embedding.cache_size"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"

	keyChunkSize     = "chunking.chunk_size"
	keyChunkOverlap  = "chunking.overlap"
	keyMaxChunks     = "chunking.max_chunks"
	keyMaxTextLength = "chunking.max_text_length"

	keyIndexMaxChunks = "index.max_chunks"
	keyIndexTopK      = "index.top_k"

	keySchedulerEnabled    = "scheduler.enabled"
	keyIndexBuildInterval  = "scheduler.index_build_interval_minutes"
	keyReviewMaxInterval   = "review.max_interval_days"
	defaultOllamaURL       = "http://localhost:11434"
	envOpenAIKey           = "OPENAI_API_KEY"
	envAnthropicKey        = "ANTHROPIC_API_KEY"
	envDataDir             = "RECALL_DATA_DIR"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings with defaults and
// environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		DataDir: s.getString(keyDataDir, defaults.DataDir),
		Embedding: domain.EmbeddingSettings{
			Provider:    s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:       s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:     s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:      s.configStore.GetString(keyEmbedAPIKey),
			BatchSize:   s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			MaxAttempts: s.getInt(keyEmbedMaxAttempts, defaults.Embedding.MaxAttempts),
			RetryDelay:  s.getMillis(keyEmbedRetryDelay, defaults.Embedding.RetryDelay),
			BatchDelay:  s.getMillis(keyEmbedBatchDelay, defaults.Embedding.BatchDelay),
			Workers:     s.getInt(keyEmbedWorkers, defaults.Embedding.Workers),
			Timeout:     time.Duration(s.getInt(keyEmbedTimeout, int(defaults.Embedding.Timeout/time.Second))) * time.Second,
			CacheSize:   s.getInt(keyEmbedCacheSize, defaults.Embedding.CacheSize),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize:     s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:       s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
			MaxChunks:     s.getInt(keyMaxChunks, defaults.Chunking.MaxChunks),
			MaxTextLength: s.getInt(keyMaxTextLength, defaults.Chunking.MaxTextLength),
		},
		Index: domain.IndexSettings{
			MaxChunks: s.getInt(keyIndexMaxChunks, defaults.Index.MaxChunks),
			TopK:      s.getInt(keyIndexTopK, defaults.Index.TopK),
		},
		Scheduler: domain.SchedulerSettings{
			Enabled:            s.getBool(keySchedulerEnabled, defaults.Scheduler.Enabled),
			IndexBuildInterval: time.Duration(s.getInt(keyIndexBuildInterval, int(defaults.Scheduler.IndexBuildInterval/time.Minute))) * time.Minute,
		},
		Review: domain.ReviewSettings{
			MaxIntervalDays: s.getInt(keyReviewMaxInterval, defaults.Review.MaxIntervalDays),
		},
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv fills unset secrets and the data directory from the environment.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if dir := s.getenv(envDataDir); dir != "" {
		settings.DataDir = dir
	}
	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = s.getenv(envOpenAIKey)
	}
	if settings.LLM.APIKey == "" {
		switch settings.LLM.Provider {
		case domain.AIProviderOpenAI:
			settings.LLM.APIKey = s.getenv(envOpenAIKey)
		case domain.AIProviderAnthropic:
			settings.LLM.APIKey = s.getenv(envAnthropicKey)
		}
	}
}

// Save persists application settings.
// API keys are only written when set so environment keys never land on disk.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedMaxAttempts, settings.Embedding.MaxAttempts},
		{keyEmbedRetryDelay, int(settings.Embedding.RetryDelay / time.Millisecond)},
		{keyEmbedBatchDelay, int(settings.Embedding.BatchDelay / time.Millisecond)},
		{keyEmbedWorkers, settings.Embedding.Workers},
		{keyEmbedTimeout, int(settings.Embedding.Timeout / time.Second)},
		{keyEmbedCacheSize, settings.Embedding.CacheSize},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyMaxChunks, settings.Chunking.MaxChunks},
		{keyMaxTextLength, settings.Chunking.MaxTextLength},
		{keyIndexMaxChunks, settings.Index.MaxChunks},
		{keyIndexTopK, settings.Index.TopK},
		{keySchedulerEnabled, settings.Scheduler.Enabled},
		{keyIndexBuildInterval, int(settings.Scheduler.IndexBuildInterval / time.Minute)},
		{keyReviewMaxInterval, settings.Review.MaxIntervalDays},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.getenv(envOpenAIKey) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.envKeyFor(provider) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func (s *SettingsService) envKeyFor(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(envOpenAIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(envAnthropicKey)
	default:
		return ""
	}
}

// Validate checks that configured values are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	c := settings.Chunking
	switch {
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: chunking.chunk_size must be positive", domain.ErrInvalidInput)
	case c.Overlap < 0 || c.Overlap >= c.ChunkSize:
		return fmt.Errorf("%w: chunking.overlap must be in [0, chunk_size)", domain.ErrInvalidInput)
	case c.MaxChunks <= 0:
		return fmt.Errorf("%w: chunking.max_chunks must be positive", domain.ErrInvalidInput)
	case c.MaxTextLength <= 0:
		return fmt.Errorf("%w: chunking.max_text_length must be positive", domain.ErrInvalidInput)
	}

	if settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is not fully configured", domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %s is not fully configured", domain.ErrInvalidInput, settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero is getInt for keys where 0 is a meaningful value.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

// getMillis reads a millisecond count. An explicit 0 disables the delay.
func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	return time.Duration(s.getIntAllowZero(key, int(defaultVal/time.Millisecond))) * time.Millisecond
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
