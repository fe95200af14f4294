package domain

import "time"

// unknownDescription is returned for unrecognised enum values.
const unknownDescription = "Unknown"

// AIProvider represents an AI service provider.
type AIProvider string

const (
	// AIProviderOllama uses local Ollama server.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI uses OpenAI API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic uses Anthropic API (LLM only, no embeddings).
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the provider is a known value.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if the provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if the provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings configures the embedding provider and the cache in front of it.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (required for Ollama, optional for cloud).
	BaseURL string

	// APIKey is the authentication key (required for cloud providers).
	APIKey string

	// BatchSize is the number of texts per provider call.
	BatchSize int

	// MaxAttempts is the number of tries per batch before it is marked failed.
	MaxAttempts int

	// RetryDelay is the fixed wait between attempts of one batch.
	RetryDelay time.Duration

	// BatchDelay is the minimum spacing between successive provider calls.
	BatchDelay time.Duration

	// Workers bounds how many batches are in flight at once.
	Workers int

	// Timeout bounds a single batch attempt.
	Timeout time.Duration

	// CacheSize is the LRU capacity in entries.
	CacheSize int
}

// IsConfigured returns true if embedding is properly configured.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings configures the LLM provider.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (required for Ollama, optional for cloud).
	BaseURL string

	// APIKey is the authentication key (required for cloud providers).
	APIKey string
}

// IsConfigured returns true if LLM is properly configured.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings configures text truncation and chunking.
type ChunkingSettings struct {
	// ChunkSize is the maximum window length in characters.
	ChunkSize int

	// Overlap is the number of characters adjacent chunks share.
	Overlap int

	// MaxChunks caps the number of chunks per document.
	MaxChunks int

	// MaxTextLength truncates extracted text before chunking.
	MaxTextLength int
}

// IndexSettings configures per-document vector indexes.
type IndexSettings struct {
	// MaxChunks is how many chunks are sampled into an index.
	MaxChunks int

	// TopK is the default number of search hits.
	TopK int
}

// SchedulerSettings configures background maintenance.
type SchedulerSettings struct {
	// Enabled is the master switch for background tasks.
	Enabled bool

	// IndexBuildInterval is how often missing indexes are built.
	IndexBuildInterval time.Duration
}

// ReviewSettings configures the spaced-repetition scheduler.
type ReviewSettings struct {
	// MaxIntervalDays caps the review interval for well-known questions.
	MaxIntervalDays int
}

// AppSettings holds all user-configurable application settings.
type AppSettings struct {
	// DataDir is where the database and index files live.
	DataDir string

	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Index     IndexSettings
	Scheduler SchedulerSettings
	Review    ReviewSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unset.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			BatchSize:   5,
			MaxAttempts: 3,
			RetryDelay:  2 * time.Second,
			BatchDelay:  time.Second,
			Workers:     1,
			Timeout:     30 * time.Second,
			CacheSize:   256,
		},
		Chunking: ChunkingSettings{
			ChunkSize:     1000,
			Overlap:       100,
			MaxChunks:     50,
			MaxTextLength: 50000,
		},
		Index: IndexSettings{
			MaxChunks: 20,
			TopK:      3,
		},
		Scheduler: SchedulerSettings{
			Enabled:            true,
			IndexBuildInterval: 10 * time.Minute,
		},
		Review: ReviewSettings{
			MaxIntervalDays: 30,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-haiku-20240307",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
