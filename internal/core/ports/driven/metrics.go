package driven

import "time"

// Metrics records operational counters for the study pipeline.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// CacheLookup records embedding cache hits and misses for one request.
	CacheLookup(hits, misses int)

	// CacheEviction records an LRU eviction.
	CacheEviction()

	// EmbeddingBatch records a provider batch call outcome.
	EmbeddingBatch(size int, attempts int, failed bool, took time.Duration)

	// IndexBuild records an index build and the number of vectors it holds.
	IndexBuild(vectors int, took time.Duration, err error)

	// Search records a document search.
	Search(hits int, took time.Duration)

	// AnswerRecorded records a review answer.
	AnswerRecorded(correct bool)

	// LLMCall records an LLM request by operation name.
	LLMCall(operation string, err error, took time.Duration)
}
