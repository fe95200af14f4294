package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no normaliser handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured or
	// could not be reached after retries.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Document search and index builds are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingFailed indicates every requested embedding failed after retries.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrIndexCorrupt indicates persisted index artifacts are missing,
	// unreadable, or disagree with each other. Callers rebuild on it.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrGenerationFailed indicates the LLM produced no usable questions.
	ErrGenerationFailed = errors.New("question generation failed")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderRejected indicates the provider refused the request with a
	// client error (HTTP 4xx other than 429). Repeating it will not help.
	ErrProviderRejected = errors.New("provider rejected request")
)

// IsClientStatus reports whether an HTTP status is a client error that
// should not be retried. 429 is excluded.
func IsClientStatus(code int) bool {
	return code >= 400 && code < 500 && code != 429
}
