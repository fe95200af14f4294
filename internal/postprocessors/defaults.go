package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/postprocessors/chunker"
)

// DefaultChunker is the name of the sentence-aware chunker.
const DefaultChunker = "chunker"

// RegisterDefaults registers all built-in chunkers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(DefaultChunker, buildChunker)
}

// NewDefaultChunker builds the default chunker from settings.
func NewDefaultChunker(settings domain.ChunkingSettings) (driven.Chunker, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Build(DefaultChunker, settings)
}

// buildChunker validates settings and creates the sentence-aware chunker.
// Zero values fall back to the chunker defaults.
func buildChunker(settings domain.ChunkingSettings) (driven.Chunker, error) {
	size := settings.ChunkSize
	if size == 0 {
		size = chunker.DefaultChunkSize
	}
	switch {
	case size < 0:
		return nil, fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidInput)
	case settings.Overlap < 0:
		return nil, fmt.Errorf("%w: overlap must not be negative", domain.ErrInvalidInput)
	case settings.Overlap >= size:
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, settings.Overlap, size)
	case settings.MaxChunks < 0:
		return nil, fmt.Errorf("%w: max chunks must not be negative", domain.ErrInvalidInput)
	}

	return chunker.New(
		chunker.WithChunkSize(size),
		chunker.WithOverlap(settings.Overlap),
		chunker.WithMaxChunks(settings.MaxChunks),
	), nil
}
