package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// SearchService provides per-document semantic search.
type SearchService interface {
	// Search returns the chunks closest to query. The index is built on
	// first use. An empty index yields no hits and domain.StatusNoItems.
	Search(ctx context.Context, documentID, query string, opts domain.SearchOptions) (*domain.SearchResult, error)

	// BuildIndex rebuilds the document's index from its current chunks.
	BuildIndex(ctx context.Context, documentID string) (*IndexReport, error)
}

// IndexReport summarises an index build.
type IndexReport struct {
	DocumentID string

	// Vectors is the number of chunks indexed.
	Vectors int

	// Sampled is how many chunks were selected out of Total.
	Sampled int
	Total   int

	// Failures is how many sampled chunks could not be embedded.
	Failures int
}
