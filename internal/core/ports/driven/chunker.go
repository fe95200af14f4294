package driven

import "github.com/custodia-labs/recall/internal/core/domain"

// Chunker splits normalised document text into ordered chunks.
// Implementations must be deterministic for identical input.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk splits content into chunks owned by documentID.
	// capped reports that the chunk limit was reached with text remaining.
	Chunk(documentID, content string) (chunks []domain.Chunk, capped bool, err error)
}
