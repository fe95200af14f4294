package driven

import "context"

// IndexStore persists per-document flat vector indexes.
// An index is an ordered set of vectors plus the position→chunk-id mapping.
// Both artifacts must load and agree, or Load reports domain.ErrIndexCorrupt.
type IndexStore interface {
	// Save writes the index and its mapping, replacing any prior pair.
	Save(ctx context.Context, index *VectorIndex) error

	// Load reads the index for a document.
	// Returns domain.ErrNotFound when neither artifact exists and
	// domain.ErrIndexCorrupt when they are incomplete or inconsistent.
	Load(ctx context.Context, documentID string) (*VectorIndex, error)

	// Delete removes both artifacts. Missing files are not an error.
	Delete(ctx context.Context, documentID string) error

	// Exists reports whether both artifacts are present.
	Exists(ctx context.Context, documentID string) bool
}

// VectorIndex is an exact-L2 index over a document's sampled chunks.
type VectorIndex struct {
	// DocumentID owns the index.
	DocumentID string

	// Dimensions is the length of every vector.
	Dimensions int

	// ChunkIDs maps vector position to chunk ID.
	ChunkIDs []string

	// Vectors holds one embedding per position.
	Vectors [][]float32
}

// Size returns the number of indexed vectors.
func (v *VectorIndex) Size() int {
	return len(v.Vectors)
}
