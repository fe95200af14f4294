package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// ReplaceChunks deletes every chunk of the document and stores the
	// given set in a single transaction.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// UpdateChunkEmbeddings stores vectors for the given chunk IDs and
	// flags them as cached.
	UpdateChunkEmbeddings(ctx context.Context, embeddings map[string][]float32) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByURI retrieves the document ingested from uri.
	GetDocumentByURI(ctx context.Context, uri string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document in index order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// SetEmbeddingStored flips the document's index flag.
	SetEmbeddingStored(ctx context.Context, documentID string, stored bool) error

	// DeleteDocument removes a document and cascades to chunks and questions.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns every document, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// CountChunks returns the number of chunks stored for a document.
	CountChunks(ctx context.Context, documentID string) (int, error)
}
