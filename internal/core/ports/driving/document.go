package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// DocumentService ingests and manages study documents.
type DocumentService interface {
	// Ingest extracts, chunks and stores a document, then builds its index
	// unless the request opts out.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// Reprocess re-chunks the stored content and rebuilds the index.
	Reprocess(ctx context.Context, documentID string) (*IngestResult, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns every document with chunk and question counts.
	List(ctx context.Context) ([]domain.DocumentSummary, error)

	// Chunks returns the document's chunks in index order.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Text joins the document's chunks in index order.
	Text(ctx context.Context, documentID string) (string, error)

	// Delete removes a document with its chunks, questions and index.
	Delete(ctx context.Context, documentID string) error

	// Summarise asks the LLM for a summary and stores it on the document.
	Summarise(ctx context.Context, documentID string) (string, error)
}

// IngestRequest describes a document to ingest.
// Either Path or Content must be set.
type IngestRequest struct {
	// Path is a file to read and normalise.
	Path string

	// Content is raw bytes supplied directly. URI names them.
	Content []byte
	URI     string

	// Title overrides the extracted title.
	Title string

	// MIMEType overrides detection from the file extension.
	MIMEType string

	// NoIndex skips the vector index build.
	NoIndex bool
}

// IngestResult reports what ingestion produced.
type IngestResult struct {
	Document   *domain.Document
	ChunkCount int

	// Capped is true when the chunk limit dropped trailing text.
	Capped bool

	// Indexed is true when a vector index was built.
	Indexed bool

	// IndexError explains why indexing was skipped or failed. Ingestion
	// still succeeds without an index.
	IndexError string
}
