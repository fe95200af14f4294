package domain

import "time"

// Document represents an ingested study document.
// Content holds the normalised text after truncation; chunks are derived from it.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path).
	URI string

	// Title is the human-readable title.
	Title string

	// MIMEType is the content type the document was extracted from.
	MIMEType string

	// Content is the normalised text, truncated to the configured maximum.
	Content string

	// Truncated reports whether Content was cut at the maximum text length.
	Truncated bool

	// Summary is the LLM-generated summary, if one has been requested.
	Summary string

	// EmbeddingStored is true once a vector index has been built for the
	// current chunk set. Any change to the chunks resets it.
	EmbeddingStored bool

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last reprocessed.
	UpdatedAt time.Time
}

// Chunk is a bounded, overlap-linked slice of a document's text.
// Chunks are always replaced wholesale for a document, never updated one by one.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the 0-based position within the document.
	Index int

	// Text is the trimmed chunk text. Never empty.
	Text string

	// Start and End are the rune offsets of the untrimmed window in the
	// document content.
	Start int
	End   int

	// EmbeddingCached is true when Embedding holds the chunk's vector.
	EmbeddingCached bool

	// Embedding is the vector used by the document index.
	Embedding []float32
}

// DocumentSummary is a light view of a document used by listings.
type DocumentSummary struct {
	Document      Document
	ChunkCount    int
	QuestionCount int
}
