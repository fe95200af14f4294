package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// Normaliser extracts plain text from one family of file formats.
// Each normaliser handles specific MIME types (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns file extensions (with dot) used when the
	// MIME type is unknown.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the title and text of a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled separately by the Chunker.
type NormaliseResult struct {
	// Title is the extracted or derived document title.
	Title string

	// Content is the extracted text.
	Content string

	// Metadata carries format-specific details (page count, format).
	Metadata map[string]any
}
