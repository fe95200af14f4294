// Package plaintext is the fallback normaliser for text-like files.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/x-rst",
		"text/x-tex",
		"application/json",
		"application/xml",
		"text/xml",
		"text/yaml",
	}
}

// SupportedExtensions returns the extensions used when no MIME type matches.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt", ".text", ".csv", ".rst", ".tex", ".json", ".xml", ".yaml", ".yml", ".log"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the content as text. Invalid UTF-8 is replaced.
// Plain text carries no title of its own.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := strings.ToValidUTF8(string(raw.Content), "�")
	content = strings.TrimPrefix(content, "\uFEFF")

	return &driven.NormaliseResult{
		Content:  content,
		Metadata: map[string]any{"format": "text"},
	}, nil
}
