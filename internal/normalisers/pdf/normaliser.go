// Package pdf extracts text from PDF files with a pure Go reader.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxTitleLength bounds the first-line title heuristic.
const maxTitleLength = 200

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// SupportedExtensions returns the extensions used when no MIME type matches.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the plain text of every page in order. Pages that
// fail to decode are skipped. The title is the document's Info title,
// else the first short line of text.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (result *driven.NormaliseResult, err error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// The reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: pdf: %v", domain.ErrInvalidInput, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", domain.ErrInvalidInput, err)
	}

	pages := reader.NumPage()
	var text strings.Builder
	skipped := 0
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			skipped++
			logger.Debug("pdf: %s page %d: %v", raw.URI, i, err)
			continue
		}
		if pageText = strings.TrimSpace(pageText); pageText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(pageText)
	}
	if skipped > 0 {
		logger.Warn("pdf: %s: %d of %d pages could not be read", raw.URI, skipped, pages)
	}

	content := text.String()
	title := infoTitle(reader)
	if title == "" {
		title = firstLine(content)
	}

	return &driven.NormaliseResult{
		Title:   title,
		Content: content,
		Metadata: map[string]any{
			"format": "pdf",
			"pages":  pages,
		},
	}, nil
}

func infoTitle(reader *pdf.Reader) string {
	return strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text())
}

// firstLine returns the first non-blank line short enough to be a title.
func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxTitleLength {
			return line
		}
	}
	return ""
}
