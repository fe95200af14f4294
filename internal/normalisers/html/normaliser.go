// Package html extracts readable text from HTML pages.
package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// SupportedExtensions returns the extensions used when no MIME type matches.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips markup. The title comes from <title>, then the first <h1>.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := string(raw.Content)
	return &driven.NormaliseResult{
		Title:    extractTitle(source),
		Content:  stripHTML(source),
		Metadata: map[string]any{"format": "html"},
	}, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1Tag         = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	dropped       = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|template)\b[^>]*>.*?</(script|style|noscript|head|svg|template)>`)
	comments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockBoundary = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|ul|ol|tr|td|th|blockquote|pre|table|section|article|header|footer|main|nav|dd|dt)\b[^>]*/?>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
	spaces        = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
)

func extractTitle(source string) string {
	for _, re := range []*regexp.Regexp{titleTag, h1Tag} {
		if m := re.FindStringSubmatch(source); len(m) > 1 {
			title := html.UnescapeString(anyTag.ReplaceAllString(m[1], ""))
			if title = strings.Join(strings.Fields(title), " "); title != "" {
				return title
			}
		}
	}
	return ""
}

// stripHTML drops non-content elements, turns block boundaries into line
// breaks and decodes entities. Blank lines are removed.
func stripHTML(source string) string {
	source = dropped.ReplaceAllString(source, "")
	source = comments.ReplaceAllString(source, "")
	source = blockBoundary.ReplaceAllString(source, "\n")
	source = anyTag.ReplaceAllString(source, "")
	source = html.UnescapeString(source)

	lines := strings.Split(source, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
