// Package markdown strips Markdown syntax down to readable text.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// SupportedExtensions returns the extensions used when no MIME type matches.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips formatting. The title is the first level-one heading.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	source = frontMatter.ReplaceAllString(source, "")

	return &driven.NormaliseResult{
		Title:    firstHeading(source),
		Content:  stripMarkdown(source),
		Metadata: map[string]any{"format": "markdown"},
	}, nil
}

var (
	frontMatter   = regexp.MustCompile(`\A---\n(?s:.*?)\n---\n`)
	fencedCode    = regexp.MustCompile("(?m)^```[^\n]*\n((?s:.*?))^```\\s*$")
	inlineCode    = regexp.MustCompile("`([^`\n]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	refLinks      = regexp.MustCompile(`(?m)^[ \t]*\[[^\]]+\]:[ \t]+\S+.*$`)
	headings      = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	emphasis      = regexp.MustCompile(`(\*\*|__|\*|_|~~)([^\s*_~](?:.*?[^\s*_~])?)(\*\*|__|\*|_|~~)`)
	blockquotes   = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	rules         = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bullets       = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+`)
	numbered      = regexp.MustCompile(`(?m)^([ \t]*)\d+[.)][ \t]+`)
	tablePipes    = regexp.MustCompile(`(?m)^[ \t]*\|?([ \t]*:?-+:?[ \t]*\|)+[ \t]*:?-*:?[ \t]*$`)
	htmlTags      = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// firstHeading returns the text of the first "# " heading.
func firstHeading(source string) string {
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

// stripMarkdown keeps the words and drops the syntax. Code blocks keep
// their contents since study notes often quote code.
func stripMarkdown(content string) string {
	content = fencedCode.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = refLinks.ReplaceAllString(content, "")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquotes.ReplaceAllString(content, "")
	content = rules.ReplaceAllString(content, "")
	content = tablePipes.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "$1")
	content = numbered.ReplaceAllString(content, "$1")
	content = htmlTags.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "|", " ")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
