package mcp

import (
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides per-document semantic search.
	Search driving.SearchService

	// Document lists documents and serves their text.
	Document driving.DocumentService

	// Question generates and grades questions.
	Question driving.QuestionService

	// Review lists questions due for review.
	Review driving.ReviewService

	// Chat answers questions about a document.
	Chat driving.ChatService
}

// Validate ensures all required ports are set.
// Only search is required. Tools backed by a missing port report an error.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
