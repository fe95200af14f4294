// Package mcp exposes recall's study tools over the Model Context Protocol.
// Assistants can search, quiz and chat against ingested documents.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// errNotConfigured is returned by tools whose backing service is absent.
var errNotConfigured = errors.New("mcp: service not configured")
