package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid document URI", "recall://documents/doc-456", "doc-456"},
		{"invalid prefix", "file://documents/doc-456", ""},
		{"nested path", "recall://documents/doc-456/extra", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns document text", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{text: "Cells divide."}})

		result, err := server.handleDocumentResource(ctx, makeReadResourceRequest("recall://documents/doc-1"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "Cells divide.", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "recall://documents/doc-1", result.Contents[0].URI)
	})

	t.Run("unknown document", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{err: domain.ErrNotFound}})

		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("recall://documents/nope"))

		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("bad URI", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{}})

		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("recall://other/doc-1"))

		assert.Error(t, err)
	})

	t.Run("no document service", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("recall://documents/doc-1"))

		assert.Error(t, err)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		boom := errors.New("disk gone")
		server := newTestServer(t, &Ports{Document: &mockDocumentService{err: boom}})

		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("recall://documents/doc-1"))

		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "reading document text")
	})
}
