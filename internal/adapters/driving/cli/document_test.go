package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Document Command Tests

func TestDocumentCmd_Use(t *testing.T) {
	assert.Equal(t, "document", documentCmd.Use)
}

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	commands := documentCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "list")
	assert.Contains(t, commandNames, "get")
	assert.Contains(t, commandNames, "content")
	assert.Contains(t, commandNames, "chunks")
	assert.Contains(t, commandNames, "summarise")
	assert.Contains(t, commandNames, "reprocess")
	assert.Contains(t, commandNames, "delete")
}

func TestDocumentGetCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := executeCommand(t, nil, "document", "get")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDocumentListCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "document", "list")

	assert.NoError(t, err)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "Cell Biology")
	assert.Contains(t, out, "Chunks: 3  Questions: 5")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	installed.docs.listFn = func() ([]domain.DocumentSummary, error) { return nil, nil }

	out, err := executeCommand(t, nil, "document", "list")

	assert.NoError(t, err)
	assert.Contains(t, out, "No documents found")
}

func TestDocumentGetCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "document", "get", "doc-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Document: doc-1")
	assert.Contains(t, out, "Indexed:  yes")
	assert.Contains(t, out, "Cells make energy.")
}

func TestDocumentGetCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, nil, "document", "get", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentContentCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "document", "content", "doc-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Mitochondria produce ATP.")
}

func TestDocumentChunksCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "document", "chunks", "doc-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "[0] c0 (0-27)")
	assert.Contains(t, out, "[1] c1 (20-45)")
	assert.Contains(t, out, "Total: 2 chunks")
}

func TestDocumentSummariseCmd_Alias(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "document", "summarize", "doc-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Cells make energy.")
}

func TestDocumentReprocessCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "document", "reprocess", "doc-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Reprocessing document doc-1")
	assert.Contains(t, out, "Chunks: 4")
	assert.Contains(t, out, "Index:  built")
}

func TestDocumentDeleteCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "document", "delete", "doc-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Document doc-1 deleted.")
	assert.Equal(t, []string{"doc-1"}, installed.docs.deleted)
}

// Ingest Tests

func TestIngestCmd_RequiresPath(t *testing.T) {
	_, err := executeCommand(t, nil, "ingest")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { ingestNoIndex, ingestTitle = false, "" }()

	out, err := executeCommand(t, nil, "ingest", "--no-index", "--title", "Cells", "notes.md")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested doc-1")
	assert.Contains(t, out, "Chunks: 3")
	assert.Contains(t, out, "Index:  not built")
	require.Len(t, installed.docs.ingested, 1)
	assert.Equal(t, driving.IngestRequest{Path: "notes.md", Title: "Cells", NoIndex: true}, installed.docs.ingested[0])
}

func TestIngestCmd_TitleWithManyFiles(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { ingestTitle = "" }()

	_, err := executeCommand(t, nil, "ingest", "--title", "Cells", "a.md", "b.md")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "single file")
	assert.Empty(t, installed.docs.ingested)
}

func TestIngestCmd_ReportsFailures(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	installed.docs.ingestFn = func(req driving.IngestRequest) (*driving.IngestResult, error) {
		if req.Path == "bad.bin" {
			return nil, domain.ErrUnsupportedType
		}
		doc := testDocument()
		return &driving.IngestResult{Document: &doc, ChunkCount: 1, IndexError: "embedding service unavailable", Capped: true}, nil
	}

	out, err := executeCommand(t, nil, "ingest", "good.md", "bad.bin")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, out, "Failed to ingest bad.bin")
	assert.Contains(t, out, "chunk limit reached")
	assert.Contains(t, out, "skipped (embedding service unavailable)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a\n b\t\tc", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "日本...", truncate("日本語テキスト", 2))
}

var errDocs = errors.New("store closed")

func TestDocumentListCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	installed.docs.listFn = func() ([]domain.DocumentSummary, error) { return nil, errDocs }

	_, err := executeCommand(t, nil, "document", "list")

	assert.ErrorIs(t, err, errDocs)
}
