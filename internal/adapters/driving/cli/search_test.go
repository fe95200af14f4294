package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [doc-id] [query]", searchCmd.Use)
}

func TestSearchCmd_Flags(t *testing.T) {
	topK := searchCmd.Flags().Lookup("top-k")
	require.NotNil(t, topK)
	assert.Equal(t, "k", topK.Shorthand)
	assert.Equal(t, "0", topK.DefValue)

	jsonFlag := searchCmd.Flags().Lookup("json")
	require.NotNil(t, jsonFlag)
	assert.Equal(t, "false", jsonFlag.DefValue)
}

func TestSearchCmd_RequiresDocAndQuery(t *testing.T) {
	_, err := executeCommand(t, nil, "search", "doc-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 2 arg(s)")
}

func TestSearchCmd_Table(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchTopK = 0 }()

	out, err := executeCommand(t, nil, "search", "-k", "2", "doc-1", "what", "makes", "ATP")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] chunk 1 (0.67)")
	assert.Contains(t, out, "Mitochondria produce ATP.")
	assert.Equal(t, []string{"what makes ATP"}, installed.search.queries)
	assert.Equal(t, []domain.SearchOptions{{TopK: 2}}, installed.search.opts)
}

func TestSearchCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchJSON = false }()

	out, err := executeCommand(t, nil, "search", "--json", "doc-1", "atp")

	require.NoError(t, err)
	var result domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "doc-1", result.DocumentID)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "c1", result.Hits[0].ChunkID)
}

func TestSearchCmd_EmptyIndex(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	installed.search.result = &domain.SearchResult{Status: domain.StatusNoItems}

	out, err := executeCommand(t, nil, "search", "doc-1", "atp")

	require.NoError(t, err)
	assert.Contains(t, out, "Document has no indexed chunks.")
}

// Ask Tests

func TestAskCmd_SingleQuestion(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { askSources = false }()

	out, err := executeCommand(t, nil, "ask", "--sources", "doc-1", "What", "makes", "ATP?")

	require.NoError(t, err)
	assert.Contains(t, out, "Answer to: What makes ATP?")
	assert.Contains(t, out, "[chunk 1] Mitochondria produce ATP.")
	require.Len(t, installed.chat.requests, 1)
	assert.Empty(t, installed.chat.requests[0].History)
}

func TestAskCmd_InteractiveKeepsHistory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	in := strings.NewReader("first?\nsecond?\nexit\nnever asked\n")
	out, err := executeCommand(t, in, "ask", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Answer to: first?")
	assert.Contains(t, out, "Answer to: second?")
	require.Len(t, installed.chat.requests, 2)
	assert.Empty(t, installed.chat.requests[0].History)
	assert.Equal(t, []domain.ChatTurn{
		{Role: "user", Content: "first?"},
		{Role: "assistant", Content: "Answer to: first?"},
	}, installed.chat.requests[1].History)
}

func TestAskCmd_InteractiveEndsAtEOF(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, strings.NewReader("only question"), "ask", "doc-1")

	require.NoError(t, err)
	require.Len(t, installed.chat.requests, 1)
	assert.Equal(t, "only question", installed.chat.requests[0].Question)
}

func TestChatCmd_SingleQuestion(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "chat", "What", "is", "osmosis?")

	require.NoError(t, err)
	assert.Contains(t, out, "Answer to: What is osmosis?")
	assert.Equal(t, []driving.ChatRequest{{Question: "What is osmosis?"}}, installed.chat.requests)
}

func TestChatCmd_InteractiveHasNoDocument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, strings.NewReader("hello\nagain\n\n"), "chat")

	require.NoError(t, err)
	require.Len(t, installed.chat.requests, 2)
	for _, req := range installed.chat.requests {
		assert.Empty(t, req.DocumentID)
	}
	assert.Len(t, installed.chat.requests[1].History, 2)
}

// Index Tests

func TestIndexBuildCmd_Single(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "index", "build", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Indexed doc-1: 2 vectors")
	assert.Equal(t, []string{"doc-1"}, installed.search.built)
}

func TestIndexBuildCmd_All(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { indexAll = false }()

	_, err := executeCommand(t, nil, "index", "build", "--all")

	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1"}, installed.search.built)
}

func TestIndexBuildCmd_RequiresDocWithoutAll(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, nil, "index", "build")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
