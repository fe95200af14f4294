package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

func TestNewLLMService_Defaults(t *testing.T) {
	s := NewLLMService(LLMConfig{})

	assert.Equal(t, DefaultLLMModel, s.ModelName())
	assert.Equal(t, DefaultBaseURL, s.baseURL)
}

func TestLLMService_Generate(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "generated"})
	}))
	defer server.Close()

	s := NewLLMService(LLMConfig{BaseURL: server.URL, Model: "m"})
	out, err := s.Generate(context.Background(), "prompt", driven.GenerateOptions{MaxTokens: 10, Temperature: 0.7})

	require.NoError(t, err)
	assert.Equal(t, "generated", out)
	assert.Equal(t, "m", got["model"])
	assert.Equal(t, false, got["stream"])
	opts, ok := got["options"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 10, opts["num_predict"], 0)
	assert.InDelta(t, 0.7, opts["temperature"], 1e-9)
}

func TestLLMService_Generate_NoOptions(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "x"})
	}))
	defer server.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).Generate(context.Background(), "p", driven.GenerateOptions{})

	require.NoError(t, err)
	assert.NotContains(t, got, "options")
}

func TestLLMService_Chat(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Role: "assistant", Content: "reply"}})
	}))
	defer server.Close()

	s := NewLLMService(LLMConfig{BaseURL: server.URL})
	out, err := s.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "ctx"},
		{Role: "user", Content: "q"},
	}, driven.ChatOptions{MaxTokens: 1000, Temperature: 0.3})

	require.NoError(t, err)
	assert.Equal(t, "reply", out)
	assert.Equal(t, []chatMessage{{Role: "system", Content: "ctx"}, {Role: "user", Content: "q"}}, got.Messages)
	require.NotNil(t, got.Options)
	assert.Equal(t, 1000, got.Options.NumPredict)
}

func TestLLMService_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"model missing", http.StatusNotFound, domain.ErrProviderRejected},
		{"bad request", http.StatusBadRequest, domain.ErrProviderRejected},
		{"server error", http.StatusInternalServerError, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer server.Close()

			_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).Generate(context.Background(), "p", driven.GenerateOptions{})

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLLMService_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
	}))
	defer server.Close()

	assert.NoError(t, NewLLMService(LLMConfig{BaseURL: server.URL}).Ping(context.Background()))
}
