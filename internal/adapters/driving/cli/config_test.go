package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{"empty uses default", "", 3, 1, 1},
		{"valid choice", "2", 3, 1, 2},
		{"out of range", "7", 3, 1, 1},
		{"zero", "0", 3, 2, 2},
		{"not a number", "abc", 3, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseChoice(tt.input, tt.maxVal, tt.defaultVal))
		})
	}
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 800, parseValue("800"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "gpt-4o-mini", parseValue("gpt-4o-mini"))
}

func TestDisplayValue_MasksAPIKeys(t *testing.T) {
	assert.Equal(t, "sk-t...7890", displayValue("llm.api_key", "sk-test-1234567890"))
	assert.Equal(t, "(not set)", displayValue("embedding.api_key", ""))
	assert.Equal(t, 1000, displayValue("chunking.chunk_size", 1000))
}

func TestConfigShowCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "config")

	require.NoError(t, err)
	assert.Contains(t, out, "Data directory: /tmp/recall")
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "API Key: sk-t...7890")
	assert.NotContains(t, out, "sk-test-1234567890")
	assert.Contains(t, out, "Base URL: http://localhost:11434")
	assert.Contains(t, out, "[Chunking]")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestConfigShowCmd_ValidationWarning(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	installed.settings.validateErr = domain.ErrInvalidInput

	out, err := executeCommand(t, nil, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: invalid input")
}

func TestConfigGetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "config", "get")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"chunking.chunk_size = 1000", "embedding.api_key = sk-t...7890"}, lines)

	out, err = executeCommand(t, nil, "config", "get", "chunking.chunk_size")
	require.NoError(t, err)
	assert.Equal(t, "1000\n", out)

	_, err = executeCommand(t, nil, "config", "get", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigSetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, nil, "config", "set", "chunking.overlap", "150")

	require.NoError(t, err)
	assert.Contains(t, out, "Set chunking.overlap = 150")
	assert.Equal(t, 150, installed.config.values["chunking.overlap"])
	assert.Equal(t, 1, installed.config.saves)
}

func TestConfigSetKeyCmd_RejectsUnknownTarget(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, nil, "config", "set-key", "search")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, installed.settings.saved)
}

func TestConfigCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range configCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"show", "get", "set", "set-key", "embedding", "llm"}, names)
}
