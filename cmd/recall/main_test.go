package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1}, nil }

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func (fakeEmbedder) Dimensions() int            { return 1 }
func (fakeEmbedder) ModelName() string          { return "fake" }
func (fakeEmbedder) Ping(context.Context) error { return nil }
func (fakeEmbedder) Close() error               { return nil }

func TestNewEmbeddingCache_NoProvider(t *testing.T) {
	cache, err := newEmbeddingCache(nil, domain.DefaultAppSettings().Embedding, nil)

	require.NoError(t, err)
	assert.Nil(t, cache)
}

func TestNewEmbeddingCache_WithProvider(t *testing.T) {
	cache, err := newEmbeddingCache(fakeEmbedder{}, domain.DefaultAppSettings().Embedding, nil)

	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.Zero(t, cache.Len())
}
