package flat

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "indexes"))
	require.NoError(t, err)
	return s
}

func sampleIndex() *driven.VectorIndex {
	return &driven.VectorIndex{
		DocumentID: "doc-1",
		Dimensions: 3,
		ChunkIDs:   []string{"c0", "c5", "c9"},
		Vectors: [][]float32{
			{0.1, 0.2, 0.3},
			{-1, 0, 1.5},
			{42, -0.25, 0},
		},
	}
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.False(t, s.Exists(ctx, "doc-1"))
	require.NoError(t, s.Save(ctx, sampleIndex()))
	assert.True(t, s.Exists(ctx, "doc-1"))

	got, err := s.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, sampleIndex(), got)
	assert.Equal(t, 3, got.Size())

	assert.FileExists(t, filepath.Join(s.Dir(), "doc_doc-1.index"))
	assert.FileExists(t, filepath.Join(s.Dir(), "doc_doc-1.mapping.json"))
	leftovers, err := filepath.Glob(filepath.Join(s.Dir(), "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStore_EmptyIndexIsValid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &driven.VectorIndex{DocumentID: "empty"}))

	got, err := s.Load(ctx, "empty")
	require.NoError(t, err)
	assert.Zero(t, got.Size())
	assert.Empty(t, got.ChunkIDs)
}

func TestStore_SaveReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleIndex()))

	smaller := &driven.VectorIndex{DocumentID: "doc-1", Dimensions: 2, ChunkIDs: []string{"x"}, Vectors: [][]float32{{1, 2}}}
	require.NoError(t, s.Save(ctx, smaller))

	got, err := s.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, smaller, got)
}

func TestStore_SaveRejectsInconsistentIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		index *driven.VectorIndex
	}{
		{"nil", nil},
		{"missing id", &driven.VectorIndex{}},
		{"path in id", &driven.VectorIndex{DocumentID: "../escape"}},
		{"count mismatch", &driven.VectorIndex{DocumentID: "d", Dimensions: 1, ChunkIDs: []string{"a", "b"}, Vectors: [][]float32{{1}}}},
		{"ragged vectors", &driven.VectorIndex{DocumentID: "d", Dimensions: 2, ChunkIDs: []string{"a"}, Vectors: [][]float32{{1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.Save(ctx, tt.index), domain.ErrInvalidInput)
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_LoadCorrupt(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		damage func(t *testing.T, dir string)
	}{
		{"mapping missing", func(t *testing.T, dir string) {
			require.NoError(t, os.Remove(filepath.Join(dir, "doc_doc-1.mapping.json")))
		}},
		{"index missing", func(t *testing.T, dir string) {
			require.NoError(t, os.Remove(filepath.Join(dir, "doc_doc-1.index")))
		}},
		{"mapping not json", func(t *testing.T, dir string) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "doc_doc-1.mapping.json"), []byte("{"), 0o600))
		}},
		{"mapping for another document", func(t *testing.T, dir string) {
			data := []byte(`{"document_id":"doc-2","chunk_ids":["c0","c5","c9"]}`)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "doc_doc-1.mapping.json"), data, 0o600))
		}},
		{"count disagrees", func(t *testing.T, dir string) {
			data := []byte(`{"document_id":"doc-1","chunk_ids":["c0"]}`)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "doc_doc-1.mapping.json"), data, 0o600))
		}},
		{"bad magic", func(t *testing.T, dir string) {
			path := filepath.Join(dir, "doc_doc-1.index")
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			data[0] = 'X'
			require.NoError(t, os.WriteFile(path, data, 0o600))
		}},
		{"truncated body", func(t *testing.T, dir string) {
			path := filepath.Join(dir, "doc_doc-1.index")
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(path, data[:len(data)-2], 0o600))
		}},
		{"truncated header", func(t *testing.T, dir string) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "doc_doc-1.index"), []byte("RFL"), 0o600))
		}},
		{"header size overflows", func(t *testing.T, dir string) {
			writeHeader(t, dir, 1<<31, 1<<31)
		}},
		{"zero dimension", func(t *testing.T, dir string) {
			writeHeader(t, dir, 0, 3)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, s.Save(ctx, sampleIndex()))
			tt.damage(t, s.Dir())

			_, err := s.Load(ctx, "doc-1")

			assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
		})
	}
}

// writeHeader replaces doc-1's index with a bare header.
func writeHeader(t *testing.T, dir string, dim, count uint32) {
	t.Helper()
	data := make([]byte, headerSize)
	copy(data, magic[:])
	binary.LittleEndian.PutUint32(data[4:8], dim)
	binary.LittleEndian.PutUint32(data[8:12], count)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc_doc-1.index"), data, 0o600))
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleIndex()))

	require.NoError(t, s.Delete(ctx, "doc-1"))
	assert.False(t, s.Exists(ctx, "doc-1"))
	_, err := s.Load(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "doc-1"), "deleting twice is fine")
}
