// Package flat persists exact-L2 vector indexes as a binary vector file
// plus a JSON chunk mapping, one pair per document.
package flat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// magic prefixes every index file.
var magic = [4]byte{'R', 'F', 'L', '1'}

const (
	indexSuffix   = ".index"
	mappingSuffix = ".mapping.json"
	headerSize    = 12
)

// mapping is the JSON side of an index pair.
type mapping struct {
	DocumentID string   `json:"document_id"`
	ChunkIDs   []string `json:"chunk_ids"`
}

// Store reads and writes index pairs under a single directory.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("flat: directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the index directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes both artifacts. Each file is replaced atomically.
func (s *Store) Save(_ context.Context, index *driven.VectorIndex) error {
	if index == nil {
		return domain.ErrInvalidInput
	}
	base, err := s.base(index.DocumentID)
	if err != nil {
		return err
	}
	if len(index.ChunkIDs) != len(index.Vectors) {
		return fmt.Errorf("%w: %d chunk ids for %d vectors", domain.ErrInvalidInput, len(index.ChunkIDs), len(index.Vectors))
	}
	for i, v := range index.Vectors {
		if len(v) != index.Dimensions {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", domain.ErrInvalidInput, i, len(v), index.Dimensions)
		}
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + 4*index.Dimensions*len(index.Vectors))
	buf.Write(magic[:])
	_ = binary.Write(&buf, binary.LittleEndian, uint32(index.Dimensions)) //nolint:gosec // dimension is small
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(index.Vectors))) //nolint:gosec // bounded by chunk cap
	for _, v := range index.Vectors {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}

	chunkIDs := index.ChunkIDs
	if chunkIDs == nil {
		chunkIDs = []string{}
	}
	mapped, err := json.MarshalIndent(mapping{DocumentID: index.DocumentID, ChunkIDs: chunkIDs}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mapping: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(base+indexSuffix, buf.Bytes()); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := writeAtomic(base+mappingSuffix, mapped); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}
	return nil
}

// Load reads and cross-checks both artifacts.
func (s *Store) Load(_ context.Context, documentID string) (*driven.VectorIndex, error) {
	base, err := s.base(documentID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	indexData, indexErr := os.ReadFile(base + indexSuffix)
	mappingData, mappingErr := os.ReadFile(base + mappingSuffix)
	switch {
	case errors.Is(indexErr, os.ErrNotExist) && errors.Is(mappingErr, os.ErrNotExist):
		return nil, domain.ErrNotFound
	case indexErr != nil:
		return nil, fmt.Errorf("%w: reading index: %v", domain.ErrIndexCorrupt, indexErr)
	case mappingErr != nil:
		return nil, fmt.Errorf("%w: reading mapping: %v", domain.ErrIndexCorrupt, mappingErr)
	}

	var m mapping
	if err := json.Unmarshal(mappingData, &m); err != nil {
		return nil, fmt.Errorf("%w: decoding mapping: %v", domain.ErrIndexCorrupt, err)
	}
	if m.DocumentID != documentID {
		return nil, fmt.Errorf("%w: mapping belongs to %q", domain.ErrIndexCorrupt, m.DocumentID)
	}

	dim, vectors, err := decodeVectors(indexData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	if len(vectors) != len(m.ChunkIDs) {
		return nil, fmt.Errorf("%w: %d vectors but %d chunk ids", domain.ErrIndexCorrupt, len(vectors), len(m.ChunkIDs))
	}

	return &driven.VectorIndex{
		DocumentID: documentID,
		Dimensions: dim,
		ChunkIDs:   m.ChunkIDs,
		Vectors:    vectors,
	}, nil
}

// Delete removes both artifacts.
func (s *Store) Delete(_ context.Context, documentID string) error {
	base, err := s.base(documentID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{base + indexSuffix, base + mappingSuffix} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// Exists reports whether both artifacts are on disk.
func (s *Store) Exists(_ context.Context, documentID string) bool {
	base, err := s.base(documentID)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, path := range []string{base + indexSuffix, base + mappingSuffix} {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// base returns the path prefix shared by a document's artifacts.
func (s *Store) base(documentID string) (string, error) {
	if documentID == "" || strings.ContainsAny(documentID, `/\`) || documentID == "." || documentID == ".." {
		return "", fmt.Errorf("%w: document id %q", domain.ErrInvalidInput, documentID)
	}
	return filepath.Join(s.dir, "doc_"+documentID), nil
}

func decodeVectors(data []byte) (int, [][]float32, error) {
	if len(data) < headerSize {
		return 0, nil, errors.New("index header truncated")
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return 0, nil, errors.New("bad index magic")
	}
	dim := binary.LittleEndian.Uint32(data[4:8])
	count := binary.LittleEndian.Uint32(data[8:12])
	if dim == 0 && count != 0 {
		return 0, nil, fmt.Errorf("index holds %d vectors of dimension 0", count)
	}
	body := data[headerSize:]
	// The product is taken in uint64 so it cannot wrap.
	if want := 4 * uint64(dim) * uint64(count); uint64(len(body)) != want {
		return 0, nil, fmt.Errorf("index body is %d bytes, want %d", len(body), want)
	}

	r := bufio.NewReader(bytes.NewReader(body))
	vectors := make([][]float32, count)
	for i := range vectors {
		v := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return 0, nil, fmt.Errorf("reading vector %d: %w", i, err)
		}
		for _, f := range v {
			if math.IsNaN(float64(f)) {
				return 0, nil, fmt.Errorf("vector %d holds NaN", i)
			}
		}
		vectors[i] = v
	}
	return int(dim), vectors, nil
}

// writeAtomic writes to a temp file in the same directory and renames it.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
