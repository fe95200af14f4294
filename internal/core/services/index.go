package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.SearchService = (*IndexService)(nil)

// IndexService builds and queries per-document flat vector indexes.
// Builds are serialised per document. Concurrent lazy builds triggered by
// searches on the same document collapse into one.
type IndexService struct {
	docStore   driven.DocumentStore
	indexStore driven.IndexStore
	cache      *EmbeddingCache
	metrics    driven.Metrics

	maxChunks int
	topK      int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	group singleflight.Group
}

// NewIndexService creates an index service.
// cache may be nil, in which case builds and searches fail with
// domain.ErrEmbeddingUnavailable.
func NewIndexService(
	docStore driven.DocumentStore,
	indexStore driven.IndexStore,
	cache *EmbeddingCache,
	settings domain.IndexSettings,
	metrics driven.Metrics,
) *IndexService {
	defaults := domain.DefaultAppSettings().Index
	if settings.MaxChunks <= 0 {
		settings.MaxChunks = defaults.MaxChunks
	}
	if settings.TopK <= 0 {
		settings.TopK = defaults.TopK
	}
	return &IndexService{
		docStore:   docStore,
		indexStore: indexStore,
		cache:      cache,
		metrics:    orNop(metrics),
		maxChunks:  settings.MaxChunks,
		topK:       settings.TopK,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding a document's index files.
func (s *IndexService) lockFor(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[documentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[documentID] = l
	}
	return l
}

// BuildIndex samples the document's chunks, embeds them and replaces the
// persisted index. A document without chunks gets a valid empty index.
func (s *IndexService) BuildIndex(ctx context.Context, documentID string) (*driving.IndexReport, error) {
	l := s.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	started := time.Now()
	report, err := s.build(ctx, documentID)
	vectors := 0
	if report != nil {
		vectors = report.Vectors
	}
	s.metrics.IndexBuild(vectors, time.Since(started), err)
	return report, err
}

func (s *IndexService) build(ctx context.Context, documentID string) (*driving.IndexReport, error) {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	selected := SampleEvenly(chunks, s.maxChunks)
	report := &driving.IndexReport{
		DocumentID: documentID,
		Sampled:    len(selected),
		Total:      len(chunks),
	}
	if len(chunks) > len(selected) {
		logger.Info("index: sampling %d of %d chunks for %s", len(selected), len(chunks), documentID)
	}

	index := &driven.VectorIndex{DocumentID: documentID}

	if len(selected) > 0 {
		if s.cache == nil {
			return nil, domain.ErrEmbeddingUnavailable
		}

		texts := make([]string, len(selected))
		for i, c := range selected {
			texts[i] = c.Text
		}

		vectors, embedReport, err := s.cache.GetEmbeddings(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		report.Failures = embedReport.Failures

		failed := make(map[int]bool, len(embedReport.FailedIndexes))
		for _, i := range embedReport.FailedIndexes {
			failed[i] = true
		}

		// Zero-filled failures are left out so they never surface as matches.
		stored := make(map[string][]float32, len(selected))
		for i, c := range selected {
			if failed[i] {
				continue
			}
			index.ChunkIDs = append(index.ChunkIDs, c.ID)
			index.Vectors = append(index.Vectors, vectors[i])
			stored[c.ID] = vectors[i]
		}
		if len(index.Vectors) > 0 {
			index.Dimensions = len(index.Vectors[0])
		}

		if len(stored) > 0 {
			if err := s.docStore.UpdateChunkEmbeddings(ctx, stored); err != nil {
				return nil, fmt.Errorf("store chunk embeddings: %w", err)
			}
		}
	}

	if err := s.indexStore.Save(ctx, index); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	report.Vectors = index.Size()

	// A partial build stays flagged so background maintenance retries it.
	if err := s.docStore.SetEmbeddingStored(ctx, documentID, report.Failures == 0); err != nil {
		return nil, fmt.Errorf("mark document indexed: %w", err)
	}

	logger.Debug("index: built %s with %d vectors (%d failed)", documentID, report.Vectors, report.Failures)
	return report, nil
}

// Invalidate deletes the persisted index and clears the document flag.
func (s *IndexService) Invalidate(ctx context.Context, documentID string) error {
	l := s.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	if err := s.indexStore.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	err := s.docStore.SetEmbeddingStored(ctx, documentID, false)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// Search returns the top-k chunks nearest to query by L2 distance.
func (s *IndexService) Search(
	ctx context.Context,
	documentID, query string,
	opts domain.SearchOptions,
) (*domain.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.cache == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	started := time.Now()
	topK := opts.TopK
	if topK <= 0 {
		topK = s.topK
	}

	result := &domain.SearchResult{
		DocumentID: documentID,
		Query:      query,
		Hits:       []domain.SearchHit{},
		Status:     domain.StatusOK,
	}

	index, err := s.loadOrBuild(ctx, documentID)
	if err != nil {
		return nil, err
	}

	k := min(topK, index.Size())
	if k == 0 {
		result.Status = domain.StatusNoItems
		s.metrics.Search(0, time.Since(started))
		return result, nil
	}

	queryVec, err := s.cache.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if len(queryVec) != index.Dimensions {
		// The embedding model changed since the index was written.
		logger.Warn("index: %s has %d dimensions, query has %d; rebuilding", documentID, index.Dimensions, len(queryVec))
		if index, err = s.rebuild(ctx, documentID); err != nil {
			return nil, err
		}
		if len(queryVec) != index.Dimensions {
			return nil, fmt.Errorf("%w: dimension mismatch after rebuild", domain.ErrIndexCorrupt)
		}
		k = min(topK, index.Size())
	}

	for _, n := range nearest(index.Vectors, queryVec, k) {
		if n.pos >= len(index.ChunkIDs) {
			continue
		}
		chunk, err := s.docStore.GetChunk(ctx, index.ChunkIDs[n.pos])
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load chunk: %w", err)
		}
		result.Hits = append(result.Hits, domain.SearchHit{
			ChunkID:  chunk.ID,
			Index:    chunk.Index,
			Text:     chunk.Text,
			Distance: n.dist,
			Score:    1 / (1 + n.dist),
		})
	}

	s.metrics.Search(len(result.Hits), time.Since(started))
	return result, nil
}

// loadOrBuild loads the persisted index, building it when it is absent
// or its artifacts are inconsistent.
func (s *IndexService) loadOrBuild(ctx context.Context, documentID string) (*driven.VectorIndex, error) {
	l := s.lockFor(documentID)
	l.Lock()
	index, err := s.indexStore.Load(ctx, documentID)
	l.Unlock()

	switch {
	case err == nil:
		return index, nil
	case errors.Is(err, domain.ErrIndexCorrupt):
		logger.Warn("index: %s is inconsistent, rebuilding: %v", documentID, err)
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("index: %s has no index, building", documentID)
	default:
		return nil, fmt.Errorf("load index: %w", err)
	}
	return s.rebuild(ctx, documentID)
}

// rebuild builds once per document no matter how many callers ask at once.
func (s *IndexService) rebuild(ctx context.Context, documentID string) (*driven.VectorIndex, error) {
	v, err, _ := s.group.Do(documentID, func() (any, error) {
		if _, err := s.BuildIndex(ctx, documentID); err != nil {
			return nil, err
		}
		l := s.lockFor(documentID)
		l.Lock()
		defer l.Unlock()
		return s.indexStore.Load(ctx, documentID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*driven.VectorIndex), nil
}

// neighbour is an index position and its distance to the query.
type neighbour struct {
	pos  int
	dist float64
}

// nearest returns the k closest vectors by Euclidean distance, ascending.
// Ties keep index order.
func nearest(vectors [][]float32, query []float32, k int) []neighbour {
	all := make([]neighbour, 0, len(vectors))
	for i, v := range vectors {
		all = append(all, neighbour{pos: i, dist: l2(v, query)})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].dist < all[j].dist
	})
	if k < len(all) {
		all = all[:k]
	}
	return all
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
