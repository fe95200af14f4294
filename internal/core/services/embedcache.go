package services

import (
	"context"
	"crypto/md5" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// EmbedReport describes how a GetEmbeddings call was served.
type EmbedReport struct {
	// Failures is the number of inputs that got a zero vector.
	Failures int

	// FailedIndexes lists the input positions that failed, ascending.
	FailedIndexes []int

	// Hits and Misses count cache lookups per input position.
	Hits   int
	Misses int
}

// EmbeddingCache fronts an embedding provider with a content-addressed LRU.
// Misses are batched, retried with a fixed delay, and paced so successive
// provider calls are at least BatchDelay apart.
type EmbeddingCache struct {
	provider driven.EmbeddingService
	metrics  driven.Metrics
	entries  *lru.Cache[string, []float32]
	pacer    *rate.Limiter

	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
	workers     int
	timeout     time.Duration
}

// NewEmbeddingCache creates a cache in front of provider.
// Zero or negative settings fall back to the defaults.
func NewEmbeddingCache(
	provider driven.EmbeddingService,
	settings domain.EmbeddingSettings,
	metrics driven.Metrics,
) (*EmbeddingCache, error) {
	if provider == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	defaults := domain.DefaultAppSettings().Embedding
	if settings.BatchSize <= 0 {
		settings.BatchSize = defaults.BatchSize
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = defaults.MaxAttempts
	}
	if settings.RetryDelay < 0 {
		settings.RetryDelay = defaults.RetryDelay
	}
	if settings.BatchDelay < 0 {
		settings.BatchDelay = defaults.BatchDelay
	}
	if settings.Workers <= 0 {
		settings.Workers = defaults.Workers
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaults.Timeout
	}
	if settings.CacheSize <= 0 {
		settings.CacheSize = defaults.CacheSize
	}

	c := &EmbeddingCache{
		provider:    provider,
		metrics:     orNop(metrics),
		batchSize:   settings.BatchSize,
		maxAttempts: settings.MaxAttempts,
		retryDelay:  settings.RetryDelay,
		workers:     settings.Workers,
		timeout:     settings.Timeout,
	}

	limit := rate.Inf
	if settings.BatchDelay > 0 {
		limit = rate.Every(settings.BatchDelay)
	}
	c.pacer = rate.NewLimiter(limit, 1)

	entries, err := lru.NewWithEvict[string, []float32](settings.CacheSize, func(string, []float32) {
		c.metrics.CacheEviction()
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	c.entries = entries

	return c, nil
}

// ContentHash returns the cache key for text: its MD5 digest in hex.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(text)) //nolint:gosec // content addressing, not security
	return hex.EncodeToString(sum[:])
}

// Len returns the number of cached entries.
func (c *EmbeddingCache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached entry.
func (c *EmbeddingCache) Purge() {
	c.entries.Purge()
}

// Dimensions returns the provider's vector size.
func (c *EmbeddingCache) Dimensions() int {
	return c.provider.Dimensions()
}

// Embed returns the vector for a single text.
func (c *EmbeddingCache) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, report, err := c.GetEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if report.Failures > 0 {
		return nil, domain.ErrEmbeddingFailed
	}
	return vectors[0], nil
}

// missBatch is one provider call's worth of distinct uncached texts.
type missBatch struct {
	keys  []string
	texts []string
}

// batchOutcome is written by exactly one worker.
type batchOutcome struct {
	vectors  [][]float32
	attempts int
	err      error
}

// GetEmbeddings returns one vector per input, aligned with texts.
//
// Inputs whose batch failed every attempt get a zero vector and are listed
// in the report. If every input failed and none came from the cache, the
// zero vectors are still returned together with domain.ErrEmbeddingFailed.
func (c *EmbeddingCache) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, EmbedReport, error) {
	var report EmbedReport
	if len(texts) == 0 {
		return [][]float32{}, report, nil
	}

	out := make([][]float32, len(texts))

	// Positions waiting on each distinct missing key, in first-seen order.
	pending := make(map[string][]int)
	var order []string

	for i, text := range texts {
		key := ContentHash(text)
		if vec, ok := c.entries.Get(key); ok {
			out[i] = cloneVector(vec)
			report.Hits++
			continue
		}
		report.Misses++
		if _, seen := pending[key]; !seen {
			order = append(order, key)
		}
		pending[key] = append(pending[key], i)
	}
	c.metrics.CacheLookup(report.Hits, report.Misses)

	if len(order) == 0 {
		return out, report, nil
	}

	batches := c.makeBatches(order, pending, texts)
	outcomes := make([]batchOutcome, len(batches))

	logger.Debug("embedding cache: %d hits, %d misses in %d batches", report.Hits, report.Misses, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range batches {
		g.Go(func() error {
			outcomes[i] = c.fetchBatch(gctx, batches[i])
			return nil
		})
	}
	_ = g.Wait()

	dims := c.provider.Dimensions()
	for _, o := range outcomes {
		if o.err == nil && len(o.vectors) > 0 {
			dims = len(o.vectors[0])
			break
		}
	}

	for b, batch := range batches {
		o := outcomes[b]
		for j, key := range batch.keys {
			positions := pending[key]
			if o.err != nil {
				for _, pos := range positions {
					out[pos] = make([]float32, dims)
					report.FailedIndexes = append(report.FailedIndexes, pos)
				}
				continue
			}
			vec := o.vectors[j]
			c.entries.Add(key, vec)
			for _, pos := range positions {
				out[pos] = cloneVector(vec)
			}
		}
	}

	report.Failures = len(report.FailedIndexes)
	slices.Sort(report.FailedIndexes)

	if err := ctx.Err(); err != nil && report.Failures > 0 {
		return out, report, err
	}
	if report.Failures > 0 && report.Failures == len(texts) {
		return out, report, fmt.Errorf("%w: %d of %d texts", domain.ErrEmbeddingFailed, report.Failures, len(texts))
	}
	if report.Failures > 0 {
		logger.Warn("embedding cache: %d of %d texts failed and were zero-filled", report.Failures, len(texts))
	}
	return out, report, nil
}

func (c *EmbeddingCache) makeBatches(order []string, pending map[string][]int, texts []string) []missBatch {
	batches := make([]missBatch, 0, (len(order)+c.batchSize-1)/c.batchSize)
	for start := 0; start < len(order); start += c.batchSize {
		end := min(start+c.batchSize, len(order))
		b := missBatch{
			keys:  order[start:end],
			texts: make([]string, 0, end-start),
		}
		for _, key := range b.keys {
			b.texts = append(b.texts, texts[pending[key][0]])
		}
		batches = append(batches, b)
	}
	return batches
}

// fetchBatch calls the provider for one batch, retrying with a fixed delay.
// Every provider call first waits on the shared pacer.
func (c *EmbeddingCache) fetchBatch(ctx context.Context, batch missBatch) batchOutcome {
	var attempts int
	started := time.Now()

	vectors, err := backoff.Retry(ctx, func() ([][]float32, error) {
		attempts++
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		vecs, err := c.provider.EmbedBatch(callCtx, batch.texts)
		if err != nil {
			logger.Debug("embedding cache: attempt %d failed: %v", attempts, err)
			return nil, err
		}
		if err := checkVectors(vecs, len(batch.texts)); err != nil {
			logger.Debug("embedding cache: attempt %d returned bad vectors: %v", attempts, err)
			return nil, err
		}
		return vecs, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.retryDelay)),
		backoff.WithMaxTries(uint(c.maxAttempts)),
	)

	c.metrics.EmbeddingBatch(len(batch.texts), attempts, err != nil, time.Since(started))
	if err != nil {
		logger.Warn("embedding cache: batch of %d failed after %d attempts: %v", len(batch.texts), attempts, err)
	}
	return batchOutcome{vectors: vectors, attempts: attempts, err: err}
}

var errMalformedVectors = errors.New("malformed embedding response")

// checkVectors rejects responses that cannot be aligned with the request.
func checkVectors(vecs [][]float32, want int) error {
	if len(vecs) != want {
		return fmt.Errorf("%w: got %d vectors for %d texts", errMalformedVectors, len(vecs), want)
	}
	dims := -1
	for i, v := range vecs {
		if len(v) == 0 {
			return fmt.Errorf("%w: vector %d is empty", errMalformedVectors, i)
		}
		if dims >= 0 && len(v) != dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d", errMalformedVectors, i, len(v), dims)
		}
		dims = len(v)
	}
	return nil
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
