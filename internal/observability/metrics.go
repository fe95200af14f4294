// Package observability exports study pipeline metrics to Prometheus.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Metrics implements the port.
var _ driven.Metrics = (*Metrics)(nil)

// Metrics records embedding cache, provider, index and review activity.
//
// Usage:
//
//	reg := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(reg)
//	http.Handle("/metrics", observability.Handler(reg))
type Metrics struct {
	// CacheRequests counts embedding lookups.
	// Labels: result (hit|miss)
	CacheRequests *prometheus.CounterVec

	// CacheEvictions counts LRU evictions.
	CacheEvictions prometheus.Counter

	// EmbeddingBatches counts provider batch calls.
	// Labels: status (success|failed)
	EmbeddingBatches *prometheus.CounterVec

	// EmbeddingAttempts observes attempts per batch.
	EmbeddingAttempts prometheus.Histogram

	// EmbeddingDuration observes batch latency in seconds, retries included.
	EmbeddingDuration prometheus.Histogram

	// IndexBuilds counts index builds.
	// Labels: status (success|error)
	IndexBuilds *prometheus.CounterVec

	// IndexVectors observes how many vectors each built index holds.
	IndexVectors prometheus.Histogram

	// IndexBuildDuration observes build latency in seconds.
	IndexBuildDuration prometheus.Histogram

	// SearchDuration observes document search latency in seconds.
	SearchDuration prometheus.Histogram

	// SearchHits observes hits returned per search.
	SearchHits prometheus.Histogram

	// Answers counts recorded review answers.
	// Labels: correct (true|false)
	Answers *prometheus.CounterVec

	// LLMRequests counts LLM calls.
	// Labels: operation, status (success|error)
	LLMRequests *prometheus.CounterVec

	// LLMDuration observes LLM latency in seconds.
	// Labels: operation
	LLMDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses the Prometheus default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recall_embedding_cache_requests_total",
				Help: "Embedding cache lookups by result",
			},
			[]string{"result"},
		),
		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "recall_embedding_cache_evictions_total",
			Help: "Embedding cache LRU evictions",
		}),
		EmbeddingBatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recall_embedding_batches_total",
				Help: "Embedding provider batch calls by outcome",
			},
			[]string{"status"},
		),
		EmbeddingAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recall_embedding_batch_attempts",
			Help:    "Attempts needed per embedding batch",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
		EmbeddingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recall_embedding_batch_duration_seconds",
			Help:    "Embedding batch latency including retries",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		IndexBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recall_index_builds_total",
				Help: "Vector index builds by outcome",
			},
			[]string{"status"},
		),
		IndexVectors: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recall_index_vectors",
			Help:    "Vectors held by each built index",
			Buckets: []float64{0, 1, 5, 10, 20, 50},
		}),
		IndexBuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recall_index_build_duration_seconds",
			Help:    "Vector index build latency",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recall_search_duration_seconds",
			Help:    "Document search latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		SearchHits: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recall_search_hits",
			Help:    "Hits returned per document search",
			Buckets: []float64{0, 1, 3, 5, 10, 20},
		}),
		Answers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recall_review_answers_total",
				Help: "Recorded review answers by correctness",
			},
			[]string{"correct"},
		),
		LLMRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recall_llm_requests_total",
				Help: "LLM requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		LLMDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recall_llm_request_duration_seconds",
				Help:    "LLM request latency by operation",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
	}
}

// CacheLookup records hits and misses for one request.
func (m *Metrics) CacheLookup(hits, misses int) {
	m.CacheRequests.WithLabelValues("hit").Add(float64(hits))
	m.CacheRequests.WithLabelValues("miss").Add(float64(misses))
}

// CacheEviction records an LRU eviction.
func (m *Metrics) CacheEviction() {
	m.CacheEvictions.Inc()
}

// EmbeddingBatch records a provider batch outcome.
func (m *Metrics) EmbeddingBatch(_ int, attempts int, failed bool, took time.Duration) {
	m.EmbeddingBatches.WithLabelValues(outcome(failed, "failed")).Inc()
	m.EmbeddingAttempts.Observe(float64(attempts))
	m.EmbeddingDuration.Observe(took.Seconds())
}

// IndexBuild records an index build.
func (m *Metrics) IndexBuild(vectors int, took time.Duration, err error) {
	m.IndexBuilds.WithLabelValues(outcome(err != nil, "error")).Inc()
	if err == nil {
		m.IndexVectors.Observe(float64(vectors))
		m.IndexBuildDuration.Observe(took.Seconds())
	}
}

// Search records a document search.
func (m *Metrics) Search(hits int, took time.Duration) {
	m.SearchHits.Observe(float64(hits))
	m.SearchDuration.Observe(took.Seconds())
}

// AnswerRecorded records a review answer.
func (m *Metrics) AnswerRecorded(correct bool) {
	m.Answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// LLMCall records an LLM request.
func (m *Metrics) LLMCall(operation string, err error, took time.Duration) {
	m.LLMRequests.WithLabelValues(operation, outcome(err != nil, "error")).Inc()
	m.LLMDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func outcome(bad bool, badLabel string) string {
	if bad {
		return badLabel
	}
	return "success"
}
