package services

import (
	"time"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// nopMetrics discards every observation. Used when no collector is wired.
type nopMetrics struct{}

var _ driven.Metrics = nopMetrics{}

func (nopMetrics) CacheLookup(int, int) {}
func (nopMetrics) CacheEviction() {}
func (nopMetrics) EmbeddingBatch(int, int, bool, time.Duration) {}
func (nopMetrics) IndexBuild(int, time.Duration, error) {}
func (nopMetrics) Search(int, time.Duration) {}
func (nopMetrics) AnswerRecorded(bool) {}
func (nopMetrics) LLMCall(string, error, time.Duration) {}

// orNop returns m, or a no-op collector when m is nil.
func orNop(m driven.Metrics) driven.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
