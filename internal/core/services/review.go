package services

import (
	"context"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure ReviewService implements the interface.
var _ driving.ReviewService = (*ReviewService)(nil)

const day = 24 * time.Hour

// ReviewService schedules question reviews from answer history.
type ReviewService struct {
	questions driven.QuestionStore
	metrics   driven.Metrics
	maxDays   int
	now       func() time.Time
}

// ReviewOption configures a ReviewService.
type ReviewOption func(*ReviewService)

// WithClock replaces time.Now, for tests and replays.
func WithClock(now func() time.Time) ReviewOption {
	return func(s *ReviewService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxIntervalDays caps the interval given to well-known questions.
func WithMaxIntervalDays(days int) ReviewOption {
	return func(s *ReviewService) {
		if days > 0 {
			s.maxDays = days
		}
	}
}

// WithReviewMetrics records answers on m.
func WithReviewMetrics(m driven.Metrics) ReviewOption {
	return func(s *ReviewService) {
		s.metrics = orNop(m)
	}
}

// NewReviewService creates a review scheduler over the question store.
func NewReviewService(questions driven.QuestionStore, opts ...ReviewOption) *ReviewService {
	s := &ReviewService{
		questions: questions,
		metrics:   nopMetrics{},
		maxDays:   domain.DefaultAppSettings().Review.MaxIntervalDays,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IntervalDays picks the next review interval from the answer counts.
//
//	rate >= 0.8       -> min(maxDays, correct)
//	0.5 <= rate < 0.8 -> 3
//	otherwise         -> 1
func IntervalDays(answered, correct, maxDays int) int {
	if answered < 1 {
		return 1
	}
	rate := float64(correct) / float64(answered)
	switch {
	case rate >= 0.8:
		return max(1, min(maxDays, correct))
	case rate >= 0.5:
		return 3
	default:
		return 1
	}
}

// ApplyAnswer updates q's review state for one answer at now.
func ApplyAnswer(q *domain.Question, correct bool, now time.Time, maxDays int) {
	q.TimesAnswered++
	if correct {
		q.TimesCorrect++
	}
	days := IntervalDays(q.TimesAnswered, q.TimesCorrect, maxDays)
	next := now.Add(time.Duration(days) * day)
	answeredAt := now
	q.NextReview = &next
	q.LastAnswered = &answeredAt
}

// RecordAnswer applies one answer to the question's review state.
func (s *ReviewService) RecordAnswer(ctx context.Context, questionID string, correct bool) (*domain.Question, error) {
	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	ApplyAnswer(q, correct, s.now(), s.maxDays)
	if err := s.questions.UpdateReviewState(ctx, q); err != nil {
		return nil, err
	}
	s.metrics.AnswerRecorded(correct)

	logger.Debug("review: %s answered (correct=%t), %d/%d, next %s",
		questionID, correct, q.TimesCorrect, q.TimesAnswered, q.NextReview.Format(time.RFC3339))
	return q, nil
}

// DueForReview returns due questions, never-answered first, then by
// ascending success rate.
func (s *ReviewService) DueForReview(ctx context.Context, opts driving.DueOptions) ([]domain.Question, error) {
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}
	return s.questions.DueQuestions(ctx, opts.DocumentID, asOf, opts.Limit)
}
