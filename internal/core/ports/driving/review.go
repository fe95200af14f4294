package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ReviewService is the spaced-repetition scheduler.
type ReviewService interface {
	// RecordAnswer applies one answer to the question's review state.
	RecordAnswer(ctx context.Context, questionID string, correct bool) (*domain.Question, error)

	// DueForReview returns due questions, unseen first, then weakest first.
	DueForReview(ctx context.Context, opts DueOptions) ([]domain.Question, error)
}

// DueOptions filters a due-for-review query.
type DueOptions struct {
	// DocumentID restricts to one document when set.
	DocumentID string

	// Limit caps the result. Zero means no limit.
	Limit int

	// AsOf defaults to now.
	AsOf time.Time
}
