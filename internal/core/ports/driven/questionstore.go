package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// QuestionStore persists quiz questions and their review state.
type QuestionStore interface {
	// SaveQuestions stores or updates questions.
	SaveQuestions(ctx context.Context, questions []domain.Question) error

	// GetQuestion retrieves a question by ID.
	GetQuestion(ctx context.Context, id string) (*domain.Question, error)

	// ListQuestions returns questions for a document, oldest first.
	// An empty documentID lists every question.
	ListQuestions(ctx context.Context, documentID string) ([]domain.Question, error)

	// UpdateReviewState persists the SRS fields of a question.
	UpdateReviewState(ctx context.Context, q *domain.Question) error

	// DueQuestions returns questions with next_review <= asOf or unset,
	// never-answered first, then by ascending success rate.
	// An empty documentID spans every document. limit <= 0 means no limit.
	DueQuestions(ctx context.Context, documentID string, asOf time.Time, limit int) ([]domain.Question, error)

	// DeleteQuestion removes a single question.
	DeleteQuestion(ctx context.Context, id string) error

	// CountQuestions returns how many questions a document has.
	CountQuestions(ctx context.Context, documentID string) (int, error)
}
