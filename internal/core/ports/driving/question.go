package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// QuestionService generates, lists and grades quiz questions.
type QuestionService interface {
	// Generate asks the LLM for questions grounded in the document.
	Generate(ctx context.Context, req GenerateRequest) ([]domain.Question, error)

	// List returns questions for a document. Empty documentID lists all.
	List(ctx context.Context, documentID string) ([]domain.Question, error)

	// Get retrieves a question by ID.
	Get(ctx context.Context, questionID string) (*domain.Question, error)

	// Evaluate grades an answer without touching review state.
	Evaluate(ctx context.Context, questionID, answer string) (*domain.Evaluation, error)

	// Answer grades an answer and records it with the review scheduler.
	Answer(ctx context.Context, questionID, answer string) (*AnswerResult, error)

	// Delete removes a question.
	Delete(ctx context.Context, questionID string) error

	// Export renders a document's questions as YAML.
	// Empty documentID exports every question.
	Export(ctx context.Context, documentID string) ([]byte, error)
}

// GenerateRequest configures question generation.
type GenerateRequest struct {
	DocumentID string
	Kind       domain.QuestionKind
	Count      int
	Difficulty domain.Difficulty
}

// AnswerResult couples a grading with the updated review state.
type AnswerResult struct {
	Evaluation domain.Evaluation
	Question   domain.Question
}
