package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ChatService answers questions about a document or in general.
type ChatService interface {
	// Ask answers from the document's most relevant chunks, or without
	// context when DocumentID is empty.
	Ask(ctx context.Context, req ChatRequest) (*domain.ChatAnswer, error)
}

// ChatRequest is a single chat turn with prior history.
type ChatRequest struct {
	Question string
	History  []domain.ChatTurn

	// DocumentID grounds the answer in a document. Empty asks a general
	// question.
	DocumentID string
}
