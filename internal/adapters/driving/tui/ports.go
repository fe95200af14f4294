// Package tui provides an interactive flashcard review session in the terminal.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ports aggregates the driving ports the review session needs.
type Ports struct {
	// Review selects the questions that are due.
	Review driving.ReviewService

	// Question grades answers and records them with the scheduler.
	Question driving.QuestionService

	// Document lists documents for the picker. Optional: without it the
	// session reviews every due question.
	Document driving.DocumentService

	// Sessions records each review as a study session. Optional.
	Sessions driving.SessionService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	review driving.ReviewService,
	question driving.QuestionService,
	document driving.DocumentService,
	sessions driving.SessionService,
) *Ports {
	return &Ports{
		Review:   review,
		Question: question,
		Document: document,
		Sessions: sessions,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Review == nil {
		return ErrMissingReviewService
	}
	if p.Question == nil {
		return ErrMissingQuestionService
	}
	return nil
}
