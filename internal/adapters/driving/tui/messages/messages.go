// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDocuments picks which document to review.
	ViewDocuments ViewType = iota
	// ViewReview shows one flashcard at a time.
	ViewReview
	// ViewSummary reports the finished session.
	ViewSummary
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDocuments:
		return "documents"
	case ViewReview:
		return "review"
	case ViewSummary:
		return "summary"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the document picker entries.
type DocumentsLoaded struct {
	Documents []domain.DocumentSummary
	Err       error
}

// SessionRequested starts a review. Empty DocumentID reviews every document.
type SessionRequested struct {
	DocumentID string
	Title      string
}

// DueLoaded carries the questions due for the session.
type DueLoaded struct {
	DocumentID string
	Questions  []domain.Question
	Err        error
}

// AnswerGraded carries the grading of one submitted answer.
type AnswerGraded struct {
	QuestionID string
	Result     *driving.AnswerResult
	Err        error
}

// SessionFinished reports the tallies of a completed session.
type SessionFinished struct {
	Stats SessionStats
}

// SessionStats tallies one review session.
type SessionStats struct {
	Total    int
	Answered int
	Correct  int
	Skipped  int
}

// Accuracy is the share of answered cards that were correct.
func (s SessionStats) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered)
}

// SessionRecorded reports the study session opened for a review.
type SessionRecorded struct {
	ID  string
	Err error
}

// SessionClosed reports that a review's study session was ended.
type SessionClosed struct {
	ID  string
	Err error
}
