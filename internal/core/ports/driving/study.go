package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// SessionService tracks timed study sessions.
type SessionService interface {
	// Start opens a new active session.
	Start(ctx context.Context, req StartSessionRequest) (*domain.StudySession, error)

	// Pause stops the clock on an active session.
	Pause(ctx context.Context, id string) (*domain.StudySession, error)

	// Resume restarts the clock on a paused session.
	Resume(ctx context.Context, id string) (*domain.StudySession, error)

	// End closes a session, folding in review tallies and notes.
	End(ctx context.Context, id string, req EndSessionRequest) (*domain.StudySession, error)

	// List returns sessions newest first. An empty documentID lists all.
	List(ctx context.Context, documentID string) ([]domain.StudySession, error)

	// Delete removes one session.
	Delete(ctx context.Context, id string) error

	// Clear removes every session.
	Clear(ctx context.Context) (int, error)
}

// StartSessionRequest opens a session.
type StartSessionRequest struct {
	DocumentID string
	Notes      string

	// Kind defaults to domain.SessionGeneral.
	Kind domain.SessionKind
}

// EndSessionRequest closes a session.
type EndSessionRequest struct {
	// Notes replaces the session notes when non-empty.
	Notes string

	// Answered and Correct are added to the session tallies.
	Answered int
	Correct  int
}

// PlanService generates and keeps study plans.
type PlanService interface {
	// Generate asks the LLM for a plan and saves it.
	Generate(ctx context.Context, req PlanRequest) (*domain.StudyPlan, error)

	// Get returns a saved plan.
	Get(ctx context.Context, id string) (*domain.StudyPlan, error)

	// List returns saved plans newest first.
	List(ctx context.Context) ([]domain.StudyPlan, error)

	// Delete removes one plan.
	Delete(ctx context.Context, id string) error

	// Clear removes every plan.
	Clear(ctx context.Context) (int, error)
}

// PlanRequest describes the plan to generate.
type PlanRequest struct {
	Subject   string
	Goal      string
	Timeframe string

	// HoursPerWeek defaults to 10.
	HoursPerWeek int

	// DocumentID grounds the plan in a document's summary when set.
	DocumentID string
}

// TextService rewrites arbitrary text with the LLM.
type TextService interface {
	// Summarise condenses text to roughly length.Words() words.
	Summarise(ctx context.Context, text string, length domain.SummaryLength, format domain.SummaryFormat) (string, error)

	// Correct fixes grammar and spelling and lists the changes.
	Correct(ctx context.Context, text string) (*domain.CorrectedText, error)

	// Rephrase rewrites text in a style, preserving its meaning.
	Rephrase(ctx context.Context, text string, style domain.RephraseStyle) (string, error)

	// Explain restates text for an audience level.
	Explain(ctx context.Context, text string, level domain.ExplainLevel) (string, error)
}
