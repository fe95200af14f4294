package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// SessionStore persists study sessions.
type SessionStore interface {
	// SaveSession stores or replaces a session by ID.
	SaveSession(ctx context.Context, session *domain.StudySession) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*domain.StudySession, error)

	// ListSessions returns sessions newest first.
	// An empty documentID lists every session.
	ListSessions(ctx context.Context, documentID string) ([]domain.StudySession, error)

	// DeleteSession removes a session.
	DeleteSession(ctx context.Context, id string) error

	// ClearSessions removes every session and returns how many were removed.
	ClearSessions(ctx context.Context) (int, error)
}

// PlanStore persists generated study plans.
type PlanStore interface {
	// SavePlan stores or replaces a plan by ID.
	SavePlan(ctx context.Context, plan *domain.StudyPlan) error

	// GetPlan retrieves a plan by ID.
	GetPlan(ctx context.Context, id string) (*domain.StudyPlan, error)

	// ListPlans returns plans newest first.
	ListPlans(ctx context.Context) ([]domain.StudyPlan, error)

	// DeletePlan removes a plan.
	DeletePlan(ctx context.Context, id string) error

	// ClearPlans removes every plan and returns how many were removed.
	ClearPlans(ctx context.Context) (int, error)
}
