package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService records timed study sessions.
type SessionService struct {
	store driven.SessionStore
	now   func() time.Time
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithSessionClock replaces time.Now.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionService creates a session service over the store.
func NewSessionService(store driven.SessionStore, opts ...SessionOption) *SessionService {
	s := &SessionService{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens an active session.
func (s *SessionService) Start(ctx context.Context, req driving.StartSessionRequest) (*domain.StudySession, error) {
	kind := req.Kind
	if kind == "" {
		kind = domain.SessionGeneral
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown session kind %q", domain.ErrInvalidInput, kind)
	}

	session := &domain.StudySession{
		ID:         uuid.New().String(),
		DocumentID: req.DocumentID,
		Kind:       kind,
		Status:     domain.SessionActive,
		Notes:      strings.TrimSpace(req.Notes),
		StartedAt:  s.now().UTC(),
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	logger.Debug("session %s started (%s)", session.ID, kind)
	return session, nil
}

// Pause stops the clock on an active session.
func (s *SessionService) Pause(ctx context.Context, id string) (*domain.StudySession, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionActive {
		return nil, fmt.Errorf("%w: session %s is %s", domain.ErrInvalidInput, id, session.Status)
	}

	now := s.now().UTC()
	session.Status = domain.SessionPaused
	session.PausedAt = &now
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Resume restarts the clock on a paused session.
func (s *SessionService) Resume(ctx context.Context, id string) (*domain.StudySession, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionPaused {
		return nil, fmt.Errorf("%w: session %s is %s", domain.ErrInvalidInput, id, session.Status)
	}

	closePause(session, s.now().UTC())
	session.Status = domain.SessionActive
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// End closes an active or paused session. An open pause is closed at the
// end time so it does not count as study time.
func (s *SessionService) End(ctx context.Context, id string, req driving.EndSessionRequest) (*domain.StudySession, error) {
	if req.Answered < 0 || req.Correct < 0 || req.Correct > req.Answered {
		return nil, fmt.Errorf("%w: %d correct of %d answered", domain.ErrInvalidInput, req.Correct, req.Answered)
	}
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionEnded {
		return nil, fmt.Errorf("%w: session %s already ended", domain.ErrInvalidInput, id)
	}

	now := s.now().UTC()
	closePause(session, now)
	session.Status = domain.SessionEnded
	session.EndedAt = &now
	session.Answered += req.Answered
	session.Correct += req.Correct
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		session.Notes = notes
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	logger.Debug("session %s ended after %s", id, session.Duration(now).Round(time.Second))
	return session, nil
}

// List returns sessions newest first.
func (s *SessionService) List(ctx context.Context, documentID string) ([]domain.StudySession, error) {
	return s.store.ListSessions(ctx, documentID)
}

// Delete removes a session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteSession(ctx, id)
}

// Clear removes every session.
func (s *SessionService) Clear(ctx context.Context) (int, error) {
	return s.store.ClearSessions(ctx)
}

// closePause folds an open pause into PausedFor.
func closePause(session *domain.StudySession, now time.Time) {
	if session.PausedAt == nil {
		return
	}
	if d := now.Sub(*session.PausedAt); d > 0 {
		session.PausedFor += d
	}
	session.PausedAt = nil
}
