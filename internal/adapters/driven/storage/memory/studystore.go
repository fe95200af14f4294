package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure StudyStore implements the interfaces.
var (
	_ driven.SessionStore = (*StudyStore)(nil)
	_ driven.PlanStore    = (*StudyStore)(nil)
)

// StudyStore is an in-memory implementation of driven.SessionStore and
// driven.PlanStore.
type StudyStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.StudySession
	plans    map[string]domain.StudyPlan
}

// NewStudyStore creates a new in-memory study store.
func NewStudyStore() *StudyStore {
	return &StudyStore{
		sessions: make(map[string]domain.StudySession),
		plans:    make(map[string]domain.StudyPlan),
	}
}

// SaveSession stores or replaces a session by ID.
func (s *StudyStore) SaveSession(_ context.Context, session *domain.StudySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copySession(*session)
	return nil
}

// GetSession retrieves a session by ID.
func (s *StudyStore) GetSession(_ context.Context, id string) (*domain.StudySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	session = copySession(session)
	return &session, nil
}

// ListSessions returns sessions newest first. An empty documentID lists all.
func (s *StudyStore) ListSessions(_ context.Context, documentID string) ([]domain.StudySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.StudySession
	for id := range s.sessions {
		session := s.sessions[id]
		if documentID == "" || session.DocumentID == documentID {
			result = append(result, copySession(session))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.After(result[j].StartedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteSession removes a session.
func (s *StudyStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// ClearSessions removes every session.
func (s *StudyStore) ClearSessions(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.sessions)
	s.sessions = make(map[string]domain.StudySession)
	return n, nil
}

// SavePlan stores or replaces a plan by ID.
func (s *StudyStore) SavePlan(_ context.Context, plan *domain.StudyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = copyPlan(*plan)
	return nil
}

// GetPlan retrieves a plan by ID.
func (s *StudyStore) GetPlan(_ context.Context, id string) (*domain.StudyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	plan = copyPlan(plan)
	return &plan, nil
}

// ListPlans returns plans newest first.
func (s *StudyStore) ListPlans(_ context.Context) ([]domain.StudyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.StudyPlan, 0, len(s.plans))
	for id := range s.plans {
		result = append(result, copyPlan(s.plans[id]))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeletePlan removes a plan.
func (s *StudyStore) DeletePlan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

// ClearPlans removes every plan.
func (s *StudyStore) ClearPlans(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.plans)
	s.plans = make(map[string]domain.StudyPlan)
	return n, nil
}

func copySession(session domain.StudySession) domain.StudySession {
	if session.EndedAt != nil {
		t := *session.EndedAt
		session.EndedAt = &t
	}
	if session.PausedAt != nil {
		t := *session.PausedAt
		session.PausedAt = &t
	}
	return session
}

func copyPlan(plan domain.StudyPlan) domain.StudyPlan {
	if plan.Weeks != nil {
		weeks := make([]domain.PlanWeek, len(plan.Weeks))
		for i, w := range plan.Weeks {
			w.FocusAreas = slices.Clone(w.FocusAreas)
			w.Activities = slices.Clone(w.Activities)
			w.Resources = slices.Clone(w.Resources)
			weeks[i] = w
		}
		plan.Weeks = weeks
	}
	plan.Techniques = slices.Clone(plan.Techniques)
	plan.Milestones = slices.Clone(plan.Milestones)
	return plan
}
