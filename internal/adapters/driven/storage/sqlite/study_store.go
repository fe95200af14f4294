package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// studyStore implements driven.SessionStore and driven.PlanStore.
type studyStore struct {
	store *Store
}

var (
	_ driven.SessionStore = (*studyStore)(nil)
	_ driven.PlanStore    = (*studyStore)(nil)
)

const sessionColumns = `id, document_id, kind, status, notes, started_at, ended_at,
	paused_at, paused_for_seconds, answered, correct`

const planColumns = `id, subject, goal, timeframe, hours_per_week, document_id,
	overview, weeks, techniques, milestones, created_at`

// SaveSession stores or updates a session.
func (s *studyStore) SaveSession(ctx context.Context, session *domain.StudySession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO study_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			kind = excluded.kind,
			status = excluded.status,
			notes = excluded.notes,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			paused_at = excluded.paused_at,
			paused_for_seconds = excluded.paused_for_seconds,
			answered = excluded.answered,
			correct = excluded.correct
	`, session.ID, session.DocumentID, string(session.Kind), string(session.Status), session.Notes,
		formatTime(session.StartedAt), formatTimePtr(session.EndedAt), formatTimePtr(session.PausedAt),
		session.PausedFor.Seconds(), session.Answered, session.Correct)

	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *studyStore) GetSession(ctx context.Context, id string) (*domain.StudySession, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM study_sessions WHERE id = ?", id)
	return scanSession(row)
}

// ListSessions returns sessions newest first. An empty documentID lists all.
func (s *studyStore) ListSessions(ctx context.Context, documentID string) ([]domain.StudySession, error) {
	query := "SELECT " + sessionColumns + " FROM study_sessions"
	var args []any
	if documentID != "" {
		query += " WHERE document_id = ?"
		args = append(args, documentID)
	}
	query += " ORDER BY started_at DESC, id ASC"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.StudySession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session.
func (s *studyStore) DeleteSession(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "study_sessions", id)
}

// ClearSessions removes every session and reports how many were removed.
func (s *studyStore) ClearSessions(ctx context.Context) (int, error) {
	return s.clear(ctx, "study_sessions")
}

// SavePlan stores or updates a plan.
func (s *studyStore) SavePlan(ctx context.Context, plan *domain.StudyPlan) error {
	if plan == nil || plan.ID == "" {
		return fmt.Errorf("%w: plan id is required", domain.ErrInvalidInput)
	}
	weeks, err := json.Marshal(emptyIfNil(plan.Weeks))
	if err != nil {
		return fmt.Errorf("marshalling weeks: %w", err)
	}
	techniques, err := json.Marshal(emptyIfNil(plan.Techniques))
	if err != nil {
		return fmt.Errorf("marshalling techniques: %w", err)
	}
	milestones, err := json.Marshal(emptyIfNil(plan.Milestones))
	if err != nil {
		return fmt.Errorf("marshalling milestones: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO study_plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject = excluded.subject,
			goal = excluded.goal,
			timeframe = excluded.timeframe,
			hours_per_week = excluded.hours_per_week,
			document_id = excluded.document_id,
			overview = excluded.overview,
			weeks = excluded.weeks,
			techniques = excluded.techniques,
			milestones = excluded.milestones
	`, plan.ID, plan.Subject, plan.Goal, plan.Timeframe, plan.HoursPerWeek, plan.DocumentID,
		plan.Overview, string(weeks), string(techniques), string(milestones), formatTime(plan.CreatedAt))

	if err != nil {
		return fmt.Errorf("saving plan: %w", err)
	}
	return nil
}

// GetPlan retrieves a plan by ID.
func (s *studyStore) GetPlan(ctx context.Context, id string) (*domain.StudyPlan, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+planColumns+" FROM study_plans WHERE id = ?", id)
	return scanPlan(row)
}

// ListPlans returns plans newest first.
func (s *studyStore) ListPlans(ctx context.Context) ([]domain.StudyPlan, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+planColumns+" FROM study_plans ORDER BY created_at DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	plans := []domain.StudyPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

// DeletePlan removes a plan.
func (s *studyStore) DeletePlan(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "study_plans", id)
}

// ClearPlans removes every plan and reports how many were removed.
func (s *studyStore) ClearPlans(ctx context.Context) (int, error) {
	return s.clear(ctx, "study_plans")
}

// deleteByID removes one row. table is always a package constant.
func (s *studyStore) deleteByID(ctx context.Context, table, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *studyStore) clear(ctx context.Context, table string) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("clearing %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing %s: %w", table, err)
	}
	return int(n), nil
}

// scanSession scans a single session row.
func scanSession(row rowScanner) (*domain.StudySession, error) {
	var session domain.StudySession
	var kind, status, startedAt string
	var endedAt, pausedAt sql.NullString
	var pausedFor float64

	if err := row.Scan(&session.ID, &session.DocumentID, &kind, &status, &session.Notes,
		&startedAt, &endedAt, &pausedAt, &pausedFor, &session.Answered, &session.Correct); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.Kind = domain.SessionKind(kind)
	session.Status = domain.SessionStatus(status)
	session.StartedAt = parseTime(startedAt)
	session.EndedAt = parseTimePtr(endedAt)
	session.PausedAt = parseTimePtr(pausedAt)
	session.PausedFor = time.Duration(pausedFor * float64(time.Second))
	return &session, nil
}

// scanPlan scans a single plan row.
func scanPlan(row rowScanner) (*domain.StudyPlan, error) {
	var plan domain.StudyPlan
	var weeks, techniques, milestones, createdAt string

	if err := row.Scan(&plan.ID, &plan.Subject, &plan.Goal, &plan.Timeframe, &plan.HoursPerWeek,
		&plan.DocumentID, &plan.Overview, &weeks, &techniques, &milestones, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning plan: %w", err)
	}

	for _, field := range []struct {
		raw  string
		dest any
	}{
		{weeks, &plan.Weeks},
		{techniques, &plan.Techniques},
		{milestones, &plan.Milestones},
	} {
		if field.raw == "" || field.raw == jsonNull {
			continue
		}
		if err := json.Unmarshal([]byte(field.raw), field.dest); err != nil {
			return nil, fmt.Errorf("unmarshaling plan %s: %w", plan.ID, err)
		}
	}
	plan.CreatedAt = parseTime(createdAt)
	return &plan, nil
}

// emptyIfNil keeps stored JSON lists as [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
