package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestSessionStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	sessions := store.SessionStore()

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ended := started.Add(45 * time.Minute)
	session := &domain.StudySession{
		ID:         "s-1",
		DocumentID: "doc-1",
		Kind:       domain.SessionReview,
		Status:     domain.SessionEnded,
		Notes:      "chapter 3",
		StartedAt:  started,
		EndedAt:    &ended,
		PausedFor:  90 * time.Second,
		Answered:   12,
		Correct:    9,
	}
	require.NoError(t, sessions.SaveSession(ctx, session))

	got, err := sessions.GetSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, session, got)

	_, err = sessions.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_SaveUpdatesPause(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	sessions := store.SessionStore()

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	session := &domain.StudySession{ID: "s-1", Kind: domain.SessionGeneral, Status: domain.SessionActive, StartedAt: started}
	require.NoError(t, sessions.SaveSession(ctx, session))

	paused := started.Add(10 * time.Minute)
	session.Status = domain.SessionPaused
	session.PausedAt = &paused
	require.NoError(t, sessions.SaveSession(ctx, session))

	got, err := sessions.GetSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionPaused, got.Status)
	require.NotNil(t, got.PausedAt)
	assert.True(t, paused.Equal(*got.PausedAt))
	assert.Nil(t, got.EndedAt)
}

func TestSessionStore_ListFiltersAndOrders(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	sessions := store.SessionStore()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, docID := range []string{"doc-1", "doc-2", "doc-1"} {
		require.NoError(t, sessions.SaveSession(ctx, &domain.StudySession{
			ID:         "s-" + string(rune('a'+i)),
			DocumentID: docID,
			Kind:       domain.SessionReading,
			Status:     domain.SessionActive,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := sessions.ListSessions(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "s-c", all[0].ID)
	assert.Equal(t, "s-a", all[2].ID)

	forDoc, err := sessions.ListSessions(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, forDoc, 2)
	assert.Equal(t, "s-c", forDoc[0].ID)
	assert.Equal(t, "s-a", forDoc[1].ID)
}

func TestSessionStore_DeleteAndClear(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	sessions := store.SessionStore()

	for _, id := range []string{"s-1", "s-2", "s-3"} {
		require.NoError(t, sessions.SaveSession(ctx, &domain.StudySession{
			ID:        id,
			Kind:      domain.SessionGeneral,
			Status:    domain.SessionActive,
			StartedAt: time.Now().UTC(),
		}))
	}

	require.NoError(t, sessions.DeleteSession(ctx, "s-1"))
	assert.ErrorIs(t, sessions.DeleteSession(ctx, "s-1"), domain.ErrNotFound)

	n, err := sessions.ClearSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	remaining, err := sessions.ListSessions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPlanStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	plans := store.PlanStore()

	plan := &domain.StudyPlan{
		ID:           "p-1",
		Subject:      "Cell biology",
		Goal:         "Pass the midterm",
		Timeframe:    "2 weeks",
		HoursPerWeek: 6,
		DocumentID:   "doc-1",
		Overview:     "Organelles first, then transport.",
		Weeks: []domain.PlanWeek{
			{
				Number:     1,
				FocusAreas: domain.TextList{"organelles"},
				Activities: domain.TextList{"flashcards", "diagram labelling"},
				Hours:      6,
			},
		},
		Techniques: domain.TextList{"spaced repetition"},
		Milestones: domain.TextList{"label a cell from memory"},
		CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, plans.SavePlan(ctx, plan))

	got, err := plans.GetPlan(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, plan, got)

	_, err = plans.GetPlan(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlanStore_RejectsMissingID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.PlanStore().SavePlan(context.Background(), &domain.StudyPlan{Subject: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlanStore_ListDeleteClear(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	plans := store.PlanStore()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"p-1", "p-2", "p-3"} {
		require.NoError(t, plans.SavePlan(ctx, &domain.StudyPlan{
			ID:        id,
			Subject:   "subject " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := plans.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "p-3", list[0].ID)
	assert.Empty(t, list[0].Weeks)

	require.NoError(t, plans.DeletePlan(ctx, "p-3"))
	assert.ErrorIs(t, plans.DeletePlan(ctx, "p-3"), domain.ErrNotFound)

	n, err := plans.ClearPlans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
