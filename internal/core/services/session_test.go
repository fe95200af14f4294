package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// stepClock returns a clock that the test advances by hand.
func stepClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func newSessionFixture() (*SessionService, func(time.Duration)) {
	clock, advance := stepClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return NewSessionService(memory.NewStudyStore(), WithSessionClock(clock)), advance
}

func TestSessionService_Start(t *testing.T) {
	service, _ := newSessionFixture()
	ctx := context.Background()

	session, err := service.Start(ctx, driving.StartSessionRequest{DocumentID: "doc-1", Notes: " ch. 2 "})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, domain.SessionGeneral, session.Kind)
	assert.Equal(t, domain.SessionActive, session.Status)
	assert.Equal(t, "ch. 2", session.Notes)

	_, err = service.Start(ctx, driving.StartSessionRequest{Kind: "nap"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionService_PauseResumeEnd(t *testing.T) {
	service, advance := newSessionFixture()
	ctx := context.Background()

	session, err := service.Start(ctx, driving.StartSessionRequest{Kind: domain.SessionReading})
	require.NoError(t, err)

	advance(20 * time.Minute)
	paused, err := service.Pause(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionPaused, paused.Status)

	_, err = service.Pause(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "already paused")

	advance(10 * time.Minute)
	resumed, err := service.Resume(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, resumed.Status)
	assert.Nil(t, resumed.PausedAt)
	assert.Equal(t, 10*time.Minute, resumed.PausedFor)

	_, err = service.Resume(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "not paused")

	advance(15 * time.Minute)
	ended, err := service.End(ctx, session.ID, driving.EndSessionRequest{Notes: "done"})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionEnded, ended.Status)
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, 35*time.Minute, ended.Duration(*ended.EndedAt))
	assert.Equal(t, "done", ended.Notes)
}

func TestSessionService_EndWhilePaused(t *testing.T) {
	service, advance := newSessionFixture()
	ctx := context.Background()

	session, err := service.Start(ctx, driving.StartSessionRequest{})
	require.NoError(t, err)
	advance(5 * time.Minute)
	_, err = service.Pause(ctx, session.ID)
	require.NoError(t, err)
	advance(30 * time.Minute)

	ended, err := service.End(ctx, session.ID, driving.EndSessionRequest{})
	require.NoError(t, err)
	assert.Nil(t, ended.PausedAt)
	assert.Equal(t, 30*time.Minute, ended.PausedFor)
	assert.Equal(t, 5*time.Minute, ended.Duration(*ended.EndedAt))
}

func TestSessionService_EndedSessionIsFinal(t *testing.T) {
	service, _ := newSessionFixture()
	ctx := context.Background()

	session, err := service.Start(ctx, driving.StartSessionRequest{Kind: domain.SessionReview})
	require.NoError(t, err)
	ended, err := service.End(ctx, session.ID, driving.EndSessionRequest{Answered: 10, Correct: 7})
	require.NoError(t, err)
	assert.Equal(t, 10, ended.Answered)
	assert.InDelta(t, 0.7, ended.Accuracy(), 1e-9)

	_, err = service.End(ctx, session.ID, driving.EndSessionRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = service.Pause(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = service.Resume(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionService_EndRejectsBadTallies(t *testing.T) {
	service, _ := newSessionFixture()
	ctx := context.Background()

	session, err := service.Start(ctx, driving.StartSessionRequest{})
	require.NoError(t, err)

	_, err = service.End(ctx, session.ID, driving.EndSessionRequest{Answered: 2, Correct: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionService_UnknownSession(t *testing.T) {
	service, _ := newSessionFixture()
	ctx := context.Background()

	_, err := service.Pause(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = service.End(ctx, "missing", driving.EndSessionRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, service.Delete(ctx, "missing"), domain.ErrNotFound)
}

func TestSessionService_ListDeleteClear(t *testing.T) {
	service, advance := newSessionFixture()
	ctx := context.Background()

	var ids []string
	for _, doc := range []string{"doc-1", "doc-2", "doc-1"} {
		session, err := service.Start(ctx, driving.StartSessionRequest{DocumentID: doc})
		require.NoError(t, err)
		ids = append(ids, session.ID)
		advance(time.Minute)
	}

	forDoc, err := service.List(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, forDoc, 2)
	assert.Equal(t, ids[2], forDoc[0].ID, "newest first")

	require.NoError(t, service.Delete(ctx, ids[0]))
	n, err := service.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := service.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
