package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// historyKeep is how many results are retained per task.
const historyKeep = 100

// indexBuilder builds a document's vector index.
type indexBuilder interface {
	BuildIndex(ctx context.Context, documentID string) (*driving.IndexReport, error)
}

// Scheduler manages background maintenance tasks.
// It is a pure core service with no external control API.
type Scheduler struct {
	config   domain.SchedulerSettings
	store    driven.SchedulerStore
	docStore driven.DocumentStore
	indexer  indexBuilder
	tick     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	running  bool
	inflight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

var _ driving.Scheduler = (*Scheduler)(nil)

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTick sets how often the scheduler checks for due tasks.
func WithTick(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithSchedulerClock replaces time.Now.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a scheduler with configuration.
// A nil indexer disables the index-build task.
func NewScheduler(
	config domain.SchedulerSettings,
	store driven.SchedulerStore,
	docStore driven.DocumentStore,
	indexer indexBuilder,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		config:   config,
		store:    store,
		docStore: docStore,
		indexer:  indexer,
		tick:     time.Minute,
		now:      time.Now,
		inflight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	enabled := s.config.Enabled && s.indexer != nil && s.config.IndexBuildInterval > 0
	return s.ensureTask(ctx, domain.TaskIDIndexBuild, "Index build", s.config.IndexBuildInterval, enabled)
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, interval time.Duration, enabled bool) error {
	task, err := s.store.GetTask(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		task = nil
	case err != nil:
		return err
	}

	if task == nil {
		// New tasks run on the first check.
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: interval,
			Enabled:  enabled,
		}
	} else if task.Interval != interval {
		task.Interval = interval
		task.NextRun = s.now().Add(interval)
	}
	task.Enabled = enabled

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		task := tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, &task)
		}
	}
}

// runTask executes a single task unless it is already running.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.inflight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inflight[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, task.ID)
			s.mu.Unlock()
		}()

		if _, err := s.RunTask(ctx, task); err != nil {
			logger.Error("scheduler: task %s failed: %v", task.ID, err)
		}
	}()
}

// RunTask runs a task synchronously, updates its schedule and records the
// result in the task history.
func (s *Scheduler) RunTask(ctx context.Context, task *domain.ScheduledTask) (*domain.TaskResult, error) {
	result := &domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: s.now(),
	}

	var err error
	switch task.ID {
	case domain.TaskIDIndexBuild:
		result.ItemsProcessed, err = s.runIndexBuild(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown task %s", domain.ErrInvalidInput, task.ID)
	}

	result.EndedAt = s.now()
	if err != nil {
		result.Error = err.Error()
		task.LastError = err.Error()
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	}

	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		logger.Error("scheduler: failed to save task %s: %v", task.ID, saveErr)
	}
	if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
		logger.Error("scheduler: failed to record result for %s: %v", task.ID, recordErr)
	}
	if pruneErr := s.store.PruneHistory(ctx, historyKeep); pruneErr != nil {
		logger.Error("scheduler: failed to prune history: %v", pruneErr)
	}

	return result, err
}

// runIndexBuild builds the index of every chunked document without one.
// It returns the number of indexes built.
func (s *Scheduler) runIndexBuild(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, nil
	}

	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	built := 0
	var errs []error
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return built, err
		}
		doc := &docs[i]
		if doc.EmbeddingStored {
			continue
		}
		count, err := s.docStore.CountChunks(ctx, doc.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.ID, err))
			continue
		}
		if count == 0 {
			continue
		}

		report, err := s.indexer.BuildIndex(ctx, doc.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.ID, err))
			continue
		}
		logger.Debug("scheduler: indexed %s (%d vectors, %d failures)", doc.ID, report.Vectors, report.Failures)
		built++
	}
	return built, errors.Join(errs...)
}
