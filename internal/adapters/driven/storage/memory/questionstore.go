package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure QuestionStore implements the interface.
var _ driven.QuestionStore = (*QuestionStore)(nil)

// QuestionStore is an in-memory implementation of driven.QuestionStore.
type QuestionStore struct {
	mu        sync.RWMutex
	questions map[string]domain.Question
}

// NewQuestionStore creates a new in-memory question store.
func NewQuestionStore() *QuestionStore {
	return &QuestionStore{
		questions: make(map[string]domain.Question),
	}
}

// SaveQuestions stores or replaces questions by ID.
func (s *QuestionStore) SaveQuestions(_ context.Context, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range questions {
		s.questions[questions[i].ID] = copyQuestion(questions[i])
	}
	return nil
}

// GetQuestion retrieves a question by ID.
func (s *QuestionStore) GetQuestion(_ context.Context, id string) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	q = copyQuestion(q)
	return &q, nil
}

// ListQuestions returns questions oldest first. An empty documentID lists all.
func (s *QuestionStore) ListQuestions(_ context.Context, documentID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Question
	for id := range s.questions {
		q := s.questions[id]
		if documentID == "" || q.DocumentID == documentID {
			result = append(result, copyQuestion(q))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateReviewState writes the spaced-repetition fields of q.
func (s *QuestionStore) UpdateReviewState(_ context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.questions[q.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.TimesAnswered = q.TimesAnswered
	stored.TimesCorrect = q.TimesCorrect
	stored.LastAnswered = copyTime(q.LastAnswered)
	stored.NextReview = copyTime(q.NextReview)
	s.questions[q.ID] = stored
	return nil
}

// DueQuestions returns questions due at asOf in review order.
// A limit of zero or less returns every due question.
func (s *QuestionStore) DueQuestions(_ context.Context, documentID string, asOf time.Time, limit int) ([]domain.Question, error) {
	s.mu.RLock()
	var due []domain.Question
	for id := range s.questions {
		q := s.questions[id]
		if documentID != "" && q.DocumentID != documentID {
			continue
		}
		if q.IsDue(asOf) {
			due = append(due, copyQuestion(q))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(due, func(i, j int) bool { return domain.ReviewLess(&due[i], &due[j]) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// DeleteQuestion removes a question.
func (s *QuestionStore) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.questions, id)
	return nil
}

// CountQuestions returns the number of questions for a document.
func (s *QuestionStore) CountQuestions(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for id := range s.questions {
		if s.questions[id].DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

func copyQuestion(q domain.Question) domain.Question {
	if q.Options != nil {
		q.Options = maps.Clone(q.Options)
	}
	q.LastAnswered = copyTime(q.LastAnswered)
	q.NextReview = copyTime(q.NextReview)
	return q
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
