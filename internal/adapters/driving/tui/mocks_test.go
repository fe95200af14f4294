package tui

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// MockReviewService implements driving.ReviewService for testing.
type MockReviewService struct {
	DueFunc func(ctx context.Context, opts driving.DueOptions) ([]domain.Question, error)
}

func (m *MockReviewService) RecordAnswer(context.Context, string, bool) (*domain.Question, error) {
	return nil, nil
}

func (m *MockReviewService) DueForReview(ctx context.Context, opts driving.DueOptions) ([]domain.Question, error) {
	if m.DueFunc != nil {
		return m.DueFunc(ctx, opts)
	}
	return nil, nil
}

// MockQuestionService implements driving.QuestionService for testing.
type MockQuestionService struct {
	AnswerFunc func(ctx context.Context, questionID, answer string) (*driving.AnswerResult, error)
}

func (m *MockQuestionService) Generate(context.Context, driving.GenerateRequest) ([]domain.Question, error) {
	return nil, nil
}

func (m *MockQuestionService) List(context.Context, string) ([]domain.Question, error) {
	return nil, nil
}

func (m *MockQuestionService) Get(context.Context, string) (*domain.Question, error) {
	return nil, nil
}

func (m *MockQuestionService) Evaluate(context.Context, string, string) (*domain.Evaluation, error) {
	return nil, nil
}

func (m *MockQuestionService) Answer(ctx context.Context, questionID, answer string) (*driving.AnswerResult, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, questionID, answer)
	}
	return &driving.AnswerResult{}, nil
}

func (m *MockQuestionService) Delete(context.Context, string) error {
	return nil
}

func (m *MockQuestionService) Export(context.Context, string) ([]byte, error) {
	return nil, nil
}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	ListFunc func(ctx context.Context) ([]domain.DocumentSummary, error)
}

func (m *MockDocumentService) Ingest(context.Context, driving.IngestRequest) (*driving.IngestResult, error) {
	return nil, nil
}

func (m *MockDocumentService) Reprocess(context.Context, string) (*driving.IngestResult, error) {
	return nil, nil
}

func (m *MockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return nil, nil
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockDocumentService) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *MockDocumentService) Text(context.Context, string) (string, error) {
	return "", nil
}

func (m *MockDocumentService) Delete(context.Context, string) error {
	return nil
}

func (m *MockDocumentService) Summarise(context.Context, string) (string, error) {
	return "", nil
}

// MockSessionService implements driving.SessionService for testing.
type MockSessionService struct {
	StartErr error
	Started  []driving.StartSessionRequest
	Ended    map[string]driving.EndSessionRequest
}

func (m *MockSessionService) Start(_ context.Context, req driving.StartSessionRequest) (*domain.StudySession, error) {
	m.Started = append(m.Started, req)
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	return &domain.StudySession{ID: "s-1", DocumentID: req.DocumentID, Kind: req.Kind, Status: domain.SessionActive}, nil
}

func (m *MockSessionService) Pause(context.Context, string) (*domain.StudySession, error) {
	return nil, nil
}

func (m *MockSessionService) Resume(context.Context, string) (*domain.StudySession, error) {
	return nil, nil
}

func (m *MockSessionService) End(_ context.Context, id string, req driving.EndSessionRequest) (*domain.StudySession, error) {
	if m.Ended == nil {
		m.Ended = make(map[string]driving.EndSessionRequest)
	}
	m.Ended[id] = req
	return &domain.StudySession{ID: id, Status: domain.SessionEnded}, nil
}

func (m *MockSessionService) List(context.Context, string) ([]domain.StudySession, error) {
	return nil, nil
}

func (m *MockSessionService) Delete(context.Context, string) error { return nil }

func (m *MockSessionService) Clear(context.Context) (int, error) { return 0, nil }
