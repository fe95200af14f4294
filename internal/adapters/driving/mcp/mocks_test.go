package mcp

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	result *domain.SearchResult
	err    error
	opts   domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, documentID, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.SearchResult{DocumentID: documentID, Query: query, Status: domain.StatusNoItems}, nil
	}
	return m.result, nil
}

func (m *mockSearchService) BuildIndex(_ context.Context, documentID string) (*driving.IndexReport, error) {
	return &driving.IndexReport{DocumentID: documentID}, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	summaries []domain.DocumentSummary
	text      string
	err       error
}

func (m *mockDocumentService) Ingest(context.Context, driving.IngestRequest) (*driving.IngestResult, error) {
	return nil, m.err
}

func (m *mockDocumentService) Reprocess(context.Context, string) (*driving.IngestResult, error) {
	return nil, m.err
}

func (m *mockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockDocumentService) List(context.Context) ([]domain.DocumentSummary, error) {
	return m.summaries, m.err
}

func (m *mockDocumentService) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockDocumentService) Text(context.Context, string) (string, error) {
	return m.text, m.err
}

func (m *mockDocumentService) Delete(context.Context, string) error {
	return m.err
}

func (m *mockDocumentService) Summarise(context.Context, string) (string, error) {
	return "", m.err
}

// mockQuestionService is a mock implementation of driving.QuestionService.
type mockQuestionService struct {
	questions []domain.Question
	answer    *driving.AnswerResult
	generated driving.GenerateRequest
	err       error
}

func (m *mockQuestionService) Generate(_ context.Context, req driving.GenerateRequest) ([]domain.Question, error) {
	m.generated = req
	return m.questions, m.err
}

func (m *mockQuestionService) List(context.Context, string) ([]domain.Question, error) {
	return m.questions, m.err
}

func (m *mockQuestionService) Get(context.Context, string) (*domain.Question, error) {
	return nil, m.err
}

func (m *mockQuestionService) Evaluate(context.Context, string, string) (*domain.Evaluation, error) {
	return nil, m.err
}

func (m *mockQuestionService) Answer(context.Context, string, string) (*driving.AnswerResult, error) {
	return m.answer, m.err
}

func (m *mockQuestionService) Delete(context.Context, string) error {
	return m.err
}

func (m *mockQuestionService) Export(context.Context, string) ([]byte, error) {
	return nil, m.err
}

// mockReviewService is a mock implementation of driving.ReviewService.
type mockReviewService struct {
	due  []domain.Question
	opts driving.DueOptions
	err  error
}

func (m *mockReviewService) RecordAnswer(context.Context, string, bool) (*domain.Question, error) {
	return nil, m.err
}

func (m *mockReviewService) DueForReview(_ context.Context, opts driving.DueOptions) ([]domain.Question, error) {
	m.opts = opts
	return m.due, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer *domain.ChatAnswer
	req    driving.ChatRequest
	err    error
}

func (m *mockChatService) Ask(_ context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
	m.req = req
	return m.answer, m.err
}
