package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Search == nil {
		ports.Search = &mockSearchService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func sampleQuestion() domain.Question {
	return domain.Question{
		ID:            "q1",
		DocumentID:    "doc-1",
		Kind:          domain.QuestionMultipleChoice,
		Text:          "What produces ATP?",
		Options:       map[string]string{"A": "Mitochondria", "B": "Nucleus", "C": "Ribosome", "D": "Golgi"},
		Answer:        "A",
		Explanation:   "Mitochondria respire.",
		Difficulty:    domain.DifficultyMedium,
		TimesAnswered: 2,
		TimesCorrect:  1,
	}
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns hits", func(t *testing.T) {
		search := &mockSearchService{result: &domain.SearchResult{
			Status: domain.StatusOK,
			Hits:   []domain.SearchHit{{ChunkID: "c1", Index: 4, Text: "ATP", Distance: 0.5, Score: 0.8}},
		}}
		server := newTestServer(t, &Ports{Search: search})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{DocumentID: "doc-1", Query: "energy", TopK: 2})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusOK, output.Status)
		assert.Equal(t, []HitOutput{{ChunkID: "c1", Index: 4, Text: "ATP", Distance: 0.5, Score: 0.8}}, output.Hits)
		assert.Equal(t, 2, search.opts.TopK)
	})

	t.Run("empty index", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{DocumentID: "doc-1", Query: "q"})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusNoItems, output.Status)
		assert.Empty(t, output.Hits)
	})

	t.Run("error", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{err: domain.ErrEmbeddingUnavailable}})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{DocumentID: "doc-1", Query: "q"})

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestServer_handleListDocuments(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	docs := &mockDocumentService{summaries: []domain.DocumentSummary{{
		Document:      domain.Document{ID: "doc-1", Title: "Cells", URI: "/n/cells.md", EmbeddingStored: true, UpdatedAt: updated},
		ChunkCount:    4,
		QuestionCount: 7,
	}}}
	server := newTestServer(t, &Ports{Document: docs})

	_, output, err := server.handleListDocuments(context.Background(), nil, ListDocumentsInput{})

	require.NoError(t, err)
	require.Equal(t, 1, output.Count)
	assert.Equal(t, DocumentOutput{
		ID:            "doc-1",
		Title:         "Cells",
		URI:           "/n/cells.md",
		Chunks:        4,
		Questions:     7,
		Indexed:       true,
		ResourceURI:   "recall://documents/doc-1",
		UpdatedAtUnix: updated.Unix(),
	}, output.Documents[0])
}

func TestServer_handleDueQuestions(t *testing.T) {
	review := &mockReviewService{due: []domain.Question{sampleQuestion()}}
	server := newTestServer(t, &Ports{Review: review})

	_, output, err := server.handleDueQuestions(context.Background(), nil, DueInput{DocumentID: "doc-1"})

	require.NoError(t, err)
	assert.Equal(t, driving.DueOptions{DocumentID: "doc-1", Limit: 10}, review.opts)
	require.Equal(t, 1, output.Count)
	q := output.Questions[0]
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, "multiple_choice", q.Kind)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, 2, q.TimesAnswered)
}

func TestServer_handleAnswer(t *testing.T) {
	next := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	q := sampleQuestion()
	q.NextReview = &next
	questions := &mockQuestionService{answer: &driving.AnswerResult{
		Evaluation: domain.Evaluation{Correct: true, Score: 3, Feedback: "Correct!", Expected: "A) Mitochondria"},
		Question:   q,
	}}
	server := newTestServer(t, &Ports{Question: questions})

	_, output, err := server.handleAnswer(context.Background(), nil, AnswerInput{QuestionID: "q1", Answer: "a"})

	require.NoError(t, err)
	assert.Equal(t, AnswerOutput{
		Correct:    true,
		Score:      3,
		Feedback:   "Correct!",
		Expected:   "A) Mitochondria",
		NextReview: "2026-03-04T09:00:00Z",
	}, output)
}

func TestServer_handleGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		questions := &mockQuestionService{questions: []domain.Question{sampleQuestion()}}
		server := newTestServer(t, &Ports{Question: questions})

		_, output, err := server.handleGenerate(ctx, nil, GenerateInput{DocumentID: "doc-1"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, driving.GenerateRequest{
			DocumentID: "doc-1",
			Kind:       domain.QuestionMultipleChoice,
			Count:      5,
			Difficulty: domain.DifficultyMedium,
		}, questions.generated)
	})

	t.Run("explicit kind and difficulty", func(t *testing.T) {
		questions := &mockQuestionService{}
		server := newTestServer(t, &Ports{Question: questions})

		_, _, err := server.handleGenerate(ctx, nil, GenerateInput{DocumentID: "d", Kind: "tf", Count: 2, Difficulty: "hard"})

		require.NoError(t, err)
		assert.Equal(t, domain.QuestionTrueFalse, questions.generated.Kind)
		assert.Equal(t, domain.DifficultyHard, questions.generated.Difficulty)
		assert.Equal(t, 2, questions.generated.Count)
	})

	t.Run("invalid input", func(t *testing.T) {
		server := newTestServer(t, &Ports{Question: &mockQuestionService{}})

		_, _, err := server.handleGenerate(ctx, nil, GenerateInput{DocumentID: "d", Kind: "essay"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, _, err = server.handleGenerate(ctx, nil, GenerateInput{DocumentID: "d", Difficulty: "brutal"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleAsk(t *testing.T) {
	chat := &mockChatService{answer: &domain.ChatAnswer{
		Answer:  "Mitochondria.",
		Sources: []domain.SearchHit{{ChunkID: "c1", Text: "ATP"}},
	}}
	server := newTestServer(t, &Ports{Chat: chat})

	_, output, err := server.handleAsk(context.Background(), nil, AskInput{DocumentID: "doc-1", Question: "What makes ATP?"})

	require.NoError(t, err)
	assert.Equal(t, "Mitochondria.", output.Answer)
	require.Len(t, output.Sources, 1)
	assert.Equal(t, "c1", output.Sources[0].ChunkID)
	assert.Equal(t, driving.ChatRequest{DocumentID: "doc-1", Question: "What makes ATP?"}, chat.req)
}

func TestServer_handleAsk_RequiresDocument(t *testing.T) {
	chat := &mockChatService{answer: &domain.ChatAnswer{Answer: "x"}}
	server := newTestServer(t, &Ports{Chat: chat})

	_, _, err := server.handleAsk(context.Background(), nil, AskInput{Question: "q"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, chat.req.Question, "chat service not called")
}

func TestServer_ToolsWithoutServices(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &Ports{})

	_, _, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})
	assert.ErrorIs(t, err, errNotConfigured)
	_, _, err = server.handleDueQuestions(ctx, nil, DueInput{})
	assert.ErrorIs(t, err, errNotConfigured)
	_, _, err = server.handleAnswer(ctx, nil, AnswerInput{})
	assert.ErrorIs(t, err, errNotConfigured)
	_, _, err = server.handleGenerate(ctx, nil, GenerateInput{})
	assert.ErrorIs(t, err, errNotConfigured)
	_, _, err = server.handleAsk(ctx, nil, AskInput{})
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestServer_ServiceErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	server := newTestServer(t, &Ports{
		Document: &mockDocumentService{err: boom},
		Question: &mockQuestionService{err: boom},
		Review:   &mockReviewService{err: boom},
		Chat:     &mockChatService{err: boom},
	})

	_, _, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})
	assert.ErrorIs(t, err, boom)
	_, _, err = server.handleDueQuestions(ctx, nil, DueInput{})
	assert.ErrorIs(t, err, boom)
	_, _, err = server.handleAnswer(ctx, nil, AnswerInput{})
	assert.ErrorIs(t, err, boom)
	_, _, err = server.handleAsk(ctx, nil, AskInput{DocumentID: "doc-1"})
	assert.ErrorIs(t, err, boom)
}
