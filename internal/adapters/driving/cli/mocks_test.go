package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

func testDocument() domain.Document {
	return domain.Document{
		ID:              "doc-1",
		URI:             "/notes/cells.md",
		Title:           "Cell Biology",
		MIMEType:        "text/markdown",
		EmbeddingStored: true,
		CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func testQuestion() domain.Question {
	return domain.Question{
		ID:          "q-1",
		DocumentID:  "doc-1",
		Kind:        domain.QuestionMultipleChoice,
		Text:        "What produces ATP?",
		Options:     map[string]string{"B": "Ribosome", "A": "Mitochondria"},
		Answer:      "A",
		Explanation: "Mitochondria run cellular respiration.",
		Difficulty:  domain.DifficultyMedium,
	}
}

// mockDocumentService implements driving.DocumentService.
type mockDocumentService struct {
	ingested []driving.IngestRequest
	deleted  []string
	ingestFn func(req driving.IngestRequest) (*driving.IngestResult, error)
	listFn   func() ([]domain.DocumentSummary, error)
}

func (m *mockDocumentService) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	m.ingested = append(m.ingested, req)
	if m.ingestFn != nil {
		return m.ingestFn(req)
	}
	doc := testDocument()
	return &driving.IngestResult{Document: &doc, ChunkCount: 3, Indexed: !req.NoIndex}, nil
}

func (m *mockDocumentService) Reprocess(_ context.Context, id string) (*driving.IngestResult, error) {
	doc := testDocument()
	doc.ID = id
	return &driving.IngestResult{Document: &doc, ChunkCount: 4, Indexed: true}, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if id != "doc-1" {
		return nil, domain.ErrNotFound
	}
	doc := testDocument()
	doc.Summary = "Cells make energy."
	return &doc, nil
}

func (m *mockDocumentService) List(context.Context) ([]domain.DocumentSummary, error) {
	if m.listFn != nil {
		return m.listFn()
	}
	return []domain.DocumentSummary{{Document: testDocument(), ChunkCount: 3, QuestionCount: 5}}, nil
}

func (m *mockDocumentService) Chunks(_ context.Context, id string) ([]domain.Chunk, error) {
	return []domain.Chunk{
		{ID: "c0", DocumentID: id, Index: 0, Text: "Cells are the unit of life.", Start: 0, End: 27},
		{ID: "c1", DocumentID: id, Index: 1, Text: "Mitochondria produce ATP.", Start: 20, End: 45},
	}, nil
}

func (m *mockDocumentService) Text(context.Context, string) (string, error) {
	return "Cells are the unit of life. Mitochondria produce ATP.", nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) Summarise(context.Context, string) (string, error) {
	return "Cells make energy.", nil
}

// mockSearchService implements driving.SearchService.
type mockSearchService struct {
	queries []string
	opts    []domain.SearchOptions
	built   []string
	result  *domain.SearchResult
}

func (m *mockSearchService) Search(_ context.Context, docID, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	m.queries = append(m.queries, query)
	m.opts = append(m.opts, opts)
	if m.result != nil {
		return m.result, nil
	}
	return &domain.SearchResult{
		DocumentID: docID,
		Query:      query,
		Status:     domain.StatusOK,
		Hits: []domain.SearchHit{
			{ChunkID: "c1", Index: 1, Text: "Mitochondria produce ATP.", Distance: 0.5, Score: 0.67},
		},
	}, nil
}

func (m *mockSearchService) BuildIndex(_ context.Context, docID string) (*driving.IndexReport, error) {
	m.built = append(m.built, docID)
	return &driving.IndexReport{DocumentID: docID, Vectors: 2, Sampled: 2, Total: 2}, nil
}

// mockQuestionService implements driving.QuestionService.
type mockQuestionService struct {
	generated []driving.GenerateRequest
	answers   []string
}

func (m *mockQuestionService) Generate(_ context.Context, req driving.GenerateRequest) ([]domain.Question, error) {
	m.generated = append(m.generated, req)
	return []domain.Question{testQuestion()}, nil
}

func (m *mockQuestionService) List(context.Context, string) ([]domain.Question, error) {
	return []domain.Question{testQuestion()}, nil
}

func (m *mockQuestionService) Get(_ context.Context, id string) (*domain.Question, error) {
	if id != "q-1" {
		return nil, domain.ErrNotFound
	}
	q := testQuestion()
	return &q, nil
}

func (m *mockQuestionService) Evaluate(context.Context, string, string) (*domain.Evaluation, error) {
	return &domain.Evaluation{Correct: true, Score: 3}, nil
}

func (m *mockQuestionService) Answer(_ context.Context, _ string, answer string) (*driving.AnswerResult, error) {
	m.answers = append(m.answers, answer)
	correct := answer == "A"
	eval := domain.Evaluation{Correct: correct, Expected: "A) Mitochondria"}
	if correct {
		eval.Score = 3
	}
	return &driving.AnswerResult{Evaluation: eval, Question: testQuestion()}, nil
}

func (m *mockQuestionService) Delete(context.Context, string) error { return nil }

func (m *mockQuestionService) Export(context.Context, string) ([]byte, error) {
	return []byte("- id: q-1\n  text: What produces ATP?\n"), nil
}

// mockReviewService implements driving.ReviewService.
type mockReviewService struct {
	due []driving.DueOptions
}

func (m *mockReviewService) RecordAnswer(_ context.Context, id string, _ bool) (*domain.Question, error) {
	q := testQuestion()
	q.ID = id
	return &q, nil
}

func (m *mockReviewService) DueForReview(_ context.Context, opts driving.DueOptions) ([]domain.Question, error) {
	m.due = append(m.due, opts)
	return []domain.Question{testQuestion()}, nil
}

// mockChatService implements driving.ChatService.
type mockChatService struct {
	requests []driving.ChatRequest
}

func (m *mockChatService) Ask(_ context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
	m.requests = append(m.requests, req)
	return &domain.ChatAnswer{
		Answer:  "Answer to: " + req.Question,
		Sources: []domain.SearchHit{{ChunkID: "c1", Index: 1, Text: "Mitochondria produce ATP."}},
	}, nil
}

// mockSessionService implements driving.SessionService.
type mockSessionService struct {
	started []driving.StartSessionRequest
	ended   []driving.EndSessionRequest
	cleared bool
}

func testSession(id string) *domain.StudySession {
	return &domain.StudySession{
		ID:         id,
		DocumentID: "doc-1",
		Kind:       domain.SessionReview,
		Status:     domain.SessionActive,
		StartedAt:  time.Now().Add(-90 * time.Minute),
	}
}

func (m *mockSessionService) Start(_ context.Context, req driving.StartSessionRequest) (*domain.StudySession, error) {
	m.started = append(m.started, req)
	if req.Kind != "" && !req.Kind.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	session := testSession("s-1")
	session.Kind = req.Kind
	return session, nil
}

func (m *mockSessionService) Pause(_ context.Context, id string) (*domain.StudySession, error) {
	session := testSession(id)
	paused := time.Now()
	session.Status = domain.SessionPaused
	session.PausedAt = &paused
	return session, nil
}

func (m *mockSessionService) Resume(_ context.Context, id string) (*domain.StudySession, error) {
	return testSession(id), nil
}

func (m *mockSessionService) End(_ context.Context, id string, req driving.EndSessionRequest) (*domain.StudySession, error) {
	m.ended = append(m.ended, req)
	if id != "s-1" {
		return nil, domain.ErrNotFound
	}
	session := testSession(id)
	ended := session.StartedAt.Add(65 * time.Minute)
	session.Status = domain.SessionEnded
	session.EndedAt = &ended
	session.Answered = req.Answered
	session.Correct = req.Correct
	return session, nil
}

func (m *mockSessionService) List(_ context.Context, documentID string) ([]domain.StudySession, error) {
	if documentID == "empty" {
		return nil, nil
	}
	session := testSession("s-1")
	ended := session.StartedAt.Add(30 * time.Minute)
	session.Status = domain.SessionEnded
	session.EndedAt = &ended
	session.Answered, session.Correct = 8, 6
	session.Notes = "chapter 3"
	return []domain.StudySession{*session}, nil
}

func (m *mockSessionService) Delete(_ context.Context, id string) error {
	if id != "s-1" {
		return domain.ErrNotFound
	}
	return nil
}

func (m *mockSessionService) Clear(context.Context) (int, error) {
	m.cleared = true
	return 4, nil
}

// mockPlanService implements driving.PlanService.
type mockPlanService struct {
	requests []driving.PlanRequest
	deleted  []string
}

func testPlan() *domain.StudyPlan {
	return &domain.StudyPlan{
		ID:           "p-1",
		Subject:      "Cell biology",
		Goal:         "Pass the midterm",
		Timeframe:    "2 weeks",
		HoursPerWeek: 6,
		Overview:     "Structure first, then function.",
		Weeks: []domain.PlanWeek{{
			Number:     1,
			FocusAreas: domain.TextList{"organelles"},
			Activities: domain.TextList{"flashcards"},
			Hours:      6,
		}},
		Techniques: domain.TextList{"spaced repetition"},
		Milestones: domain.TextList{"label a cell"},
		CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockPlanService) Generate(_ context.Context, req driving.PlanRequest) (*domain.StudyPlan, error) {
	m.requests = append(m.requests, req)
	if req.Goal == "" || req.Timeframe == "" {
		return nil, domain.ErrInvalidInput
	}
	plan := testPlan()
	plan.Subject = req.Subject
	return plan, nil
}

func (m *mockPlanService) Get(_ context.Context, id string) (*domain.StudyPlan, error) {
	if id != "p-1" {
		return nil, domain.ErrNotFound
	}
	return testPlan(), nil
}

func (m *mockPlanService) List(context.Context) ([]domain.StudyPlan, error) {
	return []domain.StudyPlan{*testPlan()}, nil
}

func (m *mockPlanService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockPlanService) Clear(context.Context) (int, error) { return 2, nil }

// mockTextService implements driving.TextService and records its inputs.
type mockTextService struct {
	texts  []string
	length domain.SummaryLength
	format domain.SummaryFormat
	style  domain.RephraseStyle
	level  domain.ExplainLevel
}

func (m *mockTextService) Summarise(_ context.Context, text string, length domain.SummaryLength, format domain.SummaryFormat) (string, error) {
	m.texts = append(m.texts, text)
	m.length, m.format = length, format
	return "summary", nil
}

func (m *mockTextService) Correct(_ context.Context, text string) (*domain.CorrectedText, error) {
	m.texts = append(m.texts, text)
	return &domain.CorrectedText{
		Text:        "Their going home.",
		Corrections: []domain.Correction{{Original: "Thier", Corrected: "Their", Explanation: "spelling"}},
	}, nil
}

func (m *mockTextService) Rephrase(_ context.Context, text string, style domain.RephraseStyle) (string, error) {
	m.texts = append(m.texts, text)
	m.style = style
	return "rephrased", nil
}

func (m *mockTextService) Explain(_ context.Context, text string, level domain.ExplainLevel) (string, error) {
	m.texts = append(m.texts, text)
	m.level = level
	return "explained", nil
}

// mockSettingsService implements driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	saved       *domain.AppSettings
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.saved = settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(domain.AIProvider, string, string) error {
	return nil
}

func (m *mockSettingsService) SetLLMProvider(domain.AIProvider, string, string) error {
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

// mockConfigStore implements driven.ConfigStore over a map.
type mockConfigStore struct {
	values map[string]any
	saves  int
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.values[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	n, _ := m.values[key].(int)
	return n
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.values[key].(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(string) []string { return nil }

func (m *mockConfigStore) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error {
	m.saves++
	return nil
}

func (m *mockConfigStore) Load() error { return nil }

func (m *mockConfigStore) Path() string { return "/tmp/recall/config.toml" }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	docs     *mockDocumentService
	search   *mockSearchService
	question *mockQuestionService
	review   *mockReviewService
	chat     *mockChatService
	session  *mockSessionService
	plan     *mockPlanService
	text     *mockTextService
	settings *mockSettingsService
	config   *mockConfigStore
}

var installed testServices

// setupTestServices installs fresh mocks and returns a cleanup that
// restores the previous services.
func setupTestServices() func() {
	old := Services{
		Document:  documentService,
		Search:    searchService,
		Question:  questionService,
		Review:    reviewService,
		Chat:      chatService,
		Session:   sessionService,
		Plan:      planService,
		Text:      textService,
		Settings:  settingsService,
		Config:    configStore,
		Scheduler: scheduler,
		Metrics:   metricsHandler,
		Supports:  supports,
	}

	defaults := domain.DefaultAppSettings()
	defaults.DataDir = "/tmp/recall"
	defaults.Embedding.Provider = domain.AIProviderOpenAI
	defaults.Embedding.Model = "text-embedding-3-small"
	defaults.Embedding.APIKey = "sk-test-1234567890"
	defaults.LLM.Provider = domain.AIProviderOllama
	defaults.LLM.Model = "llama3.2"
	defaults.LLM.BaseURL = "http://localhost:11434"

	config := &mockConfigStore{values: map[string]any{
		"chunking.chunk_size": 1000,
		"embedding.api_key":   "sk-test-1234567890",
	}}
	installed = testServices{
		docs:     &mockDocumentService{},
		search:   &mockSearchService{},
		question: &mockQuestionService{},
		review:   &mockReviewService{},
		chat:     &mockChatService{},
		session:  &mockSessionService{},
		plan:     &mockPlanService{},
		text:     &mockTextService{},
		settings: &mockSettingsService{settings: defaults},
		config:   config,
	}
	SetServices(Services{
		Document: installed.docs,
		Search:   installed.search,
		Question: installed.question,
		Review:   installed.review,
		Chat:     installed.chat,
		Session:  installed.session,
		Plan:     installed.plan,
		Text:     installed.text,
		Settings: installed.settings,
		Config:   installed.config,
	})

	return func() {
		SetServices(old)
	}
}
