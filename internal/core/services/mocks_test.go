package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// --- Embedding provider ---

// mockEmbedder returns deterministic vectors derived from the text.
// failBatch, when set, decides per call (1-based) whether to fail.
type mockEmbedder struct {
	mu        sync.Mutex
	dims      int
	calls     int
	batches   [][]string
	failBatch func(call int, texts []string) error
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) vector(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()
	vec := make([]float32, m.dims)
	for i := range vec {
		vec[i] = float32((seed>>(uint(i)%24))&0xff) / 255
	}
	return vec
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.batches = append(m.batches, append([]string(nil), texts...))
	fail := m.failBatch
	m.mu.Unlock()

	if fail != nil {
		if err := fail(call, texts); err != nil {
			return nil, err
		}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error { return nil }

// keywordEmbedder maps texts onto axes by keyword so distances are predictable.
type keywordEmbedder struct {
	mockEmbedder
	keywords []string
}

func (k *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if _, err := k.mockEmbedder.EmbedBatch(ctx, texts); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, len(k.keywords))
		lower := strings.ToLower(t)
		for j, kw := range k.keywords {
			if strings.Contains(lower, kw) {
				vec[j] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (k *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := k.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (k *keywordEmbedder) Dimensions() int { return len(k.keywords) }

// --- LLM ---

// mockLLM replays scripted responses in order. Once exhausted it repeats
// the last response.
type mockLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
	messages  [][]driven.ChatMessage
	genOpts   []driven.GenerateOptions
	chatOpts  []driven.ChatOptions
	summary   string
	calls     int
}

func (m *mockLLM) next() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	if err != nil {
		return "", err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.genOpts = append(m.genOpts, opts)
	m.mu.Unlock()
	return m.next()
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.messages = append(m.messages, messages)
	m.chatOpts = append(m.chatOpts, opts)
	m.mu.Unlock()
	return m.next()
}

func (m *mockLLM) Summarise(_ context.Context, content string, _ int) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, content)
	m.mu.Unlock()
	if _, err := m.next(); err != nil {
		return "", err
	}
	return m.summary, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error { return nil }

// --- Index store ---

// mockIndexStore keeps indexes in memory.
type mockIndexStore struct {
	mu      sync.Mutex
	indexes map[string]*driven.VectorIndex
	saves   int
	loadErr map[string]error
}

func newMockIndexStore() *mockIndexStore {
	return &mockIndexStore{
		indexes: make(map[string]*driven.VectorIndex),
		loadErr: make(map[string]error),
	}
}

func (m *mockIndexStore) Save(_ context.Context, index *driven.VectorIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *index
	cp.ChunkIDs = append([]string(nil), index.ChunkIDs...)
	cp.Vectors = append([][]float32(nil), index.Vectors...)
	m.indexes[index.DocumentID] = &cp
	delete(m.loadErr, index.DocumentID)
	m.saves++
	return nil
}

func (m *mockIndexStore) Load(_ context.Context, documentID string) (*driven.VectorIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadErr[documentID]; err != nil {
		return nil, err
	}
	idx, ok := m.indexes[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *idx
	return &cp, nil
}

func (m *mockIndexStore) Delete(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indexes, documentID)
	return nil
}

func (m *mockIndexStore) Exists(_ context.Context, documentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.indexes[documentID]
	return ok
}

func (m *mockIndexStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// --- Normalisers ---

// mockRegistry treats every input as plain text.
type mockRegistry struct {
	title string
	err   error
}

func (m *mockRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &driven.NormaliseResult{Title: m.title, Content: string(raw.Content)}, nil
}

func (m *mockRegistry) Register(driven.Normaliser) {}

func (m *mockRegistry) Supports(string) bool { return m.err == nil }

func (m *mockRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }

// --- Metrics ---

// recordingMetrics counts metric callbacks.
type recordingMetrics struct {
	mu        sync.Mutex
	hits      int
	misses    int
	evictions int
	batches   int
	failed    int
	builds    int
	searches  int
	answers   []bool
	llmCalls  []string
}

func (r *recordingMetrics) CacheLookup(hits, misses int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits += hits
	r.misses += misses
}

func (r *recordingMetrics) CacheEviction() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictions++
}

func (r *recordingMetrics) EmbeddingBatch(_, _ int, failed bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches++
	if failed {
		r.failed++
	}
}

func (r *recordingMetrics) IndexBuild(int, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds++
}

func (r *recordingMetrics) Search(int, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches++
}

func (r *recordingMetrics) AnswerRecorded(correct bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, correct)
}

func (r *recordingMetrics) LLMCall(operation string, _ error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmCalls = append(r.llmCalls, operation)
}

// errProvider is a transient provider failure.
var errProvider = errors.New("provider exploded")

// fastRetry keeps LLM retry tests quick.
var fastRetry = RetryPolicy{MaxTries: 3, Initial: time.Millisecond, Multiplier: 1}

// fastEmbedding disables delays so batch tests run instantly.
func fastEmbedding() domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		BatchSize:   5,
		MaxAttempts: 3,
		RetryDelay:  0,
		BatchDelay:  0,
		Workers:     1,
		Timeout:     time.Second,
		CacheSize:   256,
	}
}
