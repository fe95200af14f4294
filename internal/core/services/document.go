package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// summaryInputLimit bounds the text sent to the LLM for a summary.
const summaryInputLimit = 10000

// summaryLength is the requested summary length in characters.
const summaryLength = 1000

// documentIndexer is the part of IndexService the document lifecycle needs.
type documentIndexer interface {
	BuildIndex(ctx context.Context, documentID string) (*driving.IndexReport, error)
	Invalidate(ctx context.Context, documentID string) error
}

// DocumentService ingests documents and manages their lifecycle.
type DocumentService struct {
	docStore      driven.DocumentStore
	questionStore driven.QuestionStore
	normalisers   driven.NormaliserRegistry
	chunker       driven.Chunker
	indexer       documentIndexer
	llm           *llmClient
	settings      domain.ChunkingSettings
	now           func() time.Time
}

// DocumentServiceConfig wires a DocumentService.
// LLM and Indexer are optional.
type DocumentServiceConfig struct {
	DocumentStore driven.DocumentStore
	QuestionStore driven.QuestionStore
	Normalisers   driven.NormaliserRegistry
	Chunker       driven.Chunker
	Indexer       documentIndexer
	LLM           driven.LLMService
	Metrics       driven.Metrics
	Retry         RetryPolicy
	Chunking      domain.ChunkingSettings
}

// NewDocumentService creates a new document service.
func NewDocumentService(cfg DocumentServiceConfig) *DocumentService {
	if cfg.Chunking.MaxTextLength <= 0 {
		cfg.Chunking.MaxTextLength = domain.DefaultAppSettings().Chunking.MaxTextLength
	}
	if cfg.Chunking.MaxChunks <= 0 {
		cfg.Chunking.MaxChunks = domain.DefaultAppSettings().Chunking.MaxChunks
	}
	return &DocumentService{
		docStore:      cfg.DocumentStore,
		questionStore: cfg.QuestionStore,
		normalisers:   cfg.Normalisers,
		chunker:       cfg.Chunker,
		indexer:       cfg.Indexer,
		llm:           newLLMClient(cfg.LLM, cfg.Metrics, cfg.Retry),
		settings:      cfg.Chunking,
		now:           time.Now,
	}
}

// Ingest extracts, chunks and stores a document, then builds its index.
// Re-ingesting a URI replaces the earlier document in place.
func (s *DocumentService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	raw, err := s.readRaw(req)
	if err != nil {
		return nil, err
	}

	logger.Section("Ingest " + raw.URI)
	normalised, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", raw.URI, err)
	}

	text, truncated := s.prepareText(normalised.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: no text extracted from %s", domain.ErrInvalidInput, raw.URI)
	}

	now := s.now()
	doc := &domain.Document{
		ID:        uuid.New().String(),
		URI:       raw.URI,
		MIMEType:  raw.MIMEType,
		CreatedAt: now,
		Metadata:  normalised.Metadata,
	}
	if existing, err := s.docStore.GetDocumentByURI(ctx, raw.URI); err == nil {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
		logger.Debug("ingest: %s already stored as %s, replacing", raw.URI, existing.ID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("look up %s: %w", raw.URI, err)
	}

	doc.Title = firstNonEmpty(req.Title, normalised.Title, titleFromURI(raw.URI))
	doc.Content = text
	doc.Truncated = truncated
	doc.UpdatedAt = now

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	return s.rechunk(ctx, doc, req.NoIndex)
}

// Reprocess re-chunks the stored content and rebuilds the index.
func (s *DocumentService) Reprocess(ctx context.Context, documentID string) (*driving.IngestResult, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc.UpdatedAt = s.now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return s.rechunk(ctx, doc, false)
}

// rechunk replaces a document's chunks and, unless skipped, rebuilds its index.
func (s *DocumentService) rechunk(ctx context.Context, doc *domain.Document, noIndex bool) (*driving.IngestResult, error) {
	chunks, capped, err := s.chunker.Chunk(doc.ID, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if err := s.docStore.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	result := &driving.IngestResult{
		Document:   doc,
		ChunkCount: len(chunks),
		Capped:     capped,
	}

	if s.indexer == nil {
		result.IndexError = domain.ErrEmbeddingUnavailable.Error()
		return result, nil
	}
	if err := s.indexer.Invalidate(ctx, doc.ID); err != nil {
		return nil, err
	}
	doc.EmbeddingStored = false

	if noIndex {
		return result, nil
	}

	report, err := s.indexer.BuildIndex(ctx, doc.ID)
	if err != nil {
		logger.Warn("ingest: index build for %s failed: %v", doc.ID, err)
		result.IndexError = err.Error()
		return result, nil
	}
	result.Indexed = true
	doc.EmbeddingStored = report.Failures == 0
	if report.Failures > 0 {
		result.IndexError = fmt.Sprintf("%d of %d sampled chunks could not be embedded", report.Failures, report.Sampled)
	}
	return result, nil
}

// readRaw loads the request bytes and resolves URI and MIME type.
func (s *DocumentService) readRaw(req driving.IngestRequest) (*domain.RawDocument, error) {
	raw := &domain.RawDocument{
		URI:      req.URI,
		MIMEType: req.MIMEType,
		Content:  req.Content,
		Metadata: map[string]any{},
	}

	switch {
	case req.Path != "":
		abs, err := filepath.Abs(req.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", req.Path, err)
		}
		content, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", req.Path, err)
		}
		raw.Content = content
		if raw.URI == "" {
			raw.URI = abs
		}
	case len(req.Content) > 0:
		if raw.URI == "" {
			return nil, fmt.Errorf("%w: URI is required with inline content", domain.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: path or content is required", domain.ErrInvalidInput)
	}

	if raw.MIMEType == "" {
		if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(raw.URI))); t != "" {
			raw.MIMEType, _, _ = strings.Cut(t, ";")
		}
	}
	if req.Title != "" {
		raw.Metadata["title"] = req.Title
	}
	return raw, nil
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// prepareText strips control characters, collapses whitespace and
// truncates to the configured maximum length in runes.
func (s *DocumentService) prepareText(content string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return -1
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, content)
	cleaned = horizontalSpace.ReplaceAllString(cleaned, " ")
	cleaned = blankLines.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) <= s.settings.MaxTextLength {
		return cleaned, false
	}
	logger.Warn("ingest: text has %d characters, truncating to %d", len(runes), s.settings.MaxTextLength)
	return string(runes[:s.settings.MaxTextLength]), true
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// List returns every document with chunk and question counts.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		chunks, err := s.docStore.CountChunks(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		questions := 0
		if s.questionStore != nil {
			if questions, err = s.questionStore.CountQuestions(ctx, doc.ID); err != nil {
				return nil, err
			}
		}
		summaries = append(summaries, domain.DocumentSummary{
			Document:      doc,
			ChunkCount:    chunks,
			QuestionCount: questions,
		})
	}
	return summaries, nil
}

// Chunks returns the document's chunks in index order.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.docStore.GetChunks(ctx, documentID)
}

// Text joins the first max_chunks chunks with newlines.
func (s *DocumentService) Text(ctx context.Context, documentID string) (string, error) {
	chunks, err := s.Chunks(ctx, documentID)
	if err != nil {
		return "", err
	}
	if len(chunks) > s.settings.MaxChunks {
		chunks = chunks[:s.settings.MaxChunks]
	}

	var builder strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(chunk.Text)
	}
	return builder.String(), nil
}

// Delete removes a document with its chunks, questions and index files.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}
	if s.questionStore != nil {
		questions, err := s.questionStore.ListQuestions(ctx, documentID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		for _, q := range questions {
			if err := s.questionStore.DeleteQuestion(ctx, q.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("delete question %s: %w", q.ID, err)
			}
		}
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if s.indexer != nil {
		if err := s.indexer.Invalidate(ctx, documentID); err != nil {
			return err
		}
	}
	logger.Debug("document %s deleted", documentID)
	return nil
}

// Summarise asks the LLM for a summary and stores it on the document.
func (s *DocumentService) Summarise(ctx context.Context, documentID string) (string, error) {
	if !s.llm.available() {
		return "", domain.ErrLLMUnavailable
	}
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}

	summary, err := s.llm.summarise(ctx, truncateRunes(doc.Content, summaryInputLimit), summaryLength)
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", domain.ErrLLMUnavailable)
	}

	doc.Summary = summary
	doc.UpdatedAt = s.now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("save summary: %w", err)
	}
	return summary, nil
}

// titleFromURI derives a readable title from a file name.
func titleFromURI(uri string) string {
	base := filepath.Base(uri)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(base)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
