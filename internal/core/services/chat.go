package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// Chat limits.
const (
	chatTopK            = 3
	chatFallbackChars   = 6000
	chatHistoryMessages = 4
	chatMessageChars    = 500
	chatTruncatedSuffix = "... [truncated]"
)

// ChatService answers questions grounded in a document, or general
// questions when no document is given.
type ChatService struct {
	docStore driven.DocumentStore
	search   driving.SearchService
	llm      *llmClient
	prompts  driven.PromptStore
}

// ChatServiceConfig wires a ChatService. Search and Prompts are optional.
type ChatServiceConfig struct {
	DocumentStore driven.DocumentStore
	Search        driving.SearchService
	LLM           driven.LLMService
	Prompts       driven.PromptStore
	Metrics       driven.Metrics
	Retry         RetryPolicy
}

// NewChatService creates a chat service.
func NewChatService(cfg ChatServiceConfig) *ChatService {
	return &ChatService{
		docStore: cfg.DocumentStore,
		search:   cfg.Search,
		llm:      newLLMClient(cfg.LLM, cfg.Metrics, cfg.Retry),
		prompts:  cfg.Prompts,
	}
}

// Ask answers a question from the document's most relevant chunks. When
// search is unavailable it falls back to the start of the document text.
func (s *ChatService) Ask(ctx context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if !s.llm.available() {
		return nil, domain.ErrLLMUnavailable
	}

	if req.DocumentID == "" {
		return s.askGeneral(ctx, question, req.History)
	}

	doc, err := s.docStore.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	sources, excerpts := s.retrieve(ctx, doc, question)
	template := loadPrompt(s.prompts, driven.PromptChatSystem, defaultChatSystemPrompt)

	messages := []driven.ChatMessage{{Role: "system", Content: fmt.Sprintf(template, excerpts)}}
	messages = append(messages, recentHistory(req.History)...)
	messages = append(messages, driven.ChatMessage{Role: "user", Content: question})

	answer, err := s.llm.chat(ctx, "chat", messages, driven.ChatOptions{
		MaxTokens:   1000,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	return &domain.ChatAnswer{Answer: strings.TrimSpace(answer), Sources: sources}, nil
}

// askGeneral answers without document context.
func (s *ChatService) askGeneral(ctx context.Context, question string, history []domain.ChatTurn) (*domain.ChatAnswer, error) {
	system := loadPrompt(s.prompts, driven.PromptGeneralChat, defaultGeneralChatPrompt)

	messages := []driven.ChatMessage{{Role: "system", Content: system}}
	messages = append(messages, recentHistory(history)...)
	messages = append(messages, driven.ChatMessage{Role: "user", Content: question})

	answer, err := s.llm.chat(ctx, "general_chat", messages, driven.ChatOptions{
		MaxTokens:   1500,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}
	return &domain.ChatAnswer{Answer: strings.TrimSpace(answer)}, nil
}

// retrieve returns the top chunks and the prompt context built from them.
func (s *ChatService) retrieve(ctx context.Context, doc *domain.Document, question string) ([]domain.SearchHit, string) {
	if s.search != nil {
		result, err := s.search.Search(ctx, doc.ID, question, domain.SearchOptions{TopK: chatTopK})
		switch {
		case err != nil:
			logger.Warn("chat: search on %s failed, using document text: %v", doc.ID, err)
		case len(result.Hits) == 0:
			logger.Debug("chat: %s search returned %s", doc.ID, result.Status)
		default:
			parts := make([]string, 0, len(result.Hits))
			for _, hit := range result.Hits {
				parts = append(parts, hit.Text)
			}
			return result.Hits, strings.Join(parts, "\n\n---\n\n")
		}
	}
	return nil, truncateRunes(doc.Content, chatFallbackChars)
}

// recentHistory keeps the last few non-empty turns, each capped in length.
func recentHistory(history []domain.ChatTurn) []driven.ChatMessage {
	if len(history) > chatHistoryMessages {
		history = history[len(history)-chatHistoryMessages:]
	}
	out := make([]driven.ChatMessage, 0, len(history))
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		if len([]rune(content)) > chatMessageChars {
			content = truncateRunes(content, chatMessageChars) + chatTruncatedSuffix
		}
		role := "assistant"
		if turn.Role == "user" {
			role = "user"
		}
		out = append(out, driven.ChatMessage{Role: role, Content: content})
	}
	return out
}
