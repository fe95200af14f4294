package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure TextService implements the interface.
var _ driving.TextService = (*TextService)(nil)

// correctionsMarker separates corrected text from the JSON list of changes.
const correctionsMarker = "===CORRECTIONS_JSON==="

const maxCorrections = 10

// textLimits bounds one text operation, measured in runes.
type textLimits struct {
	minChars    int
	maxChars    int
	temperature float64
}

var (
	summariseLimits = textLimits{minChars: 50, maxChars: 10000, temperature: 0.3}
	correctLimits   = textLimits{minChars: 5, maxChars: 5000, temperature: 0.2}
	rephraseLimits  = textLimits{minChars: 10, maxChars: 5000, temperature: 0.7}
	explainLimits   = textLimits{minChars: 10, maxChars: 5000, temperature: 0.5}
)

// TextService summarises, corrects, rephrases and explains pasted text.
type TextService struct {
	llm     *llmClient
	prompts driven.PromptStore
}

// TextServiceConfig wires a TextService. Prompts is optional.
type TextServiceConfig struct {
	LLM     driven.LLMService
	Prompts driven.PromptStore
	Metrics driven.Metrics
	Retry   RetryPolicy
}

// NewTextService creates a text service.
func NewTextService(cfg TextServiceConfig) *TextService {
	return &TextService{
		llm:     newLLMClient(cfg.LLM, cfg.Metrics, cfg.Retry),
		prompts: cfg.Prompts,
	}
}

// Summarise condenses text to roughly length.Words() words.
func (s *TextService) Summarise(ctx context.Context, text string, length domain.SummaryLength, format domain.SummaryFormat) (string, error) {
	if length == "" {
		length = domain.SummaryMedium
	}
	if format == "" {
		format = domain.FormatParagraph
	}
	if !length.IsValid() {
		return "", fmt.Errorf("%w: unknown summary length %q", domain.ErrInvalidInput, length)
	}
	if !format.IsValid() {
		return "", fmt.Errorf("%w: unknown summary format %q", domain.ErrInvalidInput, format)
	}
	text, err := s.prepare("summarise", text, summariseLimits)
	if err != nil {
		return "", err
	}

	shape := "Write it as one or more clear paragraphs."
	if format == domain.FormatBullets {
		shape = "Write it as a bulleted list of key points, one per line starting with \"- \"."
	}
	template := loadPrompt(s.prompts, driven.PromptTextSummarise, defaultTextSummarisePrompt)
	return s.run(ctx, "text_summarise", fmt.Sprintf(template, length.Words(), shape, text), 1000, summariseLimits)
}

// Correct fixes grammar and spelling. Only changes whose corrected form
// appears in the corrected text are reported.
func (s *TextService) Correct(ctx context.Context, text string) (*domain.CorrectedText, error) {
	text, err := s.prepare("correct", text, correctLimits)
	if err != nil {
		return nil, err
	}

	template := loadPrompt(s.prompts, driven.PromptTextCorrect, defaultTextCorrectPrompt)
	reply, err := s.run(ctx, "text_correct", fmt.Sprintf(template, correctionsMarker, text), replyTokens(text), correctLimits)
	if err != nil {
		return nil, err
	}
	return parseCorrections(reply), nil
}

// Rephrase rewrites text in style.
func (s *TextService) Rephrase(ctx context.Context, text string, style domain.RephraseStyle) (string, error) {
	if style == "" {
		style = domain.StyleAcademic
	}
	description := style.Description()
	if description == "" {
		return "", fmt.Errorf("%w: unknown style %q", domain.ErrInvalidInput, style)
	}
	text, err := s.prepare("rephrase", text, rephraseLimits)
	if err != nil {
		return "", err
	}

	template := loadPrompt(s.prompts, driven.PromptTextRephrase, defaultTextRephrasePrompt)
	return s.run(ctx, "text_rephrase", fmt.Sprintf(template, description, text), replyTokens(text), rephraseLimits)
}

// Explain restates text for level's audience.
func (s *TextService) Explain(ctx context.Context, text string, level domain.ExplainLevel) (string, error) {
	if level == "" {
		level = domain.LevelHighSchool
	}
	audience := level.Audience()
	if audience == "" {
		return "", fmt.Errorf("%w: unknown level %q", domain.ErrInvalidInput, level)
	}
	text, err := s.prepare("explain", text, explainLimits)
	if err != nil {
		return "", err
	}

	template := loadPrompt(s.prompts, driven.PromptTextExplain, defaultTextExplainPrompt)
	return s.run(ctx, "text_explain", fmt.Sprintf(template, audience, text), replyTokens(text), explainLimits)
}

// prepare trims text, enforces the minimum length and truncates to the
// maximum.
func (s *TextService) prepare(action, text string, limits textLimits) (string, error) {
	text = strings.TrimSpace(text)
	n := len([]rune(text))
	if n < limits.minChars {
		return "", fmt.Errorf("%w: text is too short to %s (%d characters, need %d)",
			domain.ErrInvalidInput, action, n, limits.minChars)
	}
	if !s.llm.available() {
		return "", domain.ErrLLMUnavailable
	}
	if n > limits.maxChars {
		logger.Warn("text too long to %s (%d characters), truncating to %d", action, n, limits.maxChars)
		text = truncateRunes(text, limits.maxChars)
	}
	return text, nil
}

func (s *TextService) run(ctx context.Context, op, prompt string, maxTokens int, limits textLimits) (string, error) {
	reply, err := s.llm.generate(ctx, op, prompt, driven.GenerateOptions{
		MaxTokens:   maxTokens,
		Temperature: limits.temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// replyTokens sizes the reply budget to the input, with a floor for short
// text.
func replyTokens(text string) int {
	return max(1000, 2*len([]rune(text)))
}

// parseCorrections splits a reply on the marker and keeps at most
// maxCorrections changes that are visible in the corrected text.
func parseCorrections(reply string) *domain.CorrectedText {
	corrected, tail, found := strings.Cut(reply, correctionsMarker)
	result := &domain.CorrectedText{Text: strings.TrimSpace(corrected)}
	if !found {
		return result
	}

	start := strings.Index(tail, "[")
	end := strings.LastIndex(tail, "]")
	if start < 0 || end <= start {
		return result
	}
	var changes []domain.Correction
	if err := json.Unmarshal([]byte(tail[start:end+1]), &changes); err != nil {
		logger.Warn("text correct: unreadable corrections list: %v", err)
		return result
	}
	for _, c := range changes {
		if c.Corrected == "" || !strings.Contains(result.Text, c.Corrected) {
			logger.Debug("text correct: dropping change %q not found in text", c.Corrected)
			continue
		}
		result.Corrections = append(result.Corrections, c)
		if len(result.Corrections) == maxCorrections {
			break
		}
	}
	return result
}
