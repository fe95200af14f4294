package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure QuestionService implements the interface.
var _ driving.QuestionService = (*QuestionService)(nil)

// Generation limits.
const (
	defaultQuestionCount = 5
	minContextLength     = 50
	maxContextLength     = 2000
	maxSampledContexts   = 20
	maxGenerateAttempts  = 10
)

// QuestionService generates quiz questions and grades answers.
type QuestionService struct {
	docStore  driven.DocumentStore
	questions driven.QuestionStore
	review    driving.ReviewService
	llm       *llmClient
	prompts   driven.PromptStore
	now       func() time.Time
}

// QuestionServiceConfig wires a QuestionService. LLM and Prompts are optional.
type QuestionServiceConfig struct {
	DocumentStore driven.DocumentStore
	QuestionStore driven.QuestionStore
	Review        driving.ReviewService
	LLM           driven.LLMService
	Prompts       driven.PromptStore
	Metrics       driven.Metrics
	Retry         RetryPolicy
}

// NewQuestionService creates a question service.
func NewQuestionService(cfg QuestionServiceConfig) *QuestionService {
	return &QuestionService{
		docStore:  cfg.DocumentStore,
		questions: cfg.QuestionStore,
		review:    cfg.Review,
		llm:       newLLMClient(cfg.LLM, cfg.Metrics, cfg.Retry),
		prompts:   cfg.Prompts,
		now:       time.Now,
	}
}

// Generate asks the LLM for questions grounded in evenly sampled chunks.
func (s *QuestionService) Generate(ctx context.Context, req driving.GenerateRequest) ([]domain.Question, error) {
	if !s.llm.available() {
		return nil, domain.ErrLLMUnavailable
	}
	if req.Kind == "" {
		req.Kind = domain.QuestionMultipleChoice
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: question kind %q", domain.ErrInvalidInput, req.Kind)
	}
	if req.Difficulty == "" {
		req.Difficulty = domain.DifficultyMedium
	}
	if !req.Difficulty.IsValid() {
		return nil, fmt.Errorf("%w: difficulty %q", domain.ErrInvalidInput, req.Difficulty)
	}
	if req.Count <= 0 {
		req.Count = defaultQuestionCount
	}

	if _, err := s.docStore.GetDocument(ctx, req.DocumentID); err != nil {
		return nil, err
	}
	chunks, err := s.docStore.GetChunks(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	eligible := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len([]rune(strings.TrimSpace(c.Text))) >= minContextLength {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: no chunks of at least %d characters", domain.ErrGenerationFailed, minContextLength)
	}

	contexts := SampleEvenly(eligible, min(req.Count*2, maxSampledContexts))
	attempts := min(req.Count*3, maxGenerateAttempts)
	ref := questionPrompts[req.Kind]
	template := loadPrompt(s.prompts, ref.name, ref.fallback)

	logger.Section("Generate questions")
	logger.Debug("generating %d %s questions from %d contexts, %d attempts max",
		req.Count, req.Kind, len(contexts), attempts)

	var (
		generated []domain.Question
		lastErr   error
	)
	for attempt := 0; attempt < attempts && len(generated) < req.Count; attempt++ {
		chunk := contexts[attempt%len(contexts)]
		prompt := fmt.Sprintf(template, req.Difficulty, truncateRunes(chunk.Text, maxContextLength))

		out, err := s.llm.generate(ctx, "generate_question", prompt, driven.GenerateOptions{
			MaxTokens:   500,
			Temperature: 0.7,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			logger.Warn("question generation attempt %d failed: %v", attempt+1, err)
			continue
		}

		q, err := ParseQuestion(req.Kind, out)
		if err != nil {
			lastErr = err
			logger.Debug("question generation attempt %d unparseable: %v", attempt+1, err)
			continue
		}
		q.ID = uuid.New().String()
		q.DocumentID = req.DocumentID
		q.ChunkID = chunk.ID
		q.Difficulty = req.Difficulty
		q.CreatedAt = s.now()
		generated = append(generated, *q)
	}

	if len(generated) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, lastErr)
		}
		return nil, domain.ErrGenerationFailed
	}

	if err := s.questions.SaveQuestions(ctx, generated); err != nil {
		return nil, fmt.Errorf("save questions: %w", err)
	}
	logger.Info("generated %d questions for %s", len(generated), req.DocumentID)
	return generated, nil
}

var (
	mcqPattern        = regexp.MustCompile(`(?is)Question:\s*(.*?)\s*Options:\s*(.*?)\s*Answer:\s*\(?([A-D])\b`)
	mcqOptionMarker   = regexp.MustCompile(`(?i)\(([A-D])\)`)
	openPattern       = regexp.MustCompile(`(?is)QUESTION:\s*(.*?)\s*ANSWER:\s*(.*)`)
	trueFalsePattern  = regexp.MustCompile(`(?is)STATEMENT:\s*(.*?)\s*ANSWER:\s*(true|false)\b`)
	fillInPattern     = regexp.MustCompile(`(?is)SENTENCE:\s*(.*?)\s*ANSWER:\s*(.*)`)
	blankPattern      = regexp.MustCompile(`_{3,}`)
	explanationMarker = regexp.MustCompile(`(?i)\n\s*EXPLANATION:\s*`)
)

// ParseQuestion extracts a question of the given kind from LLM output.
// The returned question has only its content fields set.
func ParseQuestion(kind domain.QuestionKind, output string) (*domain.Question, error) {
	var q *domain.Question
	switch kind {
	case domain.QuestionMultipleChoice:
		q = parseMultipleChoice(output)
	case domain.QuestionOpenAnswer:
		q = parseOpenAnswer(output)
	case domain.QuestionTrueFalse:
		q = parseTrueFalse(output)
	case domain.QuestionFillInBlank:
		q = parseFillInBlank(output)
	default:
		return nil, fmt.Errorf("%w: question kind %q", domain.ErrInvalidInput, kind)
	}
	if q == nil {
		return nil, fmt.Errorf("%w: output does not match the %s format", domain.ErrInvalidInput, kind)
	}
	q.Kind = kind
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func parseMultipleChoice(output string) *domain.Question {
	m := mcqPattern.FindStringSubmatch(output)
	if m == nil {
		return nil
	}
	optionsText := m[2]
	options := make(map[string]string, 4)

	markers := mcqOptionMarker.FindAllStringSubmatchIndex(optionsText, -1)
	for i, mk := range markers {
		end := len(optionsText)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		letter := strings.ToUpper(optionsText[mk[2]:mk[3]])
		if text := strings.TrimSpace(optionsText[mk[1]:end]); text != "" {
			options[letter] = text
		}
	}

	return &domain.Question{
		Text:    strings.TrimSpace(m[1]),
		Options: options,
		Answer:  strings.ToUpper(m[3]),
	}
}

func parseOpenAnswer(output string) *domain.Question {
	m := openPattern.FindStringSubmatch(output)
	if m == nil {
		return nil
	}
	answer, explanation := splitExplanation(m[2])
	return &domain.Question{
		Text:        strings.TrimSpace(m[1]),
		Answer:      answer,
		Explanation: explanation,
	}
}

func parseTrueFalse(output string) *domain.Question {
	m := trueFalsePattern.FindStringSubmatch(output)
	if m == nil {
		return nil
	}
	answer := "B"
	if strings.EqualFold(m[2], "true") {
		answer = "A"
	}
	return &domain.Question{
		Text:    strings.TrimSpace(m[1]),
		Options: domain.TrueFalseOptions(),
		Answer:  answer,
	}
}

func parseFillInBlank(output string) *domain.Question {
	m := fillInPattern.FindStringSubmatch(output)
	if m == nil {
		return nil
	}
	sentence := strings.TrimSpace(m[1])
	if len(blankPattern.FindAllStringIndex(sentence, -1)) != 1 {
		return nil
	}
	answer, _, _ := strings.Cut(strings.TrimSpace(m[2]), "\n")
	return &domain.Question{
		Text:   blankPattern.ReplaceAllString(sentence, "____"),
		Answer: strings.TrimSpace(answer),
	}
}

// splitExplanation separates an optional trailing EXPLANATION: section.
func splitExplanation(s string) (string, string) {
	loc := explanationMarker.FindStringIndex(s)
	if loc == nil {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:loc[0]]), strings.TrimSpace(s[loc[1]:])
}

// List returns questions for a document. Empty documentID lists all.
func (s *QuestionService) List(ctx context.Context, documentID string) ([]domain.Question, error) {
	if documentID != "" {
		if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
			return nil, err
		}
	}
	return s.questions.ListQuestions(ctx, documentID)
}

// Get retrieves a question by ID.
func (s *QuestionService) Get(ctx context.Context, questionID string) (*domain.Question, error) {
	return s.questions.GetQuestion(ctx, questionID)
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, questionID string) error {
	if _, err := s.questions.GetQuestion(ctx, questionID); err != nil {
		return err
	}
	return s.questions.DeleteQuestion(ctx, questionID)
}

// Evaluate grades an answer without touching review state.
func (s *QuestionService) Evaluate(ctx context.Context, questionID, answer string) (*domain.Evaluation, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: empty answer", domain.ErrInvalidInput)
	}
	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	var eval domain.Evaluation
	switch q.Kind {
	case domain.QuestionMultipleChoice, domain.QuestionTrueFalse:
		eval = evaluateChoice(q, answer)
	case domain.QuestionFillInBlank:
		eval = evaluateFillIn(q, answer)
	case domain.QuestionOpenAnswer:
		eval = s.evaluateOpen(ctx, q, answer)
	default:
		return nil, fmt.Errorf("%w: question kind %q", domain.ErrInvalidInput, q.Kind)
	}
	eval.Correct = eval.Score >= domain.PassScore
	return &eval, nil
}

// Answer grades an answer and records it with the review scheduler.
func (s *QuestionService) Answer(ctx context.Context, questionID, answer string) (*driving.AnswerResult, error) {
	if s.review == nil {
		return nil, errNoReview
	}
	eval, err := s.Evaluate(ctx, questionID, answer)
	if err != nil {
		return nil, err
	}
	q, err := s.review.RecordAnswer(ctx, questionID, eval.Correct)
	if err != nil {
		return nil, fmt.Errorf("record answer: %w", err)
	}
	return &driving.AnswerResult{Evaluation: *eval, Question: *q}, nil
}

// resolveChoice maps an answer given as a letter or as option text to an
// option letter. Returns "" when nothing matches.
func resolveChoice(q *domain.Question, answer string) string {
	a := strings.TrimSpace(answer)
	a = strings.Trim(a, "().")
	for letter := range q.Options {
		if strings.EqualFold(a, letter) {
			return letter
		}
	}
	for letter, text := range q.Options {
		if strings.EqualFold(normaliseAnswer(a), normaliseAnswer(text)) {
			return letter
		}
	}
	return ""
}

func evaluateChoice(q *domain.Question, answer string) domain.Evaluation {
	expected := fmt.Sprintf("%s (%s)", q.Answer, q.Options[q.Answer])
	if resolveChoice(q, answer) == q.Answer {
		return domain.Evaluation{Score: 3, Feedback: "Correct.", Expected: expected}
	}
	return domain.Evaluation{Score: 0, Feedback: "Incorrect. The answer is " + expected + ".", Expected: expected}
}

func evaluateFillIn(q *domain.Question, answer string) domain.Evaluation {
	if normaliseAnswer(answer) == normaliseAnswer(q.Answer) {
		return domain.Evaluation{Score: 3, Feedback: "Correct.", Expected: q.Answer}
	}
	return domain.Evaluation{Score: 0, Feedback: "Incorrect. The missing term is " + q.Answer + ".", Expected: q.Answer}
}

var scoreDigit = regexp.MustCompile(`\b[0-3]\b`)

// evaluateOpen asks the LLM for a 0-3 score, falling back to token overlap.
func (s *QuestionService) evaluateOpen(ctx context.Context, q *domain.Question, answer string) domain.Evaluation {
	score := -1
	if s.llm.available() {
		template := loadPrompt(s.prompts, driven.PromptGradeAnswer, defaultGradePrompt)
		prompt := fmt.Sprintf(template, q.Text, q.Answer, answer)
		out, err := s.llm.generate(ctx, "grade_answer", prompt, driven.GenerateOptions{
			MaxTokens:   10,
			Temperature: 0.1,
		})
		switch {
		case err != nil:
			logger.Warn("grading %s with the LLM failed, using token overlap: %v", q.ID, err)
		default:
			if d := scoreDigit.FindString(out); d != "" {
				score = int(d[0] - '0')
			} else {
				logger.Debug("grading %s: unparseable score %q", q.ID, out)
			}
		}
	}
	if score < 0 {
		score = int(math.Round(JaccardSimilarity(answer, q.Answer) * 3))
	}
	return domain.Evaluation{Score: score, Feedback: scoreFeedback(score), Expected: q.Answer}
}

func scoreFeedback(score int) string {
	switch score {
	case 3:
		return "Completely correct."
	case 2:
		return "Mostly correct with minor omissions."
	case 1:
		return "Partially correct but missing key points."
	default:
		return "Incorrect or unrelated."
	}
}

// JaccardSimilarity is |A∩B| / |A∪B| over lowercase whitespace-separated tokens.
func JaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(s)) {
		set[t] = true
	}
	return set
}

// normaliseAnswer lowercases, collapses whitespace and trims punctuation.
func normaliseAnswer(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// exportedQuestion is the YAML shape of a question.
type exportedQuestion struct {
	ID            string            `yaml:"id"`
	DocumentID    string            `yaml:"document_id"`
	Kind          string            `yaml:"kind"`
	Difficulty    string            `yaml:"difficulty"`
	Question      string            `yaml:"question"`
	Options       map[string]string `yaml:"options,omitempty"`
	Answer        string            `yaml:"answer"`
	Explanation   string            `yaml:"explanation,omitempty"`
	TimesAnswered int               `yaml:"times_answered"`
	TimesCorrect  int               `yaml:"times_correct"`
	LastAnswered  string            `yaml:"last_answered,omitempty"`
	NextReview    string            `yaml:"next_review,omitempty"`
}

type exportFile struct {
	Questions []exportedQuestion `yaml:"questions"`
}

// Export renders questions as YAML.
func (s *QuestionService) Export(ctx context.Context, documentID string) ([]byte, error) {
	questions, err := s.List(ctx, documentID)
	if err != nil {
		return nil, err
	}

	file := exportFile{Questions: make([]exportedQuestion, 0, len(questions))}
	for _, q := range questions {
		file.Questions = append(file.Questions, exportedQuestion{
			ID:            q.ID,
			DocumentID:    q.DocumentID,
			Kind:          q.Kind.String(),
			Difficulty:    q.Difficulty.String(),
			Question:      q.Text,
			Options:       q.Options,
			Answer:        q.Answer,
			Explanation:   q.Explanation,
			TimesAnswered: q.TimesAnswered,
			TimesCorrect:  q.TimesCorrect,
			LastAnswered:  formatTime(q.LastAnswered),
			NextReview:    formatTime(q.NextReview),
		})
	}

	out, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	return out, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// errNoReview is returned by Answer when no scheduler is wired.
var errNoReview = errors.New("review scheduler not configured")
