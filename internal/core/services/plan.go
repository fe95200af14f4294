package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure PlanService implements the interface.
var _ driving.PlanService = (*PlanService)(nil)

const (
	defaultPlanHours = 10
	planContextChars = 1500
)

// PlanService generates study plans with the LLM and keeps them.
type PlanService struct {
	plans    driven.PlanStore
	docStore driven.DocumentStore
	llm      *llmClient
	prompts  driven.PromptStore
	now      func() time.Time
}

// PlanServiceConfig wires a PlanService. DocumentStore and Prompts are
// optional.
type PlanServiceConfig struct {
	Plans         driven.PlanStore
	DocumentStore driven.DocumentStore
	LLM           driven.LLMService
	Prompts       driven.PromptStore
	Metrics       driven.Metrics
	Retry         RetryPolicy
	Now           func() time.Time
}

// NewPlanService creates a plan service.
func NewPlanService(cfg PlanServiceConfig) *PlanService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &PlanService{
		plans:    cfg.Plans,
		docStore: cfg.DocumentStore,
		llm:      newLLMClient(cfg.LLM, cfg.Metrics, cfg.Retry),
		prompts:  cfg.Prompts,
		now:      now,
	}
}

// Generate asks the LLM for a plan and saves it. A reply that is not valid
// JSON is kept whole as the overview.
func (s *PlanService) Generate(ctx context.Context, req driving.PlanRequest) (*domain.StudyPlan, error) {
	subject := strings.TrimSpace(req.Subject)
	goal := strings.TrimSpace(req.Goal)
	timeframe := strings.TrimSpace(req.Timeframe)
	if subject == "" || goal == "" || timeframe == "" {
		return nil, fmt.Errorf("%w: subject, goal and timeframe are required", domain.ErrInvalidInput)
	}
	hours := req.HoursPerWeek
	if hours == 0 {
		hours = defaultPlanHours
	}
	if hours < 0 {
		return nil, fmt.Errorf("%w: hours per week must be positive", domain.ErrInvalidInput)
	}
	if !s.llm.available() {
		return nil, domain.ErrLLMUnavailable
	}

	docContext, err := s.documentContext(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	template := loadPrompt(s.prompts, driven.PromptStudyPlan, defaultStudyPlanPrompt)
	prompt := fmt.Sprintf(template, subject, goal, timeframe, hours, docContext)
	reply, err := s.llm.generate(ctx, "study_plan", prompt, driven.GenerateOptions{
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	plan := parsePlan(reply)
	plan.ID = uuid.New().String()
	plan.Subject = subject
	plan.Goal = goal
	plan.Timeframe = timeframe
	plan.HoursPerWeek = hours
	plan.DocumentID = req.DocumentID
	plan.CreatedAt = s.now().UTC()

	if err := s.plans.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// documentContext renders the document's summary, or its opening text when
// it has none, as a prompt line.
func (s *PlanService) documentContext(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", nil
	}
	if s.docStore == nil {
		return "", fmt.Errorf("%w: no document store configured", domain.ErrInvalidInput)
	}
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	material := strings.TrimSpace(doc.Summary)
	if material == "" {
		material = truncateRunes(strings.TrimSpace(doc.Content), planContextChars)
	}
	return fmt.Sprintf("Study material (%s):\n%s\n", doc.Title, material), nil
}

// planReply is the JSON shape the prompt asks for.
type planReply struct {
	Overview   string            `json:"overview"`
	Weeks      []domain.PlanWeek `json:"weeks"`
	Techniques domain.TextList   `json:"techniques"`
	Milestones domain.TextList   `json:"milestones"`
}

// parsePlan reads the JSON object between the first '{' and the last '}'.
func parsePlan(reply string) *domain.StudyPlan {
	reply = strings.TrimSpace(reply)
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start >= 0 && end > start {
		var parsed planReply
		err := json.Unmarshal([]byte(reply[start:end+1]), &parsed)
		if err == nil {
			return &domain.StudyPlan{
				Overview:   strings.TrimSpace(parsed.Overview),
				Weeks:      parsed.Weeks,
				Techniques: parsed.Techniques,
				Milestones: parsed.Milestones,
			}
		}
		logger.Debug("study plan: reply is not valid JSON: %v", err)
	}
	return &domain.StudyPlan{Overview: reply}
}

// Get returns a saved plan.
func (s *PlanService) Get(ctx context.Context, id string) (*domain.StudyPlan, error) {
	return s.plans.GetPlan(ctx, id)
}

// List returns saved plans newest first.
func (s *PlanService) List(ctx context.Context) ([]domain.StudyPlan, error) {
	return s.plans.ListPlans(ctx)
}

// Delete removes a plan.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	return s.plans.DeletePlan(ctx, id)
}

// Clear removes every plan.
func (s *PlanService) Clear(ctx context.Context) (int, error) {
	return s.plans.ClearPlans(ctx)
}
