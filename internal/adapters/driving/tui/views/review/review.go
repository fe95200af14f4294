// Package review provides the flashcard view of a review session.
package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// DefaultLimit caps how many cards one session pulls.
const DefaultLimit = 20

// ErrNoAnswer is shown when enter is pressed on an empty input.
var ErrNoAnswer = errors.New("type an answer or press tab to skip")

// Phase is where the current card is in its answer cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseAnswering
	PhaseGrading
	PhaseGraded
)

// View runs one review session card by card.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	review    driving.ReviewService
	questions driving.QuestionService
	ctx       context.Context
	limit     int
	clock     func() time.Time

	input  *input.AnswerInput
	status *status.Bar

	documentID string
	title      string
	cards      []domain.Question
	current    int
	phase      Phase
	result     *driving.AnswerResult
	stats      messages.SessionStats
	err        error
	width      int
	height     int
}

// Option configures a View.
type Option func(*View)

// WithLimit overrides the per-session card cap.
func WithLimit(n int) Option {
	return func(v *View) {
		if n > 0 {
			v.limit = n
		}
	}
}

// WithContext sets the context used for service calls.
func WithContext(ctx context.Context) Option {
	return func(v *View) {
		if ctx != nil {
			v.ctx = ctx
		}
	}
}

// WithClock overrides the time source used for the due query.
func WithClock(clock func() time.Time) Option {
	return func(v *View) {
		v.clock = clock
	}
}

// NewView creates a flashcard view over the review and question services.
func NewView(s *styles.Styles, review driving.ReviewService, questions driving.QuestionService, opts ...Option) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	v := &View{
		styles:    s,
		keymap:    km,
		review:    review,
		questions: questions,
		ctx:       context.Background(),
		limit:     DefaultLimit,
		clock:     time.Now,
		input:     input.NewAnswerInput(s),
		status:    status.NewBar(s, km),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Start resets the view and fetches the due cards.
func (v *View) Start(documentID, title string) tea.Cmd {
	v.documentID = documentID
	v.title = title
	v.cards = nil
	v.current = 0
	v.result = nil
	v.err = nil
	v.stats = messages.SessionStats{}
	v.phase = PhaseLoading
	v.input.Reset()
	v.status.Clear()
	v.status.SetState(status.StateLoading)
	return v.loadDue()
}

func (v *View) loadDue() tea.Cmd {
	ctx, svc := v.ctx, v.review
	opts := driving.DueOptions{DocumentID: v.documentID, Limit: v.limit, AsOf: v.clock()}
	return func() tea.Msg {
		questions, err := svc.DueForReview(ctx, opts)
		return messages.DueLoaded{DocumentID: opts.DocumentID, Questions: questions, Err: err}
	}
}

func (v *View) submit(answer string) tea.Cmd {
	ctx, svc := v.ctx, v.questions
	id := v.cards[v.current].ID
	return func() tea.Msg {
		result, err := svc.Answer(ctx, id, answer)
		return messages.AnswerGraded{QuestionID: id, Result: result, Err: err}
	}
}

// Update handles messages for the session.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DueLoaded:
		if msg.DocumentID != v.documentID || v.phase != PhaseLoading {
			return v, nil
		}
		if msg.Err != nil {
			v.fail(msg.Err)
			v.phase = PhaseIdle
			return v, nil
		}
		v.cards = msg.Questions
		v.stats.Total = len(msg.Questions)
		if len(v.cards) == 0 {
			v.phase = PhaseIdle
			v.status.SetState(status.StateReady)
			return v, nil
		}
		return v, v.showCard()

	case messages.AnswerGraded:
		if v.phase != PhaseGrading || msg.QuestionID != v.cards[v.current].ID {
			return v, nil
		}
		if msg.Err != nil {
			// Let the learner retry or skip.
			v.fail(msg.Err)
			v.phase = PhaseAnswering
			return v, v.input.Focus()
		}
		v.err = nil
		v.result = msg.Result
		v.stats.Answered++
		if msg.Result.Evaluation.Correct {
			v.stats.Correct++
		}
		v.phase = PhaseGraded
		v.status.SetState(status.StateGraded)
		v.updateProgress()
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	if v.phase == PhaseAnswering {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	if keymap.Matches(key, v.keymap.Back) {
		return v, v.finish()
	}

	switch v.phase {
	case PhaseAnswering:
		switch {
		case keymap.Matches(key, v.keymap.Submit):
			answer := strings.TrimSpace(v.input.Value())
			if answer == "" {
				v.err = ErrNoAnswer
				return v, nil
			}
			v.err = nil
			v.phase = PhaseGrading
			v.input.Blur()
			v.status.SetState(status.StateGrading)
			return v, v.submit(answer)
		case keymap.Matches(key, v.keymap.Skip):
			v.stats.Skipped++
			return v, v.advance()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd

	case PhaseGraded:
		if keymap.Matches(key, v.keymap.Next) {
			return v, v.advance()
		}

	case PhaseIdle:
		if keymap.Matches(key, v.keymap.Select) || keymap.Matches(key, v.keymap.Quit) {
			return v, v.finish()
		}

	case PhaseLoading, PhaseGrading:
	}
	return v, nil
}

func (v *View) advance() tea.Cmd {
	v.current++
	v.result = nil
	if v.current >= len(v.cards) {
		return v.finish()
	}
	return v.showCard()
}

func (v *View) showCard() tea.Cmd {
	v.phase = PhaseAnswering
	v.input.Reset()
	v.input.SetPlaceholder(placeholder(v.cards[v.current].Kind))
	v.status.SetState(status.StateAnswering)
	v.updateProgress()
	return v.input.Focus()
}

func (v *View) finish() tea.Cmd {
	stats := v.stats
	v.phase = PhaseIdle
	v.input.Blur()
	return func() tea.Msg { return messages.SessionFinished{Stats: stats} }
}

func (v *View) fail(err error) {
	v.err = err
	v.status.SetState(status.StateError)
	v.status.SetMessage(err.Error())
}

func (v *View) updateProgress() {
	v.status.SetProgress(min(v.current+1, len(v.cards)), len(v.cards), v.stats.Correct)
}

func placeholder(kind domain.QuestionKind) string {
	switch kind {
	case domain.QuestionMultipleChoice:
		return "A, B, C or D"
	case domain.QuestionTrueFalse:
		return "A (True) or B (False)"
	case domain.QuestionFillInBlank:
		return "The missing word or phrase"
	case domain.QuestionOpenAnswer:
	}
	return "Type your answer..."
}

// View renders the session.
func (v *View) View() string {
	var b strings.Builder

	heading := "Review"
	if v.title != "" {
		heading = "Review - " + v.title
	} else if v.documentID == "" {
		heading = "Review - all documents"
	}
	b.WriteString(v.styles.Title.Render(heading))
	b.WriteString("\n\n")

	switch v.phase {
	case PhaseLoading:
		b.WriteString(v.styles.Muted.Render("Finding due questions..."))
	case PhaseIdle:
		if v.err != nil {
			b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		} else {
			b.WriteString(v.styles.Success.Render("Nothing due. Come back later."))
		}
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[enter] back"))
	case PhaseAnswering, PhaseGrading, PhaseGraded:
		b.WriteString(v.renderCard())
	}

	b.WriteString("\n\n")
	b.WriteString(v.status.View())
	return b.String()
}

func (v *View) renderCard() string {
	q := &v.cards[v.current]
	var card strings.Builder

	card.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("%s · %s", q.Kind.Description(), q.Difficulty)))
	card.WriteString("\n\n")
	card.WriteString(v.styles.Prompt.Render(q.Text))
	card.WriteString("\n")

	for _, letter := range optionLetters(q.Options) {
		card.WriteString("\n")
		card.WriteString(v.styles.Normal.Render(fmt.Sprintf("  %s) %s", letter, q.Options[letter])))
	}

	var body strings.Builder
	body.WriteString(v.styles.Card.Width(v.cardWidth()).Render(card.String()))
	body.WriteString("\n\n")

	switch v.phase {
	case PhaseAnswering:
		body.WriteString(v.input.View())
		if v.err != nil {
			body.WriteString("\n")
			body.WriteString(v.styles.Warning.Render(v.err.Error()))
		}
	case PhaseGrading:
		body.WriteString(v.styles.Muted.Render("Grading your answer..."))
	case PhaseGraded:
		body.WriteString(v.renderEvaluation(q))
	case PhaseIdle, PhaseLoading:
	}
	return body.String()
}

func (v *View) renderEvaluation(q *domain.Question) string {
	if v.result == nil {
		return ""
	}
	eval := v.result.Evaluation
	var b strings.Builder

	if eval.Correct {
		b.WriteString(v.styles.Success.Render(fmt.Sprintf("Correct (%d/3)", eval.Score)))
	} else {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Incorrect (%d/3)", eval.Score)))
	}
	if eval.Feedback != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render(eval.Feedback))
	}
	if eval.Expected != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Expected: ") + v.styles.Normal.Render(eval.Expected))
	}
	if q.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(q.Explanation))
	}
	if next := v.result.Question.NextReview; next != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Next review: " + next.Local().Format("Mon 2 Jan 15:04")))
	}
	return b.String()
}

func (v *View) cardWidth() int {
	if v.width <= 0 {
		return 60
	}
	return max(v.width-4, 30)
}

func optionLetters(options map[string]string) []string {
	letters := make([]string, 0, len(options))
	for letter := range options {
		letters = append(letters, letter)
	}
	sort.Strings(letters)
	return letters
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.status.SetWidth(width)
}

// Phase returns where the current card is in its cycle.
func (v *View) Phase() Phase {
	return v.phase
}

// Current returns the card on screen, or nil when none is.
func (v *View) Current() *domain.Question {
	if v.current < len(v.cards) {
		return &v.cards[v.current]
	}
	return nil
}

// Stats returns the running tallies.
func (v *View) Stats() messages.SessionStats {
	return v.stats
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
