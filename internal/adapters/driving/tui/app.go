package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/review"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/summary"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// App is the review session application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	config Config

	documentsView *documents.View
	reviewView    *review.View
	summaryView   *summary.View

	currentView messages.ViewType

	// recordingID is the study session open for the current review.
	recordingID string

	err    error
	width  int
	height int
	ready  bool
}

// Config chooses how the session starts.
type Config struct {
	// DocumentID skips the picker and reviews one document.
	DocumentID string

	// Limit caps the cards in one session. Zero uses the default.
	Limit int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the review application. Without a document service, or
// with cfg.DocumentID set, it opens straight into a session.
func NewApp(ports *Ports, cfg Config) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	a := &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		config:        cfg,
		documentsView: documents.NewView(s, ports.Document),
		summaryView:   summary.NewView(s),
		currentView:   messages.ViewDocuments,
	}
	a.reviewView = a.newReviewView()
	if ports.Document == nil || cfg.DocumentID != "" {
		a.currentView = messages.ViewReview
	}
	return a, nil
}

func (a *App) newReviewView() *review.View {
	return review.NewView(a.styles, a.ports.Review, a.ports.Question,
		review.WithLimit(a.config.Limit), review.WithContext(a.ctx))
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.reviewView = a.newReviewView()
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	var first tea.Cmd
	if a.currentView == messages.ViewReview {
		first = a.startReview(a.config.DocumentID, "")
	} else {
		first = a.documentsView.Init()
	}
	return tea.Batch(
		tea.SetWindowTitle("recall - review"),
		first,
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.endOpenSession()
			return a, tea.Quit
		}
		if msg.String() == "?" && a.currentView != messages.ViewReview {
			a.currentView = messages.ViewHelp
			return a, nil
		}

	case messages.SessionRequested:
		a.currentView = messages.ViewReview
		return a, a.startReview(msg.DocumentID, msg.Title)

	case messages.SessionFinished:
		a.summaryView.SetStats(msg.Stats)
		a.currentView = messages.ViewSummary
		return a, a.closeSession(msg.Stats)

	case messages.SessionRecorded:
		a.recordingID = msg.ID
		if msg.Err != nil {
			a.err = msg.Err
		}
		return a, nil

	case messages.SessionClosed:
		if msg.Err != nil {
			a.err = msg.Err
		}
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewDocuments {
			if a.ports.Document == nil {
				return a, tea.Quit
			}
			return a, a.documentsView.Init()
		}
		return a, nil

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.DueLoaded, messages.AnswerGraded:
		a.reviewView, cmd = a.reviewView.Update(msg)
		a.err = a.reviewView.Err()
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err

	case messages.Quit:
		a.endOpenSession()
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewReview:
		a.reviewView, cmd = a.reviewView.Update(msg)
	case messages.ViewSummary:
		a.summaryView, cmd = a.summaryView.Update(msg)
	case messages.ViewHelp:
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
			a.currentView = messages.ViewDocuments
		}
	}
	return a, cmd
}

// startReview begins a review. With a session service a review study
// session is opened before the due cards load.
func (a *App) startReview(documentID, title string) tea.Cmd {
	a.recordingID = ""
	start := a.reviewView.Start(documentID, title)
	if a.ports.Sessions == nil {
		return start
	}
	return tea.Sequence(a.recordReviewCmd(documentID), start)
}

func (a *App) recordReviewCmd(documentID string) tea.Cmd {
	sessions, ctx := a.ports.Sessions, a.ctx
	return func() tea.Msg {
		session, err := sessions.Start(ctx, driving.StartSessionRequest{
			DocumentID: documentID,
			Kind:       domain.SessionReview,
		})
		if err != nil {
			return messages.SessionRecorded{Err: err}
		}
		return messages.SessionRecorded{ID: session.ID}
	}
}

// closeSession ends the open study session with the review tallies.
func (a *App) closeSession(stats messages.SessionStats) tea.Cmd {
	id := a.recordingID
	if id == "" || a.ports.Sessions == nil {
		return nil
	}
	a.recordingID = ""

	sessions, ctx := a.ports.Sessions, a.ctx
	return func() tea.Msg {
		_, err := sessions.End(ctx, id, driving.EndSessionRequest{
			Answered: stats.Answered,
			Correct:  stats.Correct,
		})
		return messages.SessionClosed{ID: id, Err: err}
	}
}

// endOpenSession synchronously closes a session left open by quitting
// mid-review.
func (a *App) endOpenSession() {
	if cmd := a.closeSession(a.reviewView.Stats()); cmd != nil {
		if closed, ok := cmd().(messages.SessionClosed); ok && closed.Err != nil {
			a.err = closed.Err
		}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewReview:
		return a.reviewView.View()
	case messages.ViewSummary:
		return a.summaryView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	}
	return a.documentsView.View()
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Documents:
  j/k, ↑/↓    Navigate
  enter       Review the selected document
  a           Review every document
  r           Reload

Review:
  (type)      Enter your answer
  enter       Submit, then continue to the next card
  tab         Skip the card
  esc         End the session

Anywhere:
  ctrl+c      Quit

[esc] back`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.documentsView.SetDimensions(width, height)
	a.reviewView.SetDimensions(width, height)
}
