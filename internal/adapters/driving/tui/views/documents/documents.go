// Package documents provides the document picker that starts a review session.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// ErrNoDocumentService is reported when the picker has nothing to list from.
var ErrNoDocumentService = errors.New("document service not available")

// View lists documents with their question counts.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService

	documents    []domain.DocumentSummary
	selected     int
	width        int
	height       int
	err          error
	loading      bool
	scrollOffset int
}

// NewView creates a new document picker.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		keymap:          keymap.DefaultKeyMap(),
		documentService: documentService,
	}
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadDocuments()
}

func (v *View) loadDocuments() tea.Cmd {
	svc := v.documentService
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(context.Background())
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the picker.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			if v.selected >= len(v.documents) {
				v.selected = 0
				v.scrollOffset = 0
			}
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Select):
		if doc := v.SelectedDocument(); doc != nil {
			req := messages.SessionRequested{DocumentID: doc.Document.ID, Title: displayTitle(&doc.Document)}
			return v, func() tea.Msg { return req }
		}
	case keymap.Matches(key, v.keymap.All):
		return v, func() tea.Msg { return messages.SessionRequested{} }
	case key == "r":
		v.loading = true
		return v, v.loadDocuments()
	case keymap.Matches(key, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	available := v.height - 8
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the picker.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Review - choose a document (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents yet. Ingest one with `recall ingest <file>`."))
	default:
		visible := v.visibleItemCount()
		end := min(v.scrollOffset+visible, len(v.documents))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderDocument(i, &v.documents[i]))
			b.WriteString("\n")
		}
		if len(v.documents) > visible {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.documents))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] review  [a] all documents  [r] reload  [q] quit"))
	return b.String()
}

func (v *View) renderDocument(index int, doc *domain.DocumentSummary) string {
	title := displayTitle(&doc.Document)
	maxTitle := v.width - 24
	if maxTitle < 10 {
		maxTitle = 10
	}
	if len(title) > maxTitle {
		title = title[:maxTitle-3] + "..."
	}
	counts := fmt.Sprintf("%3d questions", doc.QuestionCount)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", maxTitle, title, counts))
	}
	return v.styles.Normal.Render(fmt.Sprintf("  %-*s  ", maxTitle, title)) + v.styles.Muted.Render(counts)
}

func displayTitle(doc *domain.Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	if doc.URI != "" {
		return doc.URI
	}
	return doc.ID
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.DocumentSummary {
	return v.documents
}

// SelectedIndex returns the highlighted row.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the highlighted document, or nil when empty.
func (v *View) SelectedDocument() *domain.DocumentSummary {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// Loading reports whether a list request is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
