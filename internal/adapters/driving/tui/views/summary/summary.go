// Package summary renders the tallies of a finished review session.
package summary

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
)

// View shows how a session went.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	stats  messages.SessionStats
}

// NewView creates a summary view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, keymap: keymap.DefaultKeyMap()}
}

// SetStats records the session to summarise.
func (v *View) SetStats(stats messages.SessionStats) {
	v.stats = stats
}

// Stats returns the summarised session.
func (v *View) Stats() messages.SessionStats {
	return v.stats
}

// Update returns to the picker on enter or esc and quits on q.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	key := keyMsg.String()
	switch {
	case keymap.Matches(key, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	case keymap.Matches(key, v.keymap.Select), keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} }
	}
	return v, nil
}

// View renders the summary.
func (v *View) View() string {
	var b strings.Builder
	s := v.stats

	b.WriteString(v.styles.Title.Render("Session complete"))
	b.WriteString("\n\n")

	if s.Total == 0 {
		b.WriteString(v.styles.Muted.Render("No questions were due."))
	} else {
		b.WriteString(v.styles.Normal.Render(fmt.Sprintf("Answered  %d of %d", s.Answered, s.Total)))
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(fmt.Sprintf("Correct   %d", s.Correct)))
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Incorrect %d", s.Answered-s.Correct)))
		if s.Skipped > 0 {
			b.WriteString("\n")
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Skipped   %d", s.Skipped)))
		}
		if s.Answered > 0 {
			b.WriteString("\n\n")
			b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Accuracy  %.0f%%", s.Accuracy()*100)))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] choose another document  [q] quit"))
	return b.String()
}
