// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
)

const minWidth = 20

// AnswerInput wraps a bubbles textinput for typing answers.
type AnswerInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewAnswerInput creates a focused answer input.
func NewAnswerInput(s *styles.Styles) *AnswerInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Type your answer..."
	ti.Focus()
	ti.CharLimit = 1000
	ti.Width = 50

	return &AnswerInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init starts the cursor blinking.
func (a *AnswerInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (a *AnswerInput) Update(msg tea.Msg) (*AnswerInput, tea.Cmd) {
	var cmd tea.Cmd
	a.textinput, cmd = a.textinput.Update(msg)
	return a, cmd
}

// View renders the input.
func (a *AnswerInput) View() string {
	label := a.styles.Subtitle.Render("Answer: ")
	field := a.styles.InputField.Render(a.textinput.View())
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (a *AnswerInput) Value() string {
	return a.textinput.Value()
}

// SetValue sets the input value.
func (a *AnswerInput) SetValue(value string) {
	a.textinput.SetValue(value)
}

// SetPlaceholder changes the hint shown while empty.
func (a *AnswerInput) SetPlaceholder(placeholder string) {
	a.textinput.Placeholder = placeholder
}

// Placeholder returns the hint shown while empty.
func (a *AnswerInput) Placeholder() string {
	return a.textinput.Placeholder
}

// Focus sets focus on the input.
func (a *AnswerInput) Focus() tea.Cmd {
	return a.textinput.Focus()
}

// Blur removes focus from the input.
func (a *AnswerInput) Blur() {
	a.textinput.Blur()
}

// Focused returns whether the input is focused.
func (a *AnswerInput) Focused() bool {
	return a.textinput.Focused()
}

// SetWidth sets the width of the input, leaving room for the label.
func (a *AnswerInput) SetWidth(width int) {
	a.width = width
	inputWidth := width - 14
	if inputWidth < minWidth {
		inputWidth = minWidth
	}
	a.textinput.Width = inputWidth
}

// Width returns the current width.
func (a *AnswerInput) Width() int {
	return a.width
}

// Reset clears the input.
func (a *AnswerInput) Reset() {
	a.textinput.Reset()
}
