// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help shows the help view.
	Help key.Binding

	// Back returns to the previous view.
	Back key.Binding

	// Up navigates up in a list.
	Up key.Binding

	// Down navigates down in a list.
	Down key.Binding

	// Select confirms a selection.
	Select key.Binding

	// Submit sends the typed answer for grading.
	Submit key.Binding

	// Next moves on once a card has been graded.
	Next key.Binding

	// Skip leaves the current card unanswered.
	Skip key.Binding

	// All starts a session over every document.
	All key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Next: key.NewBinding(
			key.WithKeys("enter", "n"),
			key.WithHelp("enter", "next"),
		),
		Skip: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "skip"),
		),
		All: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "all documents"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// PickerHelp returns keybindings for the document picker.
func (k *KeyMap) PickerHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.All, k.Quit}
}

// AnswerHelp returns keybindings while a card waits for an answer.
func (k *KeyMap) AnswerHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Skip, k.Back}
}

// GradedHelp returns keybindings once a card has been graded.
func (k *KeyMap) GradedHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.All},
		{k.Submit, k.Skip, k.Next},
		{k.Back, k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
