// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/styles"
)

const (
	queryLimit   = 128
	minWidth     = 20
	defaultWidth = 40
)

// SearchInput is the document search field. It starts blurred; the list
// focuses it when the user presses the search key.
type SearchInput struct {
	field  textinput.Model
	styles *styles.Styles
}

// NewSearchInput creates a blurred search input.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.Placeholder = "type, diagnosis, medication..."
	field.Prompt = "/ "
	field.CharLimit = queryLimit
	field.Width = defaultWidth

	return &SearchInput{field: field, styles: s}
}

// Update forwards messages to the field while it is focused.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if !s.field.Focused() {
		return s, nil
	}
	var cmd tea.Cmd
	s.field, cmd = s.field.Update(msg)
	return s, cmd
}

// View renders the input with its label.
func (s *SearchInput) View() string {
	label := s.styles.Subtitle.Render("Search ")
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, s.styles.InputField.Render(s.field.View()))
}

// Query returns the trimmed input value.
func (s *SearchInput) Query() string {
	return strings.TrimSpace(s.field.Value())
}

// SetQuery replaces the input value.
func (s *SearchInput) SetQuery(q string) {
	s.field.SetValue(q)
}

// Focus starts editing and returns the cursor blink command.
func (s *SearchInput) Focus() tea.Cmd {
	s.field.Focus()
	return textinput.Blink
}

// Blur stops editing.
func (s *SearchInput) Blur() {
	s.field.Blur()
}

// Focused reports whether the input is being edited.
func (s *SearchInput) Focused() bool {
	return s.field.Focused()
}

// SetWidth fits the field to the terminal width.
func (s *SearchInput) SetWidth(width int) {
	w := width - 14
	if w < minWidth {
		w = minWidth
	}
	s.field.Width = w
}

// Reset clears and blurs the input.
func (s *SearchInput) Reset() {
	s.field.Reset()
	s.field.Blur()
}
