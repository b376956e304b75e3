// Package detail provides the single-document view for the TUI.
package detail

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/keymap"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/messages"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/styles"
	"github.com/medisimplify/medisimplify/internal/core/domain"
	"github.com/medisimplify/medisimplify/internal/core/ports/driving"
)

// View shows the text rendering of one document with scrolling.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	store  driving.DocumentRecordStore

	document      *domain.ProcessedDocument
	content       string
	lines         []string
	scrollOffset  int
	confirmDelete bool
	err           error
	width         int
	height        int
}

// NewView creates a detail view.
func NewView(s *styles.Styles, keys *keymap.KeyMap, store driving.DocumentRecordStore) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if keys == nil {
		keys = keymap.DefaultKeyMap()
	}
	return &View{styles: s, keys: keys, store: store, width: 80, height: 24}
}

// SetDocument renders doc and resets scrolling.
func (v *View) SetDocument(doc domain.ProcessedDocument) {
	v.document = &doc
	v.scrollOffset = 0
	v.confirmDelete = false
	v.err = nil
	v.content = ""

	if v.store == nil {
		v.err = errors.New("document store not available")
	} else if rendered, err := v.store.Render(doc, domain.ExportFormatText); err != nil {
		v.err = err
	} else {
		v.content = rendered
	}
	v.wrapContent()
}

// Update handles messages for the detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		if v.confirmDelete {
			return v.handleConfirmKey(msg)
		}
		return v.handleKey(msg)
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keys.Up):
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case keymap.Matches(k, v.keys.Down):
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case k == "pgup":
		v.scrollOffset = max(0, v.scrollOffset-v.visibleLines())
	case k == "pgdown", k == " ":
		v.scrollOffset = min(v.maxScrollOffset(), v.scrollOffset+v.visibleLines())
	case k == "g", k == "home":
		v.scrollOffset = 0
	case k == "G", k == "end":
		v.scrollOffset = v.maxScrollOffset()
	case keymap.Matches(k, v.keys.Export):
		if v.document != nil {
			doc := *v.document
			return v, func() tea.Msg {
				return messages.ExportRequested{Document: doc, Format: domain.ExportFormatStructured}
			}
		}
	case keymap.Matches(k, v.keys.Delete):
		if v.document != nil {
			v.confirmDelete = true
		}
	case keymap.Matches(k, v.keys.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} }
	case keymap.Matches(k, v.keys.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirmDelete = false
	if !keymap.Matches(msg.String(), v.keys.Confirm) || v.document == nil {
		return v, nil
	}
	id := v.document.ID
	return v, func() tea.Msg { return messages.DeleteRequested{ID: id} }
}

// wrapContent wraps the rendering to the terminal width on word boundaries.
func (v *View) wrapContent() {
	if v.content == "" {
		v.lines = nil
		return
	}
	width := max(v.width-4, 20)
	wrapped := lipgloss.NewStyle().Width(width).Render(strings.TrimRight(v.content, "\n"))
	v.lines = strings.Split(wrapped, "\n")
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

func (v *View) visibleLines() int {
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the document.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.document != nil {
		title = v.document.DocumentType.Label()
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	} else {
		end := min(v.scrollOffset+v.visibleLines(), len(v.lines))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.styles.Normal.Render(v.lines[i]))
			b.WriteString("\n")
		}
		if len(v.lines) > v.visibleLines() {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d lines]",
				v.scrollOffset+1, end, len(v.lines))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if v.confirmDelete {
		b.WriteString(v.styles.Warning.Render("Delete this document? [y] yes  [any] cancel"))
		return b.String()
	}
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keys.DetailHelp())))
	return b.String()
}

// SetDimensions sets the terminal size and rewraps the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.wrapContent()
}

// Document returns the document being shown.
func (v *View) Document() *domain.ProcessedDocument {
	return v.document
}

// Content returns the unwrapped rendering.
func (v *View) Content() string {
	return v.content
}

// ScrollOffset returns the first visible line index.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// ConfirmingDelete reports whether a delete prompt is showing.
func (v *View) ConfirmingDelete() bool {
	return v.confirmDelete
}

// Err returns the last render error.
func (v *View) Err() error {
	return v.err
}
