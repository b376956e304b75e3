// Package documents provides the document list view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/components/input"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/keymap"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/messages"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/styles"
	"github.com/medisimplify/medisimplify/internal/core/domain"
	"github.com/medisimplify/medisimplify/internal/core/ports/driving"
)

const dateLayout = "Jan 2, 2006 15:04"

var errStoreUnavailable = errors.New("document store not available")

// View lists documents, optionally filtered by a search query.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	store  driving.DocumentRecordStore
	search *input.SearchInput

	documents     []domain.ProcessedDocument
	query         string
	selected      int
	scrollOffset  int
	confirmDelete bool
	loading       bool
	err           error
	width         int
	height        int
}

// NewView creates a document list view.
func NewView(s *styles.Styles, keys *keymap.KeyMap, store driving.DocumentRecordStore) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if keys == nil {
		keys = keymap.DefaultKeyMap()
	}
	return &View{
		styles: s,
		keys:   keys,
		store:  store,
		search: input.NewSearchInput(s),
	}
}

// Init loads the documents.
func (v *View) Init() tea.Cmd {
	return v.Load()
}

// Load returns a command that fetches documents for the current query.
func (v *View) Load() tea.Cmd {
	v.loading = true
	query := v.query
	store := v.store
	return func() tea.Msg {
		if store == nil {
			return messages.DocumentsLoaded{Query: query, Err: errStoreUnavailable}
		}
		var docs []domain.ProcessedDocument
		var err error
		if query == "" {
			docs, err = store.ListAll(context.Background())
		} else {
			docs, err = store.Search(context.Background(), query)
		}
		return messages.DocumentsLoaded{Query: query, Documents: docs, Err: err}
	}
}

// Update handles messages for the list.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.search.Focused() {
			return v.handleSearchKey(msg)
		}
		if v.confirmDelete {
			return v.handleConfirmKey(msg)
		}
		return v.handleKey(msg)

	case messages.DocumentsLoaded:
		// Drop results for a query that has since changed.
		if msg.Query != v.query {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
		}
		v.clampSelection()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keys.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keys.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keys.Open):
		if doc, ok := v.Selected(); ok {
			return v, func() tea.Msg { return messages.DocumentSelected{Document: doc} }
		}
	case keymap.Matches(k, v.keys.Search):
		v.search.SetQuery(v.query)
		return v, v.search.Focus()
	case keymap.Matches(k, v.keys.Export):
		if doc, ok := v.Selected(); ok {
			return v, func() tea.Msg {
				return messages.ExportRequested{Document: doc, Format: domain.ExportFormatStructured}
			}
		}
	case keymap.Matches(k, v.keys.Delete):
		if _, ok := v.Selected(); ok {
			v.confirmDelete = true
		}
	case keymap.Matches(k, v.keys.Reload):
		return v, v.Load()
	case keymap.Matches(k, v.keys.Back):
		if v.query != "" {
			v.setQuery("")
			return v, v.Load()
		}
	case keymap.Matches(k, v.keys.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

func (v *View) handleSearchKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		v.search.Blur()
		v.setQuery(v.search.Query())
		return v, v.Load()
	case tea.KeyEsc:
		v.search.Blur()
		return v, nil
	case tea.KeyCtrlC:
		return v, func() tea.Msg { return messages.Quit{} }
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	return v, cmd
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirmDelete = false
	if !keymap.Matches(msg.String(), v.keys.Confirm) {
		return v, nil
	}
	doc, ok := v.Selected()
	if !ok {
		return v, nil
	}
	return v, func() tea.Msg { return messages.DeleteRequested{ID: doc.ID} }
}

func (v *View) setQuery(q string) {
	v.query = q
	v.selected = 0
	v.scrollOffset = 0
}

func (v *View) clampSelection() {
	if v.selected >= len(v.documents) {
		v.selected = len(v.documents) - 1
	}
	if v.selected < 0 {
		v.selected = 0
	}
	v.adjustScroll()
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
	// Title, search line, blank lines, status and help.
	available := v.height - 9
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the list.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("MediSimplify - Documents (%d)", len(v.documents))
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	if v.search.Focused() {
		b.WriteString(v.search.View())
		b.WriteString("\n\n")
	} else if v.query != "" {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("Results for %q  [esc] clear", v.query)))
		b.WriteString("\n\n")
	}

	switch {
	case v.loading && len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0 && v.query != "":
		b.WriteString(v.styles.Muted.Render("No documents match your search."))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents saved yet."))
	default:
		b.WriteString(v.renderList())
	}
	b.WriteString("\n\n")

	if v.confirmDelete {
		if doc, ok := v.Selected(); ok {
			prompt := fmt.Sprintf("Delete %s from %s? [y] yes  [any] cancel",
				doc.DocumentType.Label(), formatDate(doc))
			b.WriteString(v.styles.Warning.Render(prompt))
			return b.String()
		}
	}
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keys.ListHelp())))
	return b.String()
}

func (v *View) renderList() string {
	var b strings.Builder
	visible := v.visibleItemCount()
	end := min(v.scrollOffset+visible, len(v.documents))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderDocument(i, v.documents[i]))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	if len(v.documents) > visible {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1, end, len(v.documents))))
	}
	return b.String()
}

func (v *View) renderDocument(index int, doc domain.ProcessedDocument) string {
	line := fmt.Sprintf("%-22s %s", doc.DocumentType.Label(), formatDate(doc))
	if index == v.selected {
		return v.styles.Selected.Render("> " + line)
	}
	return "  " + v.styles.TypeBadge(doc.DocumentType) +
		strings.Repeat(" ", max(1, 23-len(doc.DocumentType.Label()))) +
		v.styles.Muted.Render(formatDate(doc))
}

func formatDate(doc domain.ProcessedDocument) string {
	if doc.Timestamp.IsZero() {
		return "unknown date"
	}
	return doc.Timestamp.Local().Format(dateLayout)
}

// SetDimensions sets the terminal size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.search.SetWidth(width)
	v.adjustScroll()
}

// Selected returns the highlighted document.
func (v *View) Selected() (domain.ProcessedDocument, bool) {
	if v.selected < 0 || v.selected >= len(v.documents) {
		return domain.ProcessedDocument{}, false
	}
	return v.documents[v.selected], true
}

// Documents returns the documents currently listed.
func (v *View) Documents() []domain.ProcessedDocument {
	return v.documents
}

// Query returns the active search query.
func (v *View) Query() string {
	return v.query
}

// Searching reports whether the search input has focus.
func (v *View) Searching() bool {
	return v.search.Focused()
}

// ConfirmingDelete reports whether a delete prompt is showing.
func (v *View) ConfirmingDelete() bool {
	return v.confirmDelete
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
