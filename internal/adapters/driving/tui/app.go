package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/keymap"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/messages"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/styles"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/views/detail"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/tui/views/documents"
	"github.com/medisimplify/medisimplify/internal/logger"
)

// App is the main TUI application following the Elm architecture.
// Views emit request messages; the app performs exports and deletes
// against the document store and routes the results back.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	documentsView *documents.View
	detailView    *detail.View

	currentView messages.ViewType

	// status is the outcome of the last export or delete.
	status    string
	statusErr bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	keys := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keys:          keys,
		documentsView: documents.NewView(s, keys, ports.Documents),
		detailView:    detail.NewView(s, keys, ports.Documents),
		currentView:   messages.ViewDocuments,
	}, nil
}

// WithContext sets the context used for store calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("MediSimplify"),
		a.documentsView.Init(),
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
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		a.status = ""
		switch a.currentView {
		case messages.ViewDetail:
			a.detailView, cmd = a.detailView.Update(msg)
		default:
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
		return a, cmd

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentSelected:
		a.detailView.SetDocument(msg.Document)
		a.currentView = messages.ViewDetail
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ExportRequested:
		return a, a.export(msg)

	case messages.DocumentExported:
		if msg.Err != nil {
			a.setStatus("Export failed: "+msg.Err.Error(), true)
		} else {
			a.setStatus("Exported to "+msg.Path, false)
		}
		return a, nil

	case messages.DeleteRequested:
		return a, a.delete(msg.ID)

	case messages.DocumentDeleted:
		if msg.Err != nil {
			a.setStatus("Delete failed: "+msg.Err.Error(), true)
			return a, nil
		}
		a.setStatus("Document deleted", false)
		a.currentView = messages.ViewDocuments
		return a, a.documentsView.Load()

	case messages.ErrorOccurred:
		a.setStatus(msg.Err.Error(), true)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	default:
		a.documentsView, cmd = a.documentsView.Update(msg)
	}
	return a, cmd
}

func (a *App) export(req messages.ExportRequested) tea.Cmd {
	ctx := a.ctx
	store := a.ports.Documents
	return func() tea.Msg {
		path, err := store.Export(ctx, req.Document, req.Format)
		if err != nil {
			logger.Warn("export of %s failed: %v", req.Document.ID, err)
		}
		return messages.DocumentExported{ID: req.Document.ID, Path: path, Err: err}
	}
}

func (a *App) delete(id string) tea.Cmd {
	ctx := a.ctx
	store := a.ports.Documents
	return func() tea.Msg {
		err := store.DeleteByID(ctx, id)
		if err != nil {
			logger.Warn("delete of %s failed: %v", id, err)
		}
		return messages.DocumentDeleted{ID: id, Err: err}
	}
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.statusErr = isErr
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewDetail:
		body = a.detailView.View()
	default:
		body = a.documentsView.View()
	}

	if a.status == "" {
		return body
	}
	style := a.styles.Success
	if a.statusErr {
		style = a.styles.Error
	}
	return body + "\n" + style.Render(a.status)
}

// SetDimensions sets the terminal size on the app and its views.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.documentsView.SetDimensions(width, height)
	a.detailView.SetDimensions(width, height)
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}

// Status returns the last status line.
func (a *App) Status() string {
	return a.status
}

// Run starts the TUI and blocks until the user quits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}
