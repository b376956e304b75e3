// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/medisimplify/medisimplify/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDocuments is the document list with search.
	ViewDocuments ViewType = iota
	// ViewDetail shows one document's original and simplified text.
	ViewDetail
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDocuments:
		return "documents"
	case ViewDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// DocumentsLoaded carries the documents matching Query, or all documents
// when Query is empty.
type DocumentsLoaded struct {
	Query     string
	Documents []domain.ProcessedDocument
	Err       error
}

// DocumentSelected is sent when a document is opened from the list.
type DocumentSelected struct {
	Document domain.ProcessedDocument
}

// ExportRequested asks the app to export a document.
type ExportRequested struct {
	Document domain.ProcessedDocument
	Format   domain.ExportFormat
}

// DocumentExported reports the outcome of an export.
type DocumentExported struct {
	ID   string
	Path string
	Err  error
}

// DeleteRequested asks the app to delete a document after confirmation.
type DeleteRequested struct {
	ID string
}

// DocumentDeleted reports the outcome of a delete.
type DocumentDeleted struct {
	ID  string
	Err error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
