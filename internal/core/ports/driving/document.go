package driving

import (
	"context"

	"github.com/medisimplify/medisimplify/internal/core/domain"
)

// DocumentRecordStore manages processed documents and their mirrored images.
type DocumentRecordStore interface {
	// Save mirrors the document's image into the private directory and
	// appends the document to the index.
	Save(ctx context.Context, doc domain.ProcessedDocument) error

	// ListAll returns every indexed document in insertion order.
	ListAll(ctx context.Context) ([]domain.ProcessedDocument, error)

	// GetByID returns the first document with the given ID.
	// Returns domain.ErrNotFound when no document matches.
	GetByID(ctx context.Context, id string) (*domain.ProcessedDocument, error)

	// DeleteByID removes the document and its mirrored image.
	// Unknown IDs are a no-op.
	DeleteByID(ctx context.Context, id string) error

	// ListByType returns documents whose type matches exactly.
	ListByType(ctx context.Context, docType domain.DocumentType) ([]domain.ProcessedDocument, error)

	// Search returns documents whose text or type contains query, ignoring case.
	Search(ctx context.Context, query string) ([]domain.ProcessedDocument, error)

	// Render returns the text or structured rendering of doc without writing it.
	Render(doc domain.ProcessedDocument, format domain.ExportFormat) (string, error)

	// Export writes a text or structured rendering of doc and returns its path.
	Export(ctx context.Context, doc domain.ProcessedDocument, format domain.ExportFormat) (string, error)

	// Count returns the number of indexed documents.
	Count(ctx context.Context) (int, error)

	// Types returns the distinct document types with counts, in first-seen order.
	Types(ctx context.Context) ([]domain.TypeCount, error)
}
