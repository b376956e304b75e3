package mcp

import (
	"context"
	"strings"

	"github.com/medisimplify/medisimplify/internal/core/domain"
	"github.com/medisimplify/medisimplify/internal/core/ports/driving"
)

var _ driving.DocumentRecordStore = (*mockDocumentStore)(nil)

// mockDocumentStore is a mock implementation of driving.DocumentRecordStore.
type mockDocumentStore struct {
	documents []domain.ProcessedDocument
	err       error
	exportErr error

	deleted  []string
	exported []domain.ExportFormat
}

func (m *mockDocumentStore) Save(_ context.Context, doc domain.ProcessedDocument) error {
	if m.err != nil {
		return m.err
	}
	m.documents = append(m.documents, doc)
	return nil
}

func (m *mockDocumentStore) ListAll(_ context.Context) ([]domain.ProcessedDocument, error) {
	return m.documents, m.err
}

func (m *mockDocumentStore) GetByID(_ context.Context, id string) (*domain.ProcessedDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentStore) DeleteByID(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentStore) ListByType(_ context.Context, t domain.DocumentType) ([]domain.ProcessedDocument, error) {
	var out []domain.ProcessedDocument
	for _, d := range m.documents {
		if d.DocumentType == t {
			out = append(out, d)
		}
	}
	return out, m.err
}

func (m *mockDocumentStore) Search(_ context.Context, query string) ([]domain.ProcessedDocument, error) {
	var out []domain.ProcessedDocument
	for _, d := range m.documents {
		if strings.Contains(strings.ToLower(d.SimplifiedText), strings.ToLower(query)) {
			out = append(out, d)
		}
	}
	return out, m.err
}

func (m *mockDocumentStore) Render(doc domain.ProcessedDocument, format domain.ExportFormat) (string, error) {
	return string(format) + ":" + doc.ID, m.exportErr
}

func (m *mockDocumentStore) Export(_ context.Context, doc domain.ProcessedDocument, format domain.ExportFormat) (string, error) {
	if m.exportErr != nil {
		return "", m.exportErr
	}
	m.exported = append(m.exported, format)
	return "/sandbox/documents/medisimplify_" + doc.ID + format.Extension(), nil
}

func (m *mockDocumentStore) Count(_ context.Context) (int, error) {
	return len(m.documents), m.err
}

func (m *mockDocumentStore) Types(_ context.Context) ([]domain.TypeCount, error) {
	return nil, m.err
}
