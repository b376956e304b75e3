package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medisimplify/medisimplify/internal/core/domain"
)

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Type string `json:"type,omitempty" jsonschema:"only return documents of this type, e.g. prescription or lab_report"`
}

// SearchDocumentsInput is the input schema for the search_documents tool.
type SearchDocumentsInput struct {
	Query string `json:"query" jsonschema:"case-insensitive text to find in original text, simplified text or type"`
}

// DocumentIDInput is the input schema for tools addressing one document.
type DocumentIDInput struct {
	ID string `json:"id" jsonschema:"the document id"`
}

// ExportDocumentInput is the input schema for the export_document tool.
type ExportDocumentInput struct {
	ID     string `json:"id" jsonschema:"the document id"`
	Format string `json:"format,omitempty" jsonschema:"text (default) or structured"`
}

// DocumentSummary is a compact listing entry.
type DocumentSummary struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	TypeLabel string `json:"type_label"`
	Timestamp string `json:"timestamp"`
	Preview   string `json:"preview,omitempty"`
}

// DocumentListOutput is the output schema for listing and search tools.
type DocumentListOutput struct {
	Documents []DocumentSummary `json:"documents"`
	Count     int               `json:"count"`
}

// DocumentOutput is the full view of one document.
type DocumentOutput struct {
	ID             string         `json:"id"`
	ImageURI       string         `json:"image_uri"`
	Type           string         `json:"type"`
	TypeLabel      string         `json:"type_label"`
	OriginalText   string         `json:"original_text"`
	SimplifiedText string         `json:"simplified_text"`
	Timestamp      string         `json:"timestamp"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// DeleteOutput is the output schema for the delete_document tool.
type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// ExportOutput is the output schema for the export_document tool.
type ExportOutput struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Path   string `json:"path"`
}

const previewLength = 120

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List processed medical documents, optionally filtered by type",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search processed medical documents by text or type",
	}, s.handleSearchDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Get the original and simplified text of a processed document",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a processed document and its stored image",
	}, s.handleDeleteDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "export_document",
		Description: "Export a processed document as text or structured JSON and return the file path",
	}, s.handleExportDocument)
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, DocumentListOutput, error) {
	var (
		docs []domain.ProcessedDocument
		err  error
	)
	if input.Type == "" {
		docs, err = s.ports.Documents.ListAll(ctx)
	} else {
		docs, err = s.ports.Documents.ListByType(ctx, domain.DocumentType(input.Type))
	}
	if err != nil {
		return nil, DocumentListOutput{}, err
	}
	return nil, toListOutput(docs), nil
}

func (s *Server) handleSearchDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchDocumentsInput,
) (*mcp.CallToolResult, DocumentListOutput, error) {
	docs, err := s.ports.Documents.Search(ctx, input.Query)
	if err != nil {
		return nil, DocumentListOutput{}, err
	}
	return nil, toListOutput(docs), nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	doc, err := s.lookup(ctx, input.ID)
	if err != nil {
		return nil, DocumentOutput{}, err
	}
	return nil, toDocumentOutput(doc), nil
}

func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.ID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("id is required: %w", domain.ErrInvalidInput)
	}

	_, err := s.ports.Documents.GetByID(ctx, input.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, DeleteOutput{ID: input.ID, Deleted: false}, nil
	}
	if err != nil {
		return nil, DeleteOutput{}, err
	}

	if err := s.ports.Documents.DeleteByID(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{ID: input.ID, Deleted: true}, nil
}

func (s *Server) handleExportDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExportDocumentInput,
) (*mcp.CallToolResult, ExportOutput, error) {
	format := domain.ExportFormat(input.Format)
	if format == "" {
		format = domain.ExportFormatText
	}
	if !format.IsValid() {
		return nil, ExportOutput{}, fmt.Errorf("unsupported format %q: %w", input.Format, domain.ErrInvalidInput)
	}

	doc, err := s.lookup(ctx, input.ID)
	if err != nil {
		return nil, ExportOutput{}, err
	}

	path, err := s.ports.Documents.Export(ctx, *doc, format)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	return nil, ExportOutput{ID: doc.ID, Format: string(format), Path: path}, nil
}

func (s *Server) lookup(ctx context.Context, id string) (*domain.ProcessedDocument, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required: %w", domain.ErrInvalidInput)
	}
	doc, err := s.ports.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", id, err)
	}
	return doc, nil
}

func toListOutput(docs []domain.ProcessedDocument) DocumentListOutput {
	out := DocumentListOutput{
		Documents: make([]DocumentSummary, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		out.Documents[i] = DocumentSummary{
			ID:        docs[i].ID,
			Type:      string(docs[i].DocumentType),
			TypeLabel: docs[i].DocumentType.Label(),
			Timestamp: formatTime(docs[i].Timestamp),
			Preview:   preview(docs[i].SimplifiedText),
		}
	}
	return out
}

func toDocumentOutput(doc *domain.ProcessedDocument) DocumentOutput {
	return DocumentOutput{
		ID:             doc.ID,
		ImageURI:       doc.ImageURI,
		Type:           string(doc.DocumentType),
		TypeLabel:      doc.DocumentType.Label(),
		OriginalText:   doc.OriginalText,
		SimplifiedText: doc.SimplifiedText,
		Timestamp:      formatTime(doc.Timestamp),
		Metadata:       doc.Metadata,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
