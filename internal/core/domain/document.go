package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ProcessedDocument is the output of the external AI document pipeline:
// a source image plus the extracted and simplified text, classified by type.
type ProcessedDocument struct {
	// ID is the caller-assigned unique identifier.
	// It also names the mirrored image (doc_<id>.jpg, path-escaped).
	ID string

	// ImageURI points at the source image. Before Save it may reference a
	// temporary location; after Save it points at the mirrored copy.
	ImageURI string

	// DocumentType classifies the document (see the DocumentType constants).
	DocumentType DocumentType

	// OriginalText is the OCR/extracted text.
	OriginalText string

	// SimplifiedText is the AI-simplified rendering of OriginalText.
	SimplifiedText string

	// Timestamp is when the pipeline processed the document.
	Timestamp time.Time

	// Metadata holds pipeline-specific fields attached by the caller.
	// It is stored flattened next to the record fields, so a key named
	// like one of them (id, imageUri, documentType, originalText,
	// simplifiedText, timestamp) is dropped on save. Values come back as
	// decoded JSON: integers read back as float64.
	Metadata map[string]any
}

// DocumentType is a free-form classification tag.
type DocumentType string

// Document types produced by the pipeline classifier.
const (
	DocumentTypePrescription     DocumentType = "prescription"
	DocumentTypeLabReport        DocumentType = "lab_report"
	DocumentTypeMedicalReport    DocumentType = "medical_report"
	DocumentTypeDischargeSummary DocumentType = "discharge_summary"
	DocumentTypeInsurance        DocumentType = "insurance"
	DocumentTypeOther            DocumentType = "other"
)

// KnownDocumentTypes lists the classifier's types in display order.
func KnownDocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypePrescription,
		DocumentTypeLabReport,
		DocumentTypeMedicalReport,
		DocumentTypeDischargeSummary,
		DocumentTypeInsurance,
		DocumentTypeOther,
	}
}

// IsKnown reports whether t is one of the classifier's types.
// Unknown types are still valid document types.
func (t DocumentType) IsKnown() bool {
	for _, known := range KnownDocumentTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

// Label returns a human-readable label for the type.
// Unknown types are title-cased from their tag.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypePrescription:
		return "Prescription"
	case DocumentTypeLabReport:
		return "Lab Report"
	case DocumentTypeMedicalReport:
		return "Medical Report"
	case DocumentTypeDischargeSummary:
		return "Discharge Summary"
	case DocumentTypeInsurance:
		return "Insurance"
	case DocumentTypeOther:
		return "Other"
	case "":
		return unknownDescription
	}

	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(string(t)))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// TypeCount is the number of indexed documents sharing a type.
type TypeCount struct {
	Type  DocumentType
	Count int
}

// ExportFormat selects the rendering written by an export.
type ExportFormat string

// Supported export formats.
const (
	// ExportFormatText renders a fixed human-readable template.
	ExportFormatText ExportFormat = "text"

	// ExportFormatStructured serialises the full persisted record as JSON.
	ExportFormatStructured ExportFormat = "structured"
)

// IsValid returns true if the format is supported.
func (f ExportFormat) IsValid() bool {
	return f == ExportFormatText || f == ExportFormatStructured
}

// Extension returns the file extension for exports in this format.
func (f ExportFormat) Extension() string {
	if f == ExportFormatStructured {
		return ".json"
	}
	return ".txt"
}
