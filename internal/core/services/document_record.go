package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/medisimplify/medisimplify/internal/core/domain"
)

// Persisted record field names. Any other key in a record is pipeline
// metadata and round-trips through ProcessedDocument.Metadata.
const (
	fieldID             = "id"
	fieldImageURI       = "imageUri"
	fieldDocumentType   = "documentType"
	fieldOriginalText   = "originalText"
	fieldSimplifiedText = "simplifiedText"
	fieldTimestamp      = "timestamp"
)

var recordFields = []string{
	fieldID, fieldImageURI, fieldDocumentType,
	fieldOriginalText, fieldSimplifiedText, fieldTimestamp,
}

// timestampLayouts are accepted when rehydrating timestamps, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// MarshalRecord encodes doc in the persisted record shape: the documented
// fields plus metadata flattened alongside them, timestamp as ISO-8601.
func MarshalRecord(doc domain.ProcessedDocument) ([]byte, error) {
	return json.Marshal(recordMap(doc))
}

// MarshalRecordIndent is MarshalRecord with indentation, used for exports.
func MarshalRecordIndent(doc domain.ProcessedDocument) ([]byte, error) {
	return json.MarshalIndent(recordMap(doc), "", "  ")
}

// UnmarshalRecord decodes a persisted record. The id may be empty; callers
// that require one must check it.
func UnmarshalRecord(data []byte) (domain.ProcessedDocument, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return domain.ProcessedDocument{}, fmt.Errorf("decoding record: %w", err)
	}
	if fields == nil {
		return domain.ProcessedDocument{}, errors.New("decoding record: not a JSON object")
	}
	return recordFromMap(fields)
}

func recordMap(doc domain.ProcessedDocument) map[string]any {
	m := make(map[string]any, len(doc.Metadata)+len(recordFields))
	for k, v := range doc.Metadata {
		m[k] = v
	}
	// Documented fields always win over metadata keys of the same name.
	m[fieldID] = doc.ID
	m[fieldImageURI] = doc.ImageURI
	m[fieldDocumentType] = string(doc.DocumentType)
	m[fieldOriginalText] = doc.OriginalText
	m[fieldSimplifiedText] = doc.SimplifiedText
	m[fieldTimestamp] = formatTimestamp(doc.Timestamp)
	return m
}

func recordFromMap(fields map[string]any) (domain.ProcessedDocument, error) {
	var doc domain.ProcessedDocument
	var err error

	if doc.ID, err = stringField(fields, fieldID); err != nil {
		return doc, err
	}
	if doc.ImageURI, err = stringField(fields, fieldImageURI); err != nil {
		return doc, err
	}
	docType, err := stringField(fields, fieldDocumentType)
	if err != nil {
		return doc, err
	}
	doc.DocumentType = domain.DocumentType(docType)
	if doc.OriginalText, err = stringField(fields, fieldOriginalText); err != nil {
		return doc, err
	}
	if doc.SimplifiedText, err = stringField(fields, fieldSimplifiedText); err != nil {
		return doc, err
	}
	if doc.Timestamp, err = parseTimestamp(fields[fieldTimestamp]); err != nil {
		return doc, err
	}

	for k, v := range fields {
		if isRecordField(k) {
			continue
		}
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		doc.Metadata[k] = v
	}

	return doc, nil
}

func isRecordField(key string) bool {
	for _, f := range recordFields {
		if key == f {
			return true
		}
	}
	return false
}

func stringField(fields map[string]any, key string) (string, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", key, v)
	}
	return s, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp accepts ISO-8601 strings and epoch milliseconds.
// A missing or empty timestamp yields the zero time.
func parseTimestamp(v any) (time.Time, error) {
	switch ts := v.(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if strings.TrimSpace(ts) == "" {
			return time.Time{}, nil
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, ts); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("field %q: unrecognised timestamp %q", fieldTimestamp, ts)
	case float64:
		if math.IsNaN(ts) || math.IsInf(ts, 0) {
			return time.Time{}, fmt.Errorf("field %q: invalid epoch value", fieldTimestamp)
		}
		return time.UnixMilli(int64(ts)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("field %q: expected string, got %T", fieldTimestamp, v)
	}
}

// indexEntry is one element of the persisted index. Entries that fail to
// decode keep their raw bytes so writes never drop them.
type indexEntry struct {
	id  string
	doc *domain.ProcessedDocument
	raw json.RawMessage
}

// decodeIndex parses the index array. A malformed array is an error;
// malformed elements are kept raw and reported in skipped.
func decodeIndex(data []byte) (entries []indexEntry, skipped []error, err error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, nil, err
	}

	entries = make([]indexEntry, 0, len(raws))
	for i, raw := range raws {
		doc, err := UnmarshalRecord(raw)
		if err == nil && doc.ID == "" {
			err = errors.New("record has no id")
		}
		if err != nil {
			skipped = append(skipped, fmt.Errorf("record %d: %w", i, err))
			entries = append(entries, indexEntry{id: rawID(raw), raw: raw})
			continue
		}
		entries = append(entries, indexEntry{id: doc.ID, doc: &doc})
	}
	return entries, skipped, nil
}

func encodeIndex(entries []indexEntry) ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if e.doc == nil {
			raws = append(raws, e.raw)
			continue
		}
		data, err := MarshalRecord(*e.doc)
		if err != nil {
			return nil, fmt.Errorf("encoding record %s: %w", e.id, err)
		}
		raws = append(raws, data)
	}
	return json.Marshal(raws)
}

// rawID extracts a string id from an undecodable record, if it has one.
func rawID(raw json.RawMessage) string {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	id, _ := probe.ID.(string)
	return id
}
