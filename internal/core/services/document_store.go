package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/medisimplify/medisimplify/internal/core/domain"
	"github.com/medisimplify/medisimplify/internal/core/ports/driven"
	"github.com/medisimplify/medisimplify/internal/core/ports/driving"
	"github.com/medisimplify/medisimplify/internal/logger"
)

// Ensure DocumentRecordStore implements the interface.
var _ driving.DocumentRecordStore = (*DocumentRecordStore)(nil)

const (
	// DefaultIndexKey is the key-value entry holding the serialised index.
	DefaultIndexKey = "processed_documents"

	// DefaultDocumentsDir is the private directory, relative to the sandbox root.
	DefaultDocumentsDir = "documents"

	imagePrefix  = "doc_"
	imageExt     = ".jpg"
	exportPrefix = "medisimplify_"

	textDateLayout = "Monday, January 2, 2006 at 3:04 PM"
)

var errCorruptIndex = errors.New("corrupt document index")

// DocumentStoreOptions configures a DocumentRecordStore. The zero value is valid.
type DocumentStoreOptions struct {
	// IndexKey overrides DefaultIndexKey.
	IndexKey string

	// Directory overrides DefaultDocumentsDir.
	Directory string

	// OnReadError receives failures swallowed by the read path
	// (unreadable or corrupt index, undecodable records).
	// Defaults to logging a warning.
	OnReadError func(err error)

	// Location renders dates in text exports. Defaults to time.Local.
	Location *time.Location
}

// DocumentRecordStore persists processed documents as a single index entry
// in a key-value store and mirrors each document's image into a private
// directory. Writers are serialised; readers fetch and parse the whole
// index on every call and never block.
type DocumentRecordStore struct {
	kv          driven.KeyValueStore
	fs          driven.FileSystem
	indexKey    string
	dir         string
	onReadError func(err error)
	location    *time.Location

	writeMu sync.Mutex
}

// NewDocumentRecordStore creates a store and ensures its private directory exists.
func NewDocumentRecordStore(
	ctx context.Context,
	kv driven.KeyValueStore,
	fs driven.FileSystem,
	opts *DocumentStoreOptions,
) (*DocumentRecordStore, error) {
	if kv == nil || fs == nil {
		return nil, fmt.Errorf("key-value store and file system are required: %w", domain.ErrInvalidInput)
	}
	if opts == nil {
		opts = &DocumentStoreOptions{}
	}

	s := &DocumentRecordStore{
		kv:          kv,
		fs:          fs,
		indexKey:    opts.IndexKey,
		onReadError: opts.OnReadError,
		location:    opts.Location,
	}
	if s.indexKey == "" {
		s.indexKey = DefaultIndexKey
	}
	dir := opts.Directory
	if dir == "" {
		dir = DefaultDocumentsDir
	}
	s.dir = fs.Path(dir)
	if s.onReadError == nil {
		s.onReadError = func(err error) {
			logger.Warn("document index: %v", err)
		}
	}
	if s.location == nil {
		s.location = time.Local
	}

	if err := s.EnsureDirectory(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureDirectory creates the private directory if it is missing.
// Safe to call repeatedly.
func (s *DocumentRecordStore) EnsureDirectory(ctx context.Context) error {
	if err := s.fs.MkdirAll(ctx, s.dir); err != nil {
		return fmt.Errorf("creating documents directory: %w", err)
	}
	return nil
}

// Directory returns the absolute private directory.
func (s *DocumentRecordStore) Directory() string {
	return s.dir
}

// ImagePath returns the mirrored image path for a document ID.
// IDs are path-escaped, so every ID names one file directly inside
// the private directory.
func (s *DocumentRecordStore) ImagePath(id string) string {
	return filepath.Join(s.dir, imagePrefix+fileID(id)+imageExt)
}

// ExportPath returns the export artifact path for a document ID and format.
func (s *DocumentRecordStore) ExportPath(id string, format domain.ExportFormat) string {
	return filepath.Join(s.dir, exportPrefix+fileID(id)+format.Extension())
}

// fileID encodes an opaque ID for use inside a file name.
func fileID(id string) string {
	return url.PathEscape(id)
}

// confined checks that path is a direct child of the private directory.
func (s *DocumentRecordStore) confined(path string) error {
	if filepath.Dir(path) != filepath.Clean(s.dir) {
		return fmt.Errorf("path %q is outside the documents directory: %w", path, domain.ErrInvalidInput)
	}
	return nil
}

// Save mirrors doc's image into the private directory, rewrites ImageURI to
// the mirrored copy and appends the document to the index.
//
// A document whose ID is already indexed is rejected with *domain.ConflictError
// before any file is touched. If the index write fails after the image was
// copied, the copy is left behind.
func (s *DocumentRecordStore) Save(ctx context.Context, doc domain.ProcessedDocument) error {
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("document id is required: %w", domain.ErrInvalidInput)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entries, err := s.loadIndexForWrite(ctx)
	if err != nil {
		return domain.NewStorageError("save", domain.MsgSaveFailed, err)
	}
	for _, e := range entries {
		if e.id == doc.ID {
			return &domain.ConflictError{ID: doc.ID}
		}
	}

	dst := s.ImagePath(doc.ID)
	if err := s.confined(dst); err != nil {
		return err
	}
	if err := s.fs.Copy(ctx, doc.ImageURI, dst); err != nil {
		return domain.NewStorageError("save", domain.MsgSaveFailed, fmt.Errorf("copying image: %w", err))
	}

	stored := doc
	stored.ImageURI = dst
	stored.Metadata = copyMetadata(doc.Metadata)
	entries = append(entries, indexEntry{id: stored.ID, doc: &stored})

	if err := s.writeIndex(ctx, entries); err != nil {
		return domain.NewStorageError("save", domain.MsgSaveFailed, err)
	}

	logger.Debug("saved document %s (%s), %d in index", doc.ID, doc.DocumentType, len(entries))
	return nil
}

// ListAll returns every decodable document in insertion order.
// An unreadable or corrupt index is reported to OnReadError and yields
// an empty list.
func (s *DocumentRecordStore) ListAll(ctx context.Context) ([]domain.ProcessedDocument, error) {
	entries, err := s.loadIndex(ctx)
	if err != nil {
		s.onReadError(err)
		return []domain.ProcessedDocument{}, nil
	}

	docs := make([]domain.ProcessedDocument, 0, len(entries))
	for _, e := range entries {
		if e.doc != nil {
			docs = append(docs, *e.doc)
		}
	}
	return docs, nil
}

// GetByID returns the first document with the given ID.
func (s *DocumentRecordStore) GetByID(ctx context.Context, id string) (*domain.ProcessedDocument, error) {
	docs, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].ID == id {
			return &docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteByID removes the mirrored image (if present) and every index entry
// with the given ID. Unknown IDs leave the index untouched.
//
// The image is removed before the index is written; a failed index write
// can therefore leave an entry whose image is gone.
func (s *DocumentRecordStore) DeleteByID(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entries, err := s.loadIndexForWrite(ctx)
	if err != nil {
		return domain.NewStorageError("delete", domain.MsgDeleteFailed, err)
	}

	kept := make([]indexEntry, 0, len(entries))
	for _, e := range entries {
		if e.id != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		logger.Debug("delete %s: not in index", id)
		return nil
	}

	image := s.ImagePath(id)
	if err := s.confined(image); err != nil {
		return err
	}
	exists, err := s.fs.Exists(ctx, image)
	if err != nil {
		return domain.NewStorageError("delete", domain.MsgDeleteFailed, fmt.Errorf("probing image: %w", err))
	}
	if exists {
		if err := s.fs.Remove(ctx, image); err != nil {
			return domain.NewStorageError("delete", domain.MsgDeleteFailed, fmt.Errorf("removing image: %w", err))
		}
	}

	if err := s.writeIndex(ctx, kept); err != nil {
		return domain.NewStorageError("delete", domain.MsgDeleteFailed, err)
	}

	logger.Debug("deleted document %s, %d in index", id, len(kept))
	return nil
}

// ListByType returns documents whose type matches docType exactly.
func (s *DocumentRecordStore) ListByType(
	ctx context.Context,
	docType domain.DocumentType,
) ([]domain.ProcessedDocument, error) {
	docs, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.ProcessedDocument, 0, len(docs))
	for i := range docs {
		if docs[i].DocumentType == docType {
			result = append(result, docs[i])
		}
	}
	return result, nil
}

// Search returns documents whose original text, simplified text or type
// contains query, ignoring case. An empty query matches every document.
func (s *DocumentRecordStore) Search(ctx context.Context, query string) ([]domain.ProcessedDocument, error) {
	docs, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	result := make([]domain.ProcessedDocument, 0, len(docs))
	for i := range docs {
		if matchesQuery(&docs[i], needle) {
			result = append(result, docs[i])
		}
	}
	return result, nil
}

func matchesQuery(doc *domain.ProcessedDocument, needle string) bool {
	return strings.Contains(strings.ToLower(doc.OriginalText), needle) ||
		strings.Contains(strings.ToLower(doc.SimplifiedText), needle) ||
		strings.Contains(strings.ToLower(string(doc.DocumentType)), needle)
}

// Render returns the rendering of doc in format.
func (s *DocumentRecordStore) Render(doc domain.ProcessedDocument, format domain.ExportFormat) (string, error) {
	switch format {
	case domain.ExportFormatStructured:
		data, err := MarshalRecordIndent(doc)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case domain.ExportFormatText:
		return s.renderText(doc), nil
	default:
		return "", fmt.Errorf("unsupported export format %q: %w", format, domain.ErrInvalidInput)
	}
}

// Export writes a rendering of doc into the private directory and returns
// the written path. Exports are not tracked in the index.
func (s *DocumentRecordStore) Export(
	ctx context.Context,
	doc domain.ProcessedDocument,
	format domain.ExportFormat,
) (string, error) {
	if !format.IsValid() {
		return "", fmt.Errorf("unsupported export format %q: %w", format, domain.ErrInvalidInput)
	}
	if strings.TrimSpace(doc.ID) == "" {
		return "", fmt.Errorf("document id is required: %w", domain.ErrInvalidInput)
	}

	rendered, err := s.Render(doc, format)
	if err != nil {
		return "", domain.NewStorageError("export", domain.MsgExportFailed, err)
	}

	path := s.ExportPath(doc.ID, format)
	if err := s.confined(path); err != nil {
		return "", err
	}
	if err := s.fs.WriteFile(ctx, path, []byte(rendered)); err != nil {
		return "", domain.NewStorageError("export", domain.MsgExportFailed, err)
	}

	logger.Debug("exported document %s as %s to %s", doc.ID, format, path)
	return path, nil
}

func (s *DocumentRecordStore) renderText(doc domain.ProcessedDocument) string {
	var b strings.Builder
	b.WriteString("MediSimplify Document\n")
	b.WriteString("=====================\n\n")
	fmt.Fprintf(&b, "Type: %s\n", doc.DocumentType.Label())
	fmt.Fprintf(&b, "Date: %s\n\n", doc.Timestamp.In(s.location).Format(textDateLayout))
	b.WriteString("Original Text\n")
	b.WriteString("-------------\n")
	b.WriteString(doc.OriginalText)
	b.WriteString("\n\n")
	b.WriteString("Simplified Text\n")
	b.WriteString("---------------\n")
	b.WriteString(doc.SimplifiedText)
	b.WriteString("\n")
	return b.String()
}

// Count returns the number of decodable documents in the index.
func (s *DocumentRecordStore) Count(ctx context.Context) (int, error) {
	docs, err := s.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Types returns the distinct document types with counts, in first-seen order.
func (s *DocumentRecordStore) Types(ctx context.Context) ([]domain.TypeCount, error) {
	docs, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var counts []domain.TypeCount
	positions := make(map[domain.DocumentType]int)
	for i := range docs {
		t := docs[i].DocumentType
		if pos, ok := positions[t]; ok {
			counts[pos].Count++
			continue
		}
		positions[t] = len(counts)
		counts = append(counts, domain.TypeCount{Type: t, Count: 1})
	}
	return counts, nil
}

// loadIndex fetches and parses the whole index. A missing index is empty.
// Undecodable records are reported and kept raw.
func (s *DocumentRecordStore) loadIndex(ctx context.Context) ([]indexEntry, error) {
	value, ok, err := s.kv.Get(ctx, s.indexKey)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	if !ok || strings.TrimSpace(value) == "" {
		return nil, nil
	}

	entries, skipped, err := decodeIndex([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptIndex, err)
	}
	for _, skipErr := range skipped {
		s.onReadError(skipErr)
	}
	return entries, nil
}

// loadIndexForWrite is loadIndex for mutations: a corrupt index is reported
// and treated as empty, while a store failure aborts the write.
func (s *DocumentRecordStore) loadIndexForWrite(ctx context.Context) ([]indexEntry, error) {
	entries, err := s.loadIndex(ctx)
	if errors.Is(err, errCorruptIndex) {
		s.onReadError(err)
		return nil, nil
	}
	return entries, err
}

func (s *DocumentRecordStore) writeIndex(ctx context.Context, entries []indexEntry) error {
	data, err := encodeIndex(entries)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.indexKey, string(data)); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
