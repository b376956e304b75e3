package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medisimplify/medisimplify/internal/core/domain"
	"github.com/medisimplify/medisimplify/internal/core/ports/driving"
	"github.com/medisimplify/medisimplify/internal/core/services"
	"github.com/medisimplify/medisimplify/internal/logger"
)

// HandOffExt is the extension of hand-off files.
const HandOffExt = ".json"

// Importer turns hand-off files into stored documents.
type Importer struct {
	store driving.DocumentRecordStore
	now   func() time.Time
	newID func() string
}

// NewImporter creates an importer that saves through store.
func NewImporter(store driving.DocumentRecordStore) *Importer {
	return &Importer{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// ImportFile parses the hand-off at path, saves it and removes the file.
// A missing id gets a fresh UUID and a missing timestamp becomes now.
func (i *Importer) ImportFile(ctx context.Context, path string) (*domain.ProcessedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hand-off: %w", err)
	}

	doc, err := services.UnmarshalRecord(data)
	if err != nil {
		return nil, fmt.Errorf("parsing hand-off %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(doc.ImageURI) == "" {
		return nil, fmt.Errorf("hand-off %s has no imageUri: %w", filepath.Base(path), domain.ErrInvalidInput)
	}
	if doc.ID == "" {
		doc.ID = i.newID()
	}
	if doc.Timestamp.IsZero() {
		doc.Timestamp = i.now()
	}
	if doc.DocumentType == "" {
		doc.DocumentType = domain.DocumentTypeOther
	}
	if !strings.HasPrefix(doc.ImageURI, "file://") && !filepath.IsAbs(doc.ImageURI) {
		doc.ImageURI = filepath.Join(filepath.Dir(path), doc.ImageURI)
	}

	if err := i.store.Save(ctx, doc); err != nil {
		return nil, err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("inbox: imported %s but could not remove hand-off: %v", doc.ID, err)
	}

	logger.Info("inbox: imported %s (%s) from %s", doc.ID, doc.DocumentType, filepath.Base(path))
	return &doc, nil
}

// IsHandOff reports whether path names a hand-off file.
func IsHandOff(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), HandOffExt) && !strings.HasPrefix(base, ".")
}
