package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/medisimplify/medisimplify/internal/core/domain"
	"github.com/medisimplify/medisimplify/internal/logger"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Dir is the inbox directory. It is created if missing.
	Dir string

	// RatePerSecond is the sustained import rate.
	RatePerSecond float64

	// Burst is the number of imports allowed back to back.
	Burst int
}

// Watcher imports hand-offs already in the inbox, then every hand-off
// created or written afterwards, throttled by a token bucket.
type Watcher struct {
	importer *Importer
	dir      string
	limiter  *rate.Limiter

	// OnImport, when set, is called after each import attempt.
	OnImport func(path string, doc *domain.ProcessedDocument, err error)
}

// NewWatcher creates a watcher. Non-positive rate or burst fall back to
// the default inbox settings.
func NewWatcher(importer *Importer, cfg WatcherConfig) (*Watcher, error) {
	if importer == nil {
		return nil, fmt.Errorf("importer is required: %w", domain.ErrInvalidInput)
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("inbox directory is required: %w", domain.ErrInvalidInput)
	}
	defaults := domain.DefaultAppSettings().Inbox
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = defaults.RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}

	return &Watcher{
		importer: importer,
		dir:      cfg.Dir,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Watch blocks until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Watch(ctx context.Context) error {
	logger.Section("Inbox " + w.dir)
	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return fmt.Errorf("creating inbox: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("inbox: watching %s", w.dir)

	// Subscribe before scanning so nothing written in between is missed.
	pending, err := w.existing()
	if err != nil {
		return err
	}
	for _, path := range pending {
		if err := w.process(ctx, path); err != nil {
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsHandOff(event.Name) {
				continue
			}
			if err := w.process(ctx, event.Name); err != nil {
				return nil
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("inbox: watcher error: %v", err)
		}
	}
}

// existing lists hand-offs already present, oldest name first.
func (w *Watcher) existing() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("reading inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsHandOff(e.Name()) {
			paths = append(paths, filepath.Join(w.dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// process waits for a token and imports path. It returns an error only
// when ctx is done.
func (w *Watcher) process(ctx context.Context, path string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	// Already imported by an earlier event for the same file.
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	doc, err := w.importer.ImportFile(ctx, path)
	if err != nil {
		logger.Warn("inbox: %s left in place: %v", filepath.Base(path), err)
	}
	if w.OnImport != nil {
		w.OnImport(path, doc, err)
	}
	return nil
}
