package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/medisimplify/medisimplify/internal/adapters/driven/config/file"
	"github.com/medisimplify/medisimplify/internal/adapters/driven/filesystem/local"
	"github.com/medisimplify/medisimplify/internal/adapters/driven/storage/memory"
	"github.com/medisimplify/medisimplify/internal/adapters/driven/storage/redis"
	"github.com/medisimplify/medisimplify/internal/adapters/driven/storage/sqlite"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/cli"
	"github.com/medisimplify/medisimplify/internal/adapters/driving/inbox"
	"github.com/medisimplify/medisimplify/internal/core/domain"
	"github.com/medisimplify/medisimplify/internal/core/ports/driven"
	"github.com/medisimplify/medisimplify/internal/core/services"
	"github.com/medisimplify/medisimplify/internal/logger"
)

// Environment variables that override the config file.
const (
	EnvHome     = "MEDISIMPLIFY_HOME"
	EnvStorage  = "MEDISIMPLIFY_STORAGE"
	EnvRedisURL = "MEDISIMPLIFY_REDIS_URL"
)

// application holds the wired services and whatever must be closed on exit.
type application struct {
	home     string
	settings domain.AppSettings
	services cli.Services
	closers  []func() error
}

// Close releases storage connections. Safe to call more than once.
func (a *application) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.Warn("closing storage: %v", err)
		}
	}
	a.closers = nil
}

// wire loads configuration, applies environment overrides and builds the
// document store. A storage backend that cannot be opened is logged and
// left unset so settings commands still work.
func wire(ctx context.Context, getenv func(string) string) (*application, error) {
	home, err := resolveHome(getenv)
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := applyEnv(settings, getenv); err != nil {
		return nil, err
	}
	logger.SetVerbose(settings.Logging.Verbose)

	app := &application{
		home:     home,
		settings: *settings,
		services: cli.Services{
			Settings: settingsService,
			Inbox: inbox.WatcherConfig{
				Dir:           orJoin(settings.Inbox.Dir, home, "inbox"),
				RatePerSecond: settings.Inbox.RatePerSecond,
				Burst:         settings.Inbox.Burst,
			},
		},
	}

	dataDir := orJoin(settings.Storage.DataDir, home, "data")
	store, err := app.openDocumentStore(ctx, settings.Storage, dataDir)
	if err != nil {
		logger.Error("document storage unavailable: %v", err)
		return app, nil
	}
	app.services.Documents = store
	return app, nil
}

func (a *application) openDocumentStore(
	ctx context.Context,
	cfg domain.StorageSettings,
	dataDir string,
) (*services.DocumentRecordStore, error) {
	kv, err := a.openKeyValueStore(ctx, cfg, dataDir)
	if err != nil {
		return nil, err
	}

	fsys, err := local.NewFileSystem(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening data directory: %w", err)
	}

	return services.NewDocumentRecordStore(ctx, kv, fsys, nil)
}

func (a *application) openKeyValueStore(
	ctx context.Context,
	cfg domain.StorageSettings,
	dataDir string,
) (driven.KeyValueStore, error) {
	switch cfg.Backend {
	case domain.StorageBackendRedis:
		store, err := redis.NewStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		logger.Debug("index backend: redis (prefix %q)", cfg.RedisPrefix)
		return store, nil

	case domain.StorageBackendMemory:
		logger.Warn("index backend: memory, documents will not survive this process")
		return memory.NewKeyValueStore(), nil

	default:
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		logger.Debug("index backend: sqlite at %s", store.Path())
		return store.KeyValueStore(), nil
	}
}

func resolveHome(getenv func(string) string) (string, error) {
	if home := getenv(EnvHome); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(userHome, ".medisimplify"), nil
}

func applyEnv(settings *domain.AppSettings, getenv func(string) string) error {
	if v := getenv(EnvStorage); v != "" {
		backend := domain.StorageBackend(v)
		if !backend.IsValid() {
			return fmt.Errorf("%s=%q: %w", EnvStorage, v, domain.ErrInvalidInput)
		}
		settings.Storage.Backend = backend
	}
	if v := getenv(EnvRedisURL); v != "" {
		settings.Storage.RedisURL = v
	}
	return nil
}

func orJoin(value, base, name string) string {
	if value != "" {
		return value
	}
	return filepath.Join(base, name)
}
