package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/medisimplify/medisimplify/internal/core/domain"
	"github.com/medisimplify/medisimplify/internal/core/ports/driven"
	"github.com/medisimplify/medisimplify/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyStorageBackend     = "storage.backend"
	KeyStorageDataDir     = "storage.data_dir"
	KeyStorageRedisURL    = "storage.redis_url"
	KeyStorageRedisPrefix = "storage.redis_prefix"
	KeyInboxDir           = "inbox.dir"
	KeyInboxRate          = "inbox.rate_per_second"
	KeyInboxBurst         = "inbox.burst"
	KeyLoggingVerbose     = "logging.verbose"
)

var settingsKeys = []string{
	KeyStorageBackend,
	KeyStorageDataDir,
	KeyStorageRedisURL,
	KeyStorageRedisPrefix,
	KeyInboxDir,
	KeyInboxRate,
	KeyInboxBurst,
	KeyLoggingVerbose,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
// Missing or invalid values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	if s.configStore == nil {
		return nil, domain.ErrNotImplemented
	}
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(defaults.Storage.Backend),
			DataDir:     s.configStore.GetString(KeyStorageDataDir),
			RedisURL:    s.getString(KeyStorageRedisURL, defaults.Storage.RedisURL),
			RedisPrefix: s.getString(KeyStorageRedisPrefix, defaults.Storage.RedisPrefix),
		},
		Inbox: domain.InboxSettings{
			Dir:           s.configStore.GetString(KeyInboxDir),
			RatePerSecond: s.getPositiveFloat(KeyInboxRate, defaults.Inbox.RatePerSecond),
			Burst:         s.getPositiveInt(KeyInboxBurst, defaults.Inbox.Burst),
		},
		Logging: domain.LoggingSettings{
			Verbose: s.getBool(KeyLoggingVerbose, defaults.Logging.Verbose),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}
	if !settings.Storage.Backend.IsValid() {
		return fmt.Errorf("invalid storage backend %q: %w", settings.Storage.Backend, domain.ErrInvalidInput)
	}

	values := []struct {
		key   string
		value any
	}{
		{KeyStorageBackend, settings.Storage.Backend.String()},
		{KeyStorageDataDir, settings.Storage.DataDir},
		{KeyStorageRedisURL, settings.Storage.RedisURL},
		{KeyStorageRedisPrefix, settings.Storage.RedisPrefix},
		{KeyInboxDir, settings.Inbox.Dir},
		{KeyInboxRate, settings.Inbox.RatePerSecond},
		{KeyInboxBurst, settings.Inbox.Burst},
		{KeyLoggingVerbose, settings.Logging.Verbose},
	}

	for _, v := range values {
		var err error
		if str, ok := v.value.(string); ok && str == "" {
			err = s.configStore.Unset(v.key)
		} else {
			err = s.configStore.Set(v.key, v.value)
		}
		if err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses value for key and persists it. An empty value unsets the key.
func (s *SettingsService) Set(key, value string) error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}
	value = strings.TrimSpace(value)
	if value == "" {
		if !isSettingsKey(key) {
			return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
		}
		return s.configStore.Unset(key)
	}

	var parsed any
	switch key {
	case KeyStorageBackend:
		backend := domain.StorageBackend(value)
		if !backend.IsValid() {
			return fmt.Errorf("invalid storage backend %q: %w", value, domain.ErrInvalidInput)
		}
		parsed = backend.String()
	case KeyStorageDataDir, KeyStorageRedisURL, KeyStorageRedisPrefix, KeyInboxDir:
		parsed = value
	case KeyInboxRate:
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil || rate <= 0 {
			return fmt.Errorf("%s must be a positive number: %w", key, domain.ErrInvalidInput)
		}
		parsed = rate
	case KeyInboxBurst:
		burst, err := strconv.Atoi(value)
		if err != nil || burst <= 0 {
			return fmt.Errorf("%s must be a positive integer: %w", key, domain.ErrInvalidInput)
		}
		parsed = burst
	case KeyLoggingVerbose:
		verbose, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, domain.ErrInvalidInput)
		}
		parsed = verbose
	default:
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	return s.configStore.Set(key, parsed)
}

// Keys returns the supported config keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsKeys))
	copy(keys, settingsKeys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ConfigPath returns the configuration file path.
func (s *SettingsService) ConfigPath() string {
	if s.configStore == nil {
		return ""
	}
	return s.configStore.Path()
}

func isSettingsKey(key string) bool {
	for _, k := range settingsKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getPositiveInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getPositiveFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(KeyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
