package driving

import "github.com/medisimplify/medisimplify/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting by its config key (e.g. "storage.backend").
	// Values are parsed and validated for the key's type.
	Set(key, value string) error

	// Keys returns the supported config keys in display order.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ConfigPath returns the location of the backing configuration file.
	ConfigPath() string
}
