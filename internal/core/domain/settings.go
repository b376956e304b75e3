package domain

const unknownDescription = "Unknown"

// StorageBackend selects the key-value store that holds the document index.
type StorageBackend string

// Available storage backends.
const (
	// StorageBackendSQLite keeps the index in a local SQLite database.
	StorageBackendSQLite StorageBackend = "sqlite"

	// StorageBackendRedis keeps the index in a Redis server.
	StorageBackendRedis StorageBackend = "redis"

	// StorageBackendMemory keeps the index in process memory only.
	StorageBackendMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageBackendSQLite, StorageBackendRedis, StorageBackendMemory:
		return true
	default:
		return false
	}
}

// IsPersistent returns false for backends that lose the index on exit.
func (b StorageBackend) IsPersistent() bool {
	return b == StorageBackendSQLite || b == StorageBackendRedis
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case StorageBackendSQLite:
		return "SQLite (local database file)"
	case StorageBackendRedis:
		return "Redis (shared server)"
	case StorageBackendMemory:
		return "Memory (not persisted)"
	default:
		return unknownDescription
	}
}

// StorageSettings configures where the index and mirrored files live.
type StorageSettings struct {
	// Backend is the key-value store for the index.
	Backend StorageBackend

	// DataDir is the sandbox root for the SQLite database and the
	// private documents directory. Empty means <home>/data.
	DataDir string

	// RedisURL is the connection URL when Backend is redis.
	RedisURL string

	// RedisPrefix namespaces every key written to Redis.
	RedisPrefix string
}

// InboxSettings configures the pipeline hand-off watcher.
type InboxSettings struct {
	// Dir is the watched directory. Empty means <home>/inbox.
	Dir string

	// RatePerSecond caps imports per second.
	RatePerSecond float64

	// Burst is the maximum number of imports allowed at once.
	Burst int
}

// LoggingSettings configures the logger.
type LoggingSettings struct {
	// Verbose enables debug, info and warning output.
	Verbose bool
}

// AppSettings aggregates all user-configurable settings.
type AppSettings struct {
	Storage StorageSettings
	Inbox   InboxSettings
	Logging LoggingSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Backend:     StorageBackendSQLite,
			RedisURL:    "redis://localhost:6379/0",
			RedisPrefix: "medisimplify:",
		},
		Inbox: InboxSettings{
			RatePerSecond: 2,
			Burst:         1,
		},
	}
}
