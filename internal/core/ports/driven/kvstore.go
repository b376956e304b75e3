package driven

import "context"

// KeyValueStore persists string values under string keys.
// Backed by SQLite by default, Redis or memory when configured.
type KeyValueStore interface {
	// Get returns the value stored under key.
	// The boolean is false when the key has never been set.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	// A failed Set must leave the previous value intact.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
