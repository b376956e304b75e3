// Package redis provides a Redis-backed implementation of the key-value port.
//
// Every key is namespaced with a configurable prefix so several installs
// can share one Redis database.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/medisimplify/medisimplify/internal/core/ports/driven"
)

// DefaultDialTimeout bounds the initial connection attempt.
const DefaultDialTimeout = 5 * time.Second

// Ensure Store implements the interface.
var _ driven.KeyValueStore = (*Store)(nil)

// Store is a driven.KeyValueStore backed by a Redis client.
type Store struct {
	client *goredis.Client
	prefix string
}

// NewStore connects to the Redis server at url and verifies it with PING.
// url uses the redis:// scheme understood by go-redis.
func NewStore(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = DefaultDialTimeout
	}

	client := goredis.NewClient(opts)
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	if pong != "PONG" {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: expected PONG, got %s", pong)
	}

	return NewStoreWithClient(client, prefix), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Key returns the namespaced Redis key for key.
func (s *Store) Key(key string) string {
	return s.prefix + key
}

// Get retrieves the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading key %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.Key(key)).Err(); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}
