package history

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list holding the history.
const DefaultRedisKey = "metta:history"

// RedisStore implements ports.HistoryStore using a Redis list capped at
// MaxEntries. Several shells may share one list.
type RedisStore struct {
	client     *backend.Client
	key        string
	maxEntries int
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKey sets the list key.
func WithKey(key string) RedisOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithMaxEntries caps the list length.
func WithMaxEntries(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// NewRedisStore connects to a Redis server.
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(rdb, opts...)
}

// NewRedisStoreFromClient creates a store from an existing client.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:     client,
		key:        DefaultRedisKey,
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the list content, oldest first.
func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	entries, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history from redis: %w", err)
	}
	return entries, nil
}

// Append pushes entries and trims the list to the newest MaxEntries.
func (s *RedisStore) Append(ctx context.Context, entries ...string) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]any, len(entries))
	for i, e := range entries {
		values[i] = e
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, values...)
	pipe.LTrim(ctx, s.key, int64(-s.maxEntries), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history to redis: %w", err)
	}
	return nil
}

// Clear deletes the list.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear history in redis: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
