package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists visitor values in Redis.
type RedisStore struct {
	redis      *redis.Client
	prefix     string        // scopes keys to one visitor, e.g. "visitor:abc"
	expiration time.Duration // 0 keeps keys until evicted by redis
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// NewRedisStore creates a Store backed by the given redis client.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		redis: client,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithPrefix scopes every key, e.g. "visitor:3f2a".
func WithPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithExpiration sets a TTL on every written key.
func WithExpiration(expiration time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.expiration = expiration
	}
}

// NewVisitorStoreFactory returns a function building stores scoped to one
// visitor. Every key it writes expires after ttl.
func NewVisitorStoreFactory(client *redis.Client, ttl time.Duration) func(visitorID string) Store {
	return func(visitorID string) Store {
		return NewRedisStore(client, WithPrefix("visitor:"+visitorID), WithExpiration(ttl))
	}
}

func (s *RedisStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, s.expiration).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
