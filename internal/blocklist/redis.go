package blocklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the set of revoked token ids.
type Store interface {
	Revoke(ctx context.Context, jti string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisStore keeps one key per revoked jti with a fixed TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore fails when ttl is shorter than maxTokenLifetime: an entry
// expiring before its token would let a revoked token validate again.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl, maxTokenLifetime time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("blocklist: nil redis client")
	}
	if ttl < maxTokenLifetime {
		return nil, fmt.Errorf("blocklist: ttl %s is shorter than token lifetime %s", ttl, maxTokenLifetime)
	}
	if prefix == "" {
		prefix = "jti"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func (s *RedisStore) key(jti string) string {
	return s.prefix + ":" + jti
}

func (s *RedisStore) Revoke(ctx context.Context, jti string) error {
	if jti == "" {
		return errors.New("blocklist: empty jti")
	}
	if err := s.client.Set(ctx, s.key(jti), "", s.ttl).Err(); err != nil {
		return fmt.Errorf("blocklist: revoke: %w", err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("blocklist: lookup: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// NewClient builds a redis client from a redis:// URL.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("blocklist: parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
