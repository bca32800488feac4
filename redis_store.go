package edgesession

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore represents a session store backed by a single Redis server.
// DelAll scans one keyspace, so Redis Cluster is not supported.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	scanCount int64
}

// NewRedisStore creates a new RedisStore with the given Redis client and options.
func NewRedisStore(client *redis.Client, options ...func(*RedisStore)) *RedisStore {
	s := &RedisStore{
		client:    client,
		scanCount: 1000,
	}
	for _, op := range options {
		op(s)
	}
	return s
}

// WithKeyPrefix namespaces every key the store writes, e.g. "myapp:".
func WithKeyPrefix(prefix string) func(*RedisStore) {
	return func(s *RedisStore) {
		s.keyPrefix = prefix
	}
}

// WithScanCount sets the COUNT hint used when scanning keys for DelAll.
func WithScanCount(n int64) func(*RedisStore) {
	return func(s *RedisStore) {
		if n > 0 {
			s.scanCount = n
		}
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err()
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.keyPrefix+key).Err()
}

// DelAll scans for keys matching prefix and deletes them batch by batch.
func (s *RedisStore) DelAll(ctx context.Context, prefix string) error {
	match := escapeGlob(s.keyPrefix+prefix) + "*"
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, s.scanCount).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Take reads and deletes key with GETDEL (Redis >= 6.2).
func (s *RedisStore) Take(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.GetDel(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Ping checks that Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var globReplacer = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeGlob quotes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
