package edgesession

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Config is the environment driven configuration of an Engine and its store.
type Config struct {
	Secret        string        `env:"SESSION_SECRET,required,notEmpty"`
	DataTTL       time.Duration `env:"SESSION_DATA_TTL"`
	FlashLifetime time.Duration `env:"SESSION_FLASH_LIFETIME" envDefault:"120s"`

	// At most one of RedisURL and PostgresURL may be set. With neither, an
	// in-memory store is used.
	RedisURL       string `env:"SESSION_REDIS_URL"`
	RedisKeyPrefix string `env:"SESSION_REDIS_KEY_PREFIX"`
	RedisScanCount int64  `env:"SESSION_REDIS_SCAN_COUNT" envDefault:"1000"`

	PostgresURL   string `env:"SESSION_POSTGRES_URL"`
	PostgresTable string `env:"SESSION_POSTGRES_TABLE" envDefault:"edge_sessions"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfig)
	}
	if c.DataTTL < 0 {
		return fmt.Errorf("%w: data ttl cannot be negative", ErrInvalidConfig)
	}
	if c.FlashLifetime <= 0 {
		return fmt.Errorf("%w: flash lifetime must be positive", ErrInvalidConfig)
	}
	if c.RedisURL != "" && c.PostgresURL != "" {
		return fmt.Errorf("%w: redis and postgres urls are mutually exclusive", ErrInvalidConfig)
	}
	return nil
}

// Options returns the engine options described by c.
func (c Config) Options() []Option {
	return []Option{
		WithDataTTL(c.DataTTL),
		WithFlashLifetime(c.FlashLifetime),
	}
}

// OpenStore connects the store selected by c. The returned closer releases
// its connections.
func OpenStore(ctx context.Context, c Config) (Store, io.Closer, error) {
	switch {
	case c.RedisURL != "":
		opt, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, nil, errors.Join(ErrInvalidConfig, err)
		}
		client := redis.NewClient(opt)
		s := NewRedisStore(client, WithKeyPrefix(c.RedisKeyPrefix), WithScanCount(c.RedisScanCount))
		if err := s.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, storeErr(err)
		}
		return s, client, nil
	case c.PostgresURL != "":
		pool, err := pgxpool.New(ctx, c.PostgresURL)
		if err != nil {
			return nil, nil, errors.Join(ErrInvalidConfig, err)
		}
		s := NewPostgresStore(pool, c.PostgresTable)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, storeErr(err)
		}
		return s, closerFunc(func() error { pool.Close(); return nil }), nil
	default:
		s := NewMemoryStore()
		return s, s, nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
