package edgesession

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("SESSION_DATA_TTL", "24h")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Secret)
	assert.Equal(t, 24*time.Hour, cfg.DataTTL)
	assert.Equal(t, 120*time.Second, cfg.FlashLifetime)
	assert.Equal(t, int64(1000), cfg.RedisScanCount)
	assert.Equal(t, "edge_sessions", cfg.PostgresTable)

	opts := defaultOptions()
	for _, op := range cfg.Options() {
		op(&opts)
	}
	assert.Equal(t, 24*time.Hour, opts.DataTTL)
	assert.Equal(t, 120*time.Second, opts.FlashLifetime)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Secret: "s", FlashLifetime: time.Minute}
	require.NoError(t, valid.Validate())

	testCases := map[string]func(c *Config){
		"no secret":    func(c *Config) { c.Secret = "" },
		"negative ttl": func(c *Config) { c.DataTTL = -time.Second },
		"zero flash":   func(c *Config) { c.FlashLifetime = 0 },
		"two backends": func(c *Config) { c.RedisURL, c.PostgresURL = "redis://x", "postgres://x" },
	}
	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestOpenStore_Memory(t *testing.T) {
	s, closer, err := OpenStore(context.Background(), Config{Secret: "s", FlashLifetime: time.Minute})
	require.NoError(t, err)
	defer closer.Close()
	assert.IsType(t, &MemoryStore{}, s)
}

func TestOpenStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, closer, err := OpenStore(context.Background(), Config{
		Secret:         "s",
		FlashLifetime:  time.Minute,
		RedisURL:       "redis://" + mr.Addr() + "/0",
		RedisKeyPrefix: "app:",
		RedisScanCount: 10,
	})
	require.NoError(t, err)
	defer closer.Close()

	rs, ok := s.(*RedisStore)
	require.True(t, ok)
	assert.Equal(t, "app:", rs.keyPrefix)
	assert.Equal(t, int64(10), rs.scanCount)
}

func TestOpenStore_BadRedisURL(t *testing.T) {
	_, _, err := OpenStore(context.Background(), Config{RedisURL: "http://nope"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
