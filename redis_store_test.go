package edgesession

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T, options ...func(*RedisStore)) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, options...), mr
}

func TestRedisStore_GetSetDel(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "data:sid:name")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "data:sid:name", `"Coco"`, time.Minute))
	v, ok, err := s.Get(ctx, "data:sid:name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"Coco"`, v)
	assert.Equal(t, time.Minute, mr.TTL("data:sid:name"))

	require.NoError(t, s.Del(ctx, "data:sid:name"))
	assert.False(t, mr.Exists("data:sid:name"))
}

func TestRedisStore_TTL(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "flash:sid:notice", `"hi"`, 2*time.Minute))
	require.NoError(t, s.Set(ctx, "data:sid:name", `"Coco"`, 0))

	mr.FastForward(3 * time.Minute)
	_, ok, err := s.Get(ctx, "flash:sid:notice")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.Get(ctx, "data:sid:name")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_DelAll(t *testing.T) {
	s, mr := setupRedisStore(t, WithScanCount(7))
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Set(ctx, fmt.Sprintf("data:sid:k%d", i), "1", 0))
	}
	require.NoError(t, s.Set(ctx, "data:other:k", "1", 0))
	require.NoError(t, s.Set(ctx, "flash:sid:k", "1", 0))

	require.NoError(t, s.DelAll(ctx, "data:sid:"))
	assert.ElementsMatch(t, []string{"data:other:k", "flash:sid:k"}, mr.Keys())
}

func TestNewRedisStore_SingleNodeClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client)
	assert.Same(t, client, s.client)
	require.NoError(t, s.Set(context.Background(), "data:sid:k", "1", 0))
	require.NoError(t, s.DelAll(context.Background(), "data:sid:"))
	assert.Empty(t, mr.Keys())
}

func TestRedisStore_Take(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "flash:sid:notice", `"hi"`, time.Minute))

	v, ok, err := s.Take(ctx, "flash:sid:notice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"hi"`, v)
	assert.False(t, mr.Exists("flash:sid:notice"))

	_, ok, err = s.Take(ctx, "flash:sid:notice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	s, mr := setupRedisStore(t, WithKeyPrefix("app:"))
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "data:sid:name", "1", 0))
	require.NoError(t, mr.Set("data:sid:name", "unrelated"))

	assert.True(t, mr.Exists("app:data:sid:name"))
	require.NoError(t, s.DelAll(ctx, "data:sid:"))
	assert.Equal(t, []string{"data:sid:name"}, mr.Keys())
}

func TestRedisStore_Errors(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	s := NewRedisStore(client)
	mr.Close()
	ctx := context.Background()

	_, _, err = s.Take(ctx, "k")
	assert.Error(t, err)
	_, _, err = s.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "k", "v", 0))
	assert.Error(t, s.DelAll(ctx, "k"))
	assert.Error(t, s.Ping(ctx))
}

func TestRedisStore_Engine(t *testing.T) {
	s, mr := setupRedisStore(t)
	e, err := New("secret", s)
	require.NoError(t, err)
	jar := newFakeJar()
	ctx := context.Background()

	require.NoError(t, e.Commit(ctx, jar, "cart", []string{"apple"}))
	require.NoError(t, e.CommitFlash(ctx, jar, "notice", "added"))
	id, ok := e.SessionID(ctx, jar)
	require.True(t, ok)
	assert.Equal(t, 120*time.Second, mr.TTL("flash:"+id+":notice"))

	v, err := e.GetFlash(ctx, jar, "notice")
	require.NoError(t, err)
	assert.Equal(t, "added", v)

	require.NoError(t, e.Destroy(ctx, jar))
	assert.Empty(t, mr.Keys())
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `data:a\*b\?c\[d\]\\:`, escapeGlob(`data:a*b?c[d]\:`))
	assert.Equal(t, "data:6f1c1f0e-6a0b:", escapeGlob("data:6f1c1f0e-6a0b:"))
}
