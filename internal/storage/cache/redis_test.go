package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jeovahfialho/relatorio-vendas/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheFromClient(client, time.Minute)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	value := map[string]string{"regiao": "norte"}
	require.NoError(t, c.Set(ctx, "dados:raw/a.csv", value))
	assert.True(t, mr.Exists(keyPrefix+"dados:raw/a.csv"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"dados:raw/a.csv"))

	var got map[string]string
	require.NoError(t, c.Get(ctx, "dados:raw/a.csv", &got))
	assert.Equal(t, value, got)
}

func TestRedisCacheMissAndDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	var got []string
	assert.ErrorIs(t, c.Get(ctx, "nada", &got), ErrMiss)

	require.NoError(t, c.Set(ctx, "a", []string{"1"}))
	require.NoError(t, c.Set(ctx, "b", []string{"2"}))
	require.NoError(t, c.Delete(ctx, "a", "b"))
	require.NoError(t, c.Delete(ctx))

	assert.ErrorIs(t, c.Get(ctx, "a", &got), ErrMiss)
	assert.ErrorIs(t, c.Get(ctx, "b", &got), ErrMiss)
}

func TestRedisCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "a", 1))
	mr.FastForward(2 * time.Minute)

	var got int
	assert.ErrorIs(t, c.Get(ctx, "a", &got), ErrMiss)
}

func TestNewRedisCache(t *testing.T) {
	_, err := NewRedisCache(&config.Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	mr := miniredis.RunT(t)
	c, err := NewRedisCache(&config.Config{RedisURL: "redis://" + mr.Addr(), CacheTTL: time.Minute})
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.HealthCheck(context.Background()))
}
