package storage

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "roxot_analytics_utm_source")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "roxot_analytics_utm_source", "newsletter"))
	require.NoError(t, store.Set(ctx, "roxot_analytics_utm_medium", ""))

	value, ok, err := store.Get(ctx, "roxot_analytics_utm_source")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "newsletter", value)

	value, ok, err = store.Get(ctx, "roxot_analytics_utm_medium")
	require.NoError(t, err)
	assert.True(t, ok, "empty values are still stored")
	assert.Empty(t, value)

	assert.Equal(t, 2, store.Len())
}

func TestRedisStore_Key(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	assert.Equal(t, "utm_ttl", NewRedisStore(client).key("utm_ttl"))
	assert.Equal(t, "visitor:abc:utm_ttl", NewRedisStore(client, WithPrefix("visitor:abc")).key("utm_ttl"))
}

func TestNewVisitorStoreFactory(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	store, ok := NewVisitorStoreFactory(client, 24*time.Hour)("abc").(*RedisStore)
	require.True(t, ok)
	assert.Equal(t, "visitor:abc:utm_ttl", store.key("utm_ttl"))
	assert.Equal(t, 24*time.Hour, store.expiration)
}

func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR_INTEGRATION")
	if addr == "" {
		t.Skip("set REDIS_ADDR_INTEGRATION to run Redis integration tests")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	prefix := "roxot:test:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	store := NewRedisStore(client, WithPrefix(prefix), WithExpiration(time.Minute))

	_, ok, err := store.Get(ctx, "is_new_flag")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "is_new_flag", "1700000000000"))

	value, ok, err := store.Get(ctx, "is_new_flag")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1700000000000", value)

	ttl, err := client.TTL(ctx, prefix+":is_new_flag").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
