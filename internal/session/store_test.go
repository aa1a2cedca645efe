package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-monitor/internal/common/database"
)

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "extract_token", "abc123"))
	v, ok, err := store.Get(ctx, "extract_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)
}

func TestMemoryStore_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "extract_token", "first"))
	require.NoError(t, store.Put(ctx, "extract_token", "second"))

	v, ok, _ := store.Get(ctx, "extract_token")
	assert.True(t, ok)
	assert.Equal(t, "second", v)
}

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, ttl), mr
}

func TestRedisStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t, time.Hour)

	_, ok, err := store.Get(ctx, "extract_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "extract_token", "abc123"))
	v, ok, err := store.Get(ctx, "extract_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)
}

func TestRedisStore_KeysAreSessionScoped(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, time.Hour)

	require.NoError(t, store.Put(ctx, "extract_token", "abc123"))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], store.SessionID())
	assert.Contains(t, keys[0], "extract_token")
}

func TestRedisStore_ValuesExpire(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, time.Minute)

	require.NoError(t, store.Put(ctx, "extract_token", "abc123"))

	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "extract_token")
	require.NoError(t, err)
	assert.False(t, ok)
}
