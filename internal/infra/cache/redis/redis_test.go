package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staywise/internal/app/dto"
	"staywise/internal/app/middleware"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestIdempotencyStoreRoundTripAndExpiry(t *testing.T) {
	srv, client := newClient(t)
	store := NewIdempotencyStore(client, time.Minute)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k-1")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k-1", Command: "booking.request", Payload: []byte(`{"id":"b-1"}`), OccurredAt: at}))

	rec, ok, err := store.Get(ctx, "k-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "booking.request", rec.Command)
	assert.JSONEq(t, `{"id":"b-1"}`, string(rec.Payload))
	assert.True(t, at.Equal(rec.OccurredAt))

	srv.FastForward(2 * time.Minute)
	_, ok, err = store.Get(ctx, "k-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalogCacheInvalidate(t *testing.T) {
	srv, client := newClient(t)
	cache := NewCatalogCache(client, time.Minute)
	ctx := context.Background()

	catalog := &dto.PropertyCatalog{
		Properties: []dto.PropertyView{{ID: "p-1", Title: "Loft", Price: 120}},
		Pagination: dto.Pagination{CurrentPage: 1, TotalPages: 1, TotalProperties: 1},
	}
	require.NoError(t, cache.Set(ctx, "a", catalog))
	require.NoError(t, cache.Set(ctx, "b", catalog))
	require.NoError(t, client.Set(ctx, "unrelated", "x", 0).Err())

	got, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Loft", got.Properties[0].Title)
	assert.Equal(t, 120.0, got.Properties[0].Price)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, srv.Exists("unrelated"))
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
