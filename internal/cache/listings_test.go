package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestListings(t *testing.T, ttl time.Duration) (*Listings, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "miniredis run failed")
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewListings(rdb, ttl), mr
}

func TestSetGetRoundTrip(t *testing.T) {
	listings, _ := newTestListings(t, time.Hour)
	ctx := context.Background()

	_, hit, err := listings.Get(ctx, "goals", "user-1")
	require.NoError(t, err)
	assert.False(t, hit, "expected miss before Set")

	payload := []byte(`[{"id":"g1"}]`)
	require.NoError(t, listings.Set(ctx, "goals", "user-1", payload))

	got, hit, err := listings.Get(ctx, "goals", "user-1")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, payload, got)
}

func TestKeysAreScopedByResourceAndOwner(t *testing.T) {
	listings, _ := newTestListings(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, listings.Set(ctx, "goals", "user-1", []byte("a")))

	_, hit, err := listings.Get(ctx, "notes", "user-1")
	require.NoError(t, err)
	assert.False(t, hit, "different resource must not share an entry")

	_, hit, err = listings.Get(ctx, "goals", "user-2")
	require.NoError(t, err)
	assert.False(t, hit, "different owner must not share an entry")
}

func TestInvalidateDeletesEntry(t *testing.T) {
	listings, _ := newTestListings(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, listings.Set(ctx, "goals", "user-1", []byte("a")))
	require.NoError(t, listings.Invalidate(ctx, "goals", "user-1"))

	_, hit, err := listings.Get(ctx, "goals", "user-1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestEntriesExpire(t *testing.T) {
	listings, mr := newTestListings(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, listings.Set(ctx, "transactions", "user-1", []byte("a")))
	mr.FastForward(2 * time.Minute)

	_, hit, err := listings.Get(ctx, "transactions", "user-1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFlushRemovesOnlyListingKeys(t *testing.T) {
	listings, mr := newTestListings(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, listings.Set(ctx, "goals", "user-1", []byte("a")))
	require.NoError(t, listings.Set(ctx, "notes", "user-2", []byte("b")))
	require.NoError(t, mr.Set("bs:sess:keep-me", "alice"))

	require.NoError(t, listings.Flush(ctx))

	_, hit, err := listings.Get(ctx, "goals", "user-1")
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = listings.Get(ctx, "notes", "user-2")
	require.NoError(t, err)
	assert.False(t, hit)

	assert.True(t, mr.Exists("bs:sess:keep-me"), "session keys must survive a cache flush")
}
