package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"budgetwise.org/internal/obs"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("cache: redis unavailable")

const keyPrefix = "bs:list:"

// Listings caches serialized per-user resource listings. Entries are keyed by
// resource type plus the owning user's ID and expire after a fixed TTL; every
// mutation must delete the owner's entry before the request completes, so a
// stale read is bounded by the TTL.
type Listings struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

// NewListings creates a Listings cache with the given entry TTL.
func NewListings(client redis.UniversalClient, ttl time.Duration) *Listings {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Listings{redis: client, ttl: ttl}
}

func key(resource, userID string) string {
	return keyPrefix + resource + ":" + userID
}

// Get returns the cached listing for (resource, owner), reporting a miss when
// no entry exists.
func (l *Listings) Get(ctx context.Context, resource, userID string) ([]byte, bool, error) {
	data, err := l.redis.Get(ctx, key(resource, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			obs.CacheMiss(resource)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	obs.CacheHit(resource)
	return data, true, nil
}

// Set stores a freshly queried listing for (resource, owner).
func (l *Listings) Set(ctx context.Context, resource, userID string, payload []byte) error {
	if err := l.redis.Set(ctx, key(resource, userID), payload, l.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Invalidate deletes the cached listing for (resource, owner). Callers must
// pass the mutated resource's owner, not the requester, although the ownership
// checks upstream make the two coincide.
func (l *Listings) Invalidate(ctx context.Context, resource, userID string) error {
	if err := l.redis.Del(ctx, key(resource, userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	obs.CacheInvalidation(resource)
	return nil
}

// Flush removes every cached listing. Used by the maintenance cleanup endpoint;
// sessions are left untouched.
func (l *Listings) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := l.redis.Scan(ctx, cursor, keyPrefix+"*", 1000).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if len(keys) > 0 {
			if err := l.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
