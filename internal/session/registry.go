package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no live session exists for the given ID.
var ErrNotFound = errors.New("session: not found")

// ErrRedisUnavailable wraps transport-level Redis failures so callers can
// distinguish a dead registry from a dead session.
var ErrRedisUnavailable = errors.New("session: redis unavailable")

const keyPrefix = "bs:sess:"

// Registry is the Redis-backed session registry. A session is an opaque ID
// mapped to the owning username with a fixed TTL; its presence is the sole
// source of truth for token validity, since issued tokens never expire on
// their own.
type Registry struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

// NewRegistry creates a Registry with the given liveness TTL.
func NewRegistry(client redis.UniversalClient, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Registry{redis: client, ttl: ttl}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Create registers a fresh session for the user and returns its opaque ID.
func (r *Registry) Create(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", errors.New("session: username is required")
	}
	sessionID := uuid.NewString()
	if err := r.redis.Set(ctx, key(sessionID), username, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return sessionID, nil
}

// Lookup returns the username bound to a live session, or ErrNotFound when the
// session was deleted or has expired.
func (r *Registry) Lookup(ctx context.Context, sessionID string) (string, error) {
	username, err := r.redis.Get(ctx, key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return username, nil
}

// Delete revokes a session. Deleting an absent session is not an error;
// revocation is idempotent.
func (r *Registry) Delete(ctx context.Context, sessionID string) error {
	if err := r.redis.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// TTL reports the configured session lifetime.
func (r *Registry) TTL() time.Duration { return r.ttl }

// Ping returns a point-in-time Redis availability check.
func (r *Registry) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
