// sessionstore/redis.go
package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultRedisKeyPrefix namespaces session keys in a shared Redis.
const DefaultRedisKeyPrefix = "contacts-session"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps one session's values in Redis under <prefix>:<sessionID>:<key>. Every write
// refreshes the TTL, so an idle session expires on its own the way a closed tab does.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	sessionID string
	ttl       time.Duration
}

// RedisStoreOptions configures NewRedisStore.
type RedisStoreOptions struct {
	Prefix    string        // Defaults to DefaultRedisKeyPrefix.
	SessionID string        // Defaults to a random UUID.
	TTL       time.Duration // Zero means no expiry.
}

// NewRedisStore wraps an existing client. Callers own the client and close it.
func NewRedisStore(client redis.UniversalClient, opts RedisStoreOptions) *RedisStore {
	if opts.Prefix == "" {
		opts.Prefix = DefaultRedisKeyPrefix
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	return &RedisStore{
		client:    client,
		prefix:    opts.Prefix,
		sessionID: opts.SessionID,
		ttl:       opts.TTL,
	}
}

// SessionID identifies the session this store is scoped to.
func (r *RedisStore) SessionID() string {
	return r.sessionID
}

func (r *RedisStore) key(key string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, r.sessionID, key)
}

// Get returns the value for key or ErrNotFound.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, nil
}

// Set overwrites the value for key and resets its TTL.
func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}
