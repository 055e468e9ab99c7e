// internal/routestore/routestore.go
//
// Dashboard route restoration used to live as ad hoc reads and writes against
// browser storage with no eviction policy. It is modeled here as an explicit
// key-value store with a defined TTL instead.
package routestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a remembered route survives. Stale entries
// simply expire; there is no sweeper.
const DefaultTTL = 24 * time.Hour

// PresenceTTL is the connectivity heartbeat window: a user is considered
// online while a heartbeat key written this recently still exists.
const PresenceTTL = 2 * time.Minute

// ErrNotFound is returned when no route is remembered for the user.
var ErrNotFound = errors.New("routestore: no route recorded")

// Store remembers the last dashboard route per user and tracks a
// connectivity heartbeat.
type Store interface {
	SaveLastRoute(ctx context.Context, userID int64, route string) error
	LastRoute(ctx context.Context, userID int64) (string, error)
	Clear(ctx context.Context, userID int64) error
	Heartbeat(ctx context.Context, userID int64) error
	Online(ctx context.Context, userID int64) (bool, error)
}

func routeKey(userID int64) string {
	return fmt.Sprintf("route:last:%d", userID)
}

func presenceKey(userID int64) string {
	return fmt.Sprintf("presence:%d", userID)
}

// RedisStore is the production implementation.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: DefaultTTL}
}

func (s *RedisStore) SaveLastRoute(ctx context.Context, userID int64, route string) error {
	if route == "" {
		return s.Clear(ctx, userID)
	}
	return s.client.Set(ctx, routeKey(userID), route, s.ttl).Err()
}

func (s *RedisStore) LastRoute(ctx context.Context, userID int64) (string, error) {
	route, err := s.client.Get(ctx, routeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("routestore: reading last route: %w", err)
	}
	return route, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, routeKey(userID)).Err()
}

func (s *RedisStore) Heartbeat(ctx context.Context, userID int64) error {
	return s.client.Set(ctx, presenceKey(userID), time.Now().Unix(), PresenceTTL).Err()
}

func (s *RedisStore) Online(ctx context.Context, userID int64) (bool, error) {
	n, err := s.client.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("routestore: checking presence: %w", err)
	}
	return n > 0, nil
}
