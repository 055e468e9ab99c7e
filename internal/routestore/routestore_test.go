// internal/routestore/routestore_test.go
package routestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSaveAndRestore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveLastRoute(ctx, 7, "risk"))
	route, err := s.LastRoute(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "risk", route)
}

func TestMemoryStoreMissingUser(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.LastRoute(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreEmptyRouteClears(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveLastRoute(ctx, 7, "audits"))
	require.NoError(t, s.SaveLastRoute(ctx, 7, ""))
	_, err := s.LastRoute(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreClear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveLastRoute(ctx, 7, "reports"))
	require.NoError(t, s.Clear(ctx, 7))
	_, err := s.LastRoute(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	current := time.Now()
	s.now = func() time.Time { return current }

	require.NoError(t, s.SaveLastRoute(ctx, 7, "suppliers"))

	current = current.Add(DefaultTTL - time.Minute)
	route, err := s.LastRoute(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "suppliers", route)

	current = current.Add(2 * time.Minute)
	_, err = s.LastRoute(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePresence(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	current := time.Now()
	s.now = func() time.Time { return current }

	online, err := s.Online(ctx, 7)
	require.NoError(t, err)
	assert.False(t, online, "no heartbeat means offline")

	require.NoError(t, s.Heartbeat(ctx, 7))
	online, err = s.Online(ctx, 7)
	require.NoError(t, err)
	assert.True(t, online)

	current = current.Add(PresenceTTL + time.Second)
	online, err = s.Online(ctx, 7)
	require.NoError(t, err)
	assert.False(t, online, "a stale heartbeat means offline")
}

func TestKeyFormats(t *testing.T) {
	assert.Equal(t, "route:last:42", routeKey(42))
	assert.Equal(t, "presence:42", presenceKey(42))
}
