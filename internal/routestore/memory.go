// internal/routestore/memory.go
package routestore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the fallback when no Redis address is configured
// (single-process development setups). Entries expire lazily on read.
type MemoryStore struct {
	mu       sync.Mutex
	routes   map[int64]memoryEntry
	presence map[int64]time.Time
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	route     string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		routes:   make(map[int64]memoryEntry),
		presence: make(map[int64]time.Time),
		ttl:      DefaultTTL,
		now:      time.Now,
	}
}

func (s *MemoryStore) SaveLastRoute(_ context.Context, userID int64, route string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if route == "" {
		delete(s.routes, userID)
		return nil
	}
	s.routes[userID] = memoryEntry{route: route, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) LastRoute(_ context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.routes[userID]
	if !ok {
		return "", ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.routes, userID)
		return "", ErrNotFound
	}
	return entry.route, nil
}

func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.routes, userID)
	return nil
}

func (s *MemoryStore) Heartbeat(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence[userID] = s.now()
	return nil
}

func (s *MemoryStore) Online(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.presence[userID]
	if !ok {
		return false, nil
	}
	return s.now().Sub(last) <= PresenceTTL, nil
}
