package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Entries are dropped lazily on access
// and on every write.
type MemoryStore struct {
	mu   sync.Mutex
	m    map[string]time.Time
	nowF func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]time.Time),
		nowF: time.Now,
	}
}

func (s *MemoryStore) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowF()
	s.sweep(now)
	s.m[revokedPrefix+jti] = now.Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live(revokedPrefix+jti, s.nowF()), nil
}

func (s *MemoryStore) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowF()
	k := throttlePrefix + key
	if s.live(k, now) {
		return false, nil
	}
	s.sweep(now)
	s.m[k] = now.Add(window)
	return true, nil
}

func (s *MemoryStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, throttlePrefix+key)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// live must be called with mu held.
func (s *MemoryStore) live(key string, now time.Time) bool {
	exp, ok := s.m[key]
	if !ok {
		return false
	}
	if !exp.After(now) {
		delete(s.m, key)
		return false
	}
	return true
}

func (s *MemoryStore) sweep(now time.Time) {
	for k, exp := range s.m {
		if !exp.After(now) {
			delete(s.m, k)
		}
	}
}
