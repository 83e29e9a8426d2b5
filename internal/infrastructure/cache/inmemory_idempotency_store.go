package cache

import (
	"context"
	"sync"
	"time"

	appbilling "github.com/nhatro/backend/internal/application/billing"
)

// InMemoryIdempotencyStore implements the reconciliation idempotency store
// with a map of key to expiry. Suitable for single-instance deployments and
// tests; multi-instance setups use the Redis store instead.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	expiry  map[string]time.Time
	ttl     time.Duration
	done    chan struct{}
	stopped sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts a janitor
// goroutine that drops expired keys. A non-positive ttl defaults to one week,
// matching the gateway's own transaction replay horizon.
func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	s := &InMemoryIdempotencyStore{
		expiry: make(map[string]time.Time),
		ttl:    ttl,
		done:   make(chan struct{}),
	}
	go s.janitor()
	return s
}

// SeenOrRecord records the key if absent and reports whether it was
// already present. An expired key counts as absent and is re-recorded.
func (s *InMemoryIdempotencyStore) SeenOrRecord(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline, ok := s.expiry[key]; ok && now.Before(deadline) {
		return true, nil
	}
	s.expiry[key] = now.Add(s.ttl)
	return false, nil
}

// Forget removes a recorded key so the transaction can be replayed.
func (s *InMemoryIdempotencyStore) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expiry, key)
	return nil
}

// Size reports the number of live entries.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}

// Close stops the janitor. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.stopped.Do(func() { close(s.done) })
	return nil
}

func (s *InMemoryIdempotencyStore) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, deadline := range s.expiry {
		if now.After(deadline) {
			delete(s.expiry, key)
		}
	}
}

var _ appbilling.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
