package memory

import (
	"context"
	"sync"
	"time"

	"unimate/internal/app/middleware"
)

// IdempotencyStore keeps command results for ttl, like the Mongo TTL index.
type IdempotencyStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]middleware.IdempotencyRecord
}

// NewIdempotencyStore uses a 24h ttl when ttl is not positive.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{ttl: ttl, now: time.Now, items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	if ok && s.now().Sub(rec.OccurredAt) > s.ttl {
		delete(s.items, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = s.now().UTC()
	}
	s.items[rec.Key] = rec
	s.pruneLocked()
	return nil
}

func (s *IdempotencyStore) pruneLocked() {
	cutoff := s.now().Add(-s.ttl)
	for k, rec := range s.items {
		if rec.OccurredAt.Before(cutoff) {
			delete(s.items, k)
		}
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
