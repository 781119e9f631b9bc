// Package idempotency deduplicates checkout submissions. The commerce API
// has no idempotency support of its own, so a double-clicked checkout button
// would happily place two orders; this store makes retries of the same
// Idempotency-Key replay the first response instead.
package idempotency

import (
	"sync"
	"time"
)

// Store keeps idempotency records in memory. Records expire after the TTL
// window; the storefront is a single process, so in-memory is as durable as
// the carts it protects.
type Store struct {
	mu        sync.Mutex
	records   map[string]*Record
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
// ttlWindow: how long completed entries shield against replays (e.g. 24h).
func NewStore(ttlWindow time.Duration) *Store {
	return &Store{
		records:   map[string]*Record{},
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Begin claims the key for a new attempt. started is true when the caller
// owns the attempt and must later call MarkDone or Release; when false, the
// returned record describes the earlier attempt.
func (s *Store) Begin(key string) (rec Record, started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if existing, ok := s.records[key]; ok && now.Before(existing.ExpiresAt) {
		return *existing, false
	}

	s.records[key] = &Record{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow),
	}
	return *s.records[key], true
}

// MarkDone records the final response for the key so duplicates can replay
// it.
func (s *Store) MarkDone(key string, orderID, responseStatus int, responseBody []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return
	}
	rec.Status = StatusDone
	rec.OrderID = orderID
	rec.ResponseStatus = responseStatus
	rec.ResponseBody = append([]byte(nil), responseBody...)
	rec.UpdatedAt = s.nowFunc()
}

// Release drops the claim after a failed attempt so the client can retry
// with the same key.
func (s *Store) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

// Sweep removes expired records. Called periodically; the map would
// otherwise grow with every unique key.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	for key, rec := range s.records {
		if !now.Before(rec.ExpiresAt) {
			delete(s.records, key)
		}
	}
}
