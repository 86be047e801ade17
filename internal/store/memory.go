package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/rate-limiter-go/internal/ratelimit"
)

type counterRecord struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounterStore is an in-process implementation of
// ratelimit.CounterStore. It is intended for tests and single-instance
// deployments; counters are not shared across processes.
type MemoryCounterStore struct {
	mu       sync.Mutex
	now      func() time.Time
	counters map[string]counterRecord
}

// NewMemoryCounterStore creates a new in-memory counter store. A nil clock
// defaults to time.Now; tests inject their own to control window expiry.
func NewMemoryCounterStore(now func() time.Time) *MemoryCounterStore {
	if now == nil {
		now = time.Now
	}

	return &MemoryCounterStore{
		now:      now,
		counters: make(map[string]counterRecord),
	}
}

func (s *MemoryCounterStore) Admit(
	_ context.Context, key string, limit int64, window time.Duration,
) (ratelimit.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.live(key, now)

	if ok && rec.count >= limit {
		return ratelimit.Admission{
			Admitted: false,
			Count:    rec.count,
			ResetIn:  rec.expiresAt.Sub(now),
		}, nil
	}

	if !ok {
		// First admission of a fresh window anchors the expiry here.
		rec = counterRecord{expiresAt: now.Add(window)}
	}

	rec.count++
	s.counters[key] = rec

	return ratelimit.Admission{
		Admitted: true,
		Count:    rec.count,
		ResetIn:  rec.expiresAt.Sub(now),
	}, nil
}

func (s *MemoryCounterStore) Count(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(key, s.now())
	if !ok {
		return 0, nil
	}

	return rec.count, nil
}

func (s *MemoryCounterStore) TimeToLive(_ context.Context, key string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	rec, ok := s.live(key, now)
	if !ok {
		return 0, false, nil
	}

	return rec.expiresAt.Sub(now), true, nil
}

// live returns the record for key, dropping it first if its window has
// elapsed. Expiry on access is the only destructor a counter has.
func (s *MemoryCounterStore) live(key string, now time.Time) (counterRecord, bool) {
	rec, ok := s.counters[key]
	if !ok {
		return counterRecord{}, false
	}

	if !rec.expiresAt.After(now) {
		delete(s.counters, key)

		return counterRecord{}, false
	}

	return rec, true
}

// Compile-time check.
var _ ratelimit.CounterStore = (*MemoryCounterStore)(nil)
