package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// Window and MaxRequests are intentionally not configurable: the limiter is a
	// transport-edge safety net, not a tunable quota system.
	Window      = time.Minute
	MaxRequests = 100

	// One in sweepChance allowed requests triggers a full sweep of empty entries.
	sweepChance = 100

	// Hard map-size guard: above this many keys a sweep runs unconditionally.
	maxKeys = 5000
)

// Store decides whether a request identified by key may proceed at instant now.
// Implementations own whatever state the decision requires. The in-memory store
// below is per-process; running multiple instances fragments the quota across
// them (each instance enforces its own window).
type Store interface {
	Allow(key string, now time.Time) (allowed bool, retryAfter time.Duration)
}

// MemoryStore is a mutex-guarded sliding-window limiter keyed by client IP.
type MemoryStore struct {
	mu      sync.Mutex
	hitsBy  map[string][]time.Time
	randInt func(n int) int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hitsBy:  make(map[string][]time.Time),
		randInt: rand.Intn,
	}
}

// Allow prunes hits older than the window, denies without recording when the
// remaining count has reached MaxRequests, and records the hit otherwise.
// The window boundary is exclusive on the old side: a hit at exactly
// now-Window no longer counts.
func (s *MemoryStore) Allow(key string, now time.Time) (bool, time.Duration) {
	threshold := now.Add(-Window)

	s.mu.Lock()
	defer s.mu.Unlock()

	hits := s.hitsBy[key]
	kept := hits[:0]
	for _, hit := range hits {
		if hit.After(threshold) {
			kept = append(kept, hit)
		}
	}

	if len(kept) >= MaxRequests {
		s.hitsBy[key] = kept
		return false, Window
	}

	s.hitsBy[key] = append(kept, now)

	if s.randInt(sweepChance) == 0 || len(s.hitsBy) > maxKeys {
		s.sweep(threshold)
	}

	return true, 0
}

// sweep drops every key whose hits all fall outside the window. Callers must
// hold s.mu.
func (s *MemoryStore) sweep(threshold time.Time) {
	for key, hits := range s.hitsBy {
		if len(hits) == 0 || !hits[len(hits)-1].After(threshold) {
			delete(s.hitsBy, key)
		}
	}
}
