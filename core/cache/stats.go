package cache

import (
	"sync/atomic"
	"time"
)

// Stats tracks store performance counters. Counters are monotonic for the
// process lifetime unless explicitly reset.
type Stats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64
	startTime time.Time
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

// RecordHit records a cache hit.
func (s *Stats) RecordHit() {
	s.hits.Add(1)
}

// RecordMiss records a cache miss.
func (s *Stats) RecordMiss() {
	s.misses.Add(1)
}

// RecordSet records a set operation.
func (s *Stats) RecordSet() {
	s.sets.Add(1)
}

// RecordEviction records an eviction or expiry removal.
func (s *Stats) RecordEviction() {
	s.evictions.Add(1)
}

// Hits returns the total number of cache hits.
func (s *Stats) Hits() int64 {
	return s.hits.Load()
}

// Misses returns the total number of cache misses.
func (s *Stats) Misses() int64 {
	return s.misses.Load()
}

// Reset zeroes all counters and restarts the uptime clock.
func (s *Stats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.sets.Store(0)
	s.evictions.Store(0)
	s.startTime = time.Now()
}

// Snapshot is a consistent point-in-time view of the counters.
type Snapshot struct {
	Hits      int64          `json:"hits"`
	Misses    int64          `json:"misses"`
	Sets      int64          `json:"sets"`
	Evictions int64          `json:"evictions"`
	HitRate   float64        `json:"hit_rate"`
	Uptime    time.Duration  `json:"uptime"`
	Entries   map[string]int `json:"entries,omitempty"`
}

// Snapshot captures the current counter values.
func (s *Stats) Snapshot() *Snapshot {
	hits := s.hits.Load()
	misses := s.misses.Load()

	return &Snapshot{
		Hits:      hits,
		Misses:    misses,
		Sets:      s.sets.Load(),
		Evictions: s.evictions.Load(),
		HitRate:   hitRate(hits, misses),
		Uptime:    time.Since(s.startTime),
	}
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
