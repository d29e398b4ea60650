// Package cache implements the namespaced, TTL-bounded result store shared by
// every worker in the resolution pipeline.
package cache

import (
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Well-known namespaces. Answers hold final results and live longer than the
// intermediate artifacts derived along the way.
const (
	NamespaceAnswers   = "answers"
	NamespaceArtifacts = "artifacts"
)

const (
	defaultAnswerTTL   = time.Hour
	defaultArtifactTTL = 10 * time.Minute
	defaultMaxEntries  = 4096
)

// NamespaceConfig fixes a namespace's TTL and capacity at store construction.
// Both are immutable for the life of the store.
type NamespaceConfig struct {
	Name       string        `yaml:"name"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// Config configures the store.
type Config struct {
	Namespaces []NamespaceConfig `yaml:"namespaces"`
}

// DefaultConfig returns the standard two-namespace layout.
func DefaultConfig() *Config {
	return &Config{
		Namespaces: []NamespaceConfig{
			{Name: NamespaceAnswers, TTL: defaultAnswerTTL, MaxEntries: defaultMaxEntries},
			{Name: NamespaceArtifacts, TTL: defaultArtifactTTL, MaxEntries: defaultMaxEntries},
		},
	}
}

// Store is a concurrency-safe key/value store partitioned into namespaces.
// Keys are normalized request text, so two requests differing only by case or
// incidental whitespace collide to the same entry. Expired entries are absent
// on read and reaped in the background; when a namespace is full the least
// recently used entry is evicted rather than failing the write.
type Store struct {
	mu         sync.RWMutex
	namespaces map[string]*namespace
	stats      *Stats
}

type namespace struct {
	entries *expirable.LRU[string, any]
	ttl     time.Duration
}

// New creates a Store with the given namespace layout.
func New(config *Config) *Store {
	if config == nil || len(config.Namespaces) == 0 {
		config = DefaultConfig()
	}

	s := &Store{
		namespaces: make(map[string]*namespace, len(config.Namespaces)),
		stats:      NewStats(),
	}

	for _, nc := range config.Namespaces {
		s.namespaces[nc.Name] = s.buildNamespace(nc)
	}

	return s
}

func (s *Store) buildNamespace(nc NamespaceConfig) *namespace {
	size := nc.MaxEntries
	if size <= 0 {
		size = defaultMaxEntries
	}

	onEvict := func(string, any) {
		s.stats.RecordEviction()
	}

	return &namespace{
		entries: expirable.NewLRU[string, any](size, onEvict, nc.TTL),
		ttl:     nc.TTL,
	}
}

// Get returns the value stored under key in the namespace. An expired entry,
// an unknown key, or an unknown namespace all count as a miss.
func (s *Store) Get(ns, key string) (any, bool) {
	n := s.lookup(ns)
	if n == nil {
		s.stats.RecordMiss()
		return nil, false
	}

	value, found := n.entries.Get(key)
	if !found {
		s.stats.RecordMiss()
		return nil, false
	}

	s.stats.RecordHit()
	return value, true
}

// Set stores value under key with the namespace's configured TTL. A set on an
// unknown namespace is dropped silently; the store never errors on write.
func (s *Store) Set(ns, key string, value any) {
	n := s.lookup(ns)
	if n == nil {
		return
	}

	n.entries.Add(key, value)
	s.stats.RecordSet()
}

// Remove deletes the entry stored under the literal key, with no pattern
// interpretation. Keys are request text and may contain glob metacharacters,
// so exact removal must not go through Invalidate. Returns true when an
// entry was removed.
func (s *Store) Remove(ns, key string) bool {
	n := s.lookup(ns)
	if n == nil {
		return false
	}
	return n.entries.Remove(key)
}

// Invalidate removes every entry in the namespace whose key matches the glob
// pattern and returns the number removed. An invalid pattern or unknown
// namespace removes nothing.
func (s *Store) Invalidate(ns, pattern string) int {
	n := s.lookup(ns)
	if n == nil {
		return 0
	}

	matcher, err := glob.Compile(pattern)
	if err != nil {
		return 0
	}

	removed := 0
	for _, key := range n.entries.Keys() {
		if matcher.Match(key) {
			if n.entries.Remove(key) {
				removed++
			}
		}
	}
	return removed
}

// Clear removes every entry in every namespace and resets the counters.
func (s *Store) Clear() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.namespaces {
		n.entries.Purge()
	}
	s.stats.Reset()
}

// EntryCount returns the number of entries currently held in the namespace.
func (s *Store) EntryCount(ns string) int {
	n := s.lookup(ns)
	if n == nil {
		return 0
	}
	return n.entries.Len()
}

// TTL returns the configured TTL for the namespace, or zero if unknown.
func (s *Store) TTL(ns string) time.Duration {
	n := s.lookup(ns)
	if n == nil {
		return 0
	}
	return n.ttl
}

// Namespaces returns the configured namespace names.
func (s *Store) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.namespaces))
	for name := range s.namespaces {
		names = append(names, name)
	}
	return names
}

// Stats returns a point-in-time snapshot of hit/miss accounting plus the
// per-namespace entry counts.
func (s *Store) Stats() *Snapshot {
	snap := s.stats.Snapshot()

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap.Entries = make(map[string]int, len(s.namespaces))
	for name, n := range s.namespaces {
		snap.Entries[name] = n.entries.Len()
	}
	return snap
}

func (s *Store) lookup(ns string) *namespace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.namespaces[ns]
}
