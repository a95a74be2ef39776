// Package cache provides the in-memory TTL cache shared by the data
// services. Entries are held by reference and never serialized, so any
// value (including cyclic structures) is safe to store.
package cache

import (
	"sort"
	"sync"
	"time"
)

const (
	// DefaultMaxSize is the entry limit used when none is given
	DefaultMaxSize = 100
	// DefaultTTL is the entry lifetime used when Set gets no TTL
	DefaultTTL = 5 * time.Minute
)

// Well-known keys shared with the service layer
const (
	KeyUnits      = "units"
	KeyStatistics = "statistics"
)

// UnitKey returns the cache key for a single unit
func UnitKey(unitID string) string {
	return "unit_" + unitID
}

// UnitWordsKey returns the cache key for a unit's word list
func UnitWordsKey(unitID string) string {
	return "unit_words_" + unitID
}

type entry struct {
	value     any
	timestamp time.Time
	ttl       time.Duration
}

func (e *entry) expired(now time.Time) bool {
	// ttl == 0 means immediate expiry
	return e.ttl <= 0 || now.Sub(e.timestamp) > e.ttl
}

// Stats reports cache occupancy and the observed hit rate
type Stats struct {
	Size    int
	MaxSize int
	HitRate float64
}

// Manager is a size-bounded TTL cache. Methods are synchronous and
// never block on I/O; a mutex guards the map for concurrent callers.
type Manager struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxSize    int
	defaultTTL time.Duration
	hits       uint64
	misses     uint64
}

// NewManager creates a cache. Non-positive maxSize or ttl fall back
// to the package defaults.
func NewManager(maxSize int, defaultTTL time.Duration) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Manager{
		entries:    make(map[string]*entry),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value, or nil on miss. An expired entry
// encountered here is evicted immediately.
func (m *Manager) Get(key string) any {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil
	}
	if e.expired(time.Now()) {
		delete(m.entries, key)
		m.misses++
		return nil
	}
	m.hits++
	return e.value
}

// Set stores a value under key, overwriting any existing entry. When
// the cache is at capacity the oldest 20% of entries (by insertion
// time) are evicted first.
func (m *Manager) Set(key string, value any) {
	m.SetWithTTL(key, value, m.defaultTTL)
}

// SetWithTTL stores a value with an explicit lifetime. A zero TTL
// produces an entry that is already expired.
func (m *Manager) SetWithTTL(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.maxSize {
		m.evictOldest()
	}
	m.entries[key] = &entry{
		value:     value,
		timestamp: time.Now(),
		ttl:       ttl,
	}
}

// Has reports whether a live entry exists for key. It is a read-only
// probe: it neither evicts nor counts toward the hit rate.
func (m *Manager) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	return ok && !e.expired(time.Now())
}

// Delete removes the entry for key and reports whether one existed
func (m *Manager) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.entries[key]
	delete(m.entries, key)
	return ok
}

// Clear empties the cache unconditionally
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*entry)
}

// Size returns the number of entries currently held, including
// expired ones that have not been lazily evicted yet
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// GetStats returns occupancy and the hit rate observed via Get
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rate float64
	if total := m.hits + m.misses; total > 0 {
		rate = float64(m.hits) / float64(total)
	}
	return Stats{
		Size:    len(m.entries),
		MaxSize: m.maxSize,
		HitRate: rate,
	}
}

// Cleanup eagerly evicts every expired entry. It is invoked
// opportunistically by callers, never on a timer.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}

// evictOldest removes the oldest fifth of the entries (at least one).
// Caller must hold the lock.
func (m *Manager) evictOldest() {
	type aged struct {
		key       string
		timestamp time.Time
	}
	all := make([]aged, 0, len(m.entries))
	for key, e := range m.entries {
		all = append(all, aged{key: key, timestamp: e.timestamp})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].timestamp.Before(all[j].timestamp)
	})

	count := m.maxSize / 5
	if count < 1 {
		count = 1
	}
	if count > len(all) {
		count = len(all)
	}
	for _, a := range all[:count] {
		delete(m.entries, a.key)
	}
}
