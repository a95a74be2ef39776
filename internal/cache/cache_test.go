package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_GetSet(t *testing.T) {
	m := NewManager(10, time.Minute)

	m.Set("key", "value")

	assert.Equal(t, "value", m.Get("key"))
	assert.Nil(t, m.Get("missing"))
}

func TestManager_TTL(t *testing.T) {
	tests := []struct {
		name        string
		ttl         time.Duration
		wait        time.Duration
		expectValue bool
	}{
		{
			name:        "live entry",
			ttl:         time.Minute,
			wait:        0,
			expectValue: true,
		},
		{
			name:        "expired entry",
			ttl:         10 * time.Millisecond,
			wait:        30 * time.Millisecond,
			expectValue: false,
		},
		{
			name:        "zero ttl expires immediately",
			ttl:         0,
			wait:        0,
			expectValue: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(10, time.Minute)
			m.SetWithTTL("key", "value", tt.ttl)

			if tt.wait > 0 {
				time.Sleep(tt.wait)
			}

			if tt.expectValue {
				assert.Equal(t, "value", m.Get("key"))
			} else {
				assert.Nil(t, m.Get("key"))
			}
		})
	}
}

func TestManager_LazyEvictionOnGet(t *testing.T) {
	m := NewManager(10, time.Minute)
	m.SetWithTTL("key", "value", 0)

	assert.Equal(t, 1, m.Size())
	assert.Nil(t, m.Get("key"))
	assert.Equal(t, 0, m.Size(), "expired entry should be evicted on read")
}

func TestManager_HasDoesNotEvict(t *testing.T) {
	m := NewManager(10, time.Minute)
	m.SetWithTTL("key", "value", 0)

	assert.False(t, m.Has("key"))
	assert.Equal(t, 1, m.Size(), "Has is a read-only probe")

	m.Set("live", 1)
	assert.True(t, m.Has("live"))
}

func TestManager_EvictionBound(t *testing.T) {
	const maxSize = 10
	m := NewManager(maxSize, time.Minute)

	for i := 0; i < maxSize*3; i++ {
		m.Set(fmt.Sprintf("key%d", i), i)
		assert.LessOrEqual(t, m.Size(), maxSize)
	}
}

func TestManager_EvictsOldestFirst(t *testing.T) {
	m := NewManager(5, time.Minute)

	for i := 0; i < 5; i++ {
		m.Set(fmt.Sprintf("key%d", i), i)
		time.Sleep(2 * time.Millisecond)
	}

	// At capacity: the next insert evicts the oldest entry
	m.Set("new", "value")

	assert.False(t, m.Has("key0"))
	assert.True(t, m.Has("key4"))
	assert.True(t, m.Has("new"))
}

func TestManager_Overwrite(t *testing.T) {
	m := NewManager(10, time.Minute)

	m.Set("key", "first")
	m.Set("key", "second")

	assert.Equal(t, "second", m.Get("key"))
	assert.Equal(t, 1, m.Size())
}

func TestManager_Delete(t *testing.T) {
	m := NewManager(10, time.Minute)
	m.Set("key", "value")

	assert.True(t, m.Delete("key"))
	assert.False(t, m.Delete("key"))
	assert.Nil(t, m.Get("key"))
}

func TestManager_Clear(t *testing.T) {
	m := NewManager(10, time.Minute)
	m.Set("a", 1)
	m.Set("b", 2)

	m.Clear()

	assert.Equal(t, 0, m.Size())
	assert.Nil(t, m.Get("a"))
	assert.Nil(t, m.Get("b"))

	// Idempotent
	m.Clear()
	assert.Equal(t, 0, m.Size())
}

func TestManager_NilAndEmptyValues(t *testing.T) {
	m := NewManager(10, time.Minute)

	// nil values and empty keys are stored without error
	m.Set("", "empty key")
	m.Set("nil", nil)

	assert.Equal(t, "empty key", m.Get(""))
	assert.Nil(t, m.Get("nil"), "a stored nil is indistinguishable from a miss")
	assert.True(t, m.Has("nil"))
}

func TestManager_CyclicValue(t *testing.T) {
	type node struct {
		Self *node
	}
	n := &node{}
	n.Self = n

	m := NewManager(10, time.Minute)
	m.Set("cycle", n)

	got, ok := m.Get("cycle").(*node)
	assert.True(t, ok)
	assert.Same(t, n, got, "entries are held by reference, never serialized")
}

func TestManager_Cleanup(t *testing.T) {
	m := NewManager(10, time.Minute)
	m.SetWithTTL("dead1", 1, 0)
	m.SetWithTTL("dead2", 2, 0)
	m.Set("live", 3)

	m.Cleanup()

	assert.Equal(t, 1, m.Size())
	assert.True(t, m.Has("live"))
}

func TestManager_GetStats(t *testing.T) {
	m := NewManager(10, time.Minute)
	m.Set("key", "value")

	m.Get("key")     // hit
	m.Get("key")     // hit
	m.Get("missing") // miss
	m.Has("key")     // probes do not count

	stats := m.GetStats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 10, stats.MaxSize)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.0001)
}

func TestManager_DefaultConstruction(t *testing.T) {
	m := NewManager(0, 0)

	stats := m.GetStats()
	assert.Equal(t, DefaultMaxSize, stats.MaxSize)

	m.Set("key", "value")
	assert.Equal(t, "value", m.Get("key"))
}

func TestUnitKeys(t *testing.T) {
	assert.Equal(t, "unit_u1", UnitKey("u1"))
	assert.Equal(t, "unit_words_u1", UnitWordsKey("u1"))
}
