package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvednova/qtables/core/errs"
)

func TestMemoryCache_RoundTrip(t *testing.T) {
	c, err := NewMemoryCache(10, time.Minute, false)
	require.NoError(t, err)
	ctx := context.Background()

	rows := []Row{{"person.id": 1}}
	require.NoError(t, c.Set(ctx, "q1", rows, []string{"person.id"}, []string{"person"}))

	got, fields, found, err := c.Get(ctx, "q1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, rows, got)
	assert.Equal(t, []string{"person.id"}, fields)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c, err := NewMemoryCache(10, 10*time.Millisecond, false)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "q1", []Row{{"a": 1}}, nil, []string{"t"}))
	time.Sleep(30 * time.Millisecond)

	_, _, found, err := c.Get(ctx, "q1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_EternalBypassesTTL(t *testing.T) {
	c, err := NewMemoryCache(10, time.Nanosecond, true)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "q1", []Row{{"a": 1}}, nil, []string{"t"}))
	time.Sleep(10 * time.Millisecond)

	_, _, found, err := c.Get(ctx, "q1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryCache_LRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewMemoryCache(2, time.Minute, false)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "q1", []Row{{"a": 1}}, nil, []string{"t1"}))
	require.NoError(t, c.Set(ctx, "q2", []Row{{"a": 2}}, nil, []string{"t2"}))
	// touch q1 so q2 becomes the least recently used entry.
	_, _, _, _ = c.Get(ctx, "q1")
	require.NoError(t, c.Set(ctx, "q3", []Row{{"a": 3}}, nil, []string{"t3"}))

	_, _, found1, _ := c.Get(ctx, "q1")
	_, _, found2, _ := c.Get(ctx, "q2")
	_, _, found3, _ := c.Get(ctx, "q3")
	assert.True(t, found1)
	assert.False(t, found2)
	assert.True(t, found3)
}

func TestMemoryCache_LRUEvictionDropsReverseIndex(t *testing.T) {
	c, err := NewMemoryCache(1, time.Minute, false)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "q1", []Row{{"a": 1}}, nil, []string{"person"}))
	require.NoError(t, c.Set(ctx, "q2", []Row{{"a": 2}}, nil, []string{"address"}))

	// q1 was evicted by the LRU; deleting by its table must be a no-op,
	// not an error, and must not disturb q2's entry.
	require.NoError(t, c.DeleteByTable(ctx, "person"))
	_, _, found, _ := c.Get(ctx, "q2")
	assert.True(t, found)
}

func TestMemoryCache_InvalidationClosure(t *testing.T) {
	c, err := NewMemoryCache(10, time.Minute, false)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "joined", []Row{{"a": 1}}, nil, []string{"person", "address"}))
	require.NoError(t, c.Set(ctx, "solo", []Row{{"a": 2}}, nil, []string{"employees"}))

	require.NoError(t, c.DeleteByTable(ctx, "address"))

	_, _, found1, _ := c.Get(ctx, "joined")
	_, _, found2, _ := c.Get(ctx, "solo")
	assert.False(t, found1, "entry bound to the invalidated table must be gone")
	assert.True(t, found2, "entry bound only to an untouched table must survive")
}

func TestMemoryCache_DisabledLaw(t *testing.T) {
	c, err := NewMemoryCache(10, 0, false)
	require.NoError(t, err)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	require.NoError(t, c.Set(ctx, "q1", []Row{{"a": 1}}, nil, []string{"t"}))
	_, _, found, err := c.Get(ctx, "q1")
	require.NoError(t, err)
	assert.False(t, found)

	// delete/clear remain no-op successes even while disabled.
	assert.NoError(t, c.Delete(ctx, "q1"))
	assert.NoError(t, c.Clear(ctx))
}

func TestMemoryCache_MutateOnDisabledCacheReportsCacheDisabled(t *testing.T) {
	c, err := NewMemoryCache(10, 0, false)
	require.NoError(t, err)
	ctx := context.Background()

	err = c.Mutate(ctx, "q1", func(rows []Row, mapFields []string) ([]Row, error) { return rows, nil })
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.CacheDisabled))
}

func TestMemoryCache_SchemaStructSlot(t *testing.T) {
	c, err := NewMemoryCache(10, time.Minute, false)
	require.NoError(t, err)
	ctx := context.Background()

	_, found, err := c.GetSchemaStruct(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetSchemaStruct(ctx, map[string][]string{"person": {"id", "name"}}))
	got, found, err := c.GetSchemaStruct(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"id", "name"}, got["person"])
}

// Ordering guarantee (spec §5): if writer W returns before reader R
// begins, R observes W's effect. Fifty goroutines each write the same
// shared key then immediately read it back, proving no goroutine's read
// ever runs ahead of its own completed Set.
func TestMemoryCache_ConcurrentSetThenGetIsRaceFree(t *testing.T) {
	c, err := NewMemoryCache(10, time.Minute, false)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "q"
			_ = c.Set(ctx, key, []Row{{"n": i}}, nil, []string{"t"})
			_, _, found, _ := c.Get(ctx, key)
			assert.True(t, found)
		}(i)
	}
	wg.Wait()
}

// Ordering guarantee (spec §4.4, §5): the in-process cache's single
// RWMutex covers both the entry map and the reverse index, so a reader
// blocked inside Get/Filter must complete before a concurrent exclusive
// writer (DeleteByTable) can proceed and mutate either structure.
// Grounded on the reader/writer race fixture in
// original_source/tests/test_cache_query.py.
func TestMemoryCache_DeleteByTableWaitsForInFlightReader(t *testing.T) {
	c, err := NewMemoryCache(10, time.Minute, false)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "q1", []Row{{"a": 1}}, nil, []string{"person"}))

	// Hold the same shared RLock Get/Filter acquire for their critical
	// section, simulating an in-flight reader.
	c.mu.RLock()

	done := make(chan struct{})
	go func() {
		assert.NoError(t, c.DeleteByTable(ctx, "person"))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("DeleteByTable proceeded while a reader still held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	c.mu.RUnlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("DeleteByTable did not proceed after the reader released the lock")
	}

	_, _, found, _ := c.Get(ctx, "q1")
	assert.False(t, found, "DeleteByTable must have invalidated the entry once it proceeded")
}

func TestMemoryCache_MutateRoundTripsThroughEntryHandle(t *testing.T) {
	c, err := NewMemoryCache(10, time.Minute, false)
	require.NoError(t, err)
	ctx := context.Background()

	mapFields := []string{"person.id", "person.name"}
	require.NoError(t, c.Set(ctx, "q1", []Row{{"person.id": 1, "person.name": "Anton"}}, mapFields, []string{"person"}))

	h := NewEntryHandle(c, "q1")
	n, err := h.Update(ctx, Row{"person.id": 1}, Row{"person.name": "Anton Jr"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := h.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Anton Jr", rows[0]["person.name"])

	require.NoError(t, h.Insert(ctx, Row{"person.id": 2, "person.name": "Igor"}))
	rows, err = h.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	err = h.Insert(ctx, Row{"person.id": 3})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.FieldMismatch))
}
