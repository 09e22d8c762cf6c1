package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arvednova/qtables/core/errs"
	"github.com/arvednova/qtables/core/schema"
)

// MemoryCache is the in-process cache: a bounded LRU with optional TTL or
// eternal retention, guarded by a single mutex covering both the entry
// store and the reverse index (spec §4.4, §5) — multiple readers, one
// exclusive writer, and the lock is never held across a suspension point.
// Grounded on the teacher's MemoryCacher (sync.Map + lazy expiry), promoted
// here to a true bounded LRU via hashicorp/golang-lru/v2.
type MemoryCache struct {
	mu       sync.RWMutex
	lru      *lru.Cache[string, *memEntry]
	reverse  map[string]map[string]struct{}
	ttl      time.Duration
	eternal  bool
	disabled bool

	haveSchema bool
	schema     schema.Struct
}

type memEntry struct {
	rows      []Row
	mapFields []string
	tables    []string
	expiresAt time.Time
}

// NewMemoryCache builds an in-process cache. Per spec §4.4, ttl<=0 with
// eternal=false is the disabled-cache mode: reads always report absent,
// writes are dropped, delete/clear remain no-op successes, and direct
// access (EntryHandle) reports cache-disabled.
func NewMemoryCache(maxsize int, ttl time.Duration, eternal bool) (*MemoryCache, error) {
	if maxsize <= 0 {
		maxsize = 1
	}
	m := &MemoryCache{
		reverse: make(map[string]map[string]struct{}),
		ttl:     ttl,
		eternal: eternal,
	}
	m.disabled = ttl <= 0 && !eternal

	l, err := lru.NewWithEvict(maxsize, func(key string, e *memEntry) {
		m.unindexLocked(key, e)
	})
	if err != nil {
		return nil, err
	}
	m.lru = l
	return m, nil
}

func (m *MemoryCache) Enabled() bool { return !m.disabled }

func (m *MemoryCache) Get(ctx context.Context, sql string) ([]Row, []string, bool, error) {
	if m.disabled {
		return nil, nil, false, nil
	}
	m.mu.RLock()
	e, ok := m.lru.Peek(sql)
	m.mu.RUnlock()
	if !ok {
		return nil, nil, false, nil
	}
	if !m.eternal && time.Now().After(e.expiresAt) {
		m.mu.Lock()
		m.removeLocked(sql)
		m.mu.Unlock()
		return nil, nil, false, nil
	}
	// Touch recency outside the entry-map lock; golang-lru guards itself.
	m.lru.Get(sql)
	return e.rows, e.mapFields, true, nil
}

func (m *MemoryCache) Set(ctx context.Context, sql string, rows []Row, mapFields []string, tables []string) error {
	if m.disabled {
		return nil
	}
	var expires time.Time
	if !m.eternal {
		expires = time.Now().Add(m.ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.lru.Peek(sql); ok {
		m.unindexLocked(sql, old)
	}
	m.lru.Add(sql, &memEntry{rows: rows, mapFields: mapFields, tables: tables, expiresAt: expires})
	for _, t := range tables {
		if m.reverse[t] == nil {
			m.reverse[t] = make(map[string]struct{})
		}
		m.reverse[t][sql] = struct{}{}
	}
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, sql string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(sql)
	return nil
}

func (m *MemoryCache) DeleteByTable(ctx context.Context, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.reverse[table]
	sqlKeys := make([]string, 0, len(keys))
	for sql := range keys {
		sqlKeys = append(sqlKeys, sql)
	}
	for _, sql := range sqlKeys {
		m.removeLocked(sql)
	}
	delete(m.reverse, table)
	return nil
}

func (m *MemoryCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Purge()
	m.reverse = make(map[string]map[string]struct{})
	return nil
}

func (m *MemoryCache) GetSchemaStruct(ctx context.Context) (schema.Struct, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.haveSchema {
		return nil, false, nil
	}
	return m.schema, true, nil
}

func (m *MemoryCache) SetSchemaStruct(ctx context.Context, s schema.Struct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schema = s
	m.haveSchema = true
	return nil
}

func (m *MemoryCache) Mutate(ctx context.Context, sql string, fn func(rows []Row, mapFields []string) ([]Row, error)) error {
	if m.disabled {
		return errs.CacheDisabledErr()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lru.Peek(sql)
	if !ok {
		return fmt.Errorf("no cache entry for key")
	}
	newRows, err := fn(e.rows, e.mapFields)
	if err != nil {
		return err
	}
	e.rows = newRows
	return nil
}

// removeLocked removes sql from both the LRU and the reverse index. Must
// be called with mu held for writing.
func (m *MemoryCache) removeLocked(sql string) {
	if e, ok := m.lru.Peek(sql); ok {
		m.unindexLocked(sql, e)
	}
	m.lru.Remove(sql)
}

// unindexLocked drops sql's back-references from the reverse index. Called
// both from explicit removal and from the LRU's eviction callback — the
// latter fires while m.mu may already be held by the Set/removeLocked call
// that triggered the eviction, so this must not itself lock.
func (m *MemoryCache) unindexLocked(sql string, e *memEntry) {
	for _, t := range e.tables {
		delete(m.reverse[t], sql)
		if len(m.reverse[t]) == 0 {
			delete(m.reverse, t)
		}
	}
}
