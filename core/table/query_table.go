// Package table implements the QueryTable façade and the Tables registry:
// the layer that joins a named table's schema-known fields to a backend
// and an optional cache, and either serves reads from the cache or
// executes against the backend and populates it, invalidating on writes.
package table

import (
	"context"
	"fmt"

	"github.com/arvednova/qtables/core/cache"
	"github.com/arvednova/qtables/core/driver"
	"github.com/arvednova/qtables/core/qlog"
	"github.com/arvednova/qtables/core/query"
)

// QueryTable combines a table's schema-known fields with a backend and an
// optional cache. Instances are cheap to recreate and hold only transient
// references to their collaborators (design note §9): the registry is the
// sole owner of the schema struct, cache, and backend handle.
type QueryTable struct {
	name    string
	fields  []string
	backend driver.Backend
	cache   cache.Cache // nil means "no cache configured"
	dialect query.Dialect
}

// newQueryTable builds the façade for name. A table the schema loader
// reported with zero columns cannot answer any query (every SELECT/
// UPDATE/INSERT/DELETE this type emits needs at least one field) and is
// refused here rather than surfacing as a confusing empty-SQL failure
// later.
func newQueryTable(name string, fields []string, b driver.Backend, c cache.Cache) (*QueryTable, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %q has no known columns", name)
	}
	return &QueryTable{name: name, fields: fields, backend: b, cache: c, dialect: b.GetType()}, nil
}

// Query starts a fresh builder rooted at this table.
func (t *QueryTable) Query() *query.Query {
	return query.New(t.name, t.fields)
}

// ReadOptions controls a single Get/Count call's cache behavior.
type ReadOptions struct {
	// BypassCache skips the cache entirely for this call (neither consults
	// nor populates it), without disabling the cache for other callers.
	BypassCache bool
}

// Get emits q as a SELECT, consults the cache unless disabled or bypassed,
// and on miss executes against the backend, tags the rows, and populates
// the cache with the contributing-table set. A cache hit with zero rows is
// treated as absent (the "invalidated to empty" signal) and triggers a
// re-fetch; DeleteByTable itself removes bound entries outright.
func (t *QueryTable) Get(ctx context.Context, q *query.Query, opts ReadOptions) ([]cache.Row, []string, error) {
	sql, err := q.Get(t.dialect)
	if err != nil {
		return nil, nil, err
	}
	mapFields := q.MapFields()
	useCache := t.cache != nil && t.cache.Enabled() && !opts.BypassCache

	if useCache {
		rows, cachedFields, found, err := t.cache.Get(ctx, sql)
		if err != nil {
			return nil, nil, err
		}
		if found && len(rows) > 0 {
			qlog.For(t.name, sql).Cache("hit")
			return rows, cachedFields, nil
		}
	}

	qlog.For(t.name, sql).Debug("exec")
	driverRows, _, err := driver.Run(ctx, t.backend, sql)
	if err != nil {
		return nil, nil, err
	}
	rows := rowsToCacheRows(mapFields, driverRows)

	if useCache {
		if err := t.cache.Set(ctx, sql, rows, mapFields, q.ContributingTables()); err != nil {
			return nil, nil, err
		}
		qlog.For(t.name, sql).Cache("populated rows=%d", len(rows))
	}
	return rows, mapFields, nil
}

// Count emits q as SELECT COUNT(*) and executes it directly; counts are
// not cached.
func (t *QueryTable) Count(ctx context.Context, q *query.Query) (int64, error) {
	sql, err := q.Count(t.dialect)
	if err != nil {
		return 0, err
	}
	rows, _, err := driver.Run(ctx, t.backend, sql)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, fmt.Errorf("count query returned no value")
	}
	return toInt64(rows[0][0])
}

// Update emits q as UPDATE, executes it, then invalidates every cache
// entry bound to this table.
func (t *QueryTable) Update(ctx context.Context, q *query.Query, assigns []query.Assignment) (int64, error) {
	sql, err := q.Update(t.dialect, assigns)
	if err != nil {
		return 0, err
	}
	return t.execAndInvalidate(ctx, sql)
}

// Insert emits q as INSERT, executes it, then invalidates every cache
// entry bound to this table.
func (t *QueryTable) Insert(ctx context.Context, q *query.Query, rows []query.Row) (int64, error) {
	sql, err := q.Insert(t.dialect, rows)
	if err != nil {
		return 0, err
	}
	return t.execAndInvalidate(ctx, sql)
}

// Delete emits q as DELETE, executes it, then invalidates every cache
// entry bound to this table.
func (t *QueryTable) Delete(ctx context.Context, q *query.Query) (int64, error) {
	sql, err := q.Delete(t.dialect)
	if err != nil {
		return 0, err
	}
	return t.execAndInvalidate(ctx, sql)
}

func (t *QueryTable) execAndInvalidate(ctx context.Context, sql string) (int64, error) {
	op := qlog.For(t.name, sql)
	op.Debug("exec")
	_, affected, err := driver.Run(ctx, t.backend, sql)
	if err != nil {
		return 0, err
	}
	if t.cache != nil {
		if err := t.cache.DeleteByTable(ctx, t.name); err != nil {
			return affected, err
		}
		op.Cache("invalidated")
	}
	return affected, nil
}

// CacheHandle emits q and returns a handle onto its cache entry for direct
// filter/update/insert/delete access (spec §4.4.1 via the façade).
func (t *QueryTable) CacheHandle(q *query.Query) (*cache.EntryHandle, error) {
	if t.cache == nil {
		return nil, fmt.Errorf("no cache configured for table %q", t.name)
	}
	sql, err := q.Get(t.dialect)
	if err != nil {
		return nil, err
	}
	return cache.NewEntryHandle(t.cache, sql), nil
}

// DeleteCacheQuery removes just the cache entry for the emitted SQL of q.
func (t *QueryTable) DeleteCacheQuery(ctx context.Context, q *query.Query) error {
	if t.cache == nil {
		return nil
	}
	sql, err := q.Get(t.dialect)
	if err != nil {
		return err
	}
	return t.cache.Delete(ctx, sql)
}

// DeleteCacheTable fans out through the reverse index, removing every
// cache entry bound to this table.
func (t *QueryTable) DeleteCacheTable(ctx context.Context) error {
	if t.cache == nil {
		return nil
	}
	return t.cache.DeleteByTable(ctx, t.name)
}

func rowsToCacheRows(mapFields []string, rows []driver.Row) []cache.Row {
	out := make([]cache.Row, len(rows))
	for i, r := range rows {
		cr := make(cache.Row, len(mapFields))
		for j, key := range mapFields {
			if j < len(r) {
				cr[key] = r[j]
			}
		}
		out[i] = cr
	}
	return out
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected count value type %T", v)
	}
}
