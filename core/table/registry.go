package table

import (
	"context"
	"fmt"

	"github.com/arvednova/qtables/core/cache"
	"github.com/arvednova/qtables/core/driver"
	"github.com/arvednova/qtables/core/errs"
	"github.com/arvednova/qtables/core/schema"
)

// Registry is the `registry[table]` surface: it owns the schema struct, the
// backend, and the optional cache, and lazily hands out a QueryTable per
// name, caching the QueryTable itself so repeated lookups are cheap.
// Grounded on the original query_tables.tables.Tables.__getitem__/query.
type Registry struct {
	schema  schema.Struct
	backend driver.Backend
	cache   cache.Cache
	tables  map[string]*QueryTable
}

func NewRegistry(s schema.Struct, b driver.Backend, c cache.Cache) *Registry {
	return &Registry{
		schema:  s,
		backend: b,
		cache:   c,
		tables:  make(map[string]*QueryTable, len(s)),
	}
}

// Table returns the QueryTable for name, constructing and caching it on
// first access. Unknown tables report errs.NotTable.
func (r *Registry) Table(name string) (*QueryTable, error) {
	if qt, ok := r.tables[name]; ok {
		return qt, nil
	}
	fields, ok := r.schema[name]
	if !ok {
		return nil, errs.NotTableErr(name)
	}
	qt, err := newQueryTable(name, fields, r.backend, r.cache)
	if err != nil {
		return nil, errs.QueryTableErr(name, err)
	}
	r.tables[name] = qt
	return qt, nil
}

// Tables lists every known table name.
func (r *Registry) Tables() []string {
	names := make([]string, 0, len(r.schema))
	for t := range r.schema {
		names = append(names, t)
	}
	return names
}

// ClearCache drops the entire cache, every table's entries included.
func (r *Registry) ClearCache(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Clear(ctx)
}

// QueryOptions controls the ad-hoc Query path's cache opt-in. Unlike
// QueryTable reads, an ad-hoc statement's contributing tables cannot be
// inferred from raw SQL text, so entries it populates are bound to no
// table and are invalidated only by an exact-key Delete or a global Clear.
type QueryOptions struct {
	// Cache opts this call into the cache: consult before executing,
	// populate after a miss.
	Cache bool
	// DeleteCache removes any existing entry for sql before (re-)running
	// it, forcing a fresh execution regardless of Cache.
	DeleteCache bool
}

// Query runs an arbitrary, already-built SQL statement directly against the
// backend, with explicit per-call cache opt-in (a supplemental surface: the
// schema-indexed QueryTable API covers generated SELECT/UPDATE/INSERT/
// DELETE, but callers sometimes need to run hand-written SQL the registry
// has no schema knowledge of).
func (r *Registry) Query(ctx context.Context, sql string, opts QueryOptions) ([]driver.Row, error) {
	if opts.DeleteCache && r.cache != nil {
		if err := r.cache.Delete(ctx, sql); err != nil {
			return nil, err
		}
	}

	if opts.Cache && r.cache != nil && r.cache.Enabled() {
		rows, _, found, err := r.cache.Get(ctx, sql)
		if err != nil {
			return nil, err
		}
		if found && len(rows) > 0 {
			return adHocRowsToDriver(rows), nil
		}
	}

	rows, _, err := driver.Run(ctx, r.backend, sql)
	if err != nil {
		return nil, err
	}

	if opts.Cache && r.cache != nil && r.cache.Enabled() {
		if err := r.cache.Set(ctx, sql, driverRowsToAdHoc(rows), nil, nil); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// driverRowsToAdHoc and adHocRowsToDriver store/recover raw positional rows
// through the qualified-key Row contract using synthetic "_<index>" keys,
// since ad-hoc SQL carries no qualified-key schema of its own.
func driverRowsToAdHoc(rows []driver.Row) []cache.Row {
	out := make([]cache.Row, len(rows))
	for i, r := range rows {
		cr := make(cache.Row, len(r))
		for j, v := range r {
			cr[fmt.Sprintf("_%d", j)] = v
		}
		out[i] = cr
	}
	return out
}

func adHocRowsToDriver(rows []cache.Row) []driver.Row {
	out := make([]driver.Row, len(rows))
	for i, r := range rows {
		dr := make(driver.Row, len(r))
		for j := range dr {
			dr[j] = r[fmt.Sprintf("_%d", j)]
		}
		out[i] = dr
	}
	return out
}
