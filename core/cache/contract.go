// Package cache implements the cache contract shared by both backing
// stores: per-query entry get/set/delete, per-table reverse-index
// maintenance, global clear, a distinguished schema-struct slot, and the
// in-cache row operations (filter/update/insert/delete) over a live entry.
package cache

import (
	"context"

	"github.com/arvednova/qtables/core/schema"
)

// Row is a mapping from qualified key ("<alias>.<column>") to scalar
// value — the unit the cache stores and the façade hands back to callers.
type Row map[string]interface{}

// Cache is the abstract contract both the in-process and out-of-process
// implementations satisfy, and the only shared mutable state in the whole
// system (spec §5).
type Cache interface {
	// Enabled reports whether the cache is active. A disabled cache (TTL=0,
	// not eternal) makes Get always report absent and Set a no-op, while
	// Delete/DeleteByTable/Clear remain no-ops that succeed.
	Enabled() bool

	Get(ctx context.Context, sql string) (rows []Row, mapFields []string, found bool, err error)
	Set(ctx context.Context, sql string, rows []Row, mapFields []string, tables []string) error
	Delete(ctx context.Context, sql string) error
	DeleteByTable(ctx context.Context, table string) error
	Clear(ctx context.Context) error

	GetSchemaStruct(ctx context.Context) (schema.Struct, bool, error)
	SetSchemaStruct(ctx context.Context, s schema.Struct) error

	// Mutate applies fn to the live row list stored under sql, atomically
	// with respect to every other cache operation, and persists whatever
	// fn returns. It is the only way row-level mutation (filter/update/
	// insert/delete via EntryHandle) reaches the backing store, so those
	// mutations never bypass the cache's own lock. Mutate itself reports
	// cache-disabled when the cache is disabled — direct cache access is
	// rejected outright rather than silently ignored.
	Mutate(ctx context.Context, sql string, fn func(rows []Row, mapFields []string) ([]Row, error)) error
}
