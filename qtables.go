// Package qtables is a fluent query builder over a tree of joinable
// tables, backed by a dependency-indexed cache. The public surface mirrors
// the teacher's norm.go: package-level entry points that construct and hand
// back the builder/registry types from the core packages.
package qtables

import (
	"context"
	"time"

	"github.com/arvednova/qtables/core/cache"
	"github.com/arvednova/qtables/core/driver"
	"github.com/arvednova/qtables/core/errs"
	"github.com/arvednova/qtables/core/query"
	"github.com/arvednova/qtables/core/schema"
	"github.com/arvednova/qtables/core/table"
)

// Config is the single configuration surface for Open (spec §6). It
// supersedes the teacher's chained ConnBuilder/TableBuilder calls with one
// struct, resolving the "duplicate config path" open question by admitting
// no second variant.
type Config struct {
	// PrefixTable, Tables, TableSchema select which tables the schema
	// loader discovers, in that precedence order.
	PrefixTable string
	Tables      []string
	TableSchema string

	// CacheTTL is the per-entry retention window. Zero with NonExpired
	// false disables caching outright.
	CacheTTL time.Duration
	// NonExpired overrides CacheTTL, retaining entries until LRU eviction
	// or explicit removal.
	NonExpired bool
	// CacheMaxsize bounds the in-process cache's LRU capacity. Ignored
	// when Cache is supplied.
	CacheMaxsize int

	// Cache, when non-nil, is used as-is instead of constructing an
	// in-process cache from CacheTTL/NonExpired/CacheMaxsize.
	Cache cache.Cache
}

// DB is the opened handle this package hands back from Open: a schema-aware
// registry bound to one backend and one cache.
type DB struct {
	Registry *table.Registry
	backend  driver.Backend
	cache    cache.Cache
}

// Open discovers the schema for backend b under cfg and returns a bound
// registry. The backend must already be Connect()-ed.
func Open(ctx context.Context, b driver.Backend, cfg Config) (*DB, error) {
	c := cfg.Cache
	if c == nil {
		maxsize := cfg.CacheMaxsize
		if maxsize <= 0 {
			maxsize = 1000
		}
		mc, err := cache.NewMemoryCache(maxsize, cfg.CacheTTL, cfg.NonExpired)
		if err != nil {
			return nil, err
		}
		c = mc
	}

	var cacheStore interface {
		GetSchemaStruct(context.Context) (schema.Struct, bool, error)
		SetSchemaStruct(context.Context, schema.Struct) error
	}
	if rc, ok := c.(*cache.RedisCache); ok {
		cacheStore = rc
	}

	s, err := schema.Load(ctx, b, schema.Options{
		PrefixTable: cfg.PrefixTable,
		Tables:      cfg.Tables,
		TableSchema: cfg.TableSchema,
	}, cacheStore)
	if err != nil {
		return nil, err
	}

	return &DB{
		Registry: table.NewRegistry(s, b, c),
		backend:  b,
		cache:    c,
	}, nil
}

// ConnectPostgres opens a network-server backend via pgxpool (teacher's
// exact pool configuration).
func ConnectPostgres(ctx context.Context, dsn string) (driver.Backend, error) {
	return driver.ConnectPostgres(ctx, dsn)
}

// ConnectSQLite opens an embedded-file backend over database/sql with the
// teacher's WAL pragmas.
func ConnectSQLite(ctx context.Context, path string) (driver.Backend, error) {
	return driver.ConnectSQLite(ctx, path)
}

// RedisCacheConfig mirrors the connection-parameter record of spec §6.
type RedisCacheConfig = driver.RedisConfig

// NewRedisCache connects to Redis and wraps the client as a Cache, for use
// as Config.Cache.
func NewRedisCache(ctx context.Context, rc RedisCacheConfig, ttl time.Duration, eternal bool) (cache.Cache, error) {
	client, err := driver.ConnectRedis(ctx, rc)
	if err != nil {
		return nil, err
	}
	return cache.NewRedisCache(client, ttl, eternal), nil
}

// Table returns the QueryTable for name (error errs.NotTable if unknown).
func (db *DB) Table(name string) (*table.QueryTable, error) {
	return db.Registry.Table(name)
}

// Query is the ad-hoc SQL path (spec §4.7): registry.Query with explicit
// per-call cache opt-in.
func (db *DB) Query(ctx context.Context, sql string, opts table.QueryOptions) ([]driver.Row, error) {
	return db.Registry.Query(ctx, sql, opts)
}

// ClearCache drops every cache entry across every table.
func (db *DB) ClearCache(ctx context.Context) error {
	return db.Registry.ClearCache(ctx)
}

// Close releases the backend connection.
func (db *DB) Close() error {
	return db.backend.Close()
}

// Re-exported constructors so callers building queries need only import
// this package for the common path; the full core/query surface (Predicate
// constructors, Join, etc.) is still available for advanced use.

// NewQuery starts a Query rooted at table, with fields as its schema-known
// column list.
func NewQuery(table string, fields []string) *query.Query {
	return query.New(table, fields)
}

// IsKind reports whether err is (or wraps) a qtables taxonomy error of the
// given kind (spec §7).
func IsKind(err error, kind errs.Kind) bool {
	return errs.IsKind(err, kind)
}

// Error kinds, re-exported for callers that don't want to import core/errs
// directly.
const (
	NotTable        = errs.NotTable
	QueryTableErr   = errs.QueryTable
	SchemaLoad      = errs.SchemaLoad
	ValueConversion = errs.ValueConversion
	JoinExecute     = errs.JoinExecute
	FieldMismatch   = errs.FieldMismatch
	CacheDisabled   = errs.CacheDisabled
)
