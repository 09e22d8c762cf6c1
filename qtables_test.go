package qtables

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvednova/qtables/core/cache"
	"github.com/arvednova/qtables/core/driver"
	"github.com/arvednova/qtables/core/query"
	"github.com/arvednova/qtables/core/table"
)

type fakeBackend struct {
	rowsFn func(sql string) []driver.Row
}

type fakeCursor struct {
	b   *fakeBackend
	sql string
}

func (c *fakeCursor) Execute(ctx context.Context, sql string) error { c.sql = sql; return nil }
func (c *fakeCursor) FetchAll(ctx context.Context) ([]driver.Row, error) {
	return c.b.rowsFn(c.sql), nil
}
func (c *fakeCursor) RowsAffected() int64 { return 0 }

func (b *fakeBackend) Enter(ctx context.Context) (driver.Cursor, error) {
	return &fakeCursor{b: b}, nil
}
func (b *fakeBackend) Exit(ctx context.Context, cur driver.Cursor) error { return nil }
func (b *fakeBackend) Connect(ctx context.Context) error                 { return nil }
func (b *fakeBackend) Close() error                                     { return nil }
func (b *fakeBackend) GetType() query.Dialect                           { return query.DialectNetworkServer }

func TestOpen_DiscoversSchemaAndBuildsRegistry(t *testing.T) {
	backend := &fakeBackend{rowsFn: func(sql string) []driver.Row {
		return []driver.Row{{"person", "id"}, {"person", "name"}}
	}}

	db, err := Open(context.Background(), backend, Config{
		TableSchema:  "public",
		CacheTTL:     time.Minute,
		CacheMaxsize: 10,
	})
	require.NoError(t, err)

	person, err := db.Table("person")
	require.NoError(t, err)
	assert.NotNil(t, person)

	_, err = db.Table("ghost")
	require.Error(t, err)
	assert.True(t, IsKind(err, NotTable))
}

func TestOpen_UsesSuppliedCacheVerbatim(t *testing.T) {
	backend := &fakeBackend{rowsFn: func(sql string) []driver.Row {
		return []driver.Row{{"person", "id"}}
	}}
	mc, err := cache.NewMemoryCache(5, time.Minute, false)
	require.NoError(t, err)

	db, err := Open(context.Background(), backend, Config{Cache: mc})
	require.NoError(t, err)
	assert.Same(t, mc, db.cache)
	require.NoError(t, db.ClearCache(context.Background()))
}

func TestNewQuery_BuildsUsableQuery(t *testing.T) {
	q := NewQuery("person", []string{"id", "name"}).Filter(query.Eq("id", 1))
	sql, err := q.Get(query.DialectNetworkServer)
	require.NoError(t, err)
	assert.Contains(t, sql, "person.id = 1")
}

func TestDB_AdHocQueryPassesThroughRegistry(t *testing.T) {
	backend := &fakeBackend{rowsFn: func(sql string) []driver.Row {
		return []driver.Row{{int64(3)}}
	}}
	db, err := Open(context.Background(), backend, Config{})
	require.NoError(t, err)

	rows, err := db.Query(context.Background(), "SELECT COUNT(*) FROM person", table.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rows[0][0])
}
