//go:build integration

// End-to-end tests against a real embedded-file backend: these exercise
// the full stack (migration fixture -> schema loader -> query tree ->
// QueryTable façade -> cache) the way the unit tests' fakes can only
// approximate. Run with `go test -tags=integration ./...`.
package qtables

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvednova/qtables/core/migration"
	"github.com/arvednova/qtables/core/query"
	"github.com/arvednova/qtables/core/table"
)

func fixtureTables() []migration.Table {
	return []migration.Table{
		{
			Name: "person",
			Columns: []migration.Column{
				{Name: "id", Type: "INTEGER", PrimaryKey: true},
				{Name: "name", Type: "TEXT", NotNull: true},
				{Name: "age", Type: "INTEGER"},
			},
		},
		{
			Name: "address",
			Columns: []migration.Column{
				{Name: "id", Type: "INTEGER", PrimaryKey: true},
				{Name: "street", Type: "TEXT"},
				{Name: "city", Type: "TEXT"},
			},
		},
	}
}

func openFixtureDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	path := t.TempDir() + "/qtables_test.db"

	backend, err := ConnectSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	tables := fixtureTables()
	require.NoError(t, migration.CreateSchema(ctx, backend, tables))

	db, err := Open(ctx, backend, Config{CacheTTL: time.Minute, CacheMaxsize: 100})
	require.NoError(t, err)
	return db
}

func TestIntegration_SingleTableFilterRoundTrip(t *testing.T) {
	db := openFixtureDB(t)
	ctx := context.Background()

	person, err := db.Table("person")
	require.NoError(t, err)

	affected, err := person.Insert(ctx, person.Query(), []query.Row{
		{{Column: "id", Value: 1}, {Column: "name", Value: "Anton"}, {Column: "age", Value: 30}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	rows, mapFields, err := person.Get(ctx, person.Query().Filter(query.Eq("id", 1)), table.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"person.id", "person.name", "person.age"}, mapFields)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Anton", rows[0]["person.name"])
}

func TestIntegration_InvalidationClosureAcrossJoinedTables(t *testing.T) {
	db := openFixtureDB(t)
	ctx := context.Background()

	person, err := db.Table("person")
	require.NoError(t, err)
	address, err := db.Table("address")
	require.NoError(t, err)

	affected, err := address.Insert(ctx, address.Query(), []query.Row{
		{{Column: "id", Value: 1}, {Column: "street", Value: "Main St"}, {Column: "city", Value: "Springfield"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	affected, err = person.Insert(ctx, person.Query(), []query.Row{
		{{Column: "id", Value: 1}, {Column: "name", Value: "Anton"}, {Column: "age", Value: 30}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	q := person.Query().Filter(query.Eq("id", 1)).Join(query.Join{
		Kind: query.Inner, Child: address.Query(), LeftKey: "id", RightKey: "id",
	})
	rows, _, err := person.Get(ctx, q, table.ReadOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Springfield", rows[0]["address.city"])

	affected, err = address.Update(ctx, address.Query().Filter(query.Eq("id", 1)),
		[]query.Assignment{{Column: "city", Value: "Shelbyville"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	rows, _, err = person.Get(ctx, q, table.ReadOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Shelbyville", rows[0]["address.city"], "update through address must invalidate the joined entry")
}

func TestIntegration_DeletePathInvalidatesCache(t *testing.T) {
	db := openFixtureDB(t)
	ctx := context.Background()

	person, err := db.Table("person")
	require.NoError(t, err)

	affected, err := person.Insert(ctx, person.Query(), []query.Row{
		{{Column: "id", Value: 1}, {Column: "name", Value: "Anton"}, {Column: "age", Value: 30}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	q := person.Query().Filter(query.Eq("id", 1))
	rows, _, err := person.Get(ctx, q, table.ReadOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1, "must be cached before the delete")

	affected, err = person.Delete(ctx, person.Query().Filter(query.Eq("id", 1)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected, "sqliteCursor's ExecContext path must report the real affected-row count")

	rows, _, err = person.Get(ctx, q, table.ReadOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 0, "delete must invalidate the cached entry, forcing a re-read against the now-empty table")
}

func TestIntegration_AdHocQueryAgainstRealBackend(t *testing.T) {
	db := openFixtureDB(t)
	ctx := context.Background()

	rows, err := db.Query(ctx, "SELECT COUNT(*) FROM person", table.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(0), rows[0][0])
}
