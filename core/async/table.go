package async

import (
	"context"

	"github.com/arvednova/qtables/core/cache"
	"github.com/arvednova/qtables/core/query"
	"github.com/arvednova/qtables/core/table"
)

// Table is the cooperative wrapper around a *table.QueryTable.
type Table struct {
	t *table.QueryTable
}

// NewTable wraps t for cooperative-style calls.
func NewTable(t *table.QueryTable) *Table {
	return &Table{t: t}
}

type getResult struct {
	rows      []cache.Row
	mapFields []string
}

// Get mirrors QueryTable.Get, suspending on ctx.Done() around the backend
// fetch and cache consult/populate that QueryTable.Get performs internally.
func (a *Table) Get(ctx context.Context, q *query.Query, opts table.ReadOptions) ([]cache.Row, []string, error) {
	r, err := await(ctx, func() (getResult, error) {
		rows, fields, err := a.t.Get(ctx, q, opts)
		return getResult{rows, fields}, err
	})
	return r.rows, r.mapFields, err
}

// Count mirrors QueryTable.Count.
func (a *Table) Count(ctx context.Context, q *query.Query) (int64, error) {
	return await(ctx, func() (int64, error) {
		return a.t.Count(ctx, q)
	})
}

// Update mirrors QueryTable.Update.
func (a *Table) Update(ctx context.Context, q *query.Query, assigns []query.Assignment) (int64, error) {
	return await(ctx, func() (int64, error) {
		return a.t.Update(ctx, q, assigns)
	})
}

// Insert mirrors QueryTable.Insert.
func (a *Table) Insert(ctx context.Context, q *query.Query, rows []query.Row) (int64, error) {
	return await(ctx, func() (int64, error) {
		return a.t.Insert(ctx, q, rows)
	})
}

// Delete mirrors QueryTable.Delete.
func (a *Table) Delete(ctx context.Context, q *query.Query) (int64, error) {
	return await(ctx, func() (int64, error) {
		return a.t.Delete(ctx, q)
	})
}

// DeleteCacheTable mirrors QueryTable.DeleteCacheTable.
func (a *Table) DeleteCacheTable(ctx context.Context) error {
	return awaitErr(ctx, func() error {
		return a.t.DeleteCacheTable(ctx)
	})
}
