package cache

import (
	"context"
	"fmt"

	"github.com/arvednova/qtables/core/errs"
)

// EntryHandle is the "direct cache access" operation object the façade
// hands out for a given SQL key: it carries the key, not a detached copy
// of the rows, so every operation — including MutateAt, addressing a row
// by index — goes through the cache's own lock (design note §9).
type EntryHandle struct {
	c   Cache
	sql string
}

func NewEntryHandle(c Cache, sql string) *EntryHandle {
	return &EntryHandle{c: c, sql: sql}
}

func (h *EntryHandle) Get(ctx context.Context) ([]Row, error) {
	if !h.c.Enabled() {
		return nil, errs.CacheDisabledErr()
	}
	rows, _, found, err := h.c.Get(ctx, h.sql)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return rows, nil
}

func (h *EntryHandle) Filter(ctx context.Context, predicate Row) ([]Row, error) {
	rows, err := h.Get(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(rows, predicate), nil
}

func (h *EntryHandle) Update(ctx context.Context, predicate, assigns Row) (int, error) {
	var n int
	err := h.c.Mutate(ctx, h.sql, func(rows []Row, mapFields []string) ([]Row, error) {
		n = UpdateMatching(rows, predicate, assigns)
		return rows, nil
	})
	return n, err
}

func (h *EntryHandle) Delete(ctx context.Context, predicate Row) error {
	return h.c.Mutate(ctx, h.sql, func(rows []Row, mapFields []string) ([]Row, error) {
		return DeleteMatching(rows, predicate), nil
	})
}

func (h *EntryHandle) Insert(ctx context.Context, row Row) error {
	return h.c.Mutate(ctx, h.sql, func(rows []Row, mapFields []string) ([]Row, error) {
		return InsertRow(rows, mapFields, row)
	})
}

// MutateAt mutates the row at index i in place, the index-addressed
// "same live handle" update the original cache's row references allowed.
func (h *EntryHandle) MutateAt(ctx context.Context, i int, fn func(Row)) error {
	return h.c.Mutate(ctx, h.sql, func(rows []Row, mapFields []string) ([]Row, error) {
		if i < 0 || i >= len(rows) {
			return rows, fmt.Errorf("row index %d out of range (have %d rows)", i, len(rows))
		}
		fn(rows[i])
		return rows, nil
	})
}

// DeleteEntry removes the whole entry this handle addresses.
func (h *EntryHandle) DeleteEntry(ctx context.Context) error {
	return h.c.Delete(ctx, h.sql)
}
