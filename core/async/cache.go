package async

import (
	"context"

	"github.com/arvednova/qtables/core/cache"
	"github.com/arvednova/qtables/core/driver"
	"github.com/arvednova/qtables/core/table"
)

// EntryHandle is the cooperative wrapper around a *cache.EntryHandle, the
// direct-cache-access operation object (spec §4.4.1).
type EntryHandle struct {
	h *cache.EntryHandle
}

// NewEntryHandle wraps h for cooperative-style calls.
func NewEntryHandle(h *cache.EntryHandle) *EntryHandle {
	return &EntryHandle{h: h}
}

// Get mirrors EntryHandle.Get.
func (a *EntryHandle) Get(ctx context.Context) ([]cache.Row, error) {
	return await(ctx, func() ([]cache.Row, error) {
		return a.h.Get(ctx)
	})
}

// Filter mirrors EntryHandle.Filter.
func (a *EntryHandle) Filter(ctx context.Context, predicate cache.Row) ([]cache.Row, error) {
	return await(ctx, func() ([]cache.Row, error) {
		return a.h.Filter(ctx, predicate)
	})
}

// Update mirrors EntryHandle.Update.
func (a *EntryHandle) Update(ctx context.Context, predicate, assigns cache.Row) (int, error) {
	return await(ctx, func() (int, error) {
		return a.h.Update(ctx, predicate, assigns)
	})
}

// Delete mirrors EntryHandle.Delete.
func (a *EntryHandle) Delete(ctx context.Context, predicate cache.Row) error {
	return awaitErr(ctx, func() error {
		return a.h.Delete(ctx, predicate)
	})
}

// Insert mirrors EntryHandle.Insert.
func (a *EntryHandle) Insert(ctx context.Context, row cache.Row) error {
	return awaitErr(ctx, func() error {
		return a.h.Insert(ctx, row)
	})
}

// MutateAt mirrors EntryHandle.MutateAt.
func (a *EntryHandle) MutateAt(ctx context.Context, i int, fn func(cache.Row)) error {
	return awaitErr(ctx, func() error {
		return a.h.MutateAt(ctx, i, fn)
	})
}

// Registry is the cooperative wrapper around a *table.Registry's ad-hoc
// query path.
type Registry struct {
	r *table.Registry
}

// NewRegistry wraps r for cooperative-style calls.
func NewRegistry(r *table.Registry) *Registry {
	return &Registry{r: r}
}

// Query mirrors Registry.Query.
func (a *Registry) Query(ctx context.Context, sql string, opts table.QueryOptions) ([]driver.Row, error) {
	return await(ctx, func() ([]driver.Row, error) {
		return a.r.Query(ctx, sql, opts)
	})
}
