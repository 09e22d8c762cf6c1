// Package driver adapts the two backend dialects (a network-server
// relational store and an embedded-file one) behind one opaque capability
// set: scoped cursor acquisition, execute, fetchall, and a dialect tag.
// Connection pooling and wire protocol details live entirely inside the
// concrete backends; qtables never speaks SQL transport itself.
package driver

import (
	"context"

	"github.com/arvednova/qtables/core/query"
)

// Row is one fetched row, column values in statement order.
type Row []interface{}

// Cursor is a scoped, single-use handle for one execute/fetchall cycle.
type Cursor interface {
	Execute(ctx context.Context, sql string) error
	FetchAll(ctx context.Context) ([]Row, error)
	// RowsAffected reports the affected-row count for the statement last
	// run through Execute; meaningful for UPDATE/INSERT/DELETE. For SELECT
	// the value depends on the backend: the Postgres cursor reports the
	// returned row count, the SQLite cursor reports 0.
	RowsAffected() int64
}

// Backend is the opaque handle the rest of qtables programs against.
// Enter/Exit is the scoped acquire/release pair used for every statement;
// Connect/Close is the unscoped pair used once at startup/shutdown.
type Backend interface {
	Enter(ctx context.Context) (Cursor, error)
	Exit(ctx context.Context, cur Cursor) error
	Connect(ctx context.Context) error
	Close() error
	GetType() query.Dialect
}

// Run is the common scoped-acquisition shape every façade call uses: enter,
// execute, fetchall, exit — release happens on every exit path.
func Run(ctx context.Context, b Backend, sql string) ([]Row, int64, error) {
	cur, err := b.Enter(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer b.Exit(ctx, cur)

	if err := cur.Execute(ctx, sql); err != nil {
		return nil, 0, err
	}
	rows, err := cur.FetchAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, cur.RowsAffected(), nil
}
