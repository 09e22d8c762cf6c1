package driver

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arvednova/qtables/core/query"
)

// PostgresBackend is the network-server dialect, grounded on the teacher's
// connection.go pool sizing/health-check/ping-on-connect convention.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// ConnectPostgres dials dsn and verifies connectivity before returning.
func ConnectPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 20
	cfg.MinConns = 5
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 2 * time.Hour
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Enter(ctx context.Context) (Cursor, error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxCursor{conn: conn}, nil
}

func (b *PostgresBackend) Exit(ctx context.Context, cur Cursor) error {
	if c, ok := cur.(*pgxCursor); ok {
		if c.rows != nil {
			c.rows.Close()
		}
		c.conn.Release()
	}
	return nil
}

func (b *PostgresBackend) Connect(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

func (b *PostgresBackend) GetType() query.Dialect { return query.DialectNetworkServer }

type pgxCursor struct {
	conn         *pgxpool.Conn
	rows         pgx.Rows
	rowsAffected int64
}

func (c *pgxCursor) Execute(ctx context.Context, sql string) error {
	rows, err := c.conn.Query(ctx, sql)
	if err != nil {
		return err
	}
	c.rows = rows
	return nil
}

func (c *pgxCursor) FetchAll(ctx context.Context) ([]Row, error) {
	defer func() {
		c.rows.Close()
		c.rowsAffected = c.rows.CommandTag().RowsAffected()
	}()

	var out []Row
	for c.rows.Next() {
		vals, err := c.rows.Values()
		if err != nil {
			return nil, err
		}
		out = append(out, Row(vals))
	}
	return out, c.rows.Err()
}

func (c *pgxCursor) RowsAffected() int64 { return c.rowsAffected }
