package driver

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/arvednova/qtables/core/query"
)

// SQLiteBackend is the embedded-file dialect, grounded on the
// hazyhaar-GoClode example's pure-Go modernc.org/sqlite + WAL-pragma
// sql.Open idiom — the one embedded-SQL example in the pack.
type SQLiteBackend struct {
	db *sql.DB
}

// ConnectSQLite opens dbPath with WAL journaling, normal sync, and foreign
// keys on, the same pragma set hazyhaar-GoClode's db.go opens with.
func ConnectSQLite(ctx context.Context, dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Enter(ctx context.Context) (Cursor, error) {
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqliteCursor{conn: conn}, nil
}

func (b *SQLiteBackend) Exit(ctx context.Context, cur Cursor) error {
	if c, ok := cur.(*sqliteCursor); ok {
		if c.rows != nil {
			c.rows.Close()
		}
		return c.conn.Close()
	}
	return nil
}

func (b *SQLiteBackend) Connect(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *SQLiteBackend) Close() error { return b.db.Close() }

func (b *SQLiteBackend) GetType() query.Dialect { return query.DialectEmbeddedFile }

type sqliteCursor struct {
	conn         *sql.Conn
	rows         *sql.Rows
	rowsAffected int64
	// execOnly marks that the last statement ran through ExecContext (no
	// row set to fetch), so FetchAll must not try to read c.rows.
	execOnly bool
}

// rowReturning reports whether statement produces a result set and must
// run through QueryContext rather than ExecContext. UPDATE/INSERT/DELETE
// fall through to the Exec path so their sql.Result carries a real
// affected-row count.
func rowReturning(statement string) bool {
	trimmed := strings.TrimLeft(statement, " \t\r\n")
	end := strings.IndexFunc(trimmed, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '(' })
	word := trimmed
	if end >= 0 {
		word = trimmed[:end]
	}
	switch strings.ToUpper(word) {
	case "SELECT", "PRAGMA", "WITH", "EXPLAIN":
		return true
	default:
		return false
	}
}

func (c *sqliteCursor) Execute(ctx context.Context, statement string) error {
	if rowReturning(statement) {
		rows, err := c.conn.QueryContext(ctx, statement)
		if err != nil {
			return err
		}
		c.rows = rows
		c.execOnly = false
		return nil
	}

	result, err := c.conn.ExecContext(ctx, statement)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	c.rowsAffected = affected
	c.execOnly = true
	return nil
}

func (c *sqliteCursor) FetchAll(ctx context.Context) ([]Row, error) {
	if c.execOnly {
		return nil, nil
	}
	defer c.rows.Close()

	cols, err := c.rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for c.rows.Next() {
		scanTargets := make([]interface{}, len(cols))
		values := make([]interface{}, len(cols))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := c.rows.Scan(scanTargets...); err != nil {
			return nil, err
		}
		out = append(out, Row(values))
	}
	return out, c.rows.Err()
}

// RowsAffected reports the sql.Result count from the last ExecContext
// statement; 0 for SELECT/PRAGMA/WITH/EXPLAIN statements, which never set
// it.
func (c *sqliteCursor) RowsAffected() int64 { return c.rowsAffected }
