// Package schema discovers the {table -> [column, ...]} structure that
// anchors field naming and cache-field validation, with remote-cache
// acceleration (skip a fresh load when a cache-backed schema struct is
// already present, and write back after a fresh load).
package schema

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/arvednova/qtables/core/driver"
	"github.com/arvednova/qtables/core/errs"
	"github.com/arvednova/qtables/core/query"
)

// Struct is the immutable {table -> [column, ...]} map, the anchor for
// field validation on cache inserts and for "<table>.<column>" key
// construction.
type Struct map[string][]string

// Options selects which tables to load, in descending precedence: a name
// prefix, then an explicit table list (ignored when a prefix is set), then
// (if both are empty) every table in the given logical schema.
type Options struct {
	PrefixTable  string
	Tables       []string
	TableSchema  string
}

// cacheStructStore is the subset of the cache contract the loader needs
// for its remote-cache acceleration; satisfied by core/cache's
// out-of-process cache.
type cacheStructStore interface {
	GetSchemaStruct(ctx context.Context) (Struct, bool, error)
	SetSchemaStruct(ctx context.Context, s Struct) error
}

// Load discovers the schema struct for b, consulting cacheStore first when
// non-nil (the out-of-process cache's schema slot) and writing back to it
// after a fresh load.
func Load(ctx context.Context, b driver.Backend, opts Options, cacheStore cacheStructStore) (Struct, error) {
	if cacheStore != nil {
		if s, ok, err := cacheStore.GetSchemaStruct(ctx); err == nil && ok {
			return s, nil
		}
	}

	var s Struct
	var err error
	switch b.GetType() {
	case query.DialectNetworkServer:
		s, err = loadNetworkServer(ctx, b, opts)
	case query.DialectEmbeddedFile:
		s, err = loadEmbeddedFile(ctx, b, opts)
	default:
		err = fmt.Errorf("unknown backend dialect")
	}
	if err != nil {
		return nil, errs.SchemaLoadErr(err)
	}

	if cacheStore != nil {
		// Best-effort: a failed write-back degrades to "load fresh every
		// boot", not a hard failure of schema discovery itself.
		_ = cacheStore.SetSchemaStruct(ctx, s)
	}
	return s, nil
}

// infoSchemaQuery builds the information_schema.tables/columns join,
// grounded on the original query_tables.tables._pg_query_struct.
func infoSchemaQuery(opts Options) string {
	var q strings.Builder
	q.WriteString(`select it.table_name, ic.column_name
from information_schema.tables it
join information_schema.columns ic on it.table_name = ic.table_name
                                   and it.table_schema = ic.table_schema
where 1=1`)
	if opts.TableSchema != "" {
		fmt.Fprintf(&q, " and it.table_schema = '%s'", escape(opts.TableSchema))
	}
	switch {
	case opts.PrefixTable != "":
		fmt.Fprintf(&q, " and it.table_name like '%s%%'", escape(opts.PrefixTable))
	case len(opts.Tables) > 0:
		quoted := make([]string, len(opts.Tables))
		for i, t := range opts.Tables {
			quoted[i] = "'" + escape(t) + "'"
		}
		fmt.Fprintf(&q, " and it.table_name in (%s)", strings.Join(quoted, ", "))
	}
	return q.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func loadNetworkServer(ctx context.Context, b driver.Backend, opts Options) (Struct, error) {
	rows, _, err := driver.Run(ctx, b, infoSchemaQuery(opts))
	if err != nil {
		return nil, err
	}
	s := make(Struct)
	for _, row := range rows {
		table, ok1 := row[0].(string)
		col, ok2 := row[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("unexpected information_schema row shape: %v", row)
		}
		s[table] = append(s[table], col)
	}
	return s, nil
}

// loadEmbeddedFile enumerates sqlite_master then walks PRAGMA table_info
// per table, grounded on the original
// query_tables.tables._fill_tables_sqlite_struct, keeping only the tables
// opts selects (TableSchema does not apply to this dialect). This path is
// allowed to fail — any error surfaces wrapped as schema-load.
func loadEmbeddedFile(ctx context.Context, b driver.Backend, opts Options) (Struct, error) {
	s := make(Struct)

	tableRows, _, err := driver.Run(ctx, b, "select name from sqlite_master where type='table';")
	if err != nil {
		return nil, err
	}
	for _, row := range tableRows {
		name, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("unexpected sqlite_master row shape: %v", row)
		}
		switch {
		case opts.PrefixTable != "":
			if !strings.HasPrefix(name, opts.PrefixTable) {
				continue
			}
		case len(opts.Tables) > 0:
			if !slices.Contains(opts.Tables, name) {
				continue
			}
		}
		s[name] = nil
	}

	for table := range s {
		colRows, _, err := driver.Run(ctx, b, fmt.Sprintf("PRAGMA table_info(%s);", table))
		if err != nil {
			return nil, err
		}
		for _, row := range colRows {
			// PRAGMA table_info columns: cid, name, type, notnull, dflt_value, pk
			name, ok := row[1].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected table_info row shape: %v", row)
			}
			s[table] = append(s[table], name)
		}
	}
	return s, nil
}
