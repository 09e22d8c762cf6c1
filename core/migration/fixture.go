// Package migration holds a small test-fixture helper only: table creation
// is explicitly out of scope as a library feature (spec §1 Non-goals), but
// the query emitter and schema loader still need a real schema to exercise
// against in tests, so the teacher's CREATE TABLE/INDEX assembly survives
// here, trimmed to a declarative Column/Table spec instead of struct-tag
// reflection, and driven through core/driver.Backend rather than a
// pool-registry of its own.
package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/arvednova/qtables/core/driver"
)

// Column is one column of a fixture table.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
	NotNull    bool
	Unique     bool
}

// Index is one index of a fixture table.
type Index struct {
	Name    string
	Columns []string
}

// Table is a fixture table spec: just enough to stand up a schema the
// query tree and schema loader can run against.
type Table struct {
	Name    string
	Columns []Column
	Indexes []Index
}

// CreateSchema creates every table in tables against b, grounded on the
// teacher's AutoMigrator.generateCreateTableSQL/createTable assembly.
// Test-only: not part of the public API, never exposed as a migration
// feature.
func CreateSchema(ctx context.Context, b driver.Backend, tables []Table) error {
	for _, t := range tables {
		createSQL, indexSQLs := buildCreateTableSQL(t)
		if _, _, err := driver.Run(ctx, b, createSQL); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
		for _, indexSQL := range indexSQLs {
			if _, _, err := driver.Run(ctx, b, indexSQL); err != nil {
				return fmt.Errorf("create index on %s: %w", t.Name, err)
			}
		}
	}
	return nil
}

// DropSchema drops every table in tables, in reverse order, against b,
// tearing down a fixture schema.
func DropSchema(ctx context.Context, b driver.Backend, tables []Table) error {
	for i := len(tables) - 1; i >= 0; i-- {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s;", tables[i].Name)
		if _, _, err := driver.Run(ctx, b, sql); err != nil {
			return fmt.Errorf("drop table %s: %w", tables[i].Name, err)
		}
	}
	return nil
}

func buildCreateTableSQL(t Table) (string, []string) {
	var sql strings.Builder
	fmt.Fprintf(&sql, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		var def strings.Builder
		fmt.Fprintf(&def, "  %s %s", c.Name, c.Type)
		if c.PrimaryKey {
			def.WriteString(" PRIMARY KEY")
		}
		if c.NotNull {
			def.WriteString(" NOT NULL")
		}
		if c.Unique {
			def.WriteString(" UNIQUE")
		}
		defs[i] = def.String()
	}
	sql.WriteString(strings.Join(defs, ",\n"))
	sql.WriteString("\n);")

	indexSQLs := make([]string, len(t.Indexes))
	for i, idx := range t.Indexes {
		name := idx.Name
		if name == "" {
			name = fmt.Sprintf("idx_%s_%s", t.Name, strings.Join(idx.Columns, "_"))
		}
		indexSQLs[i] = fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s);", name, t.Name, strings.Join(idx.Columns, ", "))
	}
	return sql.String(), indexSQLs
}
