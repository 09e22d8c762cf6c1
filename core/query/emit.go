package query

import (
	"fmt"
	"strings"

	"github.com/arvednova/qtables/core/errs"
)

// Assignment is an ordered column/value pair, used for UPDATE's SET list
// and for each row passed to Insert. Go maps don't preserve iteration
// order, and emission must be deterministic, so assignments are carried as
// an explicit ordered slice rather than a map.
type Assignment struct {
	Column string
	Value  interface{}
}

// Row is one row to insert, in column declaration order.
type Row []Assignment

func (r Row) columns() []string {
	cols := make([]string, len(r))
	for i, a := range r {
		cols[i] = a.Column
	}
	return cols
}

type emitCtx struct {
	dialect Dialect
	columns []string
	join    strings.Builder
	where   []string
}

func (q *Query) walkEmit(ctx *emitCtx) error {
	for _, col := range q.projectedColumns() {
		ctx.columns = append(ctx.columns, q.alias+"."+col)
	}
	for _, p := range q.filters {
		qualified := q.alias + "." + p.Column
		rendered, err := renderPredicate(ctx.dialect, qualified, p)
		if err != nil {
			return err
		}
		ctx.where = append(ctx.where, rendered)
	}
	for _, j := range q.joins {
		childAlias := j.effectiveAlias()
		kind := "INNER"
		if j.Kind == Left {
			kind = "LEFT"
		}
		ctx.join.WriteByte(' ')
		ctx.join.WriteString(kind)
		ctx.join.WriteString(" JOIN ")
		ctx.join.WriteString(j.Child.table)
		if childAlias != j.Child.table {
			ctx.join.WriteString(" AS ")
			ctx.join.WriteString(childAlias)
		}
		fmt.Fprintf(&ctx.join, " ON %s.%s = %s.%s", childAlias, j.LeftKey, q.alias, j.RightKey)
		child := j.Child
		if child.alias != childAlias {
			child = child.WithAlias(childAlias)
		}
		if err := child.walkEmit(ctx); err != nil {
			return err
		}
	}
	return nil
}

func fromClause(q *Query) string {
	if q.alias != q.table {
		return fmt.Sprintf("FROM %s AS %s", q.table, q.alias)
	}
	return fmt.Sprintf("FROM %s", q.table)
}

// MapFields returns the ordered qualified-key list a SELECT against this
// tree will produce: the root's projection (or fields) first, then every
// joined child depth-first in declaration order.
func (q *Query) MapFields() []string {
	ctx := &emitCtx{}
	_ = q.walkEmit(ctx)
	return ctx.columns
}

// Get emits the SELECT statement for this query tree.
func (q *Query) Get(d Dialect) (string, error) {
	if err := validateTree(q); err != nil {
		return "", err
	}
	ctx := &emitCtx{dialect: d}
	if err := q.walkEmit(ctx); err != nil {
		return "", err
	}
	var sql strings.Builder
	sql.WriteString("SELECT ")
	sql.WriteString(strings.Join(ctx.columns, ", "))
	sql.WriteByte(' ')
	sql.WriteString(fromClause(q))
	sql.WriteString(ctx.join.String())
	if len(ctx.where) > 0 {
		sql.WriteString(" WHERE ")
		sql.WriteString(strings.Join(ctx.where, " AND "))
	}
	if q.orderBy != nil {
		fmt.Fprintf(&sql, " ORDER BY %s.%s %s", q.alias, q.orderBy.Column, strings.ToUpper(q.orderBy.Direction))
	}
	if q.limitN != nil {
		if *q.limitN <= 0 {
			return "", fmt.Errorf("limit must be positive, got %d", *q.limitN)
		}
		fmt.Fprintf(&sql, " LIMIT %d", *q.limitN)
	}
	return sql.String(), nil
}

// Count emits a SELECT COUNT(*) statement over the same FROM/JOIN/WHERE as
// Get, ignoring projection, ordering and limit.
func (q *Query) Count(d Dialect) (string, error) {
	if err := validateTree(q); err != nil {
		return "", err
	}
	ctx := &emitCtx{dialect: d}
	if err := q.walkEmit(ctx); err != nil {
		return "", err
	}
	var sql strings.Builder
	sql.WriteString("SELECT COUNT(*) ")
	sql.WriteString(fromClause(q))
	sql.WriteString(ctx.join.String())
	if len(ctx.where) > 0 {
		sql.WriteString(" WHERE ")
		sql.WriteString(strings.Join(ctx.where, " AND "))
	}
	return sql.String(), nil
}

// Update emits the UPDATE statement for this node. Joins are rejected —
// UPDATE must target a single table.
func (q *Query) Update(d Dialect, assigns []Assignment) (string, error) {
	if q.hasJoins() {
		return "", errs.JoinExecuteErr("update")
	}
	if len(assigns) == 0 {
		return "", fmt.Errorf("update requires at least one assignment")
	}
	if err := validateColumns(q); err != nil {
		return "", err
	}
	sets := make([]string, len(assigns))
	for i, a := range assigns {
		lit, err := renderLiteral(d, a.Value)
		if err != nil {
			return "", err
		}
		sets[i] = fmt.Sprintf("%s = %s", a.Column, lit)
	}
	var sql strings.Builder
	fmt.Fprintf(&sql, "UPDATE %s SET %s", q.table, strings.Join(sets, ", "))
	where, err := q.renderOwnWhere(d)
	if err != nil {
		return "", err
	}
	if where != "" {
		sql.WriteString(" WHERE ")
		sql.WriteString(where)
	}
	return sql.String(), nil
}

// Delete emits the DELETE statement for this node. Joins are rejected.
func (q *Query) Delete(d Dialect) (string, error) {
	if q.hasJoins() {
		return "", errs.JoinExecuteErr("delete")
	}
	var sql strings.Builder
	fmt.Fprintf(&sql, "DELETE FROM %s", q.table)
	where, err := q.renderOwnWhere(d)
	if err != nil {
		return "", err
	}
	if where != "" {
		sql.WriteString(" WHERE ")
		sql.WriteString(where)
	}
	return sql.String(), nil
}

// Insert emits a single INSERT statement over rows, taking the column list
// from the first row and one VALUES tuple per row (every row must carry
// exactly the same columns, in the same order).
func (q *Query) Insert(d Dialect, rows []Row) (string, error) {
	if q.hasJoins() {
		return "", errs.JoinExecuteErr("insert")
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("insert requires at least one row")
	}
	columns := rows[0].columns()
	var sql strings.Builder
	fmt.Fprintf(&sql, "INSERT INTO %s (%s) VALUES ", q.table, strings.Join(columns, ", "))
	tuples := make([]string, len(rows))
	for i, row := range rows {
		if !sameColumns(columns, row.columns()) {
			return "", fmt.Errorf("insert row %d has columns %v, want %v", i, row.columns(), columns)
		}
		literals := make([]string, len(row))
		for j, a := range row {
			lit, err := renderLiteral(d, a.Value)
			if err != nil {
				return "", err
			}
			literals[j] = lit
		}
		tuples[i] = "(" + strings.Join(literals, ", ") + ")"
	}
	sql.WriteString(strings.Join(tuples, ", "))
	return sql.String(), nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (q *Query) renderOwnWhere(d Dialect) (string, error) {
	clauses := make([]string, 0, len(q.filters))
	for _, p := range q.filters {
		rendered, err := renderPredicate(d, p.Column, p)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, rendered)
	}
	return strings.Join(clauses, " AND "), nil
}
