// Package query implements the query value tree and SQL emitter: a
// fluent, immutable-per-operation builder that turns a tree of tables and
// joins into one SQL statement, plus the ordered qualified-field list a
// caller should expect back from a SELECT.
package query

// Dialect distinguishes the two backend SQL dialects this package knows how
// to render literals for (boolean literals differ between them).
type Dialect int

const (
	DialectNetworkServer Dialect = iota
	DialectEmbeddedFile
)

// Order describes a single ORDER BY clause on the root node.
type Order struct {
	Column    string
	Direction string // "asc" or "desc"
}

// JoinKind is the kind of SQL join a Join descriptor emits.
type JoinKind string

const (
	Inner JoinKind = "inner"
	Left  JoinKind = "left"
)

// Join links a parent Query to a child Query. LeftKey is the column on the
// child side of the join; RightKey is the column on the parent (or an
// ancestor reached through the parent) side. Alias, if set, overrides the
// child's default alias (its table name) — needed when the same table
// appears more than once in a tree.
type Join struct {
	Kind     JoinKind
	Child    *Query
	LeftKey  string
	RightKey string
	Alias    string
}

func (j Join) effectiveAlias() string {
	if j.Alias != "" {
		return j.Alias
	}
	return j.Child.alias
}

// Query is one node of the query tree: a table, its known fields, an
// optional projection, filters, at most one ordering and limit (root only),
// and an ordered list of child joins. Every builder method returns a new
// Query rather than mutating the receiver, so a Query can be shared and
// reused safely, and map_fields can be computed from any point in a chain.
type Query struct {
	table      string
	alias      string
	fields     []string
	projection []string
	filters    []Predicate
	orderBy    *Order
	limitN     *int
	joins      []Join
}

// New starts a Query over table, with fields as the schema-known column
// list for that table. The alias defaults to the table name.
func New(table string, fields []string) *Query {
	return &Query{
		table:  table,
		alias:  table,
		fields: append([]string(nil), fields...),
	}
}

func (q *Query) clone() *Query {
	nq := *q
	nq.fields = append([]string(nil), q.fields...)
	if q.projection != nil {
		nq.projection = append([]string(nil), q.projection...)
	}
	nq.filters = append([]Predicate(nil), q.filters...)
	nq.joins = append([]Join(nil), q.joins...)
	return &nq
}

// WithAlias overrides the node's own alias (otherwise the table name).
func (q *Query) WithAlias(alias string) *Query {
	nq := q.clone()
	nq.alias = alias
	return nq
}

// Filter appends AND-conjoined predicates to the node, preserving
// declaration order relative to any predicates already present.
func (q *Query) Filter(preds ...Predicate) *Query {
	nq := q.clone()
	nq.filters = append(nq.filters, preds...)
	return nq
}

// Select replaces the projection with an explicit ordered column subset.
// An empty or nil call clears the projection back to the full field list.
func (q *Query) Select(columns ...string) *Query {
	nq := q.clone()
	if len(columns) == 0 {
		nq.projection = nil
		return nq
	}
	nq.projection = append([]string(nil), columns...)
	return nq
}

// OrderBy sets the (single) root ordering. direction must be "asc" or
// "desc"; invalid directions are rejected at emission time.
func (q *Query) OrderBy(column, direction string) *Query {
	nq := q.clone()
	nq.orderBy = &Order{Column: column, Direction: direction}
	return nq
}

// Limit sets the row limit. Values <= 0 are rejected at emission time.
func (q *Query) Limit(n int) *Query {
	nq := q.clone()
	nq.limitN = &n
	return nq
}

// Join appends a child join descriptor, preserving declaration order.
func (q *Query) Join(j Join) *Query {
	nq := q.clone()
	nq.joins = append(nq.joins, j)
	return nq
}

// Table returns the node's table name.
func (q *Query) Table() string { return q.table }

// Alias returns the node's effective alias.
func (q *Query) Alias() string { return q.alias }

// projectedColumns returns the node's own projection, or its full field
// list when no projection was set.
func (q *Query) projectedColumns() []string {
	if q.projection != nil {
		return q.projection
	}
	return q.fields
}

// ContributingTables returns every table name appearing anywhere in the
// tree (root and all joined descendants), depth-first in declaration
// order. Used by the façade to populate the cache's reverse index.
func (q *Query) ContributingTables() []string {
	var tables []string
	var walk func(n *Query)
	walk = func(n *Query) {
		tables = append(tables, n.table)
		for _, j := range n.joins {
			walk(j.Child)
		}
	}
	walk(q)
	return tables
}
