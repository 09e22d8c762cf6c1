package cache

import "github.com/arvednova/qtables/core/errs"

// Filter returns the subset of rows whose qualified keys all match
// predicate. Linear scan, as the spec accepts at the sizes this cache
// targets (no secondary index over cached rows).
func Filter(rows []Row, predicate Row) []Row {
	var out []Row
	for _, r := range rows {
		if matches(r, predicate) {
			out = append(out, r)
		}
	}
	return out
}

// UpdateMatching mutates matching rows in place and reports how many
// matched.
func UpdateMatching(rows []Row, predicate, assigns Row) int {
	n := 0
	for i := range rows {
		if matches(rows[i], predicate) {
			for k, v := range assigns {
				rows[i][k] = v
			}
			n++
		}
	}
	return n
}

// DeleteMatching returns rows with every row matching predicate removed.
func DeleteMatching(rows []Row, predicate Row) []Row {
	out := rows[:0]
	for _, r := range rows {
		if !matches(r, predicate) {
			out = append(out, r)
		}
	}
	return out
}

// InsertRow appends row to rows, provided row carries exactly the declared
// qualified-field set (mapFields) — no more, no fewer.
func InsertRow(rows []Row, mapFields []string, row Row) ([]Row, error) {
	if !sameKeys(row, mapFields) {
		got := make([]string, 0, len(row))
		for k := range row {
			got = append(got, k)
		}
		return nil, errs.FieldMismatchErr(mapFields, got)
	}
	return append(rows, row), nil
}

func matches(row, predicate Row) bool {
	for k, v := range predicate {
		if row[k] != v {
			return false
		}
	}
	return true
}

func sameKeys(row Row, fields []string) bool {
	if len(row) != len(fields) {
		return false
	}
	for _, f := range fields {
		if _, ok := row[f]; !ok {
			return false
		}
	}
	return true
}
