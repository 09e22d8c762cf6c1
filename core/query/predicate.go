package query

import (
	"fmt"
	"strings"
)

// Op is a filter operator. Exact is the default: a predicate built without
// one (Op left as the zero value "") is rendered as Exact.
type Op string

const (
	Exact   Op = "exact"
	Gt      Op = "gt"
	Gte     Op = "gte"
	Lt      Op = "lt"
	Lte     Op = "lte"
	Ne      Op = "ne"
	Between Op = "between"
	In      Op = "in"
	Like    Op = "like"
)

// Predicate is one WHERE-clause term: a qualified-by-node column, an
// operator, and a value (or pair/slice of values for between/in).
type Predicate struct {
	Column string
	Op     Op
	Value  interface{}
}

// Range is the value carried by a Between predicate.
type Range struct {
	Lo, Hi interface{}
}

func Eq(column string, value interface{}) Predicate {
	return Predicate{Column: column, Op: Exact, Value: value}
}

func NotEq(column string, value interface{}) Predicate {
	return Predicate{Column: column, Op: Ne, Value: value}
}

func GreaterThan(column string, value interface{}) Predicate {
	return Predicate{Column: column, Op: Gt, Value: value}
}

func GreaterOrEqual(column string, value interface{}) Predicate {
	return Predicate{Column: column, Op: Gte, Value: value}
}

func LessThan(column string, value interface{}) Predicate {
	return Predicate{Column: column, Op: Lt, Value: value}
}

func LessOrEqual(column string, value interface{}) Predicate {
	return Predicate{Column: column, Op: Lte, Value: value}
}

func BetweenValues(column string, lo, hi interface{}) Predicate {
	return Predicate{Column: column, Op: Between, Value: Range{Lo: lo, Hi: hi}}
}

// InValues builds an explicit __in predicate, the form to use for list
// values: an Exact predicate carrying a list is rejected at emission
// (design note, open question i).
func InValues(column string, values ...interface{}) Predicate {
	return Predicate{Column: column, Op: In, Value: values}
}

func LikePattern(column string, pattern string) Predicate {
	return Predicate{Column: column, Op: Like, Value: pattern}
}

// ParseFilterKey decomposes a "col" or "col__op" key into its column and
// operator, the way the original col__op=value keyword grammar does. This
// exists for callers building predicates from string-keyed configuration
// (rather than Go call sites, which should prefer the Eq/Gt/... helpers
// above) — op defaults to Exact when no "__op" suffix is present.
func ParseFilterKey(key string) (column string, op Op, err error) {
	column, opPart, found := strings.Cut(key, "__")
	if !found {
		return key, Exact, nil
	}
	switch Op(opPart) {
	case Exact, Gt, Gte, Lt, Lte, Ne, Between, In, Like:
		return column, Op(opPart), nil
	default:
		return "", "", fmt.Errorf("unknown filter operator suffix %q", opPart)
	}
}
