package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arvednova/qtables/core/errs"
)

// renderLiteral turns a Go value into its SQL literal text. Strings and
// time.Time are single-quoted with inner single quotes doubled; numbers are
// unquoted; bool follows the dialect's own literal; nil becomes NULL. Raw
// byte slices are rejected outright — callers must convert to string
// themselves, there is no implicit encoding.
func renderLiteral(d Dialect, v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		return boolLiteral(d, val), nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case string:
		return quoteString(val), nil
	case time.Time:
		return quoteString(val.UTC().Format(time.RFC3339)), nil
	case []byte:
		return "", errs.ValueConversionErr(v)
	default:
		return "", errs.ValueConversionErr(v)
	}
}

func boolLiteral(d Dialect, v bool) string {
	if d == DialectEmbeddedFile {
		if v {
			return "1"
		}
		return "0"
	}
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(s, "'", "''"))
	b.WriteByte('\'')
	return b.String()
}

// renderPredicate renders one predicate as "<qualified-col> <op> <literal>".
func renderPredicate(d Dialect, qualifiedColumn string, p Predicate) (string, error) {
	switch p.Op {
	case Exact, "":
		if _, isSlice := p.Value.([]interface{}); isSlice {
			return "", fmt.Errorf("list value not allowed for exact filter on %q; use __in", p.Column)
		}
		if p.Value == nil {
			return fmt.Sprintf("%s IS NULL", qualifiedColumn), nil
		}
		lit, err := renderLiteral(d, p.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", qualifiedColumn, lit), nil
	case Ne:
		if p.Value == nil {
			return fmt.Sprintf("%s IS NOT NULL", qualifiedColumn), nil
		}
		lit, err := renderLiteral(d, p.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s != %s", qualifiedColumn, lit), nil
	case Gt, Gte, Lt, Lte:
		lit, err := renderLiteral(d, p.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", qualifiedColumn, comparisonSymbol(p.Op), lit), nil
	case Between:
		r, ok := p.Value.(Range)
		if !ok {
			return "", fmt.Errorf("between filter on %q requires a Range value", p.Column)
		}
		lo, err := renderLiteral(d, r.Lo)
		if err != nil {
			return "", err
		}
		hi, err := renderLiteral(d, r.Hi)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", qualifiedColumn, lo, hi), nil
	case In:
		values, ok := p.Value.([]interface{})
		if !ok {
			return "", fmt.Errorf("in filter on %q requires a slice of values", p.Column)
		}
		parts := make([]string, len(values))
		for i, v := range values {
			lit, err := renderLiteral(d, v)
			if err != nil {
				return "", err
			}
			parts[i] = lit
		}
		return fmt.Sprintf("%s IN (%s)", qualifiedColumn, strings.Join(parts, ", ")), nil
	case Like:
		pattern, ok := p.Value.(string)
		if !ok {
			return "", fmt.Errorf("like filter on %q requires a string pattern", p.Column)
		}
		return fmt.Sprintf("%s LIKE %s", qualifiedColumn, quoteString(pattern)), nil
	default:
		return "", fmt.Errorf("unknown filter operator %q", p.Op)
	}
}

func comparisonSymbol(op Op) string {
	switch op {
	case Gt:
		return ">"
	case Gte:
		return ">="
	case Lt:
		return "<"
	case Lte:
		return "<="
	}
	return "="
}
