// Package errs defines the typed error taxonomy shared across qtables.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies which taxonomy entry an error belongs to, so callers can
// branch on it with errors.Is/errors.As without string matching.
type Kind string

const (
	NotTable        Kind = "not-table"
	QueryTable      Kind = "query-table"
	SchemaLoad      Kind = "schema-load"
	ValueConversion Kind = "value-conversion"
	JoinExecute     Kind = "join-execute"
	FieldMismatch   Kind = "field-mismatch"
	CacheDisabled   Kind = "cache-disabled"
)

// Error is a taxonomy-tagged error. Cause may be nil for errors that
// originate inside qtables itself rather than wrapping an external failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func NotTableErr(table string) error {
	return New(NotTable, fmt.Sprintf("unknown table %q", table))
}

func QueryTableErr(table string, cause error) error {
	return Wrap(QueryTable, fmt.Sprintf("failed to construct query table %q", table), cause)
}

func SchemaLoadErr(cause error) error {
	return Wrap(SchemaLoad, "schema discovery failed", cause)
}

func ValueConversionErr(value interface{}) error {
	return New(ValueConversion, fmt.Sprintf("cannot render %T as a SQL literal", value))
}

func JoinExecuteErr(op string) error {
	return New(JoinExecute, fmt.Sprintf("%s cannot be executed against a query with joins", op))
}

func FieldMismatchErr(want, got []string) error {
	return New(FieldMismatch, fmt.Sprintf("row keys %v do not match declared fields %v", got, want))
}

func CacheDisabledErr() error {
	return New(CacheDisabled, "cache is disabled")
}

// IsKind reports whether err is (or wraps) an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
