// Package qlog is the ambient debug/cache logger: silent unless
// QTABLES_DEBUG is set, error output always shown. Unlike a bare
// printf-style logger, every call carries an Op — the table and emitted
// SQL an operation is acting on — so call sites stop re-spelling
// "table=%s sql=%s" by hand and the line shape stays consistent across
// the read, write, and invalidation paths.
package qlog

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

var (
	debugMode     bool
	debugModeOnce sync.Once
)

func initDebugMode() {
	debugModeOnce.Do(func() {
		mode := strings.ToLower(os.Getenv("QTABLES_DEBUG"))
		debugMode = mode == "true" || mode == "1" || mode == "on"
	})
}

// Enabled reports whether debug logging is switched on.
func Enabled() bool {
	initDebugMode()
	return debugMode
}

// Op identifies the table and emitted SQL an operation acts on. Building
// one is free even when debug logging is off; nothing is formatted or
// printed until Debug/Cache is called and Enabled() is true.
type Op struct {
	Table string
	SQL   string
}

// For is shorthand for Op{Table: table, SQL: sql}.
func For(table, sql string) Op { return Op{Table: table, SQL: sql} }

// Debug prints a debug line tagged with o's table and SQL, only when
// QTABLES_DEBUG is set.
func (o Op) Debug(note string, args ...interface{}) {
	if !Enabled() {
		return
	}
	fmt.Printf("[DEBUG] table=%s sql=%q "+note+"\n", prepend(o.Table, o.SQL, args)...)
}

// Cache prints a cache-related debug line tagged with o's table and SQL,
// only when QTABLES_DEBUG is set.
func (o Op) Cache(note string, args ...interface{}) {
	if !Enabled() {
		return
	}
	fmt.Printf("[CACHE] table=%s sql=%q "+note+"\n", prepend(o.Table, o.SQL, args)...)
}

func prepend(table, sql string, args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(args)+2)
	out = append(out, table, sql)
	return append(out, args...)
}

// Error prints an error line unconditionally, with optional key/value
// context. Unlike Debug/Cache it takes no Op: failures are reported
// regardless of which operation produced them.
func Error(context string, err error, details map[string]interface{}) {
	fmt.Printf("[ERROR] %s: %v\n", context, err)
	for key, value := range details {
		fmt.Printf("  %s: %v\n", key, value)
	}
}
