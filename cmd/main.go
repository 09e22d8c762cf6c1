package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/arvednova/qtables"
	"github.com/arvednova/qtables/core/query"
	"github.com/arvednova/qtables/core/table"
)

func main() {
	ctx := context.Background()

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN not set")
	}

	backend, err := qtables.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal("connect:", err)
	}
	defer backend.Close()

	db, err := qtables.Open(ctx, backend, qtables.Config{
		TableSchema:  "public",
		CacheTTL:     time.Minute,
		CacheMaxsize: 1000,
	})
	if err != nil {
		log.Fatal("open:", err)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("SINGLE-TABLE FILTER")
	fmt.Println(strings.Repeat("=", 60))
	runSingleTableFilter(ctx, db)

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("NESTED JOIN")
	fmt.Println(strings.Repeat("=", 60))
	runNestedJoin(ctx, db)

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("CACHE INVALIDATION")
	fmt.Println(strings.Repeat("=", 60))
	runCacheInvalidation(ctx, db)

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("AD-HOC QUERY")
	fmt.Println(strings.Repeat("=", 60))
	runAdHocQuery(ctx, db)
}

func runSingleTableFilter(ctx context.Context, db *qtables.DB) {
	person, err := db.Table("person")
	if err != nil {
		log.Printf("  ❌ %v\n", err)
		return
	}

	q := person.Query().Filter(query.Eq("id", 2))
	rows, mapFields, err := person.Get(ctx, q, table.ReadOptions{})
	if err != nil {
		log.Printf("  ❌ %v\n", err)
		return
	}
	fmt.Printf("  ✅ columns %v, %d row(s)\n", mapFields, len(rows))
}

func runNestedJoin(ctx context.Context, db *qtables.DB) {
	person, err := db.Table("person")
	if err != nil {
		log.Printf("  ❌ %v\n", err)
		return
	}
	address, err := db.Table("address")
	if err != nil {
		log.Printf("  ❌ %v\n", err)
		return
	}
	employees, err := db.Table("employees")
	if err != nil {
		log.Printf("  ❌ %v\n", err)
		return
	}

	q := person.Query().
		Filter(query.Eq("id", 2)).
		Join(query.Join{
			Kind:     query.Inner,
			Child:    address.Query(),
			LeftKey:  "id",
			RightKey: "ref_address",
		}).
		Join(query.Join{
			Kind:     query.Left,
			Child:    employees.Query().Select("title", "salary"),
			LeftKey:  "person_id",
			RightKey: "id",
		})

	rows, mapFields, err := person.Get(ctx, q, table.ReadOptions{})
	if err != nil {
		log.Printf("  ❌ %v\n", err)
		return
	}
	fmt.Printf("  ✅ %d qualified columns, %d row(s)\n", len(mapFields), len(rows))
}

func runCacheInvalidation(ctx context.Context, db *qtables.DB) {
	address, err := db.Table("address")
	if err != nil {
		log.Printf("  ❌ %v\n", err)
		return
	}

	q := address.Query().Filter(query.Eq("city", "Springfield"))
	if _, _, err := address.Get(ctx, q, table.ReadOptions{}); err != nil {
		log.Printf("  ❌ initial read: %v\n", err)
		return
	}
	fmt.Println("  ✅ populated cache entry for address")

	updateQ := address.Query().Filter(query.Eq("city", "Springfield"))
	if _, err := address.Update(ctx, updateQ, []query.Assignment{{Column: "city", Value: "Shelbyville"}}); err != nil {
		log.Printf("  ❌ update: %v\n", err)
		return
	}
	fmt.Println("  ✅ update invalidated every entry bound to address")

	if _, _, err := address.Get(ctx, address.Query().Filter(query.Eq("city", "Shelbyville")), table.ReadOptions{}); err != nil {
		log.Printf("  ❌ re-read: %v\n", err)
		return
	}
	fmt.Println("  ✅ re-fetched and repopulated")
}

func runAdHocQuery(ctx context.Context, db *qtables.DB) {
	rows, err := db.Query(ctx, "SELECT COUNT(*) FROM person", table.QueryOptions{Cache: true})
	if err != nil {
		log.Printf("  ❌ %v\n", err)
		return
	}
	fmt.Printf("  ✅ %d row(s) back from ad-hoc query\n", len(rows))
}
