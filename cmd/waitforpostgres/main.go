// Command waitforpostgres blocks until the fixture database accepts
// connections, creates the mock_fixtures table, and optionally seeds it from
// a directory of <key>.json files.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"uimock/mockapi/internal/fixtures"
)

func main() {
	dsn := os.Getenv("FIXTURE_DATABASE_URL")
	if dsn == "" {
		dsn = os.Getenv("TEST_POSTGRES_DSN")
	}
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "FIXTURE_DATABASE_URL or TEST_POSTGRES_DSN is required")
		os.Exit(2)
	}

	timeout := 60 * time.Second
	if raw := os.Getenv("WAIT_FOR_POSTGRES_TIMEOUT_SEC"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			fmt.Fprintf(os.Stderr, "invalid WAIT_FOR_POSTGRES_TIMEOUT_SEC: %q\n", raw)
			os.Exit(2)
		}
		timeout = time.Duration(secs) * time.Second
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open postgres: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := waitReady(db, timeout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("postgres ready")

	src, err := fixtures.NewPostgresSource(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prepare fixture table: %v\n", err)
		os.Exit(1)
	}

	seedDir := os.Getenv("FIXTURE_SEED_DIR")
	if seedDir == "" {
		return
	}
	n, err := seed(context.Background(), src, seedDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed fixtures: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded %d fixtures from %s\n", n, seedDir)
}

func waitReady(db *sql.DB, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("postgres not ready within %s: %w", timeout, err)
		}
		time.Sleep(2 * time.Second)
	}
}

func seed(ctx context.Context, dst *fixtures.PostgresSource, dir string) (int, error) {
	payloads, err := fixtures.Dir(dir).Fetch(ctx)
	if err != nil {
		return 0, err
	}
	for key, payload := range payloads {
		if err := dst.Put(ctx, key, payload); err != nil {
			return 0, err
		}
	}
	return len(payloads), nil
}
