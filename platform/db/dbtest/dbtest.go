// Package dbtest connects repository tests to a real Postgres instance.
// Tests that call NewPool are skipped unless TEST_DATABASE_URL is set, so the
// default `go test ./...` run stays database-free.
package dbtest

import (
	"context"
	"os"
	"testing"

	"gearbox_backend/migrations"
	"gearbox_backend/platform/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

type testDatabaseConfig struct {
	url string
}

func (c testDatabaseConfig) GetDatabaseURL() string { return c.url }

// NewPool applies the embedded migrations to the database at TEST_DATABASE_URL
// and returns a pool that closes when the test finishes. The test is skipped
// when the variable is unset.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := db.RunMigrations(ctx, testDatabaseConfig{url: url}, migrations.FS, "."); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
