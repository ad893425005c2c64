package repo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/pressly/goose/v3"

	"github.com/maroonxv/travel-sharing/migrations"
	"github.com/maroonxv/travel-sharing/testutil"
)

// TestMain brings the test database to the latest schema once per test
// binary. Without TEST_DATABASE_URL every integration test skips itself, so
// the migrations are skipped too.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		os.Exit(m.Run())
	}

	// goose drives database/sql, so open a *sql.DB next to the pgx pools
	// the tests use.
	db := testutil.MustOpenSQLDB(dsn)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		log.Fatalf("TestMain: create goose provider: %v", err)
	}
	results, err := provider.Up(context.Background())
	if err != nil {
		log.Fatalf("TestMain: run migrations: %v", err)
	}
	log.Printf("TestMain: applied %d migrations", len(results))
	db.Close()

	os.Exit(m.Run())
}
