package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/josh-kwaku/minibank/internal/repository"
	"github.com/josh-kwaku/minibank/migrations"
)

// SetupTestDB starts a throwaway Postgres, applies every up migration and
// returns a pool sized for concurrency tests. Skipped under -short.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests skipped in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("minibank_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	db, err := repository.NewPostgresDB(ctx, connStr, repository.PoolConfig{
		MaxOpenConns:     20,
		MaxIdleConns:     5,
		ConnMaxLifetimeS: 60,
		ConnMaxIdleTimeS: 30,
		ConnectAttempts:  10,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := ApplyMigrations(ctx, db, migrations.FS); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

// ApplyMigrations executes the *.up.sql files of fsys in name order.
func ApplyMigrations(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return fmt.Errorf("ApplyMigrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("ApplyMigrations: read %s: %w", name, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("ApplyMigrations: %s: %w", name, err)
		}
	}
	return nil
}

// Truncate empties every ledger table so one container can serve several
// subtests.
func Truncate(t *testing.T, db *sql.DB) {
	t.Helper()
	// The immutability trigger blocks DELETE but not TRUNCATE.
	if _, err := db.Exec(`TRUNCATE transactions, idempotency_cache, accounts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
