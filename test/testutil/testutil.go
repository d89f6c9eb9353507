// Package testutil provides shared helpers for integration tests that need
// a real PostgreSQL database.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// BakerySchema creates and seeds the bakery tables used by integration tests.
//
//go:embed testdata/bakery.sql
var BakerySchema string

// Singleton container state
var (
	singletonOnce sync.Once
	singletonDSN  string
	singletonErr  error
)

// ensureSingleton returns the admin DSN. An external server (see ExternalDSN)
// is used as is; otherwise a container is started once per test binary.
func ensureSingleton() (string, error) {
	singletonOnce.Do(func() {
		external, err := ExternalDSN()
		if err != nil || external != "" {
			singletonDSN, singletonErr = external, err
			return
		}

		ctx := context.Background()
		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx)
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}

		// Append sslmode=disable for local testing
		dsn += "sslmode=disable"

		singletonDSN = dsn
		// Container is not stored - ryuk will handle cleanup automatically
	})

	return singletonDSN, singletonErr
}

// DSN creates an isolated database seeded with BakerySchema and returns its
// connection string. The database is dropped when the test completes.
func DSN(tb testing.TB) string {
	tb.Helper()

	adminDSN, err := ensureSingleton()
	require.NoError(tb, err, "failed to start PostgreSQL")

	name := uniqueDBName("vantage")
	require.NoError(tb, execAdmin(context.Background(), adminDSN, "CREATE DATABASE "+name))

	dsn := replaceDBName(adminDSN, name)
	db, err := sql.Open("pgx", dsn)
	require.NoError(tb, err)
	defer func() { _ = db.Close() }()
	_, err = db.Exec(BakerySchema)
	require.NoError(tb, err, "failed to apply bakery schema")

	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = execAdmin(ctx, adminDSN, fmt.Sprintf(`
			SELECT pg_terminate_backend(pid)
			FROM pg_stat_activity
			WHERE datname = '%s' AND pid <> pg_backend_pid()
		`, name))
		_ = execAdmin(ctx, adminDSN, "DROP DATABASE IF EXISTS "+name)
	})
	return dsn
}

// DB returns a database/sql handle (pgx driver) on a fresh seeded database.
func DB(tb testing.TB) *sql.DB {
	tb.Helper()

	db, err := sql.Open("pgx", DSN(tb))
	require.NoError(tb, err)
	require.NoError(tb, db.Ping(), "failed to ping test database")
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

// Pool returns a pgx pool on a fresh seeded database.
func Pool(tb testing.TB) *pgxpool.Pool {
	tb.Helper()

	pool, err := pgxpool.New(context.Background(), DSN(tb))
	require.NoError(tb, err)
	tb.Cleanup(pool.Close)
	return pool
}

func execAdmin(ctx context.Context, adminDSN, stmt string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, stmt)
	return err
}

// uniqueDBName generates a unique database name with the given prefix.
func uniqueDBName(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

// replaceDBName replaces the database name in a postgres:// DSN.
func replaceDBName(dsn, newDB string) string {
	slash := -1
	for i := len(dsn) - 1; i >= 0; i-- {
		if dsn[i] == '/' {
			slash = i
			break
		}
	}
	if slash < 0 {
		return dsn
	}
	rest := ""
	for j := slash + 1; j < len(dsn); j++ {
		if dsn[j] == '?' {
			rest = dsn[j:]
			break
		}
	}
	return dsn[:slash+1] + newDB + rest
}
