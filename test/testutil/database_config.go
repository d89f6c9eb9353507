package testutil

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pthm/vantage/internal/cli"
)

// ExternalDSN returns the server integration tests should use instead of a
// container. VANTAGE_TEST_DATABASE_URL wins, then DATABASE_URL, then a DSN
// assembled from DATABASE_HOST, DATABASE_PORT, DATABASE_NAME, DATABASE_USER,
// DATABASE_PASSWORD and DATABASE_SSLMODE. An empty result means no external
// server is configured.
func ExternalDSN() (string, error) {
	for _, key := range []string{"VANTAGE_TEST_DATABASE_URL", "DATABASE_URL"} {
		if dsn := os.Getenv(key); dsn != "" {
			return dsn, nil
		}
	}

	host := os.Getenv("DATABASE_HOST")
	if host == "" {
		return "", nil
	}
	port, err := strconv.Atoi(envOr("DATABASE_PORT", "5432"))
	if err != nil {
		return "", fmt.Errorf("DATABASE_PORT: %w", err)
	}
	cfg := cli.Config{Database: cli.DatabaseConfig{
		Driver:   cli.DriverPgx,
		Host:     host,
		Port:     port,
		Name:     envOr("DATABASE_NAME", "postgres"),
		User:     envOr("DATABASE_USER", "postgres"),
		Password: os.Getenv("DATABASE_PASSWORD"),
		SSLMode:  envOr("DATABASE_SSLMODE", "prefer"),
	}}
	return cfg.DSN()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
