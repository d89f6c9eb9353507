package main

import (
	"context"

	// database/sql drivers selectable through database.driver.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/pthm/vantage/internal/cli"
	"github.com/pthm/vantage/internal/debug"
	"github.com/pthm/vantage/pkg/datasource"
	"github.com/pthm/vantage/pkg/datasource/pgsource"
	"github.com/pthm/vantage/pkg/datasource/sqlsource"
)

// connect opens the configured database. The returned func releases it.
func connect(ctx context.Context, c *cli.Config) (datasource.DataSource, func(), error) {
	dsn, err := c.DSN()
	if err != nil {
		return nil, nil, cli.ConfigError("database configuration", err)
	}
	driver, err := c.SQLDriver()
	if err != nil {
		return nil, nil, cli.ConfigError("database configuration", err)
	}

	if driver == "" {
		src, pool, err := pgsource.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, cli.DBConnectError("connecting to database", err)
		}
		return src, pool.Close, nil
	}

	style, err := c.Placeholder()
	if err != nil {
		return nil, nil, cli.ConfigError("database configuration", err)
	}
	opts := []sqlsource.Option{
		sqlsource.WithPlaceholder(style),
		sqlsource.WithLogger(debug.Logger()),
	}
	if c.Database.Driver == cli.DriverMySQL {
		opts = append(opts, sqlsource.WithLastInsertID())
	}
	src, db, err := sqlsource.Open(ctx, driver, dsn, opts...)
	if err != nil {
		return nil, nil, cli.DBConnectError("connecting to database", err)
	}
	return src, func() { _ = db.Close() }, nil
}

// castsPagination reports whether the driver accepts the ::int4 casts
// OFFSET and LIMIT render with.
func castsPagination(driver string) bool {
	switch driver {
	case cli.DriverMySQL, cli.DriverSQLite:
		return false
	}
	return true
}
