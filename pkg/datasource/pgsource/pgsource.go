// Package pgsource implements datasource.DataSource on a pgx connection pool.
package pgsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/internal/debug"
	"github.com/pthm/vantage/pkg/datasource"
	"github.com/pthm/vantage/pkg/expr"
)

// Conn is the subset of pgx used here. Implemented by *pgxpool.Pool,
// *pgx.Conn and pgx.Tx.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Source runs statements through pgx. PostgreSQL uses $n placeholders.
type Source struct {
	conn Conn
}

var _ datasource.DataSource = (*Source)(nil)

// New wraps an existing pool, connection or transaction.
func New(conn Conn) *Source {
	return &Source{conn: conn}
}

// Connect creates a pool for dsn and verifies it.
func Connect(ctx context.Context, dsn string) (*Source, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return New(pool), pool, nil
}

func prepare(q expr.Chunk) (string, []any, error) {
	e, err := datasource.Prepare(q)
	if err != nil {
		return "", nil, err
	}
	return e.FinalWith(expr.Dollar), e.Params(), nil
}

// FetchRows implements datasource.DataSource.
func (s *Source) FetchRows(ctx context.Context, q expr.Chunk) ([]datasource.Row, error) {
	stmt, args, err := prepare(q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.conn.Query(ctx, stmt, args...)
	if err != nil {
		return nil, wrapErr("fetch", stmt, err)
	}
	defer rows.Close()

	cols := columnNames(rows.FieldDescriptions())
	var out []datasource.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, wrapErr("scan", stmt, err)
		}
		for i, v := range vals {
			vals[i] = normalize(v)
		}
		out = append(out, datasource.NewRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("fetch", stmt, err)
	}

	debug.Debug("fetch", "sql", stmt, "args", len(args), "rows", len(out), "elapsed", time.Since(start))
	return out, nil
}

// FetchOneValue implements datasource.DataSource.
func (s *Source) FetchOneValue(ctx context.Context, q expr.Chunk) (any, error) {
	row, err := s.FetchOneRow(ctx, q)
	if err != nil {
		return nil, err
	}
	if row.Len() == 0 {
		return nil, nil
	}
	return row.At(0), nil
}

// FetchOneRow implements datasource.DataSource.
func (s *Source) FetchOneRow(ctx context.Context, q expr.Chunk) (datasource.Row, error) {
	rows, err := s.FetchRows(ctx, q)
	if err != nil {
		return datasource.Row{}, err
	}
	if len(rows) == 0 {
		return datasource.Row{}, vantage.ErrNoRows
	}
	return rows[0], nil
}

// FetchColumn implements datasource.DataSource.
func (s *Source) FetchColumn(ctx context.Context, q expr.Chunk) ([]any, error) {
	rows, err := s.FetchRows(ctx, q)
	if err != nil {
		return nil, err
	}
	return datasource.Column(rows), nil
}

// Execute implements datasource.DataSource. Statements that return rows
// (INSERT ... returning id) report the first value; others return nil.
func (s *Source) Execute(ctx context.Context, q expr.Chunk) (any, error) {
	rows, err := s.FetchRows(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].Len() == 0 {
		return nil, nil
	}
	return rows[0].At(0), nil
}

// Exec runs a statement that returns no rows, such as DDL.
func (s *Source) Exec(ctx context.Context, q expr.Chunk) (int64, error) {
	stmt, args, err := prepare(q)
	if err != nil {
		return 0, err
	}
	tag, err := s.conn.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, wrapErr("execute", stmt, err)
	}
	debug.Debug("execute", "sql", stmt, "args", len(args), "affected", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

func columnNames(fields []pgconn.FieldDescription) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// normalize maps pgx-specific values to plain Go values.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	case []byte:
		return string(x)
	default:
		return v
	}
}

func wrapErr(op, stmt string, err error) error {
	e := &datasource.ExecError{Op: op, Statement: stmt, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		e.SQLState = pgErr.Code
	}
	return e
}
