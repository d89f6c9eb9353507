// Package sqlsource implements datasource.DataSource on top of database/sql.
//
// Any registered driver works. Pick the placeholder style matching the
// driver: expr.Dollar for lib/pq and pgx/stdlib, expr.Question for MySQL,
// expr.QuestionNumbered for SQLite.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/internal/debug"
	"github.com/pthm/vantage/pkg/datasource"
	"github.com/pthm/vantage/pkg/expr"
	"github.com/pthm/vantage/pkg/query"
)

// Querier executes statements. Implemented by *sql.DB, *sql.Tx and *sql.Conn,
// so a Source can run inside a caller-managed transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Option configures a Source.
type Option func(*Source)

// WithPlaceholder sets the parameter marker style. Default: expr.Dollar.
func WithPlaceholder(p expr.Placeholder) Option {
	return func(s *Source) { s.placeholder = p }
}

// WithLastInsertID makes Execute report sql.Result.LastInsertId for INSERT
// statements instead of reading a RETURNING row. Needed for MySQL, which has
// no RETURNING clause.
func WithLastInsertID() Option {
	return func(s *Source) { s.lastInsertID = true }
}

// WithLogger overrides the statement logger. Default: the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.log = l }
}

// Source runs rendered statements through a Querier.
type Source struct {
	db           Querier
	placeholder  expr.Placeholder
	lastInsertID bool
	log          *slog.Logger
}

var _ datasource.DataSource = (*Source)(nil)

// New wraps db.
func New(db Querier, opts ...Option) *Source {
	s := &Source{db: db, placeholder: expr.Dollar}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens a database with the named driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Source, *sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return New(db, opts...), db, nil
}

func (s *Source) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return debug.Logger()
}

func (s *Source) prepare(q expr.Chunk) (string, []any, error) {
	e, err := datasource.Prepare(q)
	if err != nil {
		return "", nil, err
	}
	return e.FinalWith(s.placeholder), e.Params(), nil
}

// FetchRows implements datasource.DataSource.
func (s *Source) FetchRows(ctx context.Context, q expr.Chunk) ([]datasource.Row, error) {
	stmt, args, err := s.prepare(q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, wrapErr("fetch", stmt, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, wrapErr("scan", stmt, err)
	}
	s.logger().Debug("fetch", "sql", stmt, "args", len(args), "rows", len(out), "elapsed", time.Since(start))
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

// Execute implements datasource.DataSource. INSERT statements return the
// generated id; everything else returns nil.
func (s *Source) Execute(ctx context.Context, q expr.Chunk) (any, error) {
	if isInsert(q) && !s.lastInsertID {
		rows, err := s.FetchRows(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 || rows[0].Len() == 0 {
			return nil, nil
		}
		return rows[0].At(0), nil
	}

	if qq, ok := q.(*query.Query); ok && isInsert(q) {
		q = qq.Clone().WithReturning("")
	}
	stmt, args, err := s.prepare(q)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, wrapErr("execute", stmt, err)
	}
	affected, _ := res.RowsAffected()
	s.logger().Debug("execute", "sql", stmt, "args", len(args), "affected", affected)

	if isInsert(q) {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, wrapErr("execute", stmt, err)
		}
		return id, nil
	}
	return nil, nil
}

func isInsert(q expr.Chunk) bool {
	k, ok := q.(interface{ Kind() query.Kind })
	if !ok {
		return false
	}
	return k.Kind() == query.Insert || k.Kind() == query.Replace
}

func scanRows(rows *sql.Rows) ([]datasource.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []datasource.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = normalize(v)
		}
		out = append(out, datasource.NewRow(cols, vals))
	}
	return out, rows.Err()
}

// normalize converts driver values to plain Go values. Text columns often
// arrive as []byte.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func wrapErr(op, stmt string, err error) error {
	return &datasource.ExecError{Op: op, SQLState: sqlState(err), Statement: stmt, Err: err}
}

// sqlState extracts the SQLSTATE code from a driver error:
//   - lib/pq: *pq.Error Code field
//   - MySQL: *mysql.MySQLError SQLState bytes
//   - pgx/stdlib and others: SQLState() string
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.SQLState != [5]byte{} {
		return string(myErr.SQLState[:])
	}
	return datasource.SQLState(err)
}
