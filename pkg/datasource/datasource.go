// Package datasource defines what the query builder needs from a storage
// backend, plus an in-memory Mock for tests.
//
// Backends receive a rendered statement (anything implementing expr.Chunk,
// usually a *query.Query) and return rows as backend-agnostic values: nil,
// bool, numbers, strings, slices and maps. Backend-specific type mapping is
// the DataSource's job. Concrete backends live in the pgsource and sqlsource
// sub-packages.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/pthm/vantage/pkg/expr"
)

// DataSource executes rendered statements.
//
// Implementations must refuse statements whose Expression carries an error
// (see Prepare) and must be safe for concurrent use.
type DataSource interface {
	// FetchRows returns every row produced by the statement.
	FetchRows(ctx context.Context, q expr.Chunk) ([]Row, error)

	// FetchOneValue returns the first column of the first row.
	FetchOneValue(ctx context.Context, q expr.Chunk) (any, error)

	// FetchOneRow returns the first row.
	FetchOneRow(ctx context.Context, q expr.Chunk) (Row, error)

	// FetchColumn returns the first column of every row.
	FetchColumn(ctx context.Context, q expr.Chunk) ([]any, error)

	// Execute runs a statement for its side effects. When the statement
	// returns rows (INSERT ... returning id) the first column of the first
	// row is returned; otherwise the result is nil.
	Execute(ctx context.Context, q expr.Chunk) (any, error)
}

// Prepare renders q and rejects invalid or empty statements.
func Prepare(q expr.Chunk) (expr.Expression, error) {
	e := q.Render()
	if err := e.Err(); err != nil {
		return expr.Expression{}, err
	}
	if e.IsEmpty() {
		return expr.Expression{}, errors.New("datasource: empty statement")
	}
	return e, nil
}

// ExecError wraps a backend failure with the statement that caused it.
type ExecError struct {
	Op        string // fetch, execute, scan
	SQLState  string // five-character SQLSTATE, when the driver reports one
	Statement string // final SQL text
	Err       error
}

func (e *ExecError) Error() string {
	if e.SQLState != "" {
		return fmt.Sprintf("%s (SQLSTATE %s): %v", e.Op, e.SQLState, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// SQLState extracts the SQLSTATE code from a driver error. Works with any
// error exposing SQLState() string (pgconn, recent lib/pq) anywhere in its
// wrap chain. Returns "" when no code is available.
func SQLState(err error) string {
	type sqlStateErr interface{ SQLState() string }
	var e sqlStateErr
	if errors.As(err, &e) {
		return e.SQLState()
	}
	return ""
}

// firstValue returns the first column of the first row, or nil.
func firstValue(rows []Row) any {
	if len(rows) == 0 || rows[0].Len() == 0 {
		return nil
	}
	return rows[0].At(0)
}

// Column returns the first value of every row. Empty rows yield nil.
func Column(rows []Row) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		if r.Len() == 0 {
			out = append(out, nil)
			continue
		}
		out = append(out, r.At(0))
	}
	return out
}
