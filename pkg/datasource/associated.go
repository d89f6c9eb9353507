package datasource

import (
	"context"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/pkg/expr"
	"github.com/pthm/vantage/pkg/query"
)

// AssociatedQuery is a query bound to the DataSource that can run it.
//
// It is still a Chunk, so it can be embedded in a larger query as a
// sub-select or result column without executing it.
type AssociatedQuery struct {
	Query *query.Query
	DS    DataSource
}

// Associate binds q to ds.
func Associate(q *query.Query, ds DataSource) AssociatedQuery {
	return AssociatedQuery{Query: q, DS: ds}
}

// Render implements expr.Chunk.
func (a AssociatedQuery) Render() expr.Expression {
	return a.Query.Render()
}

// RenderColumn implements expr.Field.
func (a AssociatedQuery) RenderColumn(alias string) expr.Expression {
	return a.Query.RenderColumn(alias)
}

// Preview renders the bound query with parameters substituted.
func (a AssociatedQuery) Preview() string {
	return a.Query.Preview()
}

// Get fetches every row.
func (a AssociatedQuery) Get(ctx context.Context) ([]Row, error) {
	return a.DS.FetchRows(ctx, a.Query)
}

// GetOne fetches the first column of the first row. A query returning no
// rows yields vantage.ErrNoRows.
func (a AssociatedQuery) GetOne(ctx context.Context) (any, error) {
	rows, err := a.DS.FetchRows(ctx, a.Query)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, vantage.ErrNoRows
	}
	return firstValue(rows), nil
}

// GetRow fetches the first row.
func (a AssociatedQuery) GetRow(ctx context.Context) (Row, error) {
	return a.DS.FetchOneRow(ctx, a.Query)
}

// GetCol fetches the first column of every row.
func (a AssociatedQuery) GetCol(ctx context.Context) ([]any, error) {
	return a.DS.FetchColumn(ctx, a.Query)
}
