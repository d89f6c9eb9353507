package table

import (
	"context"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/pkg/datasource"
)

// GetAllUntyped fetches every row of the set.
func (t *Table) GetAllUntyped(ctx context.Context) ([]datasource.Row, error) {
	q, err := t.SelectQuery()
	if err != nil {
		return nil, err
	}
	return t.ds.FetchRows(ctx, q)
}

// GetRowUntyped fetches the first row of the set.
func (t *Table) GetRowUntyped(ctx context.Context) (datasource.Row, error) {
	q, err := t.SelectQuery()
	if err != nil {
		return datasource.Row{}, err
	}
	return t.ds.FetchOneRow(ctx, q)
}

// GetColUntyped fetches the first column of every row.
func (t *Table) GetColUntyped(ctx context.Context) ([]any, error) {
	q, err := t.SelectQuery()
	if err != nil {
		return nil, err
	}
	return t.ds.FetchColumn(ctx, q)
}

// GetOneUntyped fetches the first column of the first row.
func (t *Table) GetOneUntyped(ctx context.Context) (any, error) {
	q, err := t.SelectQuery()
	if err != nil {
		return nil, err
	}
	return t.ds.FetchOneValue(ctx, q)
}

// Get fetches the rows t selects for E's fields and decodes them into E.
func Get[E any](ctx context.Context, t *Table) ([]E, error) {
	var shape E
	q, err := t.SelectQueryFor(shape)
	if err != nil {
		return nil, err
	}
	rows, err := t.ds.FetchRows(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(rows))
	for _, r := range rows {
		var e E
		if err := r.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// GetSome fetches the first row decoded into E, or nil when the set is empty.
func GetSome[E any](ctx context.Context, t *Table) (*E, error) {
	var shape E
	q, err := t.SelectQueryFor(shape)
	if err != nil {
		return nil, err
	}
	row, err := t.ds.FetchOneRow(ctx, q)
	if vantage.IsNoRowsErr(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e E
	if err := row.Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Insert writes record and returns the generated id, if the DataSource
// reports one.
func (t *Table) Insert(ctx context.Context, record any) (any, error) {
	q, err := t.InsertQuery(record)
	if err != nil {
		return nil, err
	}
	return t.ds.Execute(ctx, q)
}

// UpdateWith writes values to every row of the set. values must not
// include the id column.
func (t *Table) UpdateWith(ctx context.Context, values any) error {
	vals, err := valuesOf(values)
	if err != nil {
		return err
	}
	if err := checkNoID(t, vals); err != nil {
		return err
	}
	q, err := t.UpdateQuery(values)
	if err != nil {
		return err
	}
	_, err = t.ds.Execute(ctx, q)
	return err
}

// Delete removes every row of the set, after extension hooks had their say.
func (t *Table) Delete(ctx context.Context) error {
	q, err := t.DeleteQuery()
	if err != nil {
		return err
	}
	_, err = t.ds.Execute(ctx, q)
	return err
}
