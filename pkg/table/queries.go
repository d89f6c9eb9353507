package table

import (
	"fmt"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/pkg/datasource"
	"github.com/pthm/vantage/pkg/expr"
	"github.com/pthm/vantage/pkg/query"
)

// EmptyQuery returns a SELECT over the table with its conditions and joins,
// nested ones included, but no result columns. Extension hooks are not applied.
func (t *Table) EmptyQuery() *query.Query {
	q := query.New().WithTable(t.name, t.alias)
	for _, c := range t.conditions {
		q.WithCondition(c)
	}
	t.addJoinsInto(q)
	return q
}

// addJoinsInto adds every JOIN clause, nested joins after their parent.
func (t *Table) addJoinsInto(q *query.Query) {
	t.joins.Each(func(_ string, j *Join) {
		q.WithJoin(j.query)
		j.table.addJoinsInto(q)
	})
}

// addColumnsInto adds own columns, then the columns of every join with the
// join alias as prefix.
func (t *Table) addColumnsInto(q *query.Query, prefix string) {
	t.columns.Each(func(name string, c expr.Column) {
		if prefix == "" {
			q.WithField(name, c)
			return
		}
		key := prefix + "_" + name
		q.WithField(key, c.WithAlias(key))
	})
	t.joins.Each(func(a string, j *Join) {
		j.table.addColumnsInto(q, a)
	})
}

func (t *Table) beforeSelect(q *query.Query) (*query.Query, error) {
	for _, h := range t.hooks {
		if err := h.BeforeSelect(t, q); err != nil {
			return nil, fmt.Errorf("before select on %s: %w", t.name, err)
		}
	}
	return q, q.Err()
}

// SelectQuery selects every column, including joined ones.
func (t *Table) SelectQuery() (*query.Query, error) {
	if t.err != nil {
		return nil, t.err
	}
	q := t.EmptyQuery()
	t.addColumnsInto(q, "")
	return t.beforeSelect(q)
}

// SelectQueryForField selects a single field under name.
func (t *Table) SelectQueryForField(name string, f expr.Field) (*query.Query, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.beforeSelect(t.EmptyQuery().WithField(name, f))
}

// SelectQueryForFieldNames selects the named fields, resolved with
// SearchForField, so joined and computed columns are allowed.
func (t *Table) SelectQueryForFieldNames(names ...string) (*query.Query, error) {
	if t.err != nil {
		return nil, t.err
	}
	q := t.EmptyQuery()
	for _, name := range names {
		f, err := t.SearchForField(name)
		if err != nil {
			return nil, err
		}
		q.WithField(name, f)
	}
	return t.beforeSelect(q)
}

// SelectQueryFor selects only the fields that shape, a struct or map, has.
// Struct fields map to columns through their `db` tag or lowercased name.
// Names the table cannot resolve are skipped.
func (t *Table) SelectQueryFor(shape any) (*query.Query, error) {
	if t.err != nil {
		return nil, t.err
	}
	names, err := fieldNames(shape)
	if err != nil {
		return nil, err
	}
	q := t.EmptyQuery()
	for _, name := range names {
		f, err := t.SearchForField(name)
		if err != nil {
			continue
		}
		q.WithField(name, f)
	}
	return t.beforeSelect(q)
}

// FieldQuery selects col alone, bound to the table's DataSource. Hooks are
// not applied.
func (t *Table) FieldQuery(col expr.Column) (datasource.AssociatedQuery, error) {
	if t.err != nil {
		return datasource.AssociatedQuery{}, t.err
	}
	q := t.EmptyQuery().WithField(col.Name(), col)
	return datasource.Associate(q, t.ds), nil
}

// ColumnQuery is FieldQuery by column name.
func (t *Table) ColumnQuery(name string) (datasource.AssociatedQuery, error) {
	col, err := t.Column(name)
	if err != nil {
		return datasource.AssociatedQuery{}, err
	}
	return t.FieldQuery(col)
}

// Sum returns SELECT SUM(x) AS sum over the current set.
func (t *Table) Sum(x expr.Chunk) (datasource.AssociatedQuery, error) {
	return t.aggregate("sum", expr.Sum(x))
}

// Count returns SELECT COUNT(*) AS count over the current set.
func (t *Table) Count() (datasource.AssociatedQuery, error) {
	return t.aggregate("count", expr.Count())
}

func (t *Table) aggregate(name string, e expr.Expression) (datasource.AssociatedQuery, error) {
	q, err := t.SelectQueryForField(name, e)
	if err != nil {
		return datasource.AssociatedQuery{}, err
	}
	return datasource.Associate(q, t.ds), nil
}

// InsertQuery builds an INSERT of values, a struct or map. Only physical
// columns present in values are written; a zero id is left to the database.
func (t *Table) InsertQuery(values any) (*query.Query, error) {
	if t.err != nil {
		return nil, t.err
	}
	vals, err := valuesOf(values)
	if err != nil {
		return nil, err
	}
	q := query.New().
		WithTable(t.name, "").
		WithKind(query.Insert).
		WithReturning(t.IDColumn())
	for _, name := range t.columns.Keys() {
		v, ok := vals.lookup(name)
		if !ok || (name == t.IDColumn() && isZero(v)) {
			continue
		}
		q.WithSetField(name, v)
	}
	if err := checkWritesColumns(t, q); err != nil {
		return nil, err
	}
	return q, q.Err()
}

// UpdateQuery builds an UPDATE of the current set from values.
func (t *Table) UpdateQuery(values any) (*query.Query, error) {
	if t.err != nil {
		return nil, t.err
	}
	vals, err := valuesOf(values)
	if err != nil {
		return nil, err
	}
	q := query.New().
		WithTable(t.name, t.alias).
		WithKind(query.Update)
	for _, name := range t.columns.Keys() {
		if v, ok := vals.lookup(name); ok {
			q.WithSetField(name, v)
		}
	}
	if err := checkWritesColumns(t, q); err != nil {
		return nil, err
	}
	for _, c := range t.conditions {
		q.WithCondition(c)
	}
	return q, q.Err()
}

// DeleteQuery builds the statement that removes the current set. Hooks may
// turn it into something else, e.g. an UPDATE marking rows deleted.
func (t *Table) DeleteQuery() (*query.Query, error) {
	if t.err != nil {
		return nil, t.err
	}
	q := t.EmptyQuery().WithKind(query.Delete)
	for _, h := range t.hooks {
		if err := h.BeforeDelete(t, q); err != nil {
			return nil, fmt.Errorf("before delete on %s: %w", t.name, err)
		}
	}
	return q, q.Err()
}

// checkWritesColumns rejects values that matched none of the table columns.
func checkWritesColumns(t *Table, q *query.Query) error {
	if len(q.SetFieldNames()) == 0 {
		return fmt.Errorf("%w: no value matches a column of %s", vantage.ErrNoSetFields, t.name)
	}
	return nil
}

func checkNoID(t *Table, vals values) error {
	if _, ok := vals.lookup(t.IDColumn()); ok {
		return fmt.Errorf("%w: %s.%s", vantage.ErrIDFieldInValues, t.name, t.IDColumn())
	}
	return nil
}
