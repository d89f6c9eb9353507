package table

import (
	"fmt"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/pkg/expr"
)

// AddColumn registers a physical column bound to the current table alias.
// Re-adding a name replaces the column in place.
func (t *Table) AddColumn(name string) {
	t.columns.Set(name, expr.NewTableColumn(t.alias, name))
}

// WithColumn is the chainable form of AddColumn.
func (t *Table) WithColumn(name string) *Table {
	t.AddColumn(name)
	return t
}

// WithColumns adds several columns.
func (t *Table) WithColumns(names ...string) *Table {
	for _, n := range names {
		t.AddColumn(n)
	}
	return t
}

// WithIDColumn adds a column and makes it the identifier.
func (t *Table) WithIDColumn(name string) *Table {
	t.idColumn = name
	return t.WithColumn(name)
}

// WithTitleColumn adds a column and makes it the title.
func (t *Table) WithTitleColumn(name string) *Table {
	t.titleColumn = name
	return t.WithColumn(name)
}

// Columns returns the physical column names in declaration order.
func (t *Table) Columns() []string {
	return t.columns.Keys()
}

// HasColumn reports whether name is a physical column.
func (t *Table) HasColumn(name string) bool {
	return t.columns.Has(name)
}

// Column returns a physical column.
func (t *Table) Column(name string) (expr.Column, error) {
	c, ok := t.columns.Get(name)
	if !ok {
		return expr.Column{}, fmt.Errorf("%w: table %q has no column %q", vantage.ErrColumnNotFound, t.name, name)
	}
	return c, nil
}

// MustColumn is Column for names known to exist. It panics otherwise.
func (t *Table) MustColumn(name string) expr.Column {
	c, err := t.Column(name)
	if err != nil {
		panic(err)
	}
	return c
}

// ColumnWithTableAlias returns a column qualified by the alias, or by the
// table name when the table has no alias.
func (t *Table) ColumnWithTableAlias(name string) (expr.Column, error) {
	c, err := t.Column(name)
	if err != nil {
		return expr.Column{}, err
	}
	return c.WithTableAlias(t.qualifier()), nil
}

// ID returns the identifier column.
func (t *Table) ID() (expr.Column, error) {
	c, ok := t.columns.Get(t.IDColumn())
	if !ok {
		return expr.Column{}, fmt.Errorf("%w: %s (looked for %q)", vantage.ErrNoIDColumn, t.name, t.IDColumn())
	}
	return c, nil
}

// IDWithTableAlias returns the identifier column, always qualified.
func (t *Table) IDWithTableAlias() (expr.Column, error) {
	c, err := t.ID()
	if err != nil {
		return expr.Column{}, err
	}
	return c.WithTableAlias(t.qualifier()), nil
}

// WithID narrows the set to the row whose identifier equals id.
func (t *Table) WithID(id any) *Table {
	c, err := t.ID()
	if err != nil {
		return t.fail(err)
	}
	return t.WithCondition(c.Eq(id))
}

// SearchForField resolves name against, in order: own columns, columns of
// joined tables, and computed columns (evaluated now, against t).
func (t *Table) SearchForField(name string) (expr.Field, error) {
	if c, ok := t.columns.Get(name); ok {
		return c, nil
	}
	for _, j := range t.joins.Values() {
		if c, ok := j.table.columns.Get(name); ok {
			return c, nil
		}
	}
	if fn, ok := t.expressions.Get(name); ok {
		return fn(t), nil
	}
	return nil, fmt.Errorf("%w: table %q has no field %q", vantage.ErrColumnNotFound, t.name, name)
}
