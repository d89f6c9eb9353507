// Package table maps named SQL data sets onto queries.
//
// A Table holds columns, conditions, joins, computed columns, relations and
// extension hooks. It never talks SQL text directly: every operation builds a
// query.Query, and the Table's DataSource runs it.
//
// Tables are built with chainable With* methods that mutate and return the
// receiver. The first failure in a chain is kept and reported by Err and by
// every method that produces a query. Add* variants return errors directly.
// Use Clone before deriving a second table from a shared definition.
package table

import (
	"fmt"

	"github.com/pthm/vantage/internal/omap"
	"github.com/pthm/vantage/pkg/alias"
	"github.com/pthm/vantage/pkg/datasource"
	"github.com/pthm/vantage/pkg/expr"
	"github.com/pthm/vantage/pkg/query"
)

// DefaultIDColumn is the id column name used when none was declared.
const DefaultIDColumn = "id"

// ExpressionFunc computes a column on demand. It receives the table it is
// looked up on, so it can reference sibling columns, joins and relations as
// they exist at lookup time. It must not capture mutable state.
type ExpressionFunc func(t *Table) expr.Expression

// Extension hooks into a table's lifecycle. Hooks run in registration order,
// each seeing the query as left by the previous one.
type Extension interface {
	// Init runs once when the extension is attached.
	Init(t *Table) error
	// BeforeSelect may rewrite every SELECT the table produces.
	BeforeSelect(t *Table, q *query.Query) error
	// BeforeDelete may rewrite the table's DELETE, including its kind.
	BeforeDelete(t *Table, q *query.Query) error
}

// Table is a named data set backed by a DataSource.
type Table struct {
	ds          datasource.DataSource
	name        string
	alias       string
	idColumn    string
	titleColumn string

	conditions  []expr.Condition
	columns     omap.Map[string, expr.Column]
	joins       omap.Map[string, *Join]
	expressions omap.Map[string, ExpressionFunc]
	relations   omap.Map[string, Relation]
	aliases     *alias.Allocator
	hooks       []Extension

	err error
}

// New creates a table without columns.
func New(name string, ds datasource.DataSource) *Table {
	return &Table{
		ds:      ds,
		name:    name,
		aliases: alias.NewAllocator(),
	}
}

// Clone returns an independent copy. The alias allocator is copied, not
// shared, so the clone can later be joined with the original. Joined tables
// are cloned too and share the copy.
func (t *Table) Clone() *Table {
	c := *t
	c.conditions = append([]expr.Condition(nil), t.conditions...)
	c.columns = t.columns.Clone()
	c.aliases = t.aliases.Clone()
	c.joins = omap.Map[string, *Join]{}
	t.joins.Each(func(a string, j *Join) {
		jt := j.table.Clone()
		jt.shareAliases(c.aliases)
		c.joins.Set(a, &Join{table: jt, fk: j.fk, on: j.on, query: j.query})
	})
	c.expressions = t.expressions.Clone()
	c.relations = t.relations.Clone()
	c.hooks = append([]Extension(nil), t.hooks...)
	return &c
}

// With calls fn with the table, for grouping builder steps.
func (t *Table) With(fn func(t *Table)) *Table {
	fn(t)
	return t
}

// Err returns the first error recorded by a With* call.
func (t *Table) Err() error { return t.err }

func (t *Table) fail(err error) *Table {
	if t.err == nil && err != nil {
		t.err = err
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Alias returns the table alias, or "".
func (t *Table) Alias() string { return t.alias }

// DataSource returns the backing DataSource.
func (t *Table) DataSource() datasource.DataSource { return t.ds }

// TitleColumn returns the title column name, or "".
func (t *Table) TitleColumn() string { return t.titleColumn }

// IDColumn returns the id column name.
func (t *Table) IDColumn() string {
	if t.idColumn == "" {
		return DefaultIDColumn
	}
	return t.idColumn
}

func (t *Table) String() string {
	if t.alias != "" {
		return t.name + " AS " + t.alias
	}
	return t.name
}

// =============================================================================
// Alias
// =============================================================================

// SetAlias renames the table. The old alias is released, the new one is
// reserved, and every column, condition and JOIN clause that referred to
// the table is re-qualified. Columns of joined tables keep their aliases.
//
// Renaming a table that is itself joined under a parent is not supported;
// the parent's JOIN clause keeps the old alias.
func (t *Table) SetAlias(a string) {
	old := t.alias
	if old != "" {
		t.aliases.Unavoid(old)
	}
	t.alias = a
	t.aliases.Avoid(a)

	t.columns.Update(func(_ string, c expr.Column) expr.Column {
		return c.WithTableAlias(a)
	})
	for i := range t.conditions {
		t.conditions[i].ReplaceTableAlias(a, old, t.name)
	}
	t.joins.Update(func(_ string, j *Join) *Join {
		j.query = t.joinQuery(j)
		return j
	})
}

// WithAlias is the chainable form of SetAlias.
func (t *Table) WithAlias(a string) *Table {
	t.SetAlias(a)
	return t
}

// qualifier is the alias, or the table name when there is none.
func (t *Table) qualifier() string {
	if t.alias != "" {
		return t.alias
	}
	return t.name
}

// =============================================================================
// Conditions, computed columns, hooks
// =============================================================================

// AddCondition narrows the data set.
func (t *Table) AddCondition(c expr.Condition) {
	t.conditions = append(t.conditions, c)
}

// WithCondition is the chainable form of AddCondition.
func (t *Table) WithCondition(c expr.Condition) *Table {
	t.AddCondition(c)
	return t
}

// Conditions returns the table conditions.
func (t *Table) Conditions() []expr.Condition {
	return append([]expr.Condition(nil), t.conditions...)
}

// AddExpression registers a computed column.
func (t *Table) AddExpression(name string, fn ExpressionFunc) {
	t.expressions.Set(name, fn)
}

// WithExpression is the chainable form of AddExpression.
func (t *Table) WithExpression(name string, fn ExpressionFunc) *Table {
	t.AddExpression(name, fn)
	return t
}

// AddExtension initializes ext and appends it to the hook chain.
func (t *Table) AddExtension(ext Extension) error {
	if err := ext.Init(t); err != nil {
		return fmt.Errorf("init extension on %s: %w", t.name, err)
	}
	t.hooks = append(t.hooks, ext)
	return nil
}

// WithExtension is the chainable form of AddExtension.
func (t *Table) WithExtension(ext Extension) *Table {
	return t.fail(t.AddExtension(ext))
}
