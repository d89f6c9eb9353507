package expr

import (
	"fmt"
	"strings"

	"github.com/pthm/vantage"
)

// Column references a named field of a table or alias.
//
// Columns are values: the setters that take a pointer mutate a local copy,
// and the With* variants return a modified copy.
type Column struct {
	name  string
	table string
	alias string
}

// NewColumn creates a column without a table qualifier.
func NewColumn(name string) Column {
	return Column{name: name}
}

// NewTableColumn creates a column qualified by a table name or alias.
func NewTableColumn(table, name string) Column {
	return Column{name: name, table: table}
}

// Name returns the column name.
func (c Column) Name() string { return c.name }

// TableAlias returns the table qualifier, or "" when unqualified.
func (c Column) TableAlias() string { return c.table }

// Alias returns the output alias, or "" when none is set.
func (c Column) Alias() string { return c.alias }

// SetTableAlias changes the table qualifier.
func (c *Column) SetTableAlias(table string) { c.table = table }

// SetAlias changes the output alias.
func (c *Column) SetAlias(alias string) { c.alias = alias }

// WithTableAlias returns a copy qualified by table.
func (c Column) WithTableAlias(table string) Column {
	c.table = table
	return c
}

// WithAlias returns a copy with the given output alias.
func (c Column) WithAlias(alias string) Column {
	c.alias = alias
	return c
}

// QualifiedName renders table.name, or the bare name when unqualified.
func (c Column) QualifiedName() string {
	if c.table == "" {
		return c.name
	}
	return c.table + "." + c.name
}

// Render implements Chunk. A name containing the placeholder marker would
// break placeholder/parameter parity and yields an invalid Expression.
func (c Column) Render() Expression {
	if err := checkIdentifier(c.table, c.name); err != nil {
		return Invalid(err)
	}
	return Expression{template: c.QualifiedName()}
}

// RenderColumn renders the column for a result list. An alias equal to the
// column name is redundant and dropped; an empty alias falls back to the
// column's own output alias.
func (c Column) RenderColumn(alias string) Expression {
	if alias == c.name {
		alias = ""
	}
	if alias == "" {
		alias = c.alias
	}
	if alias == "" {
		return c.Render()
	}
	if err := checkIdentifier(c.table, c.name, alias); err != nil {
		return Invalid(err)
	}
	return Expression{template: c.QualifiedName() + " AS " + alias}
}

func checkIdentifier(names ...string) error {
	for _, n := range names {
		if strings.Contains(n, placeholder) {
			return fmt.Errorf("%w: %q", vantage.ErrInvalidIdentifier, n)
		}
	}
	return nil
}
