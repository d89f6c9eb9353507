// Package query models SQL statements and renders them to expressions.
//
// A Query is assembled with chainable With* methods and rendered according
// to its Kind. Rendering never touches a database; the result is an
// expr.Expression with "{}" placeholders and an ordered parameter list.
package query

import (
	"fmt"
	"strings"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/internal/omap"
	"github.com/pthm/vantage/pkg/expr"
)

// DefaultReturning is the column INSERT statements return when none is set.
const DefaultReturning = "id"

// Query is a statement under construction.
//
// With* methods mutate the receiver and return it for chaining. Misuse (such
// as set fields on a SELECT) is recorded and reported by Err, Build and any
// DataSource asked to run the query.
type Query struct {
	source    Source
	with      omap.Map[string, *Query]
	distinct  bool
	kind      Kind
	raw       expr.Expression
	fields    omap.Map[string, expr.Field]
	setFields omap.Map[string, any]
	where     Conditions
	having    Conditions
	joins     []JoinQuery
	groupBy   []expr.Expression
	orderBy   []expr.Expression
	skip      *int64
	limit     *int64
	returning string
	err       error
}

// New returns an empty SELECT.
func New() *Query {
	return &Query{
		where:     NewConditions(Where),
		having:    NewConditions(Having),
		returning: DefaultReturning,
	}
}

// NewRaw returns a query that renders e verbatim.
func NewRaw(e expr.Expression) *Query {
	q := New()
	q.kind = Raw
	q.raw = e
	return q
}

// Clone returns a deep copy of the query state. Sub-queries held as sources
// or CTEs are shared; they are treated as immutable once attached.
func (q *Query) Clone() *Query {
	c := *q
	c.with = q.with.Clone()
	c.fields = q.fields.Clone()
	c.setFields = q.setFields.Clone()
	c.where = q.where.clone()
	c.having = q.having.clone()
	c.joins = append([]JoinQuery(nil), q.joins...)
	for i := range c.joins {
		c.joins[i].On = c.joins[i].On.clone()
	}
	c.groupBy = append([]expr.Expression(nil), q.groupBy...)
	c.orderBy = append([]expr.Expression(nil), q.orderBy...)
	return &c
}

// Kind returns the statement kind.
func (q *Query) Kind() Kind { return q.kind }

// Source returns the statement source.
func (q *Query) Source() Source { return q.source }

// FieldNames returns the result column names in order.
func (q *Query) FieldNames() []string { return q.fields.Keys() }

// SetFieldNames returns the insert/update column names in order.
func (q *Query) SetFieldNames() []string { return q.setFields.Keys() }

// Err returns the first recorded construction error.
func (q *Query) Err() error { return q.err }

func (q *Query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// WithTable sets a named table as the source.
func (q *Query) WithTable(name, alias string) *Query {
	q.source = TableSource(name, alias)
	return q
}

// WithSource sets the source.
func (q *Query) WithSource(s Source) *Query {
	q.source = s
	return q
}

// WithCTE adds a common table expression: WITH name AS (sub).
func (q *Query) WithCTE(name string, sub *Query) *Query {
	q.with.Set(name, sub)
	return q
}

// WithKind changes the statement kind.
func (q *Query) WithKind(k Kind) *Query {
	q.kind = k
	return q
}

// Distinct renders SELECT DISTINCT.
func (q *Query) Distinct() *Query {
	q.distinct = true
	return q
}

// WithField adds a result column under name. A name that is already taken
// is ignored; the first registration wins.
func (q *Query) WithField(name string, f expr.Field) *Query {
	q.fields.SetIfAbsent(name, f)
	return q
}

// WithColumnField adds a plain column by name.
func (q *Query) WithColumnField(name string) *Query {
	return q.WithField(name, expr.NewColumn(name))
}

// WithoutFields drops every result column.
func (q *Query) WithoutFields() *Query {
	q.fields = omap.Map[string, expr.Field]{}
	return q
}

// WithCondition adds a WHERE predicate.
func (q *Query) WithCondition(cond expr.Chunk) *Query {
	q.where.Add(cond)
	return q
}

// WithHaving adds a HAVING predicate.
func (q *Query) WithHaving(cond expr.Chunk) *Query {
	q.having.Add(cond)
	return q
}

// WithJoin appends a JOIN clause.
func (q *Query) WithJoin(j JoinQuery) *Query {
	q.joins = append(q.joins, j)
	return q
}

// WithGroupBy appends a GROUP BY item.
func (q *Query) WithGroupBy(e expr.Chunk) *Query {
	q.groupBy = append(q.groupBy, e.Render())
	return q
}

// WithOrderBy appends an ORDER BY item. Items render in the order they were
// added; the first one is the primary sort key.
func (q *Query) WithOrderBy(e expr.Chunk) *Query {
	q.orderBy = append(q.orderBy, e.Render())
	return q
}

// WithSkip sets OFFSET.
func (q *Query) WithSkip(n int64) *Query {
	q.skip = &n
	return q
}

// WithLimit sets LIMIT.
func (q *Query) WithLimit(n int64) *Query {
	q.limit = &n
	return q
}

// WithSkipAndLimit sets OFFSET and LIMIT.
func (q *Query) WithSkipAndLimit(skip, limit int64) *Query {
	return q.WithSkip(skip).WithLimit(limit)
}

// WithReturning sets the column an INSERT returns.
func (q *Query) WithReturning(column string) *Query {
	q.returning = column
	return q
}

// SetField assigns a column value for INSERT, REPLACE or UPDATE. Values
// implementing expr.Chunk are rendered in place of a parameter.
func (q *Query) SetField(name string, value any) error {
	if !q.kind.acceptsSetFields() {
		return fmt.Errorf("%w: cannot set %q on a %s query", vantage.ErrSetFieldOnKind, name, q.kind)
	}
	q.setFields.Set(name, value)
	return nil
}

// WithSetField is the chainable SetField; failures are recorded on the query.
func (q *Query) WithSetField(name string, value any) *Query {
	if err := q.SetField(name, value); err != nil {
		q.fail(err)
	}
	return q
}

// Build validates and renders the query.
func (q *Query) Build() (expr.Expression, error) {
	e := q.Render()
	if err := e.Err(); err != nil {
		return expr.Expression{}, err
	}
	return e, nil
}

// Preview renders the query with parameters substituted, for diagnostics.
func (q *Query) Preview() string {
	return q.Render().Preview()
}

// Render implements expr.Chunk.
func (q *Query) Render() expr.Expression {
	if q.err != nil {
		return expr.Invalid(q.err)
	}
	switch q.kind {
	case Insert, Replace:
		return q.renderInsert()
	case Update:
		return q.renderUpdate()
	case Delete:
		return q.renderDelete()
	case Raw:
		return q.raw
	default:
		return q.renderSelect()
	}
}

// RenderColumn implements expr.Field, so a query can be a result column:
// (SELECT ...) AS alias.
func (q *Query) RenderColumn(alias string) expr.Expression {
	return q.Render().RenderColumn(alias)
}

func (q *Query) renderWith() expr.Expression {
	if q.with.Len() == 0 {
		return expr.Empty()
	}
	var ctes []expr.Chunk
	q.with.Each(func(name string, sub *Query) {
		ctes = append(ctes, expr.New(name+" AS ({})", sub))
	})
	return expr.New("WITH {} ", expr.Compose(", ", ctes...))
}

func (q *Query) renderFields() expr.Expression {
	if q.fields.Len() == 0 {
		return expr.New("*")
	}
	var cols []expr.Chunk
	q.fields.Each(func(name string, f expr.Field) {
		cols = append(cols, f.RenderColumn(name))
	})
	return expr.Compose(", ", cols...)
}

func (q *Query) renderJoins() expr.Expression {
	chunks := make([]expr.Chunk, len(q.joins))
	for i, j := range q.joins {
		chunks[i] = j
	}
	return expr.Compose("", chunks...)
}

func (q *Query) renderGroupBy() expr.Expression {
	if len(q.groupBy) == 0 {
		return expr.Empty()
	}
	return expr.New(" GROUP BY {}", expr.ComposeExpressions(", ", q.groupBy))
}

func (q *Query) renderOrderBy() expr.Expression {
	if len(q.orderBy) == 0 {
		return expr.Empty()
	}
	return expr.New(" ORDER BY {}", expr.ComposeExpressions(", ", q.orderBy))
}

func (q *Query) renderPagination() expr.Expression {
	var parts []expr.Chunk
	if q.skip != nil {
		parts = append(parts, expr.New(" OFFSET {}", expr.AsType(*q.skip, "int4")))
	}
	if q.limit != nil {
		parts = append(parts, expr.New(" LIMIT {}", expr.AsType(*q.limit, "int4")))
	}
	return expr.Compose("", parts...)
}

func (q *Query) renderSelect() expr.Expression {
	head := "SELECT"
	if q.distinct {
		head += " DISTINCT"
	}
	from := expr.Empty()
	if q.source.kind != SourceNone {
		from = expr.New(" {}", q.source)
	}
	return expr.Compose("",
		q.renderWith(),
		expr.New(head+" {}", q.renderFields()),
		from,
		q.renderJoins(),
		q.where,
		q.renderGroupBy(),
		q.renderOrderBy(),
		q.renderPagination(),
		q.having,
	)
}

func (q *Query) targetTable() (string, error) {
	if q.source.kind != SourceTable {
		return "", fmt.Errorf("%w: %s query needs a table source", vantage.ErrWrongSourceKind, q.kind)
	}
	return q.source.table, nil
}

// targetAliased is targetTable plus " AS alias" when the source has one, so
// WHERE conditions qualified by the alias still resolve.
func (q *Query) targetAliased() (string, error) {
	table, err := q.targetTable()
	if err != nil || q.source.alias == "" {
		return table, err
	}
	return table + " AS " + q.source.alias, nil
}

// checkSetFields rejects a write statement with nothing to write.
func (q *Query) checkSetFields() error {
	if q.setFields.Len() == 0 {
		return fmt.Errorf("%w: %s", vantage.ErrNoSetFields, q.kind)
	}
	return nil
}

func (q *Query) renderInsert() expr.Expression {
	table, err := q.targetTable()
	if err != nil {
		return expr.Invalid(err)
	}
	if err := q.checkSetFields(); err != nil {
		return expr.Invalid(err)
	}
	verb := "INSERT"
	if q.kind == Replace {
		verb = "REPLACE"
	}
	names := q.setFields.Keys()
	marks := make([]string, len(names))
	for i := range marks {
		marks[i] = "{}"
	}
	returning := ""
	if q.returning != "" {
		returning = " returning " + q.returning
	}
	return expr.New(
		fmt.Sprintf("%s INTO %s (%s) VALUES (%s)%s",
			verb, table, strings.Join(names, ", "), strings.Join(marks, ", "), returning),
		q.setFields.Values()...,
	)
}

func (q *Query) renderUpdate() expr.Expression {
	table, err := q.targetAliased()
	if err != nil {
		return expr.Invalid(err)
	}
	if err := q.checkSetFields(); err != nil {
		return expr.Invalid(err)
	}
	var sets []expr.Chunk
	q.setFields.Each(func(name string, v any) {
		sets = append(sets, expr.New(name+" = {}", v))
	})
	return expr.New("UPDATE "+table+" SET {}{}", expr.Compose(", ", sets...), q.where)
}

func (q *Query) renderDelete() expr.Expression {
	table, err := q.targetAliased()
	if err != nil {
		return expr.Invalid(err)
	}
	return expr.New("DELETE FROM "+table+"{}", q.where)
}
