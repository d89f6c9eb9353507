package query

import (
	"github.com/pthm/vantage/pkg/expr"
)

// Kind selects the statement a Query renders.
type Kind int

const (
	Select Kind = iota
	Insert
	Update
	Replace
	Delete
	// Raw renders a held Expression verbatim.
	Raw
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Replace:
		return "replace"
	case Delete:
		return "delete"
	case Raw:
		return "raw"
	default:
		return "select"
	}
}

// acceptsSetFields reports whether set fields are meaningful for k.
func (k Kind) acceptsSetFields() bool {
	return k == Insert || k == Update || k == Replace
}

// =============================================================================
// Sources
// =============================================================================

// SourceKind tags the variant held by a Source.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceTable
	SourceQuery
	SourceExpression
)

// Source is what a statement reads from or writes to: a named table, a
// sub-query or a raw expression, each optionally aliased.
type Source struct {
	kind  SourceKind
	table string
	query *Query
	expr  expr.Expression
	alias string
}

// TableSource references a table by name.
func TableSource(name, alias string) Source {
	return Source{kind: SourceTable, table: name, alias: alias}
}

// SubQuerySource reads from a sub-query.
func SubQuerySource(q *Query, alias string) Source {
	return Source{kind: SourceQuery, query: q, alias: alias}
}

// ExpressionSource reads from a raw expression, e.g. GENERATE_SERIES(1, 10).
func ExpressionSource(e expr.Expression, alias string) Source {
	return Source{kind: SourceExpression, expr: e, alias: alias}
}

// Kind returns the variant.
func (s Source) Kind() SourceKind { return s.kind }

// Table returns the table name of a SourceTable.
func (s Source) Table() string { return s.table }

// Alias returns the alias, or "".
func (s Source) Alias() string { return s.alias }

// Render implements expr.Chunk: FROM source [AS alias].
func (s Source) Render() expr.Expression {
	return s.renderPrefix("FROM ")
}

func (s Source) renderPrefix(prefix string) expr.Expression {
	suffix := ""
	if s.alias != "" {
		suffix = " AS " + s.alias
	}
	switch s.kind {
	case SourceTable:
		return expr.New(prefix + s.table + suffix)
	case SourceQuery:
		return expr.New(prefix+"({})"+suffix, s.query)
	case SourceExpression:
		return expr.New(prefix+"{}"+suffix, s.expr)
	default:
		return expr.Empty()
	}
}

// =============================================================================
// Condition lists
// =============================================================================

// ConditionType selects the keyword of a predicate list.
type ConditionType int

const (
	Where ConditionType = iota
	Having
	On
)

// Conditions is an AND-joined predicate list.
type Conditions struct {
	typ   ConditionType
	items []expr.Expression
}

// NewConditions returns an empty list of the given type.
func NewConditions(typ ConditionType) Conditions {
	return Conditions{typ: typ}
}

// Add appends a predicate.
func (c *Conditions) Add(cond expr.Chunk) {
	c.items = append(c.items, cond.Render())
}

// Len returns the number of predicates.
func (c Conditions) Len() int { return len(c.items) }

// Render implements expr.Chunk. WHERE and HAVING lists render with a leading
// space so they can be appended to a statement; an empty list renders nothing.
func (c Conditions) Render() expr.Expression {
	if len(c.items) == 0 {
		return expr.Empty()
	}
	joined := expr.ComposeExpressions(" AND ", c.items)
	switch c.typ {
	case Having:
		return expr.New(" HAVING {}", joined)
	case On:
		return expr.New("ON {}", joined)
	default:
		return expr.New(" WHERE {}", joined)
	}
}

func (c Conditions) clone() Conditions {
	return Conditions{typ: c.typ, items: append([]expr.Expression(nil), c.items...)}
}

// =============================================================================
// Joins
// =============================================================================

// JoinType selects the join keyword.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
)

func (t JoinType) keyword() string {
	switch t {
	case LeftJoin:
		return "LEFT JOIN "
	case RightJoin:
		return "RIGHT JOIN "
	case FullJoin:
		return "FULL JOIN "
	default:
		return "JOIN "
	}
}

// JoinQuery is one JOIN clause of a SELECT.
type JoinQuery struct {
	Type   JoinType
	Source Source
	On     Conditions
}

// NewJoinQuery creates a join with an empty ON list.
func NewJoinQuery(typ JoinType, source Source) JoinQuery {
	return JoinQuery{Type: typ, Source: source, On: NewConditions(On)}
}

// Render implements expr.Chunk: " LEFT JOIN t AS a ON ...".
func (j JoinQuery) Render() expr.Expression {
	source := j.Source.renderPrefix(j.Type.keyword())
	if j.On.Len() == 0 {
		return expr.New(" {}", source)
	}
	return expr.New(" {} {}", source, j.On)
}
