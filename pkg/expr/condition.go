package expr

import "slices"

// operandKind tags the left side of a Condition.
type operandKind int

const (
	operandColumn operandKind = iota
	operandExpression
	operandCondition
	operandValue
)

// Condition is a binary predicate rendered as (operand OP value).
//
// AND and OR are Conditions whose operand and value are both Conditions, so
// nesting always carries its own parentheses and precedence never depends
// on the surrounding text.
type Condition struct {
	kind      operandKind
	column    Column
	expr      Expression
	condition *Condition
	value     any
	op        string
	rhs       Chunk
}

// FromColumn builds a condition on a column. The column keeps its identity,
// so a later table alias change is applied to it (see SetTableAlias).
func FromColumn(col Column, op string, value any) Condition {
	return Condition{kind: operandColumn, column: col, op: op, rhs: chunkOf(value)}
}

// FromExpression builds a condition on an arbitrary expression.
func FromExpression(e Expression, op string, value any) Condition {
	return Condition{kind: operandExpression, expr: e, op: op, rhs: chunkOf(value)}
}

// FromCondition builds a condition whose operand is another condition.
func FromCondition(nested Condition, op string, value any) Condition {
	return Condition{kind: operandCondition, condition: &nested, op: op, rhs: chunkOf(value)}
}

// FromValue builds a condition whose operand is a bound parameter.
func FromValue(v any, op string, value any) Condition {
	return Condition{kind: operandValue, value: v, op: op, rhs: chunkOf(value)}
}

// And combines two conditions: ((c) AND (other)).
func (c Condition) And(other Condition) Condition {
	return FromCondition(c, "AND", other)
}

// Or combines two conditions: ((c) OR (other)).
func (c Condition) Or(other Condition) Condition {
	return FromCondition(c, "OR", other)
}

// Operator returns the operator text.
func (c Condition) Operator() string { return c.op }

// SetTableAlias re-qualifies a column operand, recursing into nested
// conditions on both sides. Columns used as the compared value are left
// alone: they usually belong to another table.
func (c *Condition) SetTableAlias(alias string) {
	switch c.kind {
	case operandColumn:
		c.column.SetTableAlias(alias)
	case operandCondition:
		nested := *c.condition
		nested.SetTableAlias(alias)
		c.condition = &nested
	}
	if rhs, ok := c.rhs.(Condition); ok {
		rhs.SetTableAlias(alias)
		c.rhs = rhs
	}
}

// ReplaceTableAlias is SetTableAlias restricted to column operands whose
// current qualifier is one of from. Columns of other tables keep theirs.
func (c *Condition) ReplaceTableAlias(alias string, from ...string) {
	switch c.kind {
	case operandColumn:
		if slices.Contains(from, c.column.TableAlias()) {
			c.column.SetTableAlias(alias)
		}
	case operandCondition:
		nested := *c.condition
		nested.ReplaceTableAlias(alias, from...)
		c.condition = &nested
	}
	if rhs, ok := c.rhs.(Condition); ok {
		rhs.ReplaceTableAlias(alias, from...)
		c.rhs = rhs
	}
}

// WithTableAlias returns a copy re-qualified by alias.
func (c Condition) WithTableAlias(alias string) Condition {
	c.SetTableAlias(alias)
	return c
}

// Render implements Chunk.
func (c Condition) Render() Expression {
	return New("({} "+c.op+" {})", c.renderOperand(), c.rhs)
}

func (c Condition) renderOperand() Expression {
	switch c.kind {
	case operandColumn:
		return c.column.Render()
	case operandExpression:
		return c.expr
	case operandCondition:
		return c.condition.Render()
	default:
		return Value(c.value)
	}
}

// chunkOf turns a right-hand value into a Chunk; scalars become parameters.
func chunkOf(v any) Chunk {
	if c, ok := v.(Chunk); ok {
		return c
	}
	return Value(v)
}
