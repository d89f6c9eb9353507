package expr

import "strings"

// Comparison operators on columns

// Eq renders (col = v).
func (c Column) Eq(v any) Condition { return FromColumn(c, "=", v) }

// Ne renders (col != v).
func (c Column) Ne(v any) Condition { return FromColumn(c, "!=", v) }

// Gt renders (col > v).
func (c Column) Gt(v any) Condition { return FromColumn(c, ">", v) }

// Lt renders (col < v).
func (c Column) Lt(v any) Condition { return FromColumn(c, "<", v) }

// Gte renders (col >= v).
func (c Column) Gte(v any) Condition { return FromColumn(c, ">=", v) }

// Lte renders (col <= v).
func (c Column) Lte(v any) Condition { return FromColumn(c, "<=", v) }

// In renders (col IN ({}, {}, ...)) with one parameter per value.
func (c Column) In(values ...any) Condition { return FromColumn(c, "IN", valueList(values)) }

// InExpr renders (col IN (sub)), typically with a sub-query.
func (c Column) InExpr(sub Chunk) Condition { return FromColumn(c, "IN", New("({})", sub)) }

// IsNull renders (col IS NULL).
func (c Column) IsNull() Condition { return FromColumn(c, "IS", Expression{template: "NULL"}) }

// IsNotNull renders (col IS NOT NULL).
func (c Column) IsNotNull() Condition { return FromColumn(c, "IS NOT", Expression{template: "NULL"}) }

// Comparison operators on expressions

// Eq renders (expr = v).
func (e Expression) Eq(v any) Condition { return FromExpression(e, "=", v) }

// Ne renders (expr != v).
func (e Expression) Ne(v any) Condition { return FromExpression(e, "!=", v) }

// Gt renders (expr > v).
func (e Expression) Gt(v any) Condition { return FromExpression(e, ">", v) }

// Lt renders (expr < v).
func (e Expression) Lt(v any) Condition { return FromExpression(e, "<", v) }

// InExpr renders (expr IN (sub)).
func (e Expression) InExpr(sub Chunk) Condition { return FromExpression(e, "IN", New("({})", sub)) }

// Arithmetic and functions

// Add renders (a) + (b).
func Add(a, b Chunk) Expression { return New("({}) + ({})", a, b) }

// Sub renders (a) - (b).
func Sub(a, b Chunk) Expression { return New("({}) - ({})", a, b) }

// Upper renders UPPER(x).
func Upper(x Chunk) Expression { return New("UPPER({})", x) }

// Sum renders SUM(x).
func Sum(x Chunk) Expression { return New("SUM({})", x) }

// Count renders COUNT(*).
func Count() Expression { return Expression{template: "COUNT(*)"} }

// Concat renders CONCAT(a, b, ...).
func Concat(args ...Chunk) Expression { return New("CONCAT({})", Compose(", ", args...)) }

func valueList(values []any) Expression {
	if len(values) == 0 {
		return Expression{template: "(NULL)"}
	}
	marks := strings.TrimSuffix(strings.Repeat("{}, ", len(values)), ", ")
	return New("("+marks+")", values...)
}
