// Package expr provides the composition primitives of the query builder.
//
// An Expression is an immutable SQL template with "{}" placeholders and an
// ordered parameter list. Anything that renders to an Expression implements
// Chunk; Columns and Conditions are the two Chunks most code builds by hand.
//
// Chunks passed as parameters are flattened at construction time, so an
// Expression never holds a nested Expression in its parameter list:
//
//	inner := expr.New("age > {}", 30)
//	outer := expr.New("name = {} AND {}", "John", inner)
//	outer.Template() // name = {} AND age > {}
//	outer.Params()   // ["John", 30]
//	outer.Final()    // name = $1 AND age > $2
package expr
