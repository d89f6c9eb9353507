// Package vantage is a composable SQL query builder with lightweight entity
// mapping.
//
// A [table.Table] describes a named data set: its columns, conditions,
// joins, computed columns and relations. Tables produce [query.Query] values,
// which render to an [expr.Expression]: a template with "{}" placeholders and
// an ordered parameter list. User data is never concatenated into SQL text.
//
//	users := table.New("users", ds).
//		WithIDColumn("id").
//		WithColumn("name")
//	users.AddCondition(users.MustColumn("name").Eq("John"))
//
//	q, _ := users.SelectQuery()
//	e, _ := q.Build()
//	e.Final()  // SELECT id, name FROM users WHERE (name = $1)
//	e.Params() // ["John"]
//
// The root package holds the sentinel errors shared by the sub-packages.
//
// [table.Table]: github.com/pthm/vantage/pkg/table.Table
// [query.Query]: github.com/pthm/vantage/pkg/query.Query
// [expr.Expression]: github.com/pthm/vantage/pkg/expr.Expression
package vantage
