// Package extension provides reusable table hooks.
package extension

import (
	"github.com/pthm/vantage/pkg/query"
	"github.com/pthm/vantage/pkg/table"
)

// SoftDelete hides rows whose flag column is true and turns deletes into an
// UPDATE that sets the flag.
type SoftDelete struct {
	field string
}

var _ table.Extension = SoftDelete{}

// NewSoftDelete returns a SoftDelete hook on the boolean column field.
func NewSoftDelete(field string) SoftDelete {
	return SoftDelete{field: field}
}

// Field returns the flag column name.
func (s SoftDelete) Field() string { return s.field }

// Init adds the flag column unless the table already declares it.
func (s SoftDelete) Init(t *table.Table) error {
	if !t.HasColumn(s.field) {
		t.AddColumn(s.field)
	}
	return nil
}

// BeforeSelect appends (field = false).
func (s SoftDelete) BeforeSelect(t *table.Table, q *query.Query) error {
	col, err := t.Column(s.field)
	if err != nil {
		return err
	}
	q.WithCondition(col.Eq(false))
	return nil
}

// BeforeDelete rewrites the statement to UPDATE ... SET field = true.
func (s SoftDelete) BeforeDelete(_ *table.Table, q *query.Query) error {
	q.WithKind(query.Update)
	return q.SetField(s.field, true)
}
