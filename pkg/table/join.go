package table

import (
	"fmt"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/pkg/alias"
	"github.com/pthm/vantage/pkg/expr"
	"github.com/pthm/vantage/pkg/query"
)

// Join is a table attached to its parent with a LEFT JOIN. Its columns are
// selected with the join alias as prefix: r.name AS r_name.
type Join struct {
	table *Table
	fk    string
	on    []expr.Condition
	query query.JoinQuery
}

// Alias returns the join alias.
func (j *Join) Alias() string { return j.table.alias }

// Table returns the joined table.
func (j *Join) Table() *Table { return j.table }

// Query returns the JOIN clause.
func (j *Join) Query() query.JoinQuery { return j.query }

// Column returns a column of the joined table, qualified by the join alias.
func (j *Join) Column(name string) (expr.Column, error) {
	return j.table.Column(name)
}

// AddJoin attaches a clone of their with a LEFT JOIN on
// t.ourForeignKey = their.id. their itself is left untouched.
//
// Both tables receive an alias if they have none. Conditions already set on
// their move into the ON clause, so the join never narrows t's rows.
// The tables must have separate alias allocators (clone a table before
// joining it with itself) and their reserved aliases must not collide.
func (t *Table) AddJoin(their *Table, ourForeignKey string) (*Join, error) {
	if t.aliases == their.aliases {
		return nil, fmt.Errorf("%w: %s, %s", vantage.ErrAlreadyJoined, t.name, their.name)
	}
	if their.aliases.HasConflict(t.aliases) {
		return nil, fmt.Errorf("%w: %s, %s", vantage.ErrAliasConflict, t.name, their.name)
	}
	if _, err := t.Column(ourForeignKey); err != nil {
		return nil, err
	}
	if _, err := their.ID(); err != nil {
		return nil, err
	}

	their = their.Clone()
	t.aliases.Merge(their.aliases)
	their.shareAliases(t.aliases)

	if their.alias == "" {
		their.SetAlias(t.aliases.ForTable(their.name))
	}
	if t.alias == "" {
		t.SetAlias(t.aliases.ForTable(t.name))
	}

	j := &Join{table: their, fk: ourForeignKey, on: their.conditions}
	their.conditions = nil
	j.query = t.joinQuery(j)
	t.joins.Set(their.alias, j)
	return j, nil
}

// joinQuery renders the JOIN clause of j with t's current qualifier. The
// foreign key and the joined id were validated by AddJoin.
func (t *Table) joinQuery(j *Join) query.JoinQuery {
	fk, _ := t.Column(j.fk)
	theirID, _ := j.table.ID()

	jq := query.NewJoinQuery(query.LeftJoin, query.TableSource(j.table.name, j.table.alias))
	jq.On.Add(fk.Eq(theirID))
	for _, c := range j.on {
		jq.On.Add(c)
	}
	return jq
}

// shareAliases points t and every table joined under it at a.
func (t *Table) shareAliases(a *alias.Allocator) {
	t.aliases = a
	t.joins.Each(func(_ string, j *Join) {
		j.table.shareAliases(a)
	})
}

// WithJoin is the chainable form of AddJoin.
func (t *Table) WithJoin(their *Table, ourForeignKey string) *Table {
	_, err := t.AddJoin(their, ourForeignKey)
	return t.fail(err)
}

// Join returns the join registered under alias.
func (t *Table) Join(alias string) (*Join, bool) {
	return t.joins.Get(alias)
}

// Joins returns the joins in the order they were added.
func (t *Table) Joins() []*Join {
	return t.joins.Values()
}
