package table

import (
	"fmt"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/pkg/expr"
)

// Factory builds a fresh target table for a relation.
type Factory func() *Table

// Relation links an owner table to a target data set.
type Relation interface {
	// RelatedSet returns the target narrowed to rows related to owner's
	// current set, through an IN sub-query.
	RelatedSet(owner *Table) (*Table, error)
	// LinkedSet returns the target correlated to owner by an equality on
	// qualified columns, for use inside owner's own statement.
	LinkedSet(owner *Table) (*Table, error)
}

// HasMany is a relation where target rows carry foreignKey pointing at the
// owner's id.
func HasMany(foreignKey string, factory Factory) Relation {
	return many{foreignKey: foreignKey, factory: factory}
}

// HasOne is a relation where the owner carries foreignKey pointing at the
// target's id.
func HasOne(foreignKey string, factory Factory) Relation {
	return one{foreignKey: foreignKey, factory: factory}
}

type many struct {
	foreignKey string
	factory    Factory
}

// RelatedSet: target.fk IN (SELECT owner.id FROM owner ...).
func (r many) RelatedSet(owner *Table) (*Table, error) {
	target := r.factory()
	fk, err := target.Column(r.foreignKey)
	if err != nil {
		return nil, err
	}
	id, err := owner.ID()
	if err != nil {
		return nil, err
	}
	ids, err := owner.SelectQueryForField(id.Name(), id)
	if err != nil {
		return nil, err
	}
	target.AddCondition(fk.InExpr(ids))
	return target, nil
}

// LinkedSet: target.fk = owner.id.
func (r many) LinkedSet(owner *Table) (*Table, error) {
	target := r.factory()
	fk, err := target.ColumnWithTableAlias(r.foreignKey)
	if err != nil {
		return nil, err
	}
	id, err := owner.IDWithTableAlias()
	if err != nil {
		return nil, err
	}
	target.AddCondition(fk.Eq(id))
	return target, nil
}

type one struct {
	foreignKey string
	factory    Factory
}

// RelatedSet: target.id IN (SELECT owner.fk FROM owner ...).
func (r one) RelatedSet(owner *Table) (*Table, error) {
	target := r.factory()
	id, err := target.ID()
	if err != nil {
		return nil, err
	}
	fk, err := owner.Column(r.foreignKey)
	if err != nil {
		return nil, err
	}
	keys, err := owner.SelectQueryForField(fk.Name(), fk)
	if err != nil {
		return nil, err
	}
	target.AddCondition(id.InExpr(keys))
	return target, nil
}

// LinkedSet: target.id = owner.fk.
func (r one) LinkedSet(owner *Table) (*Table, error) {
	target := r.factory()
	id, err := target.IDWithTableAlias()
	if err != nil {
		return nil, err
	}
	fk, err := owner.ColumnWithTableAlias(r.foreignKey)
	if err != nil {
		return nil, err
	}
	target.AddCondition(id.Eq(fk))
	return target, nil
}

// AddRelation registers a named relation.
func (t *Table) AddRelation(name string, r Relation) {
	t.relations.Set(name, r)
}

// WithMany registers a one-to-many relation.
func (t *Table) WithMany(name, foreignKey string, factory Factory) *Table {
	t.AddRelation(name, HasMany(foreignKey, factory))
	return t
}

// WithOne registers a many-to-one relation.
func (t *Table) WithOne(name, foreignKey string, factory Factory) *Table {
	t.AddRelation(name, HasOne(foreignKey, factory))
	return t
}

// Relations returns the registered relation names.
func (t *Table) Relations() []string {
	return t.relations.Keys()
}

func (t *Table) relation(name string) (Relation, error) {
	r, ok := t.relations.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: table %q has no relation %q", vantage.ErrRelationNotFound, t.name, name)
	}
	return r, nil
}

// Ref traverses a relation, returning the related rows of the current set.
// Traversals nest: each one wraps the previous set in another IN sub-query.
func (t *Table) Ref(name string) (*Table, error) {
	if t.err != nil {
		return nil, t.err
	}
	r, err := t.relation(name)
	if err != nil {
		return nil, err
	}
	return r.RelatedSet(t)
}

// LinkedRef returns the related set correlated to t by column equality.
func (t *Table) LinkedRef(name string) (*Table, error) {
	if t.err != nil {
		return nil, t.err
	}
	r, err := t.relation(name)
	if err != nil {
		return nil, err
	}
	return r.LinkedSet(t)
}

// AddImportedFields adds computed columns <relation>_<name> that select a
// column of the linked set as a scalar sub-query.
func (t *Table) AddImportedFields(relation string, names ...string) error {
	if _, err := t.relation(relation); err != nil {
		return err
	}
	for _, name := range names {
		t.AddExpression(relation+"_"+name, func(t *Table) expr.Expression {
			linked, err := t.LinkedRef(relation)
			if err != nil {
				return expr.Invalid(err)
			}
			col, err := linked.Column(name)
			if err != nil {
				return expr.Invalid(err)
			}
			q, err := linked.SelectQueryForField(name, col)
			if err != nil {
				return expr.Invalid(err)
			}
			return q.Render()
		})
	}
	return nil
}

// WithImportedFields is the chainable form of AddImportedFields.
func (t *Table) WithImportedFields(relation string, names ...string) *Table {
	return t.fail(t.AddImportedFields(relation, names...))
}
