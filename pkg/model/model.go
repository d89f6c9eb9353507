// Package model loads declarative table definitions.
//
// A model file lists tables with their columns, relations and hooks:
//
//	tables:
//	  - name: users
//	    id: id
//	    title: name
//	    columns: [name, role_id, is_deleted]
//	    soft_delete: is_deleted
//	    has_many:
//	      - {name: orders, table: orders, foreign_key: user_id}
//	    has_one:
//	      - {name: role, table: roles, foreign_key: role_id}
//	    imported:
//	      - {relation: role, columns: [name]}
//
// Loading yields a Registry that builds fresh tables bound to a DataSource.
// Relation targets resolve through the same Registry when traversed.
package model

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"

	"github.com/pthm/vantage/pkg/datasource"
	"github.com/pthm/vantage/pkg/extension"
	"github.com/pthm/vantage/pkg/table"
)

var (
	// ErrInvalidModel is returned when a model document fails validation.
	ErrInvalidModel = errors.New("model: invalid definition")

	// ErrUnknownTable is returned when a table name is not defined.
	ErrUnknownTable = errors.New("model: unknown table")
)

// IsInvalidModelErr returns true if err is or wraps ErrInvalidModel.
func IsInvalidModelErr(err error) bool {
	return errors.Is(err, ErrInvalidModel)
}

// IsUnknownTableErr returns true if err is or wraps ErrUnknownTable.
func IsUnknownTableErr(err error) bool {
	return errors.Is(err, ErrUnknownTable)
}

// Document is the top level of a model file.
type Document struct {
	Tables []TableDef `json:"tables"`
}

// TableDef declares one table.
type TableDef struct {
	Name       string        `json:"name"`
	Alias      string        `json:"alias,omitempty"`
	ID         string        `json:"id,omitempty"`
	Title      string        `json:"title,omitempty"`
	Columns    []string      `json:"columns,omitempty"`
	SoftDelete string        `json:"soft_delete,omitempty"`
	HasMany    []RelationDef `json:"has_many,omitempty"`
	HasOne     []RelationDef `json:"has_one,omitempty"`
	Imported   []ImportDef   `json:"imported,omitempty"`
}

// RelationDef declares a named relation to another table.
type RelationDef struct {
	Name       string `json:"name"`
	Table      string `json:"table"`
	ForeignKey string `json:"foreign_key"`
}

// ImportDef pulls columns of a related table in as computed columns.
type ImportDef struct {
	Relation string   `json:"relation"`
	Columns  []string `json:"columns"`
}

// Registry holds validated table definitions.
type Registry struct {
	order []string
	defs  map[string]TableDef
}

// Load reads and parses the model file at path.
func Load(fs afero.Fs, path string) (*Registry, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse parses and validates a model document.
func Parse(data []byte) (*Registry, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return NewRegistry(doc)
}

// NewRegistry validates doc and indexes its tables.
func NewRegistry(doc Document) (*Registry, error) {
	r := &Registry{defs: make(map[string]TableDef, len(doc.Tables))}
	for i, def := range doc.Tables {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: table #%d has no name", ErrInvalidModel, i+1)
		}
		if _, dup := r.defs[def.Name]; dup {
			return nil, fmt.Errorf("%w: table %q defined twice", ErrInvalidModel, def.Name)
		}
		r.defs[def.Name] = def
		r.order = append(r.order, def.Name)
	}
	for _, name := range r.order {
		if err := r.validate(r.defs[name]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) validate(def TableDef) error {
	relations := make(map[string]bool)
	for _, rel := range append(append([]RelationDef(nil), def.HasMany...), def.HasOne...) {
		switch {
		case rel.Name == "":
			return fmt.Errorf("%w: table %q has a relation without a name", ErrInvalidModel, def.Name)
		case rel.ForeignKey == "":
			return fmt.Errorf("%w: relation %s.%s has no foreign_key", ErrInvalidModel, def.Name, rel.Name)
		case relations[rel.Name]:
			return fmt.Errorf("%w: relation %s.%s defined twice", ErrInvalidModel, def.Name, rel.Name)
		}
		if _, ok := r.defs[rel.Table]; !ok {
			return fmt.Errorf("%w: relation %s.%s targets %q", ErrUnknownTable, def.Name, rel.Name, rel.Table)
		}
		relations[rel.Name] = true
	}
	for _, imp := range def.Imported {
		if !relations[imp.Relation] {
			return fmt.Errorf("%w: table %q imports from unknown relation %q", ErrInvalidModel, def.Name, imp.Relation)
		}
	}
	return nil
}

// Names returns the table names in document order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definition returns the declaration of name.
func (r *Registry) Definition(name string) (TableDef, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Table builds a fresh table for name bound to ds.
func (r *Registry) Table(name string, ds datasource.DataSource) (*table.Table, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	t := r.build(def, ds)
	if err := t.Err(); err != nil {
		return nil, fmt.Errorf("build table %s: %w", name, err)
	}
	return t, nil
}

// Factory returns a table factory for name. The name must exist.
func (r *Registry) Factory(name string, ds datasource.DataSource) table.Factory {
	return func() *table.Table {
		return r.build(r.defs[name], ds)
	}
}

func (r *Registry) build(def TableDef, ds datasource.DataSource) *table.Table {
	t := table.New(def.Name, ds)
	if def.Alias != "" {
		t.SetAlias(def.Alias)
	}
	id := def.ID
	if id == "" {
		id = table.DefaultIDColumn
	}
	t.WithIDColumn(id)
	if def.Title != "" {
		t.WithTitleColumn(def.Title)
	}
	for _, c := range def.Columns {
		if !t.HasColumn(c) {
			t.AddColumn(c)
		}
	}
	if def.SoftDelete != "" {
		t.WithExtension(extension.NewSoftDelete(def.SoftDelete))
	}
	for _, rel := range def.HasMany {
		t.WithMany(rel.Name, rel.ForeignKey, r.Factory(rel.Table, ds))
	}
	for _, rel := range def.HasOne {
		t.WithOne(rel.Name, rel.ForeignKey, r.Factory(rel.Table, ds))
	}
	for _, imp := range def.Imported {
		t.WithImportedFields(imp.Relation, imp.Columns...)
	}
	return t
}
