package model

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/vantage/pkg/datasource"
)

const shop = `
tables:
  - name: users
    title: name
    columns: [name, role_id, is_deleted]
    soft_delete: is_deleted
    has_many:
      - {name: orders, table: orders, foreign_key: user_id}
    has_one:
      - {name: role, table: roles, foreign_key: role_id}
    imported:
      - {relation: role, columns: [name]}
  - name: roles
    columns: [name]
  - name: orders
    alias: o
    columns: [user_id, total]
    has_one:
      - {name: user, table: users, foreign_key: user_id}
`

func load(t *testing.T, doc string) *Registry {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/models/shop.yaml", []byte(doc), 0o644))
	r, err := Load(fs, "/models/shop.yaml")
	require.NoError(t, err)
	return r
}

func TestLoad(t *testing.T) {
	r := load(t, shop)
	assert.Equal(t, []string{"users", "roles", "orders"}, r.Names())

	def, ok := r.Definition("orders")
	require.True(t, ok)
	assert.Equal(t, "o", def.Alias)
	assert.Equal(t, "user_id", def.HasOne[0].ForeignKey)
}

func TestRegistryTable(t *testing.T) {
	r := load(t, shop)
	db := datasource.NewMock()

	users, err := r.Table("users", db)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "role_id", "is_deleted"}, users.Columns())
	assert.Equal(t, "name", users.TitleColumn())
	assert.Equal(t, []string{"orders", "role"}, users.Relations())

	q, err := users.SelectQuery()
	require.NoError(t, err)
	e, err := q.Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name, role_id, is_deleted FROM users WHERE (is_deleted = {})", e.Template())
	assert.Equal(t, []any{false}, e.Params())
}

func TestRegistryTablesAreFresh(t *testing.T) {
	r := load(t, shop)
	db := datasource.NewMock()

	a, err := r.Table("roles", db)
	require.NoError(t, err)
	a.AddCondition(a.MustColumn("name").Eq("admin"))

	b, err := r.Table("roles", db)
	require.NoError(t, err)
	assert.Empty(t, b.Conditions())
}

func TestRelationsResolveThroughRegistry(t *testing.T) {
	r := load(t, shop)
	users, err := r.Table("users", datasource.NewMock())
	require.NoError(t, err)

	orders, err := users.Ref("orders")
	require.NoError(t, err)
	assert.Equal(t, "o", orders.Alias())

	q, err := orders.SelectQuery()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT o.id, o.user_id, o.total FROM orders AS o "+
			"WHERE (o.user_id IN (SELECT id FROM users WHERE (is_deleted = false)))",
		q.Preview())

	back, err := orders.Ref("user")
	require.NoError(t, err)
	q, err = back.SelectQuery()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, name, role_id, is_deleted FROM users WHERE "+
			"(id IN (SELECT o.user_id FROM orders AS o WHERE (o.user_id IN (SELECT id FROM users WHERE (is_deleted = false))))) "+
			"AND (is_deleted = false)",
		q.Preview())
}

func TestImportedColumns(t *testing.T) {
	r := load(t, shop)
	users, err := r.Table("users", datasource.NewMock())
	require.NoError(t, err)

	q, err := users.SelectQueryForFieldNames("name", "role_name")
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT name, (SELECT name FROM roles WHERE (roles.id = users.role_id)) AS role_name "+
			"FROM users WHERE (is_deleted = false)",
		q.Preview())
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		unknown bool
		message string
	}{
		{
			name:    "empty name",
			doc:     "tables:\n  - columns: [a]\n",
			message: "table #1 has no name",
		},
		{
			name:    "duplicate table",
			doc:     "tables:\n  - name: a\n  - name: a\n",
			message: `table "a" defined twice`,
		},
		{
			name:    "unknown target",
			doc:     "tables:\n  - name: a\n    has_many:\n      - {name: bs, table: b, foreign_key: a_id}\n",
			unknown: true,
			message: `relation a.bs targets "b"`,
		},
		{
			name:    "missing foreign key",
			doc:     "tables:\n  - name: a\n    has_one:\n      - {name: self, table: a}\n",
			message: "relation a.self has no foreign_key",
		},
		{
			name:    "duplicate relation",
			doc:     "tables:\n  - name: a\n    has_one:\n      - {name: p, table: a, foreign_key: x}\n    has_many:\n      - {name: p, table: a, foreign_key: x}\n",
			message: "relation a.p defined twice",
		},
		{
			name:    "import from unknown relation",
			doc:     "tables:\n  - name: a\n    imported:\n      - {relation: b, columns: [name]}\n",
			message: `imports from unknown relation "b"`,
		},
		{
			name:    "unknown key",
			doc:     "tables:\n  - name: a\n    colums: [x]\n",
			message: "colums",
		},
		{
			name:    "malformed",
			doc:     "tables: [",
			message: "invalid definition",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			if tt.unknown {
				assert.True(t, IsUnknownTableErr(err))
			} else {
				assert.True(t, IsInvalidModelErr(err))
			}
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestUnknownTable(t *testing.T) {
	r := load(t, shop)
	_, err := r.Table("invoices", datasource.NewMock())
	assert.True(t, IsUnknownTableErr(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nope.yaml")
}
