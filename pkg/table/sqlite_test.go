package table

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/pthm/vantage/pkg/datasource"
	"github.com/pthm/vantage/pkg/datasource/sqlsource"
	"github.com/pthm/vantage/pkg/expr"
)

type shopClient struct {
	ID   int64  `db:"id,omitempty"`
	Name string `db:"name"`
}

type shopFixture struct {
	ds datasource.DataSource
}

func (f shopFixture) clients() *Table {
	return New("client", f.ds).
		WithAlias("c").
		WithIDColumn("id").
		WithColumns("name").
		WithMany("orders", "client_id", f.orders)
}

func (f shopFixture) orders() *Table {
	return New("ord", f.ds).
		WithIDColumn("id").
		WithColumns("client_id", "total").
		WithOne("client", "client_id", f.clients)
}

func openShop(t *testing.T) shopFixture {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE client (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)`,
		`CREATE TABLE ord (id INTEGER PRIMARY KEY AUTOINCREMENT, client_id INTEGER NOT NULL, total INTEGER NOT NULL)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return shopFixture{ds: sqlsource.New(db, sqlsource.WithPlaceholder(expr.QuestionNumbered))}
}

func seedShop(t *testing.T, f shopFixture) {
	t.Helper()
	ctx := context.Background()
	for _, name := range []string{"Marty", "Doc"} {
		_, err := f.clients().Insert(ctx, shopClient{Name: name})
		require.NoError(t, err)
	}
	for _, o := range []map[string]any{
		{"client_id": 1, "total": 10},
		{"client_id": 1, "total": 15},
		{"client_id": 2, "total": 7},
	} {
		_, err := f.orders().Insert(ctx, o)
		require.NoError(t, err)
	}
}

func TestSQLiteInsertAndGet(t *testing.T) {
	ctx := context.Background()
	f := openShop(t)

	id, err := f.clients().Insert(ctx, shopClient{Name: "Marty"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	got, err := Get[shopClient](ctx, f.clients())
	require.NoError(t, err)
	assert.Equal(t, []shopClient{{ID: 1, Name: "Marty"}}, got)

	missing, err := GetSome[shopClient](ctx, f.clients().WithID(99))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteRelations(t *testing.T) {
	ctx := context.Background()
	f := openShop(t)
	seedShop(t, f)

	marty := f.clients()
	marty.AddCondition(marty.MustColumn("name").Eq("Marty"))

	orders, err := marty.Ref("orders")
	require.NoError(t, err)
	ids, err := orders.GetColUntyped(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, ids)

	sum, err := orders.Sum(orders.MustColumn("total"))
	require.NoError(t, err)
	v, err := sum.GetOne(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 25, v)

	owner, err := f.orders().WithID(3).Ref("client")
	require.NoError(t, err)
	name, err := owner.FieldQuery(owner.MustColumn("name"))
	require.NoError(t, err)
	v, err = name.GetOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Doc", v)
}

func TestSQLiteImportedFields(t *testing.T) {
	ctx := context.Background()
	f := openShop(t)
	seedShop(t, f)

	withCount := f.clients().WithExpression("order_count", func(t *Table) expr.Expression {
		orders, err := t.LinkedRef("orders")
		if err != nil {
			return expr.Invalid(err)
		}
		count, err := orders.Count()
		if err != nil {
			return expr.Invalid(err)
		}
		return count.Render()
	})
	q, err := withCount.SelectQueryForFieldNames("name", "order_count")
	require.NoError(t, err)
	rows, err := f.ds.FetchRows(ctx, q)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"name": "Marty", "order_count": int64(2)}, rows[0].Map())
	assert.Equal(t, map[string]any{"name": "Doc", "order_count": int64(1)}, rows[1].Map())
}

func TestSQLiteUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := openShop(t)
	seedShop(t, f)

	require.NoError(t, f.clients().WithID(2).UpdateWith(ctx, map[string]any{"name": "Emmett"}))
	ids, err := f.clients().GetColUntyped(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, ids)

	row, err := f.clients().WithID(2).GetRowUntyped(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Emmett", row.Map()["name"])

	small := f.orders()
	small.AddCondition(small.MustColumn("total").Lt(10))
	require.NoError(t, small.Delete(ctx))

	count, err := f.orders().Count()
	require.NoError(t, err)
	v, err := count.GetOne(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}
