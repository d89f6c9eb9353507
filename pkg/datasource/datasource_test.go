package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/pkg/expr"
	"github.com/pthm/vantage/pkg/query"
)

func TestRow(t *testing.T) {
	r := Pairs("id", 1, "name", "John", "dangling")

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"id", "name"}, r.Columns())

	v, ok := r.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "John", v)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"name":"John"}`, string(data))
}

func TestNewRowTruncates(t *testing.T) {
	r := NewRow([]string{"a", "b", "c"}, []any{1, 2})
	assert.Equal(t, []string{"a", "b"}, r.Columns())
	assert.Equal(t, []any{1, 2}, r.Values())
}

func TestRowDecode(t *testing.T) {
	type user struct {
		ID     int64  `db:"id"`
		Name   string `db:"name"`
		Active bool   `db:"is_active"`
	}

	var u user
	err := Pairs("id", "42", "name", "John", "is_active", int64(1)).Decode(&u)
	require.NoError(t, err)
	assert.Equal(t, user{ID: 42, Name: "John", Active: true}, u)
}

func TestPrepare(t *testing.T) {
	t.Run("invalid expression", func(t *testing.T) {
		_, err := Prepare(expr.New("a = {}"))
		assert.ErrorIs(t, err, vantage.ErrPlaceholderMismatch)
	})

	t.Run("empty statement", func(t *testing.T) {
		_, err := Prepare(expr.Empty())
		assert.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		e, err := Prepare(query.New().WithTable("users", ""))
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM users", e.Template())
	})
}

func TestExecError(t *testing.T) {
	cause := errors.New("duplicate key")
	err := &ExecError{Op: "execute", SQLState: "23505", Err: cause}

	assert.Equal(t, "execute (SQLSTATE 23505): duplicate key", err.Error())
	assert.ErrorIs(t, err, cause)

	plain := &ExecError{Op: "fetch", Err: cause}
	assert.Equal(t, "fetch: duplicate key", plain.Error())
}

type stateErr struct{ code string }

func (e stateErr) Error() string    { return "db error" }
func (e stateErr) SQLState() string { return e.code }

func TestSQLState(t *testing.T) {
	assert.Equal(t, "42P01", SQLState(stateErr{code: "42P01"}))
	assert.Equal(t, "42P01", SQLState(errors.Join(errors.New("wrapped"), stateErr{code: "42P01"})))
	assert.Empty(t, SQLState(errors.New("plain")))
}

func TestMock(t *testing.T) {
	ctx := context.Background()
	m := NewMock(
		Pairs("name", "John", "surname", "Doe"),
		Pairs("name", "Jane", "surname", "Doe"),
	)
	q := query.New().WithTable("users", "").WithColumnField("name")

	rows, err := m.FetchRows(ctx, q)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	v, err := m.FetchOneValue(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "John", v)

	row, err := m.FetchOneRow(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "Doe", row.Map()["surname"])

	col, err := m.FetchColumn(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []any{"John", "Jane"}, col)

	assert.Len(t, m.Statements(), 4)
	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, "SELECT name FROM users", last.Template())
}

func TestMockEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	q := query.New().WithTable("users", "")

	_, err := m.FetchOneValue(ctx, q)
	assert.True(t, vantage.IsNoRowsErr(err))

	_, err = m.FetchOneRow(ctx, q)
	assert.True(t, vantage.IsNoRowsErr(err))

	_, ok := NewMock().Last()
	assert.False(t, ok)
}

func TestMockExecute(t *testing.T) {
	ctx := context.Background()
	m := NewMock().WithInsertID(int64(7))

	q := query.New().WithTable("users", "").WithKind(query.Insert).WithSetField("name", "John")
	id, err := m.Execute(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = m.Execute(ctx, query.New().WithSetField("name", "John"))
	assert.ErrorIs(t, err, vantage.ErrSetFieldOnKind)
	assert.Len(t, m.Statements(), 1)
}

func TestMockConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMock(Pairs("id", 1))
	q := query.New().WithTable("users", "")

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.FetchRows(ctx, q)
		}()
	}
	wg.Wait()
	assert.Len(t, m.Statements(), 20)
}

func TestAssociatedQuery(t *testing.T) {
	ctx := context.Background()
	m := NewMock(Pairs("cnt", int64(3)))
	aq := Associate(query.New().WithTable("orders", "").WithField("cnt", expr.Count()), m)

	assert.Equal(t, "SELECT (COUNT(*)) AS cnt FROM orders", aq.Preview())

	v, err := aq.GetOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	rows, err := aq.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	col, err := aq.GetCol(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3)}, col)

	outer := query.New().WithTable("users", "").WithField("orders", aq)
	assert.Equal(t, "SELECT (SELECT (COUNT(*)) AS cnt FROM orders) AS orders FROM users", outer.Preview())
}
