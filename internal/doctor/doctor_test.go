package doctor

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/pthm/vantage/pkg/datasource/sqlsource"
	"github.com/pthm/vantage/pkg/expr"
)

const bakeryModel = `
tables:
  - name: client
    columns: [name, is_deleted]
    soft_delete: is_deleted
    has_many:
      - {name: orders, table: ord, foreign_key: client_id}
  - name: ord
    columns: [client_id, created_at]
    has_one:
      - {name: client, table: client, foreign_key: client_id}
`

func modelFs(t *testing.T, doc string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "model.yaml", []byte(doc), 0o644))
	return fs
}

func statuses(r *Report) map[string]Status {
	out := make(map[string]Status)
	for _, c := range r.Checks {
		out[c.Category+"/"+c.Name] = c.Status
	}
	return out
}

func TestRun_ModelOnly(t *testing.T) {
	d := New(modelFs(t, bakeryModel), "model.yaml", nil)
	report, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]Status{
		"Model/load":              StatusPass,
		"Tables/client":           StatusPass,
		"Tables/ord":              StatusPass,
		"Relations/client.orders": StatusPass,
		"Relations/ord.client":    StatusPass,
		"Database/connection":     StatusWarn,
	}, statuses(report))
	assert.False(t, report.HasErrors())
	assert.Equal(t, 5, report.Passed)
	assert.Equal(t, 1, report.Warnings)
}

func TestRun_MissingModel(t *testing.T) {
	d := New(afero.NewMemMapFs(), "missing.yaml", nil)
	report, err := d.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Checks, 1)
	assert.Equal(t, StatusFail, report.Checks[0].Status)
	assert.True(t, report.HasErrors())
}

func TestRun_BrokenRelation(t *testing.T) {
	doc := `
tables:
  - name: client
    columns: [name]
    has_many:
      - {name: orders, table: ord, foreign_key: client_id}
  - name: ord
    columns: [total]
`
	report, err := New(modelFs(t, doc), "model.yaml", nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusFail, statuses(report)["Relations/client.orders"])
}

func TestRun_Database(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE client (id INTEGER PRIMARY KEY, name TEXT, is_deleted BOOLEAN DEFAULT 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE ord (id INTEGER PRIMARY KEY, client_id INTEGER)`)
	require.NoError(t, err)

	ds := sqlsource.New(db, sqlsource.WithPlaceholder(expr.QuestionNumbered))
	report, err := New(modelFs(t, bakeryModel), "model.yaml", ds).Run(context.Background())
	require.NoError(t, err)

	got := statuses(report)
	assert.Equal(t, StatusPass, got["Database/client"])
	assert.Equal(t, StatusFail, got["Database/ord"])

	var out bytes.Buffer
	report.Print(&out, true)
	assert.Contains(t, out.String(), "ord does not match the database")
	assert.Contains(t, out.String(), "created_at")
	assert.Contains(t, out.String(), "Summary: 6 passed, 0 warnings, 1 errors")
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "pass", StatusPass.String())
	assert.Equal(t, "warn", StatusWarn.String())
	assert.Equal(t, "fail", StatusFail.String())
	assert.Equal(t, "✗", StatusFail.Symbol())
}
