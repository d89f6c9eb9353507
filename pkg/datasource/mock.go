package datasource

import (
	"context"
	"slices"
	"sync"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/pkg/expr"
)

// Mock is a DataSource that answers every query with the same rows and
// records the statements it was given. Safe for concurrent use.
type Mock struct {
	mu       sync.Mutex
	rows     []Row
	insertID any
	executed []expr.Expression
}

var _ DataSource = (*Mock)(nil)

// NewMock returns a Mock serving rows.
func NewMock(rows ...Row) *Mock {
	return &Mock{rows: rows}
}

// WithInsertID sets the value Execute returns.
func (m *Mock) WithInsertID(id any) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertID = id
	return m
}

// Statements returns every statement received, in order.
func (m *Mock) Statements() []expr.Expression {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.executed)
}

// Last returns the most recent statement.
func (m *Mock) Last() (expr.Expression, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.executed) == 0 {
		return expr.Expression{}, false
	}
	return m.executed[len(m.executed)-1], true
}

func (m *Mock) record(q expr.Chunk) error {
	e, err := Prepare(q)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.executed = append(m.executed, e)
	m.mu.Unlock()
	return nil
}

func (m *Mock) FetchRows(_ context.Context, q expr.Chunk) ([]Row, error) {
	if err := m.record(q); err != nil {
		return nil, err
	}
	return slices.Clone(m.rows), nil
}

func (m *Mock) FetchOneValue(ctx context.Context, q expr.Chunk) (any, error) {
	rows, err := m.FetchRows(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, vantage.ErrNoRows
	}
	return firstValue(rows), nil
}

func (m *Mock) FetchOneRow(ctx context.Context, q expr.Chunk) (Row, error) {
	rows, err := m.FetchRows(ctx, q)
	if err != nil {
		return Row{}, err
	}
	if len(rows) == 0 {
		return Row{}, vantage.ErrNoRows
	}
	return rows[0], nil
}

func (m *Mock) FetchColumn(ctx context.Context, q expr.Chunk) ([]any, error) {
	rows, err := m.FetchRows(ctx, q)
	if err != nil {
		return nil, err
	}
	return Column(rows), nil
}

func (m *Mock) Execute(_ context.Context, q expr.Chunk) (any, error) {
	if err := m.record(q); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertID, nil
}
