package mocks

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"
)

// MockDBTX stands in for *sql.DB or *sql.Tx in repository tests. Only
// ExecContext-based paths can be exercised; *sql.Row and *sql.Rows have no
// public constructors.
type MockDBTX struct {
	mock.Mock
}

func callArgs(ctx context.Context, query string, args []interface{}) []interface{} {
	out := make([]interface{}, 0, 2+len(args))
	out = append(out, ctx, query)
	return append(out, args...)
}

func (m *MockDBTX) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	ret := m.Called(callArgs(ctx, query, args)...)
	var r0 sql.Result
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(sql.Result)
	}
	return r0, ret.Error(1)
}

func (m *MockDBTX) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	ret := m.Called(callArgs(ctx, query, args)...)
	var r0 *sql.Rows
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*sql.Rows)
	}
	return r0, ret.Error(1)
}

func (m *MockDBTX) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	ret := m.Called(callArgs(ctx, query, args)...)
	var r0 *sql.Row
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*sql.Row)
	}
	return r0
}

// MockResult is a canned sql.Result.
type MockResult struct {
	mock.Mock
}

func (m *MockResult) LastInsertId() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResult) RowsAffected() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}
