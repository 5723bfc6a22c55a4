package query

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var mockDriverSeq atomic.Int64

// mockDriver counts transaction calls and records every query it sees.
// Queries mentioning "missing" fail; everything else returns one row
// {val: 1}.
type mockDriver struct {
	mu        sync.Mutex
	begins    int
	rollbacks int
	commits   int
	queries   []string
}

func (d *mockDriver) Open(string) (driver.Conn, error) { return &mockConn{d: d}, nil }

func (d *mockDriver) snapshot() (begins, rollbacks, commits int, queries []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.begins, d.rollbacks, d.commits, append([]string(nil), d.queries...)
}

type mockConn struct{ d *mockDriver }

func (c *mockConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *mockConn) Close() error { return nil }

func (c *mockConn) Begin() (driver.Tx, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.begins++
	return &mockTx{d: c.d}, nil
}

func (c *mockConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.queries = append(c.d.queries, query)
	if strings.Contains(query, "missing") {
		return nil, fmt.Errorf("no such table: missing")
	}
	return &mockRows{cols: []string{"val"}, data: [][]driver.Value{{int64(1)}}}, nil
}

type mockTx struct{ d *mockDriver }

func (tx *mockTx) Commit() error {
	tx.d.mu.Lock()
	defer tx.d.mu.Unlock()
	tx.d.commits++
	return nil
}

func (tx *mockTx) Rollback() error {
	tx.d.mu.Lock()
	defer tx.d.mu.Unlock()
	tx.d.rollbacks++
	return nil
}

type mockRows struct {
	cols []string
	data [][]driver.Value
	pos  int
}

func (r *mockRows) Columns() []string { return r.cols }
func (r *mockRows) Close() error      { return nil }

func (r *mockRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}

// mockTarget is a pool over a fresh mockDriver.
type mockTarget struct {
	*sql.DB
}

func (mockTarget) DBSystem() string { return "mock" }

func newMockTarget(t *testing.T) (mockTarget, *mockDriver) {
	t.Helper()
	d := &mockDriver{}
	name := fmt.Sprintf("query-mock-%d", mockDriverSeq.Add(1))
	sql.Register(name, d)

	pool, err := sql.Open(name, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return mockTarget{DB: pool}, d
}
