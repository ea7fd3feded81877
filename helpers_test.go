package oci

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slingdata-io/goci/ocitest"
)

const testDBLink = "//localhost:1521/FREEPDB1"

// newTestEnv creates an environment on a fake library and checks at cleanup that
// every handle and descriptor was freed
func newTestEnv(t testing.TB) (*ocitest.Library, *Environment) {
	t.Helper()
	lib := ocitest.New()
	env, err := NewEnvironment(lib, InitParams{})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, env.Close())
		assert.Empty(t, lib.Leaks())
	})
	return lib, env
}

func newTestConn(t testing.TB) (*ocitest.Library, *Connection) {
	t.Helper()
	lib, env := newTestEnv(t)
	conn, err := env.Connect(ConnectParams{
		DBLink:      testDBLink,
		Credentials: Rdbms{Username: "scott", Password: "tiger"},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, conn.Close())
	})
	return lib, conn
}

func prepare(t testing.TB, conn *Connection, sql string) *Statement {
	t.Helper()
	stmt, err := conn.Prepare(sql)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, stmt.Close())
	})
	return stmt
}

// query runs sql and returns its open row set, closed at cleanup
func query(t testing.TB, conn *Connection, sql string) *RowSet {
	t.Helper()
	stmt := prepare(t, conn, sql)
	rs, err := stmt.Query()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, rs.Close())
	})
	return rs
}

// firstRow registers a single-row result for sql and returns that row
func firstRow(t testing.TB, lib *ocitest.Library, conn *Connection, sql string, cols []ocitest.Column, values ...any) *Row {
	t.Helper()
	lib.Register(sql, ocitest.Result{Columns: cols, Rows: [][]any{values}})
	rs := query(t, conn, sql)
	row, err := rs.Next()
	require.NoError(t, err)
	require.NotNil(t, row)
	return row
}
