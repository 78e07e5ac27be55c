package conn

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "carepay.db")

	db, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, DriverSQLite, db.Driver)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	assert.FileExists(t, path)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestOpen_PostgresRequiresDSN(t *testing.T) {
	_, err := Open(DriverPostgres, "")
	assert.ErrorContains(t, err, "DB_DSN is required")
}

func TestOpen_PostgresUnreachable(t *testing.T) {
	_, err := open(DriverPostgres, "postgres://u:p@127.0.0.1:1/none?sslmode=disable&connect_timeout=1", 2, 10*time.Millisecond)
	assert.ErrorContains(t, err, "after 2 attempts")
}

func TestConnString_SQLiteKeepsExplicitOptions(t *testing.T) {
	got, err := connString(DriverSQLite, "file::memory:?cache=shared")
	require.NoError(t, err)
	assert.Equal(t, "file::memory:?cache=shared", got)
}
