package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDriver(t *testing.T) {
	tests := map[string]string{
		"":           DriverSQLite,
		"SQLite3":    DriverSQLite,
		"postgresql": DriverPostgres,
		" pg ":       DriverPostgres,
		"mariadb":    DriverMySQL,
		"mysql":      DriverMySQL,
	}
	for in, want := range tests {
		got, err := NormalizeDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeDriver("oracle")
	assert.Error(t, err)
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	db, err := Open(context.Background(), "sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE t (id INTEGER)`)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err, "parent directories are created")
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	assert.Error(t, err)

	_, err = Open(context.Background(), "sqlite", "")
	assert.Error(t, err)

	_, err = Open(context.Background(), "mysql", "not a dsn")
	assert.ErrorContains(t, err, "invalid mysql dsn")
}
