package configlibsql

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenDBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	config := Struct{File: path}
	require.True(t, config.Enabled())

	db, err := config.OpenDB()
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)

	var mode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	require.Equal(t, "wal", mode)
}

func TestOpenDBErrors(t *testing.T) {
	require.False(t, Struct{}.Enabled())

	_, err := Struct{}.OpenDB()
	require.Error(t, err)

	_, err = Struct{Url: "ftp://example.com/db"}.OpenDB()
	require.Error(t, err)
}
