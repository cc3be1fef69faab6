package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	configlibsql "phtrending/lib/configutil/libsql"
	"phtrending/lib/telemetry"
	"testing"
)

type ServiceParams struct {
	Name string
	// if true, a sqlite database is opened in a temporary directory
	WithDB bool
}

type ServiceResult struct {
	DB *sql.DB
	// a fresh temporary directory, handy as an output directory
	Dir string
}

func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))

	result := ServiceResult{Dir: t.TempDir()}
	if !params.WithDB {
		return result, cleanup
	}

	db, err := configlibsql.Struct{
		File: filepath.Join(t.TempDir(), "test.db"),
	}.OpenDB()
	if err != nil {
		t.Fatal(err)
	}
	result.DB = db

	return result, func() {
		db.Close()
		cleanup()
	}
}

// WriteFile writes `contents` to `dir/name` and returns the full path.
func WriteFile(t testing.TB, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(contents), 0644)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func ReadFile(t testing.TB, path string) string {
	t.Helper()
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(contents)
}
