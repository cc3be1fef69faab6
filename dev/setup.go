package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	devenv "phtrending/dev/env"
	configlibsql "phtrending/lib/configutil/libsql"
	"phtrending/lib/history"
)

const localConfig = `{
  // overrides phtrending.json5 for local runs, this file is not committed
  output_dir: "dev/.state/output",
  history: { file: "dev/.state/history.db" },
  html_index: true,
}
`

func CreateHistoryDB() error {
	dbpath, err := devenv.ResolvePath(filepath.Join("<dev_state>", "history.db"))
	if err != nil {
		return err
	}

	_, err = os.Stat(dbpath)
	if err == nil {
		fmt.Println("database already created at", dbpath)
		return nil
	}

	fmt.Println("creating database at", dbpath)
	db, err := configlibsql.Struct{File: dbpath}.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = history.NewStore(context.Background(), db)
	return err
}

func CreateLocalConfig() error {
	_, err := os.Stat("phtrending.local.json5")
	if err == nil {
		fmt.Println("phtrending.local.json5 already exists")
		return nil
	}
	fmt.Println("writing phtrending.local.json5")
	return os.WriteFile("phtrending.local.json5", []byte(localConfig), 0644)
}

func PrintConfigLocations() {
	slog.Info("put PH_TOKEN=<your developer token> in a .env file at the repository root, then `go run ./cmd/phtrending run --verbose` dumps http exchanges to dev/.state/resty.")
}
