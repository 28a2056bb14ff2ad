/*
main.go - allocctl entry point

PURPOSE:
  Opens the SQLite database named by ALLOC_ENGINE_DB and runs the command
  tree against it. Every other setting comes from the same ALLOC_ENGINE_*
  variables the server reads.

EXAMPLES:
  ALLOC_ENGINE_DB=./allocations.db allocctl matrix --week 2025-01-06
  allocctl import ./out/rel-2-5.json
  allocctl conflicts --from 2025-01-01 --to 2025-03-31

SEE ALSO:
  - cli/root.go: Command tree
  - config/config.go: Environment variables
*/
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/warp/allocation-engine/cli"
	"github.com/warp/allocation-engine/config"
	"github.com/warp/allocation-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger := cfg.NewLogger(os.Stderr)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()
	store.Logger = logger

	app := cli.NewApp(store, cfg, logger)
	app.IsColor = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
