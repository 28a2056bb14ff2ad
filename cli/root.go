/*
Package cli is the allocctl command tree.

PURPOSE:
  Terminal access to the same engine the HTTP API serves: print the weekly
  matrix, override a week, run reports and import assignment output, all
  against the SQLite database.

COMMANDS:
  matrix          Weekly grid around a week
  set-week        Override one resource-week (0 clears the week)
  clear-week      Remove an override
  conflicts       Over-allocated resource-weeks
  utilization     Allocated / capacity per resource-week
  forecast        Team-wide capacity forecast
  skill-forecast  Capacity forecast per skill group
  timeline        Weekly effort of one release
  import          Replace a release's allocations from a JSON file
  resource add    Create or update a resource profile

SEE ALSO:
  - cmd/allocctl/main.go: Wiring
  - api/handlers.go: The HTTP surface over the same services
*/
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/warp/allocation-engine/config"
	"github.com/warp/allocation-engine/factory"
	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/matrix"
	"github.com/warp/allocation-engine/reports"
)

// App holds the engine services used by CLI commands.
type App struct {
	Store       generic.Store
	Matrix      *matrix.Builder
	Editor      *matrix.Editor
	Reports     *reports.Service
	Allocations *factory.AllocationFactory

	// IsColor reports whether output goes to a terminal.
	IsColor func() bool
}

// NewApp wires the engine services over store.
func NewApp(store generic.Store, cfg config.Config, logger *slog.Logger) *App {
	ledger := generic.NewLedger(store, store)
	agg := generic.NewWeeklyAggregator(logger)
	return &App{
		Store:       store,
		Matrix:      matrix.NewBuilder(store, ledger, agg, cfg.Window()),
		Editor:      matrix.NewEditor(store, store),
		Reports:     reports.NewService(store, ledger, agg, cfg.Reports()),
		Allocations: factory.NewAllocationFactory(),
	}
}

func (a *App) formatter(noColor bool) Formatter {
	return Formatter{Color: !noColor && a.IsColor != nil && a.IsColor()}
}

// NewRootCmd creates the top-level "allocctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var noColor bool
	root := &cobra.Command{
		Use:           "allocctl",
		Short:         "Weekly resource allocation matrix and capacity reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	out := func() Formatter { return app.formatter(noColor) }
	root.AddCommand(
		newMatrixCmd(app, out),
		newSetWeekCmd(app),
		newClearWeekCmd(app),
		newConflictsCmd(app, out),
		newUtilizationCmd(app, out),
		newForecastCmd(app, out),
		newSkillForecastCmd(app, out),
		newTimelineCmd(app, out),
		newImportCmd(app),
		newResourceCmd(app),
	)

	return root
}
