package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/reports"
)

// =============================================================================
// MATRIX
// =============================================================================

func newMatrixCmd(app *App, out func() Formatter) *cobra.Command {
	var week string

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Show the weekly allocation matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			current := app.Reports.CurrentWeek()
			if week != "" {
				tp, err := generic.ParseDate("week", week)
				if err != nil {
					return err
				}
				current = tp
			}
			m, err := app.Matrix.Build(context.Background(), current)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out().FormatMatrix(m, app.Reports.Capacity.PerResource))
			return nil
		},
	}

	cmd.Flags().StringVar(&week, "week", "", "Any day of the centre week (default: this week)")
	return cmd
}

func newSetWeekCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-week RESOURCE_ID WEEK_START PERSON_DAYS",
		Short: "Set a resource's total for one week (0 clears the week)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := generic.ParseDate("week_start", args[1])
			if err != nil {
				return err
			}
			value, err := decimal.NewFromString(args[2])
			if err != nil {
				return &generic.ValidationError{Field: "person_days", Message: fmt.Sprintf("invalid number %q", args[2])}
			}
			adj, err := app.Editor.SetWeeklyAllocation(context.Background(), generic.ResourceID(args[0]), week, value)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s week of %s set to %s days\n", adj.ResourceID, adj.WeekStart, days(adj.PersonDays))
			return nil
		},
	}
}

func newClearWeekCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-week RESOURCE_ID WEEK_START",
		Short: "Remove the override of one resource-week",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := generic.ParseDate("week_start", args[1])
			if err != nil {
				return err
			}
			if err := app.Editor.ClearWeeklyAllocation(context.Background(), generic.ResourceID(args[0]), week); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s week of %s restored to phase allocations\n", args[0], week)
			return nil
		},
	}
}

// =============================================================================
// REPORTS
// =============================================================================

func newConflictsCmd(app *App, out func() Formatter) *cobra.Command {
	var rng rangeFlags

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List weeks where a resource is above capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			dr, err := rng.dateRange()
			if err != nil {
				return err
			}
			rep, err := app.Reports.Conflicts(context.Background(), reports.ConflictsRequest{Range: dr})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out().FormatConflicts(rep))
			return nil
		},
	}

	rng.register(cmd.Flags())
	return cmd
}

func newUtilizationCmd(app *App, out func() Formatter) *cobra.Command {
	var (
		rng       rangeFlags
		resources []string
	)

	cmd := &cobra.Command{
		Use:   "utilization",
		Short: "Show allocated / capacity per resource and week",
		RunE: func(cmd *cobra.Command, args []string) error {
			dr, err := rng.dateRange()
			if err != nil {
				return err
			}
			req := reports.UtilizationRequest{Range: dr}
			for _, id := range resources {
				if id = strings.TrimSpace(id); id != "" {
					req.ResourceIDs = append(req.ResourceIDs, generic.ResourceID(id))
				}
			}
			rep, err := app.Reports.Utilization(context.Background(), req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out().FormatUtilization(rep))
			return nil
		},
	}

	rng.register(cmd.Flags())
	cmd.Flags().StringSliceVar(&resources, "resource", nil, "Limit to these resource ids (repeatable or comma separated)")
	return cmd
}

func newForecastCmd(app *App, out func() Formatter) *cobra.Command {
	var rng rangeFlags

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Team-wide allocated vs capacity per week",
		RunE: func(cmd *cobra.Command, args []string) error {
			dr, err := rng.dateRange()
			if err != nil {
				return err
			}
			rep, err := app.Reports.CapacityForecast(context.Background(), reports.CapacityForecastRequest{Range: dr})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out().FormatCapacityForecast(rep))
			return nil
		},
	}

	rng.register(cmd.Flags())
	return cmd
}

func newSkillForecastCmd(app *App, out func() Formatter) *cobra.Command {
	var (
		rng         rangeFlags
		function    string
		subFunction string
	)

	cmd := &cobra.Command{
		Use:   "skill-forecast",
		Short: "Capacity forecast per skill function and sub-function",
		RunE: func(cmd *cobra.Command, args []string) error {
			dr, err := rng.dateRange()
			if err != nil {
				return err
			}
			rep, err := app.Reports.SkillCapacityForecast(context.Background(), reports.SkillCapacityForecastRequest{
				Range:            dr,
				SkillFunction:    function,
				SkillSubFunction: subFunction,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out().FormatSkillForecast(rep))
			return nil
		},
	}

	rng.register(cmd.Flags())
	cmd.Flags().StringVar(&function, "function", "", "Skill function (e.g. engineering)")
	cmd.Flags().StringVar(&subFunction, "sub-function", "", "Skill sub-function (e.g. backend)")
	return cmd
}

func newTimelineCmd(app *App, out func() Formatter) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "timeline RELEASE_ID",
		Short: "Weekly effort of one release, by phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := reports.ReleaseTimelineRequest{ReleaseID: generic.ReleaseID(args[0])}
			if cmd.Flags().Changed("year") {
				req.Year = &year
			}
			tl, err := app.Reports.ReleaseTimeline(context.Background(), req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out().FormatTimeline(tl))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Only weeks starting in this year")
	return cmd
}

// =============================================================================
// DATA
// =============================================================================

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace a release's allocations with the assignment output in FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			releaseID, allocs, err := app.Allocations.ParseRelease(data)
			if err != nil {
				return err
			}
			if err := app.Store.ReplaceReleaseAllocations(context.Background(), releaseID, allocs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d allocations for release %s\n", len(allocs), releaseID)
			return nil
		},
	}
}

func newResourceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Manage resource profiles",
	}
	cmd.AddCommand(newResourceAddCmd(app))
	return cmd
}

func newResourceAddCmd(app *App) *cobra.Command {
	var (
		r        generic.Resource
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "add ID NAME",
		Short: "Create or update a resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r.ID = generic.ResourceID(args[0])
			r.Name = args[1]
			r.Active = !inactive
			if err := r.Validate(); err != nil {
				return err
			}
			if err := app.Store.SaveResource(context.Background(), r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved resource %s (%s)\n", r.ID, r.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&r.Grade, "grade", "", "Grade")
	cmd.Flags().StringVar(&r.SkillFunction, "function", "", "Skill function")
	cmd.Flags().StringVar(&r.SkillSubFunction, "sub-function", "", "Skill sub-function")
	cmd.Flags().StringVar(&r.ProfileRef, "profile", "", "External profile reference")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Mark the resource inactive")
	return cmd
}
