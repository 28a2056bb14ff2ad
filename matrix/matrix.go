/*
Package matrix builds the per-resource weekly allocation grid and applies
single-cell edits to it.

PURPOSE:
  The matrix is the planner's main screen: one row per resource, one
  column per week around the current week, each cell the person-days the
  resource carries that week. It is also the only place where a figure can
  be edited directly.

WINDOW:
  The grid spans WeeksBefore weeks before the current week through
  WeeksAfter weeks after it (defaults 4 and 12, so 17 columns).

ROWS:
  Every active resource, plus any resource (active or not) that has an
  allocation or manual adjustment inside the window. Rows are ordered by
  name, then id, and every row has one cell per week of the window.

EDITING:
  Editor.SetWeeklyAllocation stores a manual adjustment for the cell. The
  next Build returns exactly the value written. Phase allocations are left
  untouched; ClearWeeklyAllocation drops the override so the cell falls
  back to the phase-derived figure.

SEE ALSO:
  - generic/aggregate.go: Cell values
  - api/handlers.go: GET/PUT/DELETE /api/allocations/weekly
*/
package matrix

import (
	"context"
	"sort"

	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// TIME WINDOW
// =============================================================================

// WindowConfig sets how many weeks the grid shows around the current week.
type WindowConfig struct {
	WeeksBefore int
	WeeksAfter  int
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{WeeksBefore: 4, WeeksAfter: 12}
}

type TimeWindow struct {
	StartWeek  generic.TimePoint
	EndWeek    generic.TimePoint
	TotalWeeks int
}

// WindowAround centres the window on the week containing current.
func WindowAround(current generic.TimePoint, cfg WindowConfig) TimeWindow {
	week := generic.WeekStartOf(current)
	start := week.AddWeeks(-cfg.WeeksBefore)
	end := week.AddWeeks(cfg.WeeksAfter)
	return TimeWindow{
		StartWeek:  start,
		EndWeek:    end,
		TotalWeeks: generic.WeeksBetween(start, end) + 1,
	}
}

// Period covers Monday of the first week through Sunday of the last.
func (w TimeWindow) Period() generic.Period {
	return generic.Period{Start: w.StartWeek, End: generic.WeekEndOf(w.EndWeek)}
}

// =============================================================================
// MATRIX
// =============================================================================

type Row struct {
	ResourceID       generic.ResourceID
	Name             string
	Grade            string
	SkillFunction    string
	SkillSubFunction string
	ProfileRef       string
	Active           bool
	Weeks            []generic.WeeklyFigure
}

type Matrix struct {
	Resources  []Row
	TimeWindow TimeWindow
}

// Builder assembles the matrix from the stores.
type Builder struct {
	Resources  generic.ResourceStore
	Ledger     *generic.Ledger
	Aggregator *generic.WeeklyAggregator
	Window     WindowConfig
}

func NewBuilder(resources generic.ResourceStore, ledger *generic.Ledger, aggregator *generic.WeeklyAggregator, window WindowConfig) *Builder {
	return &Builder{Resources: resources, Ledger: ledger, Aggregator: aggregator, Window: window}
}

// Build returns the grid around currentWeek. Any day of the week may be passed.
func (b *Builder) Build(ctx context.Context, currentWeek generic.TimePoint) (*Matrix, error) {
	window := WindowAround(currentWeek, b.Window)

	view, err := b.Ledger.Load(ctx, window.Period(), nil)
	if err != nil {
		return nil, err
	}
	totals, err := b.Aggregator.AggregateView(view)
	if err != nil {
		return nil, err
	}

	resources, err := b.Resources.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	index := generic.IndexResources(resources)

	include := make(map[generic.ResourceID]generic.Resource)
	for _, r := range resources {
		if r.Active {
			include[r.ID] = r
		}
	}
	for id := range view.ResourceIDs() {
		if _, ok := include[id]; ok {
			continue
		}
		r, known := index[id]
		if !known {
			// Allocation for a resource without a profile; show it by id.
			r = generic.Resource{ID: id, Name: string(id)}
		}
		include[id] = r
	}

	rows := make([]Row, 0, len(include))
	for _, r := range include {
		rows = append(rows, Row{
			ResourceID:       r.ID,
			Name:             r.Name,
			Grade:            r.Grade,
			SkillFunction:    r.SkillFunction,
			SkillSubFunction: r.SkillSubFunction,
			ProfileRef:       r.ProfileRef,
			Active:           r.Active,
			Weeks:            totals.Row(string(r.ID)),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].ResourceID < rows[j].ResourceID
	})

	return &Matrix{Resources: rows, TimeWindow: window}, nil
}

// Cell returns the figure of one resource-week, or false when the resource
// has no row or the week is outside the window.
func (m *Matrix) Cell(resourceID generic.ResourceID, weekStart generic.TimePoint) (generic.WeeklyFigure, bool) {
	for _, row := range m.Resources {
		if row.ResourceID != resourceID {
			continue
		}
		for _, f := range row.Weeks {
			if f.WeekStart.Equal(weekStart) {
				return f, true
			}
		}
	}
	return generic.WeeklyFigure{}, false
}
