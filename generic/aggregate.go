/*
aggregate.go - Weekly aggregation of allocations

PURPOSE:
  Converts ranged allocations (date range × daily factor) into per-week
  person-day totals per resource. This is the one place where ranges are
  bucketed into weeks; every read view consumes its output.

ALGORITHM:
  weeks = WeekStartOf(from) .. WeekStartOf(to), stepping 7 days
  for each allocation overlapping the weeks:
      for each week the allocation touches:
          cell[resource][week] += factor × WorkingDaysInWeek(start, end, week)
  for each manual adjustment in the weeks:
      cell[resource][week] = personDays

PRORATION:
  Partial weeks only count the weekdays inside the range, so summing an
  allocation's weekly contributions over all weeks gives back
  factor × working days of the whole range. Nothing is lost at week edges.

MANUAL ADJUSTMENTS:
  An adjustment is the planner's target total for the resource-week. It
  replaces the phase-derived sum rather than adding to it, so setting a
  week to 3 and reading it back gives 3, and setting it to 0 clears it.

NO CAPPING, NO ROUNDING:
  Totals may exceed capacity; that is what the conflict report is for.
  Values stay exact decimals; rounding happens once in the DTO layer.

CORRUPT RECORDS:
  An allocation with end < start or factor <= 0 is logged as a
  ComputationError and skipped. The rest of the aggregation completes.

SEE ALSO:
  - time.go: WeekStartOf, WorkingDaysInWeek
  - ledger.go: Produces the input view
  - balance.go: Compares totals against capacity
*/
package generic

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WEEKLY AGGREGATOR
// =============================================================================

type WeeklyAggregator struct {
	Logger *slog.Logger
}

func NewWeeklyAggregator(logger *slog.Logger) *WeeklyAggregator {
	return &WeeklyAggregator{Logger: logger}
}

func (a *WeeklyAggregator) logger() *slog.Logger {
	if a == nil || a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// AggregateView is Aggregate over a ledger view.
func (a *WeeklyAggregator) AggregateView(view *LedgerView) (*WeeklyTotals, error) {
	return a.Aggregate(view.Allocations, view.Adjustments, view.Window)
}

// Aggregate buckets allocations into per-resource weekly totals over window.
func (a *WeeklyAggregator) Aggregate(allocs []Allocation, adjustments []ManualAdjustment, window Period) (*WeeklyTotals, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	totals := newWeeklyTotals(window.Weeks())
	first := totals.weeks[0]
	last := totals.weeks[len(totals.weeks)-1]
	log := a.logger()

	for _, alloc := range allocs {
		if err := alloc.CheckIntegrity(); err != nil {
			totals.skipped++
			log.Warn("skipping corrupt allocation",
				"allocation_id", string(alloc.ID),
				"resource_id", string(alloc.ResourceID),
				"release_id", string(alloc.ReleaseID),
				"error", err.Error(),
			)
			continue
		}

		from := MaxTime(WeekStartOf(alloc.StartDate), first)
		to := MinTime(WeekStartOf(alloc.EndDate), last)
		for week := from; week.BeforeOrEqual(to); week = week.AddWeeks(1) {
			days := alloc.DaysInWeek(week)
			if days.IsZero() {
				continue
			}
			totals.add(string(alloc.ResourceID), totals.indexOf(week), days)
		}
	}

	for _, adj := range adjustments {
		if !adj.WeekStart.IsMonday() || adj.PersonDays.IsNegative() {
			totals.skipped++
			err := &ComputationError{RecordID: string(adj.ID), Reason: "adjustment week must be a Monday with non-negative days"}
			log.Warn("skipping corrupt manual adjustment",
				"adjustment_id", string(adj.ID),
				"resource_id", string(adj.ResourceID),
				"week_start", adj.WeekStart.String(),
				"error", err.Error(),
			)
			continue
		}
		if adj.WeekStart.Before(first) || adj.WeekStart.After(last) {
			continue
		}
		totals.set(string(adj.ResourceID), totals.indexOf(adj.WeekStart), adj.PersonDays)
	}

	return totals, nil
}

// =============================================================================
// WEEKLY TOTALS - Dense week index, sparse keys
// =============================================================================

// WeeklyTotals holds person-days per key per week. Only keys with at least
// one contribution exist; within a key every week of the window has a slot.
type WeeklyTotals struct {
	weeks   []TimePoint
	cells   map[string][]decimal.Decimal
	touched map[string][]bool
	skipped int
}

func newWeeklyTotals(weeks []TimePoint) *WeeklyTotals {
	return &WeeklyTotals{
		weeks:   weeks,
		cells:   make(map[string][]decimal.Decimal),
		touched: make(map[string][]bool),
	}
}

func (t *WeeklyTotals) indexOf(weekStart TimePoint) int {
	return WeeksBetween(t.weeks[0], weekStart)
}

func (t *WeeklyTotals) row(key string) ([]decimal.Decimal, []bool) {
	cells, ok := t.cells[key]
	if !ok {
		cells = make([]decimal.Decimal, len(t.weeks))
		for i := range cells {
			cells[i] = decimal.Zero
		}
		t.cells[key] = cells
		t.touched[key] = make([]bool, len(t.weeks))
	}
	return cells, t.touched[key]
}

func (t *WeeklyTotals) add(key string, i int, days decimal.Decimal) {
	cells, touched := t.row(key)
	cells[i] = cells[i].Add(days)
	touched[i] = true
}

func (t *WeeklyTotals) set(key string, i int, days decimal.Decimal) {
	cells, touched := t.row(key)
	cells[i] = days
	touched[i] = true
}

// Weeks returns the week starts of the window in order.
func (t *WeeklyTotals) Weeks() []TimePoint {
	return append([]TimePoint(nil), t.weeks...)
}

// Skipped is the number of corrupt records ignored.
func (t *WeeklyTotals) Skipped() int { return t.skipped }

// Keys returns every key with a contribution, sorted.
func (t *WeeklyTotals) Keys() []string {
	keys := make([]string, 0, len(t.cells))
	for k := range t.cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *WeeklyTotals) Has(key string) bool {
	_, ok := t.cells[key]
	return ok
}

// Get returns the total for key in the week starting at weekStart, zero
// when nothing was allocated or the week is outside the window.
func (t *WeeklyTotals) Get(key string, weekStart TimePoint) decimal.Decimal {
	cells, ok := t.cells[key]
	if !ok {
		return decimal.Zero
	}
	i := t.indexOf(weekStart)
	if i < 0 || i >= len(cells) || !t.weeks[i].Equal(weekStart) {
		return decimal.Zero
	}
	return cells[i]
}

// Row returns one figure per week of the window for key, zero filled.
func (t *WeeklyTotals) Row(key string) []WeeklyFigure {
	row := make([]WeeklyFigure, len(t.weeks))
	cells := t.cells[key]
	for i, w := range t.weeks {
		days := decimal.Zero
		if cells != nil {
			days = cells[i]
		}
		row[i] = WeeklyFigure{Key: key, WeekStart: w, Days: days}
	}
	return row
}

// Figures returns only the touched cells, ordered by key then week.
func (t *WeeklyTotals) Figures() []WeeklyFigure {
	var out []WeeklyFigure
	for _, key := range t.Keys() {
		cells, touched := t.cells[key], t.touched[key]
		for i, w := range t.weeks {
			if touched[i] {
				out = append(out, WeeklyFigure{Key: key, WeekStart: w, Days: cells[i]})
			}
		}
	}
	return out
}

// Total sums all keys for one week.
func (t *WeeklyTotals) Total(weekStart TimePoint) decimal.Decimal {
	sum := decimal.Zero
	for key := range t.cells {
		sum = sum.Add(t.Get(key, weekStart))
	}
	return sum
}

// Rollup re-keys the totals. keyOf maps each existing key to its group;
// keys it rejects are dropped. Each source key lands in exactly one group.
func (t *WeeklyTotals) Rollup(keyOf func(key string) (string, bool)) *WeeklyTotals {
	out := newWeeklyTotals(t.weeks)
	out.skipped = t.skipped
	for _, key := range t.Keys() {
		group, ok := keyOf(key)
		if !ok {
			continue
		}
		cells, touched := t.cells[key], t.touched[key]
		for i := range t.weeks {
			if touched[i] {
				out.add(group, i, cells[i])
			}
		}
	}
	return out
}

// Filter keeps only the keys accepted by keep.
func (t *WeeklyTotals) Filter(keep func(key string) bool) *WeeklyTotals {
	return t.Rollup(func(key string) (string, bool) {
		return key, keep(key)
	})
}
