package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// CONFLICTS - Resource-weeks above capacity
// =============================================================================

type Conflict struct {
	WeekStart      generic.TimePoint
	AllocatedDays  decimal.Decimal
	Capacity       decimal.Decimal
	OverAllocation decimal.Decimal
}

type ResourceConflicts struct {
	ResourceID generic.ResourceID
	Name       string
	Conflicts  []Conflict
}

type ConflictReport struct {
	Window    *generic.Period // nil when the store is empty and no range was given
	Resources []ResourceConflicts
}

func (*ConflictReport) Kind() Kind { return KindConflicts }

// Conflicts lists every resource-week whose total is strictly above the
// per-resource capacity. Resources without conflicts are omitted; rows are
// ordered by resource id, conflicts by week.
func (s *Service) Conflicts(ctx context.Context, req ConflictsRequest) (*ConflictReport, error) {
	extent, ok, err := s.Ledger.Extent(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		if req.Range.From == nil && req.Range.To == nil {
			return &ConflictReport{}, nil
		}
		// Empty store: a half-open range collapses onto its given bound.
		bound := req.Range.From
		if bound == nil {
			bound = req.Range.To
		}
		extent = generic.Period{Start: *bound, End: *bound}
	}
	window, err := req.Range.resolve(extent)
	if err != nil {
		return nil, err
	}

	_, totals, err := s.aggregate(ctx, window, nil)
	if err != nil {
		return nil, err
	}
	index, _, err := s.resourceIndex(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConflictReport{Window: &window}
	for _, key := range totals.Keys() { // sorted by id
		var conflicts []Conflict
		for _, f := range totals.Row(key) {
			b := s.Capacity.Balance(f.WeekStart, f.Days)
			if !b.IsOverAllocated() {
				continue
			}
			conflicts = append(conflicts, Conflict{
				WeekStart:      f.WeekStart,
				AllocatedDays:  b.Allocated,
				Capacity:       b.Capacity,
				OverAllocation: b.OverAllocation(),
			})
		}
		if len(conflicts) == 0 {
			continue
		}
		id := generic.ResourceID(key)
		report.Resources = append(report.Resources, ResourceConflicts{
			ResourceID: id,
			Name:       nameOf(index, id),
			Conflicts:  conflicts,
		})
	}
	return report, nil
}
