package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// UTILIZATION - Allocated / capacity per resource-week
// =============================================================================

type UtilizationRow struct {
	ResourceID         generic.ResourceID
	Name               string
	WeekStart          generic.TimePoint
	AllocatedDays      decimal.Decimal
	Capacity           decimal.Decimal
	UtilizationPercent decimal.Decimal // unrounded
}

type UtilizationReport struct {
	Window generic.Period
	Rows   []UtilizationRow
}

func (*UtilizationReport) Kind() Kind { return KindUtilization }

// Utilization reports one row per (resource, week) for resources that have
// an allocation or a non-zero adjustment in the window. Within a resource
// every week of the window is present. Rows are ordered by resource id, then
// week.
func (s *Service) Utilization(ctx context.Context, req UtilizationRequest) (*UtilizationReport, error) {
	window, err := s.forecastRange(req.Range)
	if err != nil {
		return nil, err
	}

	view, totals, err := s.aggregate(ctx, window, req.ResourceIDs)
	if err != nil {
		return nil, err
	}
	index, _, err := s.resourceIndex(ctx)
	if err != nil {
		return nil, err
	}

	contributing := view.ContributingResourceIDs()
	report := &UtilizationReport{Window: window}
	for _, key := range totals.Keys() {
		id := generic.ResourceID(key)
		if !contributing[id] {
			continue
		}
		name := nameOf(index, id)
		for _, f := range totals.Row(key) {
			b := s.Capacity.Balance(f.WeekStart, f.Days)
			report.Rows = append(report.Rows, UtilizationRow{
				ResourceID:         id,
				Name:               name,
				WeekStart:          f.WeekStart,
				AllocatedDays:      b.Allocated,
				Capacity:           b.Capacity,
				UtilizationPercent: b.UtilizationPercent(),
			})
		}
	}
	return report, nil
}
