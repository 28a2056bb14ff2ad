package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// RELEASE TIMELINE - Weekly effort of one release
// =============================================================================

type TimelineWeek struct {
	WeekStart     generic.TimePoint
	AllocatedDays decimal.Decimal
	ByPhase       map[generic.Phase]decimal.Decimal // only phases with effort
}

type ReleaseTimeline struct {
	ReleaseID generic.ReleaseID
	Year      *int
	Weeks     []TimelineWeek
}

func (*ReleaseTimeline) Kind() Kind { return KindReleaseTimeline }

// ReleaseTimeline reports the release's phase-derived effort per week.
// Manual adjustments are per resource-week and are not attributed to a
// release. With a year only weeks whose Monday falls in that year are kept;
// otherwise the window is the release's own date range.
func (s *Service) ReleaseTimeline(ctx context.Context, req ReleaseTimelineRequest) (*ReleaseTimeline, error) {
	allocs, err := s.Ledger.ReleaseAllocations(ctx, req.ReleaseID)
	if err != nil {
		return nil, err
	}
	if len(allocs) == 0 {
		return nil, &generic.NotFoundError{Kind: "release", ID: string(req.ReleaseID)}
	}

	var window generic.Period
	if req.Year != nil {
		window = generic.YearPeriod(*req.Year)
	} else {
		first := true
		for _, a := range allocs {
			if a.CheckIntegrity() != nil {
				continue
			}
			if first {
				window, first = a.Period(), false
				continue
			}
			window = window.Union(a.Period())
		}
		if first {
			// Only corrupt records. A one-day window still runs them through
			// the aggregator, which logs and skips them.
			window = generic.Period{Start: allocs[0].StartDate, End: allocs[0].StartDate}
		}
	}

	view, err := s.Ledger.LoadRelease(ctx, req.ReleaseID, window)
	if err != nil {
		return nil, err
	}
	totals, err := s.Aggregator.AggregateView(view)
	if err != nil {
		return nil, err
	}
	total := totals.Rollup(generic.Global)

	byPhase := make(map[generic.Phase]*generic.WeeklyTotals)
	for _, phase := range generic.AllPhases {
		var subset []generic.Allocation
		for _, a := range view.Allocations {
			if a.Phase == phase && a.CheckIntegrity() == nil {
				subset = append(subset, a)
			}
		}
		if len(subset) == 0 {
			continue
		}
		pt, err := s.Aggregator.Aggregate(subset, nil, window)
		if err != nil {
			return nil, err
		}
		byPhase[phase] = pt.Rollup(generic.Global)
	}

	timeline := &ReleaseTimeline{ReleaseID: req.ReleaseID, Year: req.Year}
	for _, f := range total.Row(generic.GlobalKey) {
		if req.Year != nil && f.WeekStart.Year() != *req.Year {
			continue
		}
		week := TimelineWeek{
			WeekStart:     f.WeekStart,
			AllocatedDays: f.Days,
			ByPhase:       make(map[generic.Phase]decimal.Decimal),
		}
		for phase, pt := range byPhase {
			if d := pt.Get(generic.GlobalKey, f.WeekStart); !d.IsZero() {
				week.ByPhase[phase] = d
			}
		}
		timeline.Weeks = append(timeline.Weeks, week)
	}
	return timeline, nil
}
