/*
ledger.go - Windowed read view over allocations and manual adjustments

PURPOSE:
  Every report starts the same way: load the allocations overlapping a
  window and the manual adjustments for the window's weeks. The Ledger
  does that in one place so the matrix, conflict, forecast and utilization
  views all read exactly the same records.

WINDOW WIDENING:
  Aggregation buckets by whole weeks. A window [Wed, Wed] still reports
  the full Monday..Sunday week, so loads use Period.WeekSpan(): an
  allocation on the Monday before a Wednesday "from" must count.

EXTENT:
  Extent returns the smallest period covering all stored allocations and
  adjustments. The conflict detector uses it as its default window.

SEE ALSO:
  - store.go: Low-level persistence interface
  - aggregate.go: Consumes LedgerView
*/
package generic

import "context"

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	Allocations AllocationStore
	Adjustments AdjustmentStore
}

func NewLedger(allocations AllocationStore, adjustments AdjustmentStore) *Ledger {
	return &Ledger{Allocations: allocations, Adjustments: adjustments}
}

// LedgerView is the raw input of one aggregation.
type LedgerView struct {
	Window      Period
	Allocations []Allocation
	Adjustments []ManualAdjustment
}

// ResourceIDs returns every resource referenced by the view, unordered.
func (v *LedgerView) ResourceIDs() map[ResourceID]bool {
	ids := make(map[ResourceID]bool)
	for _, a := range v.Allocations {
		ids[a.ResourceID] = true
	}
	for _, m := range v.Adjustments {
		ids[m.ResourceID] = true
	}
	return ids
}

// ContributingResourceIDs is ResourceIDs without resources whose only
// records are zero-valued adjustments.
func (v *LedgerView) ContributingResourceIDs() map[ResourceID]bool {
	ids := make(map[ResourceID]bool)
	for _, a := range v.Allocations {
		ids[a.ResourceID] = true
	}
	for _, m := range v.Adjustments {
		if !m.PersonDays.IsZero() {
			ids[m.ResourceID] = true
		}
	}
	return ids
}

// Load reads the allocations and adjustments relevant to window. When
// resourceIDs is non-empty only those resources are read.
func (l *Ledger) Load(ctx context.Context, window Period, resourceIDs []ResourceID) (*LedgerView, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	span := window.WeekSpan()

	allocs, err := l.Allocations.ListAllocations(ctx, AllocationFilter{
		ResourceIDs: resourceIDs,
		Overlapping: &span,
	})
	if err != nil {
		return nil, err
	}

	adjustments, err := l.Adjustments.ListManualAdjustments(ctx, AdjustmentFilter{
		ResourceIDs: resourceIDs,
		Within:      &span,
	})
	if err != nil {
		return nil, err
	}

	return &LedgerView{Window: window, Allocations: allocs, Adjustments: adjustments}, nil
}

// LoadRelease reads only the allocations of one release. Manual
// adjustments are per resource-week, not per release, so none are loaded.
func (l *Ledger) LoadRelease(ctx context.Context, releaseID ReleaseID, window Period) (*LedgerView, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	span := window.WeekSpan()

	allocs, err := l.Allocations.ListAllocations(ctx, AllocationFilter{
		ReleaseID:   &releaseID,
		Overlapping: &span,
	})
	if err != nil {
		return nil, err
	}
	return &LedgerView{Window: window, Allocations: allocs}, nil
}

// ReleaseAllocations returns every allocation of a release regardless of dates.
func (l *Ledger) ReleaseAllocations(ctx context.Context, releaseID ReleaseID) ([]Allocation, error) {
	return l.Allocations.ListAllocations(ctx, AllocationFilter{ReleaseID: &releaseID})
}

// Extent returns the period covering all stored data. ok is false when the
// store holds nothing usable.
func (l *Ledger) Extent(ctx context.Context) (extent Period, ok bool, err error) {
	allocs, err := l.Allocations.ListAllocations(ctx, AllocationFilter{})
	if err != nil {
		return Period{}, false, err
	}
	adjustments, err := l.Adjustments.ListManualAdjustments(ctx, AdjustmentFilter{})
	if err != nil {
		return Period{}, false, err
	}

	include := func(p Period) {
		if !ok {
			extent, ok = p, true
			return
		}
		extent = extent.Union(p)
	}
	for _, a := range allocs {
		// Corrupt ranges would invert the extent; the aggregator reports them.
		if a.CheckIntegrity() != nil {
			continue
		}
		include(a.Period())
	}
	for _, m := range adjustments {
		include(Period{Start: m.WeekStart, End: WeekEndOf(m.WeekStart)})
	}
	return extent, ok, nil
}
