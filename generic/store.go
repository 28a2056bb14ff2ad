/*
store.go - Persistence interfaces for allocations, adjustments and resources

PURPOSE:
  Defines the interface between the engine and the database. Every read
  view recomputes from these interfaces on each call; nothing aggregated
  is ever stored.

KEY INTERFACES:
  AllocationStore: Phase-derived allocations, replaced per release
  AdjustmentStore: Manual weekly overrides, one per resource-week
  ResourceStore:   Resource profiles
  Store:           All three (what the API and CLI are wired with)

CELL WRITE CONTRACT:
  UpsertManualAdjustment is the engine's only user-facing write. It must be
  atomic per (ResourceID, WeekStart): concurrent writers to the same cell
  resolve last-writer-wins and a reader never sees a half-written cell.
  Writes to different cells must not block each other on a shared lock.

RELEASE REPLACEMENT:
  ReplaceReleaseAllocations swaps the complete allocation set of a release
  in one step. The assignment process regenerates a release's allocations
  wholesale, so there is no per-allocation update.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Windowed read view over these stores
*/
package generic

import "context"

// =============================================================================
// FILTERS
// =============================================================================

// AllocationFilter narrows ListAllocations. Zero value matches everything.
type AllocationFilter struct {
	ResourceIDs []ResourceID
	ReleaseID   *ReleaseID
	Overlapping *Period // allocation range shares at least one day
}

// Matches applies the filter in memory.
func (f AllocationFilter) Matches(a Allocation) bool {
	if len(f.ResourceIDs) > 0 && !containsResource(f.ResourceIDs, a.ResourceID) {
		return false
	}
	if f.ReleaseID != nil && a.ReleaseID != *f.ReleaseID {
		return false
	}
	if f.Overlapping != nil && !a.Period().Overlaps(*f.Overlapping) {
		return false
	}
	return true
}

// AdjustmentFilter narrows ListManualAdjustments. Zero value matches everything.
type AdjustmentFilter struct {
	ResourceIDs []ResourceID
	Within      *Period // WeekStart inside the period
}

func (f AdjustmentFilter) Matches(m ManualAdjustment) bool {
	if len(f.ResourceIDs) > 0 && !containsResource(f.ResourceIDs, m.ResourceID) {
		return false
	}
	if f.Within != nil && !f.Within.Contains(m.WeekStart) {
		return false
	}
	return true
}

func containsResource(ids []ResourceID, id ResourceID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// =============================================================================
// STORES
// =============================================================================

type AllocationStore interface {
	// ListAllocations returns matching allocations ordered by resource,
	// start date, then id.
	ListAllocations(ctx context.Context, filter AllocationFilter) ([]Allocation, error)

	// ReplaceReleaseAllocations atomically replaces every allocation of a
	// release. An empty slice removes the release's allocations.
	ReplaceReleaseAllocations(ctx context.Context, releaseID ReleaseID, allocs []Allocation) error
}

type AdjustmentStore interface {
	// ListManualAdjustments returns matching adjustments ordered by
	// resource, then week.
	ListManualAdjustments(ctx context.Context, filter AdjustmentFilter) ([]ManualAdjustment, error)

	// UpsertManualAdjustment creates or replaces the adjustment of one
	// resource-week. Atomic per cell.
	UpsertManualAdjustment(ctx context.Context, adj ManualAdjustment) error

	// DeleteManualAdjustment removes a cell override. Missing cells are a no-op.
	DeleteManualAdjustment(ctx context.Context, resourceID ResourceID, weekStart TimePoint) error
}

type ResourceStore interface {
	// GetResource returns nil, nil when the resource does not exist.
	GetResource(ctx context.Context, id ResourceID) (*Resource, error)

	// ListResources returns all resources ordered by id.
	ListResources(ctx context.Context) ([]Resource, error)

	SaveResource(ctx context.Context, r Resource) error
}

// Store is the full persistence surface.
type Store interface {
	AllocationStore
	AdjustmentStore
	ResourceStore
}
