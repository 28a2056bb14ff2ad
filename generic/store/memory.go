// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps allocations and resources under one RWMutex. Manual
// adjustments live in a sync.Map keyed by cell so that each cell write is a
// single atomic swap and writers to different cells never contend.
type Memory struct {
	mu          sync.RWMutex
	allocations map[generic.ReleaseID][]generic.Allocation
	resources   map[generic.ResourceID]generic.Resource

	adjustments sync.Map // generic.CellKey -> *generic.ManualAdjustment
}

func NewMemory() *Memory {
	return &Memory{
		allocations: make(map[generic.ReleaseID][]generic.Allocation),
		resources:   make(map[generic.ResourceID]generic.Resource),
	}
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (m *Memory) ListAllocations(_ context.Context, filter generic.AllocationFilter) ([]generic.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.Allocation
	for _, allocs := range m.allocations {
		for _, a := range allocs {
			if filter.Matches(a) {
				result = append(result, a)
			}
		}
	}
	sortAllocations(result)
	return result, nil
}

// ReplaceReleaseAllocations swaps the release's slice under the write lock.
func (m *Memory) ReplaceReleaseAllocations(_ context.Context, releaseID generic.ReleaseID, allocs []generic.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(allocs) == 0 {
		delete(m.allocations, releaseID)
		return nil
	}
	m.allocations[releaseID] = append([]generic.Allocation(nil), allocs...)
	return nil
}

func sortAllocations(allocs []generic.Allocation) {
	sort.Slice(allocs, func(i, j int) bool {
		if allocs[i].ResourceID != allocs[j].ResourceID {
			return allocs[i].ResourceID < allocs[j].ResourceID
		}
		if !allocs[i].StartDate.Equal(allocs[j].StartDate) {
			return allocs[i].StartDate.Before(allocs[j].StartDate)
		}
		return allocs[i].ID < allocs[j].ID
	})
}

// =============================================================================
// MANUAL ADJUSTMENTS
// =============================================================================

func (m *Memory) ListManualAdjustments(_ context.Context, filter generic.AdjustmentFilter) ([]generic.ManualAdjustment, error) {
	var result []generic.ManualAdjustment
	m.adjustments.Range(func(_, v any) bool {
		adj := *v.(*generic.ManualAdjustment)
		if filter.Matches(adj) {
			result = append(result, adj)
		}
		return true
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].ResourceID != result[j].ResourceID {
			return result[i].ResourceID < result[j].ResourceID
		}
		return result[i].WeekStart.Before(result[j].WeekStart)
	})
	return result, nil
}

// UpsertManualAdjustment keeps the first id ever stored for the cell and
// replaces everything else. Last writer wins.
func (m *Memory) UpsertManualAdjustment(_ context.Context, adj generic.ManualAdjustment) error {
	k := adj.Cell()
	next := adj
	for {
		prev, loaded := m.adjustments.LoadOrStore(k, &next)
		if !loaded {
			return nil
		}
		replacement := adj
		replacement.ID = prev.(*generic.ManualAdjustment).ID
		if m.adjustments.CompareAndSwap(k, prev, &replacement) {
			return nil
		}
	}
}

func (m *Memory) DeleteManualAdjustment(_ context.Context, resourceID generic.ResourceID, weekStart generic.TimePoint) error {
	m.adjustments.Delete(generic.CellKey{ResourceID: resourceID, WeekStart: weekStart.String()})
	return nil
}

// =============================================================================
// RESOURCES
// =============================================================================

func (m *Memory) GetResource(_ context.Context, id generic.ResourceID) (*generic.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.resources[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) ListResources(_ context.Context) ([]generic.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Resource, 0, len(m.resources))
	for _, r := range m.resources {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveResource(_ context.Context, r generic.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[r.ID] = r
	return nil
}

// Reset drops everything. Used by the demo scenario loader.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocations = make(map[generic.ReleaseID][]generic.Allocation)
	m.resources = make(map[generic.ResourceID]generic.Resource)
	m.adjustments.Range(func(k, _ any) bool {
		m.adjustments.Delete(k)
		return true
	})
	return nil
}

var _ generic.Store = (*Memory)(nil)
