package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/generic/store"
)

func TestMemory_UpsertIsLastWriterWinsAndKeepsID(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	week := generic.NewTimePoint(2025, time.January, 6)

	require.NoError(t, m.UpsertManualAdjustment(ctx, generic.ManualAdjustment{
		ID: "first", ResourceID: "r1", WeekStart: week, PersonDays: decimal.NewFromInt(2),
	}))
	require.NoError(t, m.UpsertManualAdjustment(ctx, generic.ManualAdjustment{
		ID: "second", ResourceID: "r1", WeekStart: week, PersonDays: decimal.NewFromInt(4),
	}))

	adjs, err := m.ListManualAdjustments(ctx, generic.AdjustmentFilter{})
	require.NoError(t, err)
	require.Len(t, adjs, 1)
	assert.Equal(t, generic.AdjustmentID("first"), adjs[0].ID)
	assert.True(t, adjs[0].PersonDays.Equal(decimal.NewFromInt(4)))
}

func TestMemory_ConcurrentCellWrites(t *testing.T) {
	// GIVEN: many goroutines writing to the same cell and to distinct cells
	// THEN: one record per cell, each holding one of the written values
	ctx := context.Background()
	m := store.NewMemory()
	week := generic.NewTimePoint(2025, time.January, 6)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = m.UpsertManualAdjustment(ctx, generic.ManualAdjustment{
				ID: generic.AdjustmentID(fmt.Sprintf("shared-%d", i)), ResourceID: "shared",
				WeekStart: week, PersonDays: decimal.NewFromInt(int64(i)),
			})
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = m.UpsertManualAdjustment(ctx, generic.ManualAdjustment{
				ID: generic.AdjustmentID(fmt.Sprintf("own-%d", i)), ResourceID: generic.ResourceID(fmt.Sprintf("r-%02d", i)),
				WeekStart: week, PersonDays: decimal.NewFromInt(1),
			})
		}(i)
	}
	wg.Wait()

	shared, err := m.ListManualAdjustments(ctx, generic.AdjustmentFilter{ResourceIDs: []generic.ResourceID{"shared"}})
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.True(t, shared[0].PersonDays.LessThan(decimal.NewFromInt(50)))

	all, err := m.ListManualAdjustments(ctx, generic.AdjustmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 51)
}

func TestMemory_DeleteManualAdjustment(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	week := generic.NewTimePoint(2025, time.January, 6)

	require.NoError(t, m.UpsertManualAdjustment(ctx, generic.ManualAdjustment{ResourceID: "r1", WeekStart: week, PersonDays: decimal.NewFromInt(1)}))
	require.NoError(t, m.DeleteManualAdjustment(ctx, "r1", week))
	require.NoError(t, m.DeleteManualAdjustment(ctx, "r1", week), "deleting a missing cell is a no-op")

	adjs, err := m.ListManualAdjustments(ctx, generic.AdjustmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, adjs)
}

func TestMemory_ReplaceReleaseAllocations(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	jan := generic.NewTimePoint(2025, time.January, 6)

	mk := func(id, release string) generic.Allocation {
		return generic.Allocation{
			ID: generic.AllocationID(id), ResourceID: "r1", ReleaseID: generic.ReleaseID(release),
			Phase: generic.PhaseBuild, StartDate: jan, EndDate: jan.AddDays(4), Factor: decimal.NewFromInt(1),
		}
	}
	require.NoError(t, m.ReplaceReleaseAllocations(ctx, "rel-1", []generic.Allocation{mk("a1", "rel-1"), mk("a2", "rel-1")}))
	require.NoError(t, m.ReplaceReleaseAllocations(ctx, "rel-2", []generic.Allocation{mk("b1", "rel-2")}))
	require.NoError(t, m.ReplaceReleaseAllocations(ctx, "rel-1", []generic.Allocation{mk("a3", "rel-1")}))

	rel1 := generic.ReleaseID("rel-1")
	got, err := m.ListAllocations(ctx, generic.AllocationFilter{ReleaseID: &rel1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, generic.AllocationID("a3"), got[0].ID)

	later := generic.Period{Start: jan.AddWeeks(4), End: jan.AddWeeks(5)}
	none, err := m.ListAllocations(ctx, generic.AllocationFilter{Overlapping: &later})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_Resources(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	r, err := m.GetResource(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, r)

	require.NoError(t, m.SaveResource(ctx, generic.Resource{ID: "b", Name: "Bea"}))
	require.NoError(t, m.SaveResource(ctx, generic.Resource{ID: "a", Name: "Ann"}))

	list, err := m.ListResources(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, generic.ResourceID("a"), list[0].ID)
}
