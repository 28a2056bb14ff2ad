package generic_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/generic/store"
)

func TestWeeklyBalance_ExactlyAtCapacityIsNotOverAllocated(t *testing.T) {
	policy := generic.NewCapacityPolicy(dec("4.5"))
	b := policy.Balance(date(2025, time.January, 6), dec("4.5"))

	assert.False(t, b.IsOverAllocated())
	assert.True(t, b.OverAllocation().IsZero())
	assert.True(t, b.Available().IsZero())
	assertDays(t, "100", b.UtilizationPercent())
}

func TestWeeklyBalance_AvailabilityClampedAtZero(t *testing.T) {
	b := generic.WeeklyBalance{Allocated: dec("10"), Capacity: dec("9")}

	assert.True(t, b.IsOverAllocated())
	assertDays(t, "1", b.OverAllocation())
	assert.True(t, b.Available().IsZero())
	assert.Equal(t, "111.11", b.UtilizationPercent().StringFixed(2))
}

func TestCapacityPolicy_DefaultsAndGroups(t *testing.T) {
	p := generic.NewCapacityPolicy(decimal.Zero)
	assertDays(t, "4.5", p.PerResource)
	assertDays(t, "9", p.ForResources(2))
	assertDays(t, "0", p.ForResources(0))

	zero := generic.WeeklyBalance{Allocated: dec("1"), Capacity: decimal.Zero}
	assert.True(t, zero.UtilizationPercent().IsZero())
}

func TestLedger_LoadWidensToWholeWeeksAndExtent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	ledger := generic.NewLedger(mem, mem)

	monday := date(2025, time.January, 6)
	require.NoError(t, mem.ReplaceReleaseAllocations(ctx, "rel-1", []generic.Allocation{
		alloc("a1", "r1", monday, monday, "1"),
		alloc("a2", "r2", monday.AddWeeks(3), monday.AddWeeks(3).AddDays(2), "1"),
	}))
	require.NoError(t, mem.UpsertManualAdjustment(ctx, generic.ManualAdjustment{
		ID: "m1", ResourceID: "r3", WeekStart: monday.AddWeeks(6), PersonDays: dec("1"),
	}))

	// GIVEN: a window starting Wednesday of the allocation's week
	view, err := ledger.Load(ctx, generic.Period{Start: monday.AddDays(2), End: monday.AddDays(3)}, nil)
	require.NoError(t, err)
	require.Len(t, view.Allocations, 1, "Monday allocation still counts for the week")
	assert.Equal(t, map[generic.ResourceID]bool{"r1": true}, view.ResourceIDs())

	extent, ok, err := ledger.Extent(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, monday.String(), extent.Start.String())
	assert.Equal(t, monday.AddWeeks(6).AddDays(6).String(), extent.End.String())
}

func TestLedger_ExtentEmptyStore(t *testing.T) {
	mem := store.NewMemory()
	_, ok, err := generic.NewLedger(mem, mem).Extent(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
