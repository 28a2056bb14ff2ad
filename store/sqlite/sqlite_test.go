package sqlite_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_AllocationsRoundTripExactly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	start := generic.NewTimePoint(2025, time.January, 8)

	a := generic.Allocation{
		ID: "a1", ResourceID: "r1", ReleaseID: "rel-1", Phase: generic.PhaseTest,
		StartDate: start, EndDate: start.AddDays(13), Factor: decimal.RequireFromString("0.333"),
	}
	a.Days = a.ComputeDays()
	require.NoError(t, store.ReplaceReleaseAllocations(ctx, "rel-1", []generic.Allocation{a}))

	got, err := store.ListAllocations(ctx, generic.AllocationFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, generic.PhaseTest, got[0].Phase)
	assert.True(t, got[0].StartDate.Equal(start))
	assert.True(t, got[0].Factor.Equal(a.Factor))
	assert.True(t, got[0].Days.Equal(a.Days))
}

func TestStore_AllocationFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	jan := generic.NewTimePoint(2025, time.January, 6)

	mk := func(id, res, rel string, start generic.TimePoint) generic.Allocation {
		return generic.Allocation{
			ID: generic.AllocationID(id), ResourceID: generic.ResourceID(res), ReleaseID: generic.ReleaseID(rel),
			Phase: generic.PhaseBuild, StartDate: start, EndDate: start.AddDays(4),
			Factor: decimal.NewFromInt(1), Days: decimal.NewFromInt(5),
		}
	}
	require.NoError(t, store.ReplaceReleaseAllocations(ctx, "rel-1", []generic.Allocation{
		mk("a1", "r1", "rel-1", jan),
		mk("a2", "r2", "rel-1", jan.AddWeeks(2)),
	}))
	require.NoError(t, store.ReplaceReleaseAllocations(ctx, "rel-2", []generic.Allocation{
		mk("b1", "r1", "rel-2", jan.AddWeeks(4)),
	}))

	byResource, err := store.ListAllocations(ctx, generic.AllocationFilter{ResourceIDs: []generic.ResourceID{"r1"}})
	require.NoError(t, err)
	assert.Len(t, byResource, 2)

	rel := generic.ReleaseID("rel-1")
	byRelease, err := store.ListAllocations(ctx, generic.AllocationFilter{ReleaseID: &rel})
	require.NoError(t, err)
	assert.Len(t, byRelease, 2)

	// Window touching only the last day of a1 and nothing else
	window := generic.Period{Start: jan.AddDays(4), End: jan.AddDays(10)}
	overlapping, err := store.ListAllocations(ctx, generic.AllocationFilter{Overlapping: &window})
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	assert.Equal(t, generic.AllocationID("a1"), overlapping[0].ID)

	// Replacing with nothing clears the release
	require.NoError(t, store.ReplaceReleaseAllocations(ctx, "rel-1", nil))
	all, err := store.ListAllocations(ctx, generic.AllocationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_UpsertManualAdjustment(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	week := generic.NewTimePoint(2025, time.January, 6)

	require.NoError(t, store.UpsertManualAdjustment(ctx, generic.ManualAdjustment{
		ID: "m1", ResourceID: "r1", WeekStart: week, PersonDays: decimal.RequireFromString("2.25"),
	}))
	require.NoError(t, store.UpsertManualAdjustment(ctx, generic.ManualAdjustment{
		ID: "m2", ResourceID: "r1", WeekStart: week, PersonDays: decimal.RequireFromString("3"),
	}))
	require.NoError(t, store.UpsertManualAdjustment(ctx, generic.ManualAdjustment{
		ResourceID: "r1", WeekStart: week.AddWeeks(1), PersonDays: decimal.Zero,
	}))

	within := generic.Period{Start: week, End: week.AddDays(6)}
	got, err := store.ListManualAdjustments(ctx, generic.AdjustmentFilter{Within: &within})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, generic.AdjustmentID("m1"), got[0].ID, "row id survives rewrites")
	assert.True(t, got[0].PersonDays.Equal(decimal.NewFromInt(3)))
	assert.True(t, got[0].WeekStart.Equal(week))

	all, err := store.ListManualAdjustments(ctx, generic.AdjustmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.NotEmpty(t, all[1].ID, "missing id is generated")

	require.NoError(t, store.DeleteManualAdjustment(ctx, "r1", week))
	all, err = store.ListManualAdjustments(ctx, generic.AdjustmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_UnreadableAdjustmentTimestampIsLogged(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	var logs bytes.Buffer
	store.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	week := generic.NewTimePoint(2025, time.January, 6)

	require.NoError(t, store.UpsertManualAdjustment(ctx, generic.ManualAdjustment{
		ID: "m1", ResourceID: "r1", WeekStart: week, PersonDays: decimal.RequireFromString("2"),
	}))
	require.NoError(t, store.ExecRaw(ctx, `UPDATE manual_adjustments SET updated_at = 'yesterday' WHERE id = ?`, "m1"))

	got, err := store.ListManualAdjustments(ctx, generic.AdjustmentFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1, "override still applies")
	assert.True(t, got[0].PersonDays.Equal(decimal.NewFromInt(2)))
	assert.True(t, got[0].UpdatedAt.IsZero())

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "unreadable manual adjustment timestamp")
	assert.Contains(t, logs.String(), "adjustment_id=m1")
	assert.Contains(t, logs.String(), "updated_at=yesterday")
}

func TestStore_ConcurrentUpsertsSameCell(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	week := generic.NewTimePoint(2025, time.January, 6)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.UpsertManualAdjustment(ctx, generic.ManualAdjustment{
				ResourceID: "r1", WeekStart: week, PersonDays: decimal.NewFromInt(int64(i)),
			}))
		}(i)
	}
	wg.Wait()

	got, err := store.ListManualAdjustments(ctx, generic.AdjustmentFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].PersonDays.IsPositive())
}

func TestStore_Resources(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	missing, err := store.GetResource(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	r := generic.Resource{
		ID: "r1", Name: "Ada", Grade: "senior", SkillFunction: "engineering",
		SkillSubFunction: "backend", ProfileRef: "hr://ada", Active: true,
	}
	require.NoError(t, store.SaveResource(ctx, r))
	r.Active = false
	require.NoError(t, store.SaveResource(ctx, r))

	got, err := store.GetResource(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, r, *got)

	require.NoError(t, store.SaveResource(ctx, generic.Resource{ID: "r0", Name: "Bob"}))
	list, err := store.ListResources(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, generic.ResourceID("r0"), list[0].ID)
	assert.Empty(t, list[0].Grade)

	require.NoError(t, store.Reset(ctx))
	list, err = store.ListResources(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
