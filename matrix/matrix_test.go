package matrix_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/generic/store"
	"github.com/warp/allocation-engine/matrix"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	mem     *store.Memory
	builder *matrix.Builder
	editor  *matrix.Editor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	agg := generic.NewWeeklyAggregator(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	return &fixture{
		mem:     mem,
		builder: matrix.NewBuilder(mem, generic.NewLedger(mem, mem), agg, matrix.DefaultWindowConfig()),
		editor:  matrix.NewEditor(mem, mem),
	}
}

func (f *fixture) resource(t *testing.T, id, name string, active bool) {
	t.Helper()
	require.NoError(t, f.mem.SaveResource(context.Background(), generic.Resource{
		ID: generic.ResourceID(id), Name: name, SkillFunction: "engineering", SkillSubFunction: "backend", Active: active,
	}))
}

func (f *fixture) allocate(t *testing.T, release string, allocs ...generic.Allocation) {
	t.Helper()
	for i := range allocs {
		allocs[i].ReleaseID = generic.ReleaseID(release)
		allocs[i].Days = allocs[i].ComputeDays()
	}
	require.NoError(t, f.mem.ReplaceReleaseAllocations(context.Background(), generic.ReleaseID(release), allocs))
}

var week = generic.NewTimePoint(2025, time.March, 3) // Monday

func fullWeek(id, resource, factor string, w generic.TimePoint) generic.Allocation {
	return generic.Allocation{
		ID: generic.AllocationID(id), ResourceID: generic.ResourceID(resource), Phase: generic.PhaseBuild,
		StartDate: w, EndDate: w.AddDays(4), Factor: decimal.RequireFromString(factor),
	}
}

// =============================================================================
// WINDOW
// =============================================================================

func TestWindowAround_DefaultSpan(t *testing.T) {
	w := matrix.WindowAround(week.AddDays(3), matrix.DefaultWindowConfig())

	assert.Equal(t, "2025-02-03", w.StartWeek.String())
	assert.Equal(t, "2025-05-26", w.EndWeek.String())
	assert.Equal(t, 17, w.TotalWeeks)
	assert.Equal(t, "2025-06-01", w.Period().End.String())
}

// =============================================================================
// BUILD
// =============================================================================

func TestBuild_RowsForActiveAndAllocatedResources(t *testing.T) {
	// GIVEN: an active resource with nothing, an inactive one with an
	//        allocation, an inactive one without, and an unknown id
	f := newFixture(t)
	f.resource(t, "r-b", "Bea", true)
	f.resource(t, "r-a", "Ann", false)
	f.resource(t, "r-z", "Zed", false)
	f.allocate(t, "rel-1",
		fullWeek("a1", "r-a", "0.5", week),
		fullWeek("a2", "ghost", "1", week.AddWeeks(1)),
	)

	m, err := f.builder.Build(context.Background(), week)
	require.NoError(t, err)

	// THEN: ordered by name; the inactive resource without data is omitted
	require.Len(t, m.Resources, 3)
	assert.Equal(t, "Ann", m.Resources[0].Name)
	assert.Equal(t, "Bea", m.Resources[1].Name)
	assert.Equal(t, generic.ResourceID("ghost"), m.Resources[2].ResourceID)

	for _, row := range m.Resources {
		assert.Len(t, row.Weeks, m.TimeWindow.TotalWeeks, "row %s is dense", row.ResourceID)
	}

	cell, ok := m.Cell("r-a", week)
	require.True(t, ok)
	assert.Equal(t, "2.5", cell.Days.String())

	empty, ok := m.Cell("r-b", week)
	require.True(t, ok)
	assert.True(t, empty.Days.IsZero())
}

func TestBuild_SameNameOrderedByID(t *testing.T) {
	f := newFixture(t)
	f.resource(t, "r-2", "Sam", true)
	f.resource(t, "r-1", "Sam", true)

	m, err := f.builder.Build(context.Background(), week)
	require.NoError(t, err)
	require.Len(t, m.Resources, 2)
	assert.Equal(t, generic.ResourceID("r-1"), m.Resources[0].ResourceID)
}

// =============================================================================
// EDIT
// =============================================================================

func TestSetWeeklyAllocation_ReadBackReturnsWrittenValue(t *testing.T) {
	// GIVEN: phase allocations giving 4.0 in week W
	ctx := context.Background()
	f := newFixture(t)
	f.resource(t, "r1", "Ann", true)
	f.allocate(t, "rel-1",
		fullWeek("a1", "r1", "0.5", week),
		fullWeek("a2", "r1", "0.3", week),
	)

	m, err := f.builder.Build(ctx, week)
	require.NoError(t, err)
	before, _ := m.Cell("r1", week)
	assert.Equal(t, "4", before.Days.String())

	// WHEN: the planner sets the week to 3.0
	_, err = f.editor.SetWeeklyAllocation(ctx, "r1", week, decimal.NewFromInt(3))
	require.NoError(t, err)

	// THEN: the matrix shows 3.0 and the phase allocations are untouched
	m, err = f.builder.Build(ctx, week)
	require.NoError(t, err)
	after, _ := m.Cell("r1", week)
	assert.Equal(t, "3", after.Days.String())

	allocs, err := f.mem.ListAllocations(ctx, generic.AllocationFilter{})
	require.NoError(t, err)
	assert.Len(t, allocs, 2)
}

func TestSetWeeklyAllocation_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.resource(t, "r1", "Ann", true)

	var ids []generic.AdjustmentID
	for _, v := range []string{"1.5", "2", "1.5"} {
		adj, err := f.editor.SetWeeklyAllocation(ctx, "r1", week, decimal.RequireFromString(v))
		require.NoError(t, err)
		assert.Equal(t, v, adj.PersonDays.String())
		ids = append(ids, adj.ID)
	}

	adjs, err := f.mem.ListManualAdjustments(ctx, generic.AdjustmentFilter{})
	require.NoError(t, err)
	require.Len(t, adjs, 1)
	assert.Equal(t, "1.5", adjs[0].PersonDays.String())

	// Every write reports the id actually stored for the cell
	for _, id := range ids {
		assert.Equal(t, adjs[0].ID, id)
	}
}

func TestSetWeeklyAllocation_ZeroClearsWeek(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.resource(t, "r1", "Ann", true)
	f.allocate(t, "rel-1", fullWeek("a1", "r1", "1", week))

	_, err := f.editor.SetWeeklyAllocation(ctx, "r1", week, decimal.Zero)
	require.NoError(t, err)

	m, err := f.builder.Build(ctx, week)
	require.NoError(t, err)
	cell, _ := m.Cell("r1", week)
	assert.True(t, cell.Days.IsZero())

	// Clearing the override falls back to the phase-derived figure
	require.NoError(t, f.editor.ClearWeeklyAllocation(ctx, "r1", week))
	m, err = f.builder.Build(ctx, week)
	require.NoError(t, err)
	cell, _ = m.Cell("r1", week)
	assert.Equal(t, "5", cell.Days.String())
}

func TestSetWeeklyAllocation_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.resource(t, "r1", "Ann", true)

	_, err := f.editor.SetWeeklyAllocation(ctx, "r1", week, decimal.NewFromInt(-1))
	require.Error(t, err)
	assert.True(t, generic.IsClientError(err))

	_, err = f.editor.SetWeeklyAllocation(ctx, "r1", week.AddDays(1), decimal.NewFromInt(1))
	var verr *generic.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "week_start", verr.Field)

	_, err = f.editor.SetWeeklyAllocation(ctx, "nobody", week, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.True(t, generic.IsNotFound(err))

	// Validation runs before the lookup
	_, err = f.editor.SetWeeklyAllocation(ctx, "nobody", week, decimal.NewFromInt(-1))
	assert.True(t, generic.IsClientError(err))

	adjs, err := f.mem.ListManualAdjustments(ctx, generic.AdjustmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, adjs, "failed writes store nothing")
}
