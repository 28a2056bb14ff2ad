package matrix

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/generic"
)

// =============================================================================
// EDITOR - Single-cell writes
// =============================================================================

// Editor writes manual adjustments for matrix cells.
type Editor struct {
	Resources   generic.ResourceStore
	Adjustments generic.AdjustmentStore
	Now         func() time.Time
}

func NewEditor(resources generic.ResourceStore, adjustments generic.AdjustmentStore) *Editor {
	return &Editor{Resources: resources, Adjustments: adjustments, Now: time.Now}
}

// SetWeeklyAllocation makes personDays the total of the resource-week and
// returns the stored override. The cell keeps the id of its first write, so
// repeated writes return the same id.
func (e *Editor) SetWeeklyAllocation(ctx context.Context, resourceID generic.ResourceID, weekStart generic.TimePoint, personDays decimal.Decimal) (*generic.ManualAdjustment, error) {
	if personDays.IsNegative() {
		return nil, &generic.ValidationError{
			Field:   "person_days",
			Message: fmt.Sprintf("must be >= 0, got %s", personDays),
		}
	}
	if err := e.checkCell(ctx, resourceID, weekStart); err != nil {
		return nil, err
	}

	adj := generic.ManualAdjustment{
		ID:         generic.AdjustmentID(uuid.NewString()),
		ResourceID: resourceID,
		WeekStart:  weekStart,
		PersonDays: personDays,
		UpdatedAt:  e.Now().UTC(),
	}
	if err := e.Adjustments.UpsertManualAdjustment(ctx, adj); err != nil {
		return nil, fmt.Errorf("set weekly allocation: %w", err)
	}
	return e.storedCell(ctx, adj)
}

// storedCell re-reads the override just written. A concurrent writer to the
// same cell may have replaced it; the stored row wins.
func (e *Editor) storedCell(ctx context.Context, written generic.ManualAdjustment) (*generic.ManualAdjustment, error) {
	week := generic.Period{Start: written.WeekStart, End: written.WeekStart}
	adjs, err := e.Adjustments.ListManualAdjustments(ctx, generic.AdjustmentFilter{
		ResourceIDs: []generic.ResourceID{written.ResourceID},
		Within:      &week,
	})
	if err != nil {
		return nil, fmt.Errorf("set weekly allocation: %w", err)
	}
	for i := range adjs {
		if adjs[i].WeekStart.Equal(written.WeekStart) {
			return &adjs[i], nil
		}
	}
	// Cleared by a concurrent writer between the upsert and the read.
	return &written, nil
}

// ClearWeeklyAllocation removes the override of one resource-week.
func (e *Editor) ClearWeeklyAllocation(ctx context.Context, resourceID generic.ResourceID, weekStart generic.TimePoint) error {
	if err := e.checkCell(ctx, resourceID, weekStart); err != nil {
		return err
	}
	if err := e.Adjustments.DeleteManualAdjustment(ctx, resourceID, weekStart); err != nil {
		return fmt.Errorf("clear weekly allocation: %w", err)
	}
	return nil
}

func (e *Editor) checkCell(ctx context.Context, resourceID generic.ResourceID, weekStart generic.TimePoint) error {
	if !weekStart.IsMonday() {
		return &generic.ValidationError{
			Field:   "week_start",
			Message: fmt.Sprintf("%s is a %s, expected a Monday", weekStart, weekStart.Weekday()),
		}
	}
	r, err := e.Resources.GetResource(ctx, resourceID)
	if err != nil {
		return err
	}
	if r == nil {
		return &generic.NotFoundError{Kind: "resource", ID: string(resourceID)}
	}
	return nil
}
